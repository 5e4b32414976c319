package responses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrNoAnswer is returned when the response carries no assistant text.
var ErrNoAnswer = errors.New("response contains no answer text")

// Answer is the part of a response the chat endpoint relays.
type Answer struct {
	Text       string
	Sources    []string
	ResponseID string
	Model      string
}

type SearchConfig struct {
	Model         string
	VectorStoreID string
	MaxNumResults int
	Instructions  string
}

type Service struct {
	client *Client
	search SearchConfig
	logger *logrus.Logger
}

func NewService(client *Client, search SearchConfig, logger *logrus.Logger) *Service {
	return &Service{
		client: client,
		search: search,
		logger: logger,
	}
}

// BuildRequest wraps the query in a single user message and attaches the
// file_search tool for the configured vector store.
func (s *Service) BuildRequest(query string) CreateRequest {
	return CreateRequest{
		Model: s.search.Model,
		Input: []InputItem{{
			Role: RoleUser,
			Content: []InputContent{{
				Type: InputTypeText,
				Text: query,
			}},
		}},
		Tools: []Tool{{
			Type:           ToolTypeFileSearch,
			VectorStoreIDs: []string{s.search.VectorStoreID},
			MaxNumResults:  s.search.MaxNumResults,
		}},
		Instructions: s.search.Instructions,
	}
}

func (s *Service) Ask(ctx context.Context, query string) (*Answer, error) {
	resp, err := s.client.Create(ctx, s.BuildRequest(query))
	if err != nil {
		return nil, err
	}

	answer, err := ExtractAnswer(resp)
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"response_id":   answer.ResponseID,
		"model":         answer.Model,
		"answer_length": len(answer.Text),
		"sources":       len(answer.Sources),
	}
	if resp.Usage != nil {
		fields["total_tokens"] = resp.Usage.TotalTokens
	}
	s.logger.WithFields(fields).Debug("Answer extracted")

	return answer, nil
}

// ExtractAnswer takes the first output_text part of the first message item
// and the deduplicated filenames of its file citations, in citation order.
func ExtractAnswer(resp *Response) (*Answer, error) {
	if resp == nil {
		return nil, ErrNoAnswer
	}

	for _, item := range resp.Output {
		if item.Type != OutputTypeMessage {
			continue
		}
		for _, part := range item.Content {
			if part.Type != ContentTypeText {
				continue
			}
			return &Answer{
				Text:       part.Text,
				Sources:    citedFilenames(part.Annotations),
				ResponseID: resp.ID,
				Model:      resp.Model,
			}, nil
		}
		return nil, fmt.Errorf("%w: message %s has no %s content", ErrNoAnswer, item.ID, ContentTypeText)
	}

	if resp.Status != "" && resp.Status != "completed" {
		return nil, fmt.Errorf("%w: response status %q", ErrNoAnswer, resp.Status)
	}
	return nil, ErrNoAnswer
}

func citedFilenames(annotations []Annotation) []string {
	sources := make([]string, 0, len(annotations))
	seen := make(map[string]bool, len(annotations))

	for _, a := range annotations {
		name := strings.TrimSpace(a.Filename)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		sources = append(sources, name)
	}
	return sources
}
