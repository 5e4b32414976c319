package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Ayash-Bera/docchat/internal/database"
	"github.com/Ayash-Bera/docchat/internal/metrics"
	"github.com/Ayash-Bera/docchat/internal/models"
	"github.com/Ayash-Bera/docchat/internal/responses"
	"github.com/Ayash-Bera/docchat/pkg/utils"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyQuery   = errors.New("query is required")
	ErrQueryTooLong = errors.New("query is too long")
)

// Relay answers one query against the hosted search API.
type Relay interface {
	Ask(ctx context.Context, query string) (*responses.Answer, error)
}

type ChatConfig struct {
	Model          string
	MaxQueryLength int
	Timeout        time.Duration
}

type ChatService struct {
	relay    Relay
	cache    *database.Cache
	queryLog models.ChatQueryRepository
	config   ChatConfig
	logger   *logrus.Logger
}

// NewChatService wires the relay with the optional answer cache and query
// log. Either may be nil.
func NewChatService(
	relay Relay,
	cache *database.Cache,
	queryLog models.ChatQueryRepository,
	config ChatConfig,
	logger *logrus.Logger,
) *ChatService {
	return &ChatService{
		relay:    relay,
		cache:    cache,
		queryLog: queryLog,
		config:   config,
		logger:   logger,
	}
}

// QueryLogEnabled reports whether recent queries can be listed.
func (s *ChatService) QueryLogEnabled() bool {
	return s.queryLog != nil
}

// Answer validates the query and relays it. Validation failures wrap
// ErrEmptyQuery or ErrQueryTooLong; every other error comes from the relay.
func (s *ChatService) Answer(ctx context.Context, input models.ChatInput) (*models.ChatResponse, error) {
	start := time.Now()

	query := strings.TrimSpace(input.Query)
	if query == "" {
		metrics.ChatRequests.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, ErrEmptyQuery
	}
	if s.config.MaxQueryLength > 0 && utf8.RuneCountInString(query) > s.config.MaxQueryLength {
		metrics.ChatRequests.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, fmt.Errorf("%w (max %d characters)", ErrQueryTooLong, s.config.MaxQueryLength)
	}

	entry := &models.ChatQuery{
		QueryText:   query,
		RequestID:   input.RequestID,
		UserSession: input.UserSession,
		UserAgent:   input.UserAgent,
		IPAddress:   input.IPAddress,
	}

	cacheKey := utils.MD5Hash(utils.NormalizeQuery(query))
	if cached := s.lookupCache(ctx, cacheKey); cached != nil {
		metrics.ChatRequests.WithLabelValues(metrics.OutcomeCached).Inc()
		entry.Cached = true
		s.record(entry, cached, nil, start)
		return cached, nil
	}

	answer, err := s.ask(ctx, query)
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = metrics.OutcomeTimedOut
		}
		metrics.ChatRequests.WithLabelValues(outcome).Inc()

		s.logger.WithError(err).WithFields(logrus.Fields{
			"request_id": input.RequestID,
			"query":      query,
		}).Error("Chat request failed")

		s.record(entry, nil, err, start)
		return nil, err
	}

	resp := &models.ChatResponse{
		Answer:  answer.Text,
		Sources: answer.Sources,
		Success: true,
	}
	if resp.Sources == nil {
		resp.Sources = []string{}
	}

	metrics.ChatRequests.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.SourcesReturned.Observe(float64(len(resp.Sources)))

	if s.cache != nil {
		if err := s.cache.CacheAnswer(ctx, cacheKey, resp); err != nil {
			s.logger.WithError(err).Warn("Failed to cache answer")
		}
	}

	entry.ResponseID = answer.ResponseID
	s.record(entry, resp, nil, start)

	return resp, nil
}

func (s *ChatService) ask(ctx context.Context, query string) (*responses.Answer, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := s.relay.Ask(ctx, query)
	metrics.UpstreamDuration.WithLabelValues(s.config.Model).Observe(time.Since(start).Seconds())

	return answer, err
}

func (s *ChatService) lookupCache(ctx context.Context, key string) *models.ChatResponse {
	if s.cache == nil {
		return nil
	}

	cached, err := s.cache.GetCachedAnswer(ctx, key)
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		s.logger.WithField("cache_key", key).Debug("Answer served from cache")
		return cached
	case errors.Is(err, database.ErrCacheMiss):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	case errors.Is(err, database.ErrCorruptEntry):
		metrics.CacheLookups.WithLabelValues("error").Inc()
		s.logger.WithError(err).WithField("cache_key", key).Warn("Dropping unreadable cached answer")
		if err := s.cache.InvalidateAnswer(ctx, key); err != nil {
			s.logger.WithError(err).Warn("Failed to drop cached answer")
		}
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		s.logger.WithError(err).Warn("Answer cache lookup failed")
	}
	return nil
}

// record writes the query log row. Failures are logged only.
func (s *ChatService) record(entry *models.ChatQuery, resp *models.ChatResponse, chatErr error, start time.Time) {
	if s.queryLog == nil {
		return
	}

	entry.ResponseTimeMs = int(time.Since(start).Milliseconds())
	if chatErr != nil {
		entry.ErrorMessage = chatErr.Error()
	} else if resp != nil {
		entry.Success = true
		entry.AnswerLength = len(resp.Answer)
		entry.Sources = resp.Sources
	}

	if err := s.queryLog.Create(entry); err != nil {
		s.logger.WithError(err).Warn("Failed to record chat query")
	}
}

// Recent lists the latest logged queries, newest first. A non-empty session
// restricts the list to that session.
func (s *ChatService) Recent(session string, limit int) ([]models.RecentQuery, error) {
	if s.queryLog == nil {
		return nil, errors.New("query log is not enabled")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var (
		entries []models.ChatQuery
		err     error
	)
	if session != "" {
		entries, err = s.queryLog.GetBySession(session, limit)
	} else {
		entries, err = s.queryLog.GetRecent(limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recent queries: %w", err)
	}

	recent := make([]models.RecentQuery, 0, len(entries))
	for _, e := range entries {
		recent = append(recent, models.NewRecentQuery(e))
	}
	return recent, nil
}
