package responses

import "fmt"

// Request models
type CreateRequest struct {
	Model        string      `json:"model"`
	Input        []InputItem `json:"input"`
	Tools        []Tool      `json:"tools,omitempty"`
	Instructions string      `json:"instructions,omitempty"`
	Metadata     interface{} `json:"metadata,omitempty"`
}

type InputItem struct {
	Role    string         `json:"role"`
	Content []InputContent `json:"content"`
}

type InputContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type Tool struct {
	Type           string   `json:"type"`
	VectorStoreIDs []string `json:"vector_store_ids,omitempty"`
	MaxNumResults  int      `json:"max_num_results,omitempty"`
}

// Response models
type Response struct {
	ID     string       `json:"id"`
	Object string       `json:"object"`
	Status string       `json:"status"`
	Model  string       `json:"model"`
	Output []OutputItem `json:"output"`
	Usage  *Usage       `json:"usage,omitempty"`
}

// OutputItem is a union over the output item types; only the fields this
// service reads are declared.
type OutputItem struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Status  string          `json:"status,omitempty"`
	Role    string          `json:"role,omitempty"`
	Content []OutputContent `json:"content,omitempty"`
	Queries []string        `json:"queries,omitempty"`
}

type OutputContent struct {
	Type        string       `json:"type"`
	Text        string       `json:"text"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

type Annotation struct {
	Type     string `json:"type"`
	Index    int    `json:"index"`
	FileID   string `json:"file_id,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

const (
	RoleUser            = "user"
	InputTypeText       = "input_text"
	ToolTypeFileSearch  = "file_search"
	OutputTypeMessage   = "message"
	ContentTypeText     = "output_text"
	AnnotationFileCited = "file_citation"
)

type errorEnvelope struct {
	Error *struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// APIError is returned for any non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("API request failed with status %d (%s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed when sent again.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
