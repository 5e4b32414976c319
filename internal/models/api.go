package models

import "time"

type ChatRequest struct {
	Query string `json:"query"`
}

// ChatResponse is the success body of POST /chat.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
	Success bool     `json:"success"`
}

// ChatInput carries the query plus the request attributes kept in the
// query log.
type ChatInput struct {
	Query       string
	RequestID   string
	UserSession string
	UserAgent   string
	IPAddress   string
}

// RecentQuery is the public view of a logged query. Client attributes are
// left out.
type RecentQuery struct {
	ID             uint      `json:"id"`
	QueryText      string    `json:"query_text"`
	Success        bool      `json:"success"`
	Cached         bool      `json:"cached"`
	Sources        []string  `json:"sources"`
	ResponseTimeMs int       `json:"response_time_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewRecentQuery(q ChatQuery) RecentQuery {
	sources := []string(q.Sources)
	if sources == nil {
		sources = []string{}
	}
	return RecentQuery{
		ID:             q.ID,
		QueryText:      q.QueryText,
		Success:        q.Success,
		Cached:         q.Cached,
		Sources:        sources,
		ResponseTimeMs: q.ResponseTimeMs,
		CreatedAt:      q.CreatedAt,
	}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}
