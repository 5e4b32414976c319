package models

// GORM models

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatQuery is one /chat call, successful or not.
type ChatQuery struct {
	BaseModel
	QueryText      string         `json:"query_text" gorm:"not null"`
	RequestID      string         `json:"request_id" gorm:"index"`
	UserSession    string         `json:"-" gorm:"index"`
	ResponseID     string         `json:"response_id"`
	AnswerLength   int            `json:"answer_length"`
	Sources        pq.StringArray `json:"sources" gorm:"type:text[]"`
	Success        bool           `json:"success"`
	Cached         bool           `json:"cached"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	ResponseTimeMs int            `json:"response_time_ms"`
	UserAgent      string         `json:"-"`
	IPAddress      string         `json:"-"`
}

// SeededDocument tracks pages the seeder uploaded to the vector store.
type SeededDocument struct {
	BaseModel
	PageURL     string     `json:"page_url" gorm:"uniqueIndex;not null"`
	Title       string     `json:"title"`
	FileName    string     `json:"file_name"`
	FileID      string     `json:"file_id"`
	ContentHash string     `json:"content_hash"`
	WordCount   int        `json:"word_count"`
	Status      string     `json:"status" gorm:"default:'pending'"`
	LastCrawled *time.Time `json:"last_crawled"`
}

const (
	SeedStatusPending   = "pending"
	SeedStatusCompleted = "completed"
	SeedStatusFailed    = "failed"
)

// Database interfaces for repository pattern
type ChatQueryRepository interface {
	Create(query *ChatQuery) error
	GetRecent(limit int) ([]ChatQuery, error)
	GetBySession(session string, limit int) ([]ChatQuery, error)
}

type SeededDocumentRepository interface {
	GetByURL(pageURL string) (*SeededDocument, error)
	Save(doc *SeededDocument) error
}

// TableName methods for custom table names
func (ChatQuery) TableName() string      { return "chat_queries" }
func (SeededDocument) TableName() string { return "seeded_documents" }

// Model validation methods
func (cq *ChatQuery) Validate() error {
	if cq.QueryText == "" {
		return fmt.Errorf("query text is required")
	}
	if cq.ResponseTimeMs < 0 {
		return fmt.Errorf("response time cannot be negative")
	}
	return nil
}

func (sd *SeededDocument) Validate() error {
	if sd.PageURL == "" {
		return fmt.Errorf("page url is required")
	}
	switch sd.Status {
	case SeedStatusPending, SeedStatusCompleted, SeedStatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid seed status: %s", sd.Status)
	}
}

// GORM hooks
func (cq *ChatQuery) BeforeCreate(tx *gorm.DB) error {
	return cq.Validate()
}

func (sd *SeededDocument) BeforeSave(tx *gorm.DB) error {
	return sd.Validate()
}
