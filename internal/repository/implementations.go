package repository

import (
	"errors"

	"github.com/Ayash-Bera/docchat/internal/models"
	"gorm.io/gorm"
)

// ChatQueryRepositoryImpl implements ChatQueryRepository
type ChatQueryRepositoryImpl struct {
	db *gorm.DB
}

func NewChatQueryRepository(db *gorm.DB) models.ChatQueryRepository {
	return &ChatQueryRepositoryImpl{db: db}
}

func (r *ChatQueryRepositoryImpl) Create(query *models.ChatQuery) error {
	return r.db.Create(query).Error
}

func (r *ChatQueryRepositoryImpl) GetRecent(limit int) ([]models.ChatQuery, error) {
	var queries []models.ChatQuery
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Find(&queries).Error
	return queries, err
}

func (r *ChatQueryRepositoryImpl) GetBySession(session string, limit int) ([]models.ChatQuery, error) {
	var queries []models.ChatQuery
	err := r.db.Where("user_session = ?", session).
		Order("created_at DESC").
		Limit(limit).
		Find(&queries).Error
	return queries, err
}

// SeededDocumentRepositoryImpl implements SeededDocumentRepository
type SeededDocumentRepositoryImpl struct {
	db *gorm.DB
}

func NewSeededDocumentRepository(db *gorm.DB) models.SeededDocumentRepository {
	return &SeededDocumentRepositoryImpl{db: db}
}

// GetByURL returns gorm.ErrRecordNotFound when the page was never seeded.
func (r *SeededDocumentRepositoryImpl) GetByURL(pageURL string) (*models.SeededDocument, error) {
	var doc models.SeededDocument
	err := r.db.Where("page_url = ?", pageURL).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *SeededDocumentRepositoryImpl) Save(doc *models.SeededDocument) error {
	return r.db.Save(doc).Error
}

// RepositoryManager aggregates all repositories
type RepositoryManager struct {
	ChatQuery      models.ChatQueryRepository
	SeededDocument models.SeededDocumentRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		ChatQuery:      NewChatQueryRepository(db),
		SeededDocument: NewSeededDocumentRepository(db),
	}
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
