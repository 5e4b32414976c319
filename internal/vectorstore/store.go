// Package vectorstore wraps the hosted vector store the chat endpoint
// searches. Retrieval happens remotely; this package only checks the store
// and adds documents to it.
package vectorstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

type Store struct {
	client        *openai.Client
	vectorStoreID string
	logger        *logrus.Logger
}

type Config struct {
	APIKey        string
	BaseURL       string
	Organization  string
	VectorStoreID string
}

func New(cfg Config, logger *logrus.Logger) *Store {
	oaiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oaiCfg.OrgID = cfg.Organization

	return &Store{
		client:        openai.NewClientWithConfig(oaiCfg),
		vectorStoreID: cfg.VectorStoreID,
		logger:        logger,
	}
}

// Info summarizes the remote store.
type Info struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	FilesCompleted int    `json:"files_completed"`
	FilesTotal     int    `json:"files_total"`
}

// Check retrieves the configured vector store and fails if it is unknown or
// the credentials are rejected.
func (s *Store) Check(ctx context.Context) (*Info, error) {
	vs, err := s.client.RetrieveVectorStore(ctx, s.vectorStoreID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve vector store %s: %w", s.vectorStoreID, err)
	}

	return &Info{
		ID:             vs.ID,
		Name:           vs.Name,
		FilesCompleted: vs.FileCounts.Completed,
		FilesTotal:     vs.FileCounts.Total,
	}, nil
}

// Upload stores content as a file and attaches it to the vector store.
// It returns the uploaded file id.
func (s *Store) Upload(ctx context.Context, name string, content []byte) (string, error) {
	file, err := s.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    name,
		Bytes:   content,
		Purpose: openai.PurposeAssistants,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file %s: %w", name, err)
	}

	s.logger.WithFields(logrus.Fields{
		"file_id": file.ID,
		"name":    name,
		"bytes":   len(content),
	}).Debug("File uploaded")

	_, err = s.client.CreateVectorStoreFile(ctx, s.vectorStoreID, openai.VectorStoreFileRequest{
		FileID: file.ID,
	})
	if err != nil {
		return file.ID, fmt.Errorf("failed to attach file %s to vector store %s: %w", file.ID, s.vectorStoreID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"file_id":         file.ID,
		"vector_store_id": s.vectorStoreID,
	}).Info("File attached to vector store")

	return file.ID, nil
}
