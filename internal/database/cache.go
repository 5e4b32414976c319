package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ayash-Bera/docchat/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned when no answer is cached for a key.
var ErrCacheMiss = errors.New("cache miss")

// ErrCorruptEntry is returned when a cached value cannot be decoded.
var ErrCorruptEntry = errors.New("corrupt cached answer")

// Cache key constants
const (
	ChatAnswerKey = "chat:answer:%s"
)

// Cache stores chat answers in redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// CacheAnswer stores a success body under the hashed query key.
func (c *Cache) CacheAnswer(ctx context.Context, queryKey string, answer *models.ChatResponse) error {
	data, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}

	return c.client.Set(ctx, fmt.Sprintf(ChatAnswerKey, queryKey), data, c.ttl).Err()
}

// GetCachedAnswer returns ErrCacheMiss when nothing is stored.
func (c *Cache) GetCachedAnswer(ctx context.Context, queryKey string) (*models.ChatResponse, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf(ChatAnswerKey, queryKey)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var answer models.ChatResponse
	if err := json.Unmarshal(data, &answer); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	if answer.Sources == nil {
		answer.Sources = []string{}
	}
	return &answer, nil
}

// InvalidateAnswer removes the cached answer for a query key
func (c *Cache) InvalidateAnswer(ctx context.Context, queryKey string) error {
	return c.client.Del(ctx, fmt.Sprintf(ChatAnswerKey, queryKey)).Err()
}
