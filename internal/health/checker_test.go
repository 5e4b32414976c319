package health

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChecker() *HealthChecker {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewHealthChecker(50*time.Millisecond, logger)
}

func TestCheckAll_NoChecks(t *testing.T) {
	result := newChecker().CheckAll(context.Background())
	assert.True(t, result.Healthy())
	assert.Empty(t, result.Services)
}

func TestCheckAll_AllHealthy(t *testing.T) {
	h := newChecker()
	h.Register("vector_store", func(ctx context.Context) error { return nil })
	h.Register("redis", func(ctx context.Context) error { return nil })

	result := h.CheckAll(context.Background())
	assert.True(t, result.Healthy())
	require.Len(t, result.Services, 2)
	assert.Equal(t, "vector_store", result.Services[0].Name)
	assert.Equal(t, "redis", result.Services[1].Name)
}

func TestCheckAll_OneDown(t *testing.T) {
	h := newChecker()
	h.Register("vector_store", func(ctx context.Context) error { return nil })
	h.Register("postgresql", func(ctx context.Context) error { return errors.New("connection refused") })

	result := h.CheckAll(context.Background())
	assert.False(t, result.Healthy())
	assert.Equal(t, StatusUnhealthy, result.Status)
	assert.Equal(t, StatusHealthy, result.Services[0].Status)
	assert.Equal(t, "connection refused", result.Services[1].Error)
}

func TestCheckAll_TimeoutApplies(t *testing.T) {
	h := newChecker()
	h.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	result := h.CheckAll(context.Background())
	assert.False(t, result.Healthy())
	assert.Contains(t, result.Services[0].Error, "deadline exceeded")
}
