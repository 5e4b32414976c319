package health

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports a dependency as healthy by returning nil.
type CheckFunc func(ctx context.Context) error

type namedCheck struct {
	name  string
	check CheckFunc
}

// HealthChecker manages readiness checks for the configured dependencies
type HealthChecker struct {
	checks  []namedCheck
	timeout time.Duration
	logger  *logrus.Logger
}

func NewHealthChecker(timeout time.Duration, logger *logrus.Logger) *HealthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthChecker{
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds a dependency check. Not safe to call once serving.
func (h *HealthChecker) Register(name string, check CheckFunc) {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

func (o OverallHealth) Healthy() bool {
	return o.Status == StatusHealthy
}

func (h *HealthChecker) run(ctx context.Context, c namedCheck) ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := c.check(ctx)
	responseTime := int(time.Since(start).Milliseconds())

	result := ServiceHealth{
		Name:         c.name,
		Status:       StatusHealthy,
		ResponseTime: responseTime,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		h.logger.WithError(err).WithField("service", c.name).Error("Health check failed")
	}
	return result
}

// CheckAll runs every registered check concurrently. Results keep
// registration order.
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	services := make([]ServiceHealth, len(h.checks))

	var wg sync.WaitGroup
	for i, c := range h.checks {
		wg.Add(1)
		go func(i int, c namedCheck) {
			defer wg.Done()
			services[i] = h.run(ctx, c)
		}(i, c)
	}
	wg.Wait()

	overallStatus := StatusHealthy
	for _, service := range services {
		if service.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			break
		}
	}

	return OverallHealth{
		Status:   overallStatus,
		Services: services,
		Uptime:   getUptime(),
	}
}

var startTime = time.Now()

func getUptime() string {
	return time.Since(startTime).Round(time.Second).String()
}
