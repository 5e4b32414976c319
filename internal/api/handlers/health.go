package handlers

import (
	"net/http"
	"time"

	"github.com/Ayash-Bera/docchat/internal/health"
	"github.com/Ayash-Bera/docchat/internal/models"
	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	serviceName string
	version     string
	checker     *health.HealthChecker
}

func NewHealthHandler(serviceName, version string, checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		checker:     checker,
	}
}

// Liveness never touches dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    health.StatusHealthy,
		Service:   h.serviceName,
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.checker.CheckAll(c.Request.Context())

	code := http.StatusOK
	if !result.Healthy() {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, result)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Liveness)
	r.GET("/health/ready", h.Readiness)
}
