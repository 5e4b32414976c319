package api

import (
	"github.com/Ayash-Bera/docchat/internal/api/handlers"
	"github.com/Ayash-Bera/docchat/internal/health"
	"github.com/Ayash-Bera/docchat/internal/metrics"
	"github.com/Ayash-Bera/docchat/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	Chat           handlers.ChatService
	Checker        *health.HealthChecker
	Limiter        *middleware.RateLimiter // nil disables rate limiting
	TrustedProxies []string
	Logger         *logrus.Logger
}

func BuildRouter(dep RouterDeps) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(dep.TrustedProxies); err != nil {
		return nil, err
	}

	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(dep.Logger),
		middleware.CORS(),
		middleware.SecurityHeaders(),
	)

	static, err := handlers.NewStaticHandler()
	if err != nil {
		return nil, err
	}
	static.RegisterRoutes(r)

	handlers.NewHealthHandler(dep.ServiceName, dep.Version, dep.Checker).RegisterRoutes(r)
	r.GET("/metrics", metrics.Handler())

	chatHandler := handlers.NewChatHandler(dep.Chat, dep.Logger)
	chat := r.Group("/chat")
	if dep.Limiter != nil {
		chat.Use(dep.Limiter.RateLimit())
	}
	chat.POST("", chatHandler.HandleChat)
	chat.GET("/recent", chatHandler.HandleRecent)

	return r, nil
}
