package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ayash-Bera/docchat/internal/api"
	"github.com/Ayash-Bera/docchat/internal/config"
	"github.com/Ayash-Bera/docchat/internal/database"
	"github.com/Ayash-Bera/docchat/internal/health"
	"github.com/Ayash-Bera/docchat/internal/middleware"
	"github.com/Ayash-Bera/docchat/internal/models"
	"github.com/Ayash-Bera/docchat/internal/repository"
	"github.com/Ayash-Bera/docchat/internal/responses"
	"github.com/Ayash-Bera/docchat/internal/services"
	"github.com/Ayash-Bera/docchat/internal/vectorstore"
	"github.com/Ayash-Bera/docchat/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	serviceName = "docchat"
	version     = "1.0.0"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(utils.ParseLevel(cfg.Log.Level))

	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Configuration validation failed")
	}

	if logger.GetLevel() != logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    cfg.Log.Level,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage backends")
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	client := responses.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, logger,
		responses.WithOrganization(cfg.OpenAI.Organization, cfg.OpenAI.Project),
		responses.WithRetry(responses.RetryConfig{
			MaxRetries: cfg.OpenAI.MaxRetries,
			BaseDelay:  responses.DefaultRetryConfig().BaseDelay,
			MaxDelay:   responses.DefaultRetryConfig().MaxDelay,
		}),
	)
	relay := responses.NewService(client, responses.SearchConfig{
		Model:         cfg.OpenAI.Model,
		VectorStoreID: cfg.OpenAI.VectorStoreID,
		MaxNumResults: cfg.OpenAI.MaxNumResults,
		Instructions:  cfg.OpenAI.Instructions,
	}, logger)

	var cache *database.Cache
	if cfg.Cache.Enabled {
		cache = database.NewCache(dbManager.Redis, cfg.Cache.TTL, logger)
	}

	var queryLog models.ChatQueryRepository
	if dbManager.DB != nil {
		queryLog = repository.NewChatQueryRepository(dbManager.DB)
	}

	chatService := services.NewChatService(relay, cache, queryLog, services.ChatConfig{
		Model:          cfg.OpenAI.Model,
		MaxQueryLength: cfg.Chat.MaxQueryLength,
		Timeout:        cfg.OpenAI.Timeout,
	}, logger)

	store := vectorstore.New(vectorstore.Config{
		APIKey:        cfg.OpenAI.APIKey,
		BaseURL:       cfg.OpenAI.BaseURL,
		Organization:  cfg.OpenAI.Organization,
		VectorStoreID: cfg.OpenAI.VectorStoreID,
	}, logger)

	checker := health.NewHealthChecker(0, logger)
	checker.Register("vector_store", func(ctx context.Context) error {
		_, err := store.Check(ctx)
		return err
	})
	if dbManager.DB != nil {
		checker.Register("postgresql", dbManager.PingDatabase)
	}
	if dbManager.Redis != nil {
		checker.Register("redis", dbManager.PingRedis)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
		go limiter.Run(ctx)
	}

	router, err := api.BuildRouter(api.RouterDeps{
		ServiceName:    serviceName,
		Version:        version,
		Chat:           chatService,
		Checker:        checker,
		Limiter:        limiter,
		TrustedProxies: cfg.Server.TrustedProxies,
		Logger:         logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to build router")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":          cfg.Server.Port,
			"model":         cfg.OpenAI.Model,
			"vector_store":  cfg.OpenAI.VectorStoreID,
			"cache_enabled": cache != nil,
			"query_log":     queryLog != nil,
		}).Info("Starting HTTP server")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
