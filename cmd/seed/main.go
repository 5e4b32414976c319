package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Ayash-Bera/docchat/internal/config"
	"github.com/Ayash-Bera/docchat/internal/database"
	"github.com/Ayash-Bera/docchat/internal/models"
	"github.com/Ayash-Bera/docchat/internal/repository"
	"github.com/Ayash-Bera/docchat/internal/seeder"
	"github.com/Ayash-Bera/docchat/internal/vectorstore"
	"github.com/Ayash-Bera/docchat/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	dryRun     = flag.Bool("dry-run", false, "Don't upload to the vector store, just print what would be uploaded")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	pageLimit  = flag.Int("limit", 0, "Limit number of pages to process (0 = all)")
	concurrent = flag.Int("concurrent", 2, "Number of concurrent requests")
	delay      = flag.Duration("delay", 2*time.Second, "Delay between requests")
	urlList    = flag.String("urls", "", "Comma separated page URLs (default: seed.urls from config)")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	logger.Info("Starting vector store seeder...")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	urls := cfg.Seed.URLs
	if *urlList != "" {
		urls = strings.Split(*urlList, ",")
	}
	if len(urls) == 0 {
		logger.Fatal("No URLs to seed: pass -urls or set seed.urls")
	}

	var uploader seeder.Uploader
	var docs models.SeededDocumentRepository

	if !*dryRun {
		if err := cfg.ValidateOpenAI(); err != nil {
			logger.WithError(err).Fatal("OpenAI configuration validation failed")
		}

		uploader = vectorstore.New(vectorstore.Config{
			APIKey:        cfg.OpenAI.APIKey,
			BaseURL:       cfg.OpenAI.BaseURL,
			Organization:  cfg.OpenAI.Organization,
			VectorStoreID: cfg.OpenAI.VectorStoreID,
		}, logger)

		// seed records are optional; only postgres is needed here
		dbManager, err := database.NewManager(&database.Config{
			DatabaseURL: cfg.Database.URL,
			LogLevel:    cfg.Log.Level,
		}, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize database manager")
		}
		defer dbManager.Close()

		if dbManager.DB != nil {
			if err := dbManager.Migrate(); err != nil {
				logger.WithError(err).Fatal("Failed to run database migrations")
			}
			docs = repository.NewRepositoryManager(dbManager.DB).SeededDocument
		}
	}

	contentSeeder := seeder.NewContentSeeder(uploader, docs, seeder.Options{
		DryRun:     *dryRun,
		Limit:      *pageLimit,
		Concurrent: *concurrent,
		Delay:      *delay,
		UserAgent:  cfg.Seed.UserAgent,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := contentSeeder.SeedContent(ctx, urls)
	if err != nil {
		logger.WithError(err).Error("Content seeding interrupted")
	}

	if len(result.Errors) > 0 {
		logger.Warn("Some pages failed to process:")
		for _, err := range result.Errors {
			logger.WithError(err).Warn("Processing error")
		}
	}

	logger.WithFields(logrus.Fields{
		"uploaded": result.Uploaded,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}).Info("Content seeding finished")
}
