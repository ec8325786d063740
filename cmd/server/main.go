package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/stockflow/product-service/config"
	"github.com/stockflow/product-service/internal/api"
	"github.com/stockflow/product-service/internal/assets"
	catRepoPkg "github.com/stockflow/product-service/internal/category/repository"
	"github.com/stockflow/product-service/internal/draft"
	"github.com/stockflow/product-service/internal/events"
	"github.com/stockflow/product-service/internal/invalidation"
	ledgerRepoPkg "github.com/stockflow/product-service/internal/ledger/repository"
	"github.com/stockflow/product-service/internal/platform/broker"
	"github.com/stockflow/product-service/internal/platform/cache"
	"github.com/stockflow/product-service/internal/platform/database"
	"github.com/stockflow/product-service/internal/platform/logger"
	platformsearch "github.com/stockflow/product-service/internal/platform/search"
	"github.com/stockflow/product-service/internal/platform/storage"
	prodRepoPkg "github.com/stockflow/product-service/internal/product/repository"
	"github.com/stockflow/product-service/internal/search"
	"github.com/stockflow/product-service/internal/workflow"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.Config{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := database.NewPostgres(&database.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	prodRepo := prodRepoPkg.NewPGRepository(db)
	catRepo := catRepoPkg.NewPGRepository(db)
	ledgerRepo := ledgerRepoPkg.NewPGRepository(db)

	// 5. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 6. Initialize Kafka Producer
	producer := broker.NewProducer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	defer producer.Close()
	appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 7. Initialize Elasticsearch. Non-fatal: the service runs without
	// search indexing if ES is down.
	var indexer *search.Indexer
	esClient, err := platformsearch.NewClient(&platformsearch.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (search features limited)", zap.Error(err))
	} else {
		indexer = search.NewIndexer(esClient)
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 8. Initialize S3 object storage
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s3Store, err := storage.NewS3Store(ctx, &storage.Config{
		Region:     cfg.Storage.Region,
		Bucket:     cfg.Storage.Bucket,
		CDNBaseURL: cfg.Storage.CDNBaseURL,
	})
	if err != nil {
		appLogger.Fatal("Could not initialize object storage", zap.Error(err))
	}

	// 9. Assemble the workflow dependencies
	draftStore := draft.NewRedisStore(redisClient, appLogger, time.Duration(cfg.Draft.TTLHours)*time.Hour)

	deps := workflow.Deps{
		Products:    prodRepo,
		Categories:  catRepo,
		Ledger:      ledgerRepo,
		Uploader:    assets.NewUploader(s3Store),
		Drafts:      draftStore,
		Invalidator: invalidation.NewCoordinator(redisClient, prodRepo, appLogger),
		Events:      events.NewPublisher(producer),
		Log:         appLogger,
	}
	if indexer != nil {
		deps.Search = indexer
	}

	// 10. Start HTTP Server
	handler := api.NewHandler(deps, appLogger)
	router := api.NewRouter(handler, appLogger)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:    port,
		Handler: router,
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("forced shutdown", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
