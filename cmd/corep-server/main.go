// cmd/corep-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"corep-assist/internal/common/config"
	"corep-assist/internal/common/database"
	"corep-assist/internal/common/logger"
	"corep-assist/internal/common/observability"
	"corep-assist/internal/embedding"
	"corep-assist/internal/pipeline"
	"corep-assist/internal/pipeline/generate"
	"corep-assist/internal/pipeline/retrieve"
	"corep-assist/internal/pipeline/retrieve/store"
	"corep-assist/internal/pipeline/validate"
	"corep-assist/internal/server"
	"corep-assist/pkg/templates"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Swap in the configured logger once config is available.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting regulatory reporting server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New("corep-server")
	defer obs.Shutdown()

	if cfg.Observability.JaegerEndpoint != "" {
		if err := obs.EnableTracing("corep-server", cfg.Observability.JaegerEndpoint); err != nil {
			zapLog.Warn("tracing setup failed", zap.Error(err))
		}
	}

	ctx := context.Background()

	// --- Init Vector Store with retry ---
	var vectorStore store.VectorStore

	switch cfg.Index.Backend {
	case "postgres":
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			// Test the connection with context
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		vectorStore, err = store.NewPostgresStore(pg.GetDB())
		if err != nil {
			zapLog.Fatal("postgres store init failed", zap.Error(err))
		}
		zapLog.Info("PostgreSQL vector store ready")

	case "elasticsearch":
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			// Test the connection
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}

		vectorStore, err = store.NewElasticStore(esClient.Client, cfg.Index.Collection, cfg.Embedding.Dimensions)
		if err != nil {
			zapLog.Fatal("elasticsearch store init failed", zap.Error(err))
		}
		zapLog.Info("Elasticsearch vector store ready", zap.String("index", cfg.Index.Collection))

	default:
		var sqlite *database.SQLiteClient
		err = retryWithBackoff(func() error {
			var err error
			sqlite, err = database.NewSQLite(cfg.Index.DataDir)
			if err != nil {
				return err
			}
			return sqlite.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "SQLite open")

		if err != nil {
			zapLog.Fatal("sqlite failed after retries", zap.Error(err))
		}
		defer sqlite.Close()

		vectorStore, err = store.NewSQLiteStore(sqlite.GetDB())
		if err != nil {
			zapLog.Fatal("sqlite store init failed", zap.Error(err))
		}
		zapLog.Info("SQLite vector store ready", zap.String("dataDir", cfg.Index.DataDir))
	}

	// --- Init Embedder ---
	var embedder embedding.Embedder
	if cfg.Embedding.Provider == "openai" {
		embedder = embedding.NewOpenAIEmbedder(&embedding.OpenAIConfig{
			BaseURL:    cfg.APIs.OpenAI.BaseURL,
			APIKey:     cfg.APIs.OpenAI.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			MaxRetries: 3,
		}, log)
	} else {
		embedder = embedding.NewLocalEmbedder(cfg.Embedding.Dimensions)
	}
	zapLog.Info("Embedder initialized", zap.String("provider", cfg.Embedding.Provider))

	if cfg.Embedding.CacheEnabled {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			// Test the connection with context
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()

		ttl := time.Duration(cfg.Embedding.CacheTTL) * time.Millisecond
		embedder = embedding.NewCachedEmbedder(embedder, redis, cfg.Embedding.Model, ttl, log)
		zapLog.Info("Embedding cache enabled", zap.Duration("ttl", ttl))
	}

	// --- Assemble Pipeline ---
	registry := templates.NewRegistry()

	index := retrieve.NewIndex(
		&retrieve.Config{MaxResults: cfg.Retrieval.MaxResults},
		vectorStore, embedder, log,
	)

	var strategy generate.Strategy
	if cfg.Generation.Strategy == "model" {
		strategy = generate.NewModelStrategy(&generate.ModelConfig{
			BaseURL:     cfg.APIs.OpenAI.BaseURL,
			APIKey:      cfg.APIs.OpenAI.APIKey,
			Model:       cfg.Generation.Model,
			Temperature: cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.MaxTokens,
			MaxRetries:  cfg.Generation.MaxRetries,
		}, log)
	} else {
		strategy = generate.NewDeterministicStrategy(registry)
	}
	zapLog.Info("Generation strategy selected", zap.String("strategy", strategy.Name()))

	p := pipeline.New(
		&pipeline.Config{
			GenerationTimeout: time.Duration(cfg.Generation.Timeout) * time.Millisecond,
		},
		index,
		generate.NewGenerator(strategy, log),
		validate.NewValidator(registry),
		registry,
		obs,
		log,
	)

	srv := server.New(p, registry, cfg.App.Version, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown error", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
