package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propmatch/internal/config"
	"github.com/kailas-cloud/propmatch/internal/corpus"
	"github.com/kailas-cloud/propmatch/internal/db"
	dbRedis "github.com/kailas-cloud/propmatch/internal/db/redis"
	"github.com/kailas-cloud/propmatch/internal/domain"
	logpkg "github.com/kailas-cloud/propmatch/internal/logger"
	"github.com/kailas-cloud/propmatch/internal/metrics"
	"github.com/kailas-cloud/propmatch/internal/repository/embcache"
	"github.com/kailas-cloud/propmatch/internal/source/csvfile"
	chiTransport "github.com/kailas-cloud/propmatch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/propmatch/internal/transport/openai"
	healthuc "github.com/kailas-cloud/propmatch/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/propmatch/internal/usecase/ingest"
	rankinguc "github.com/kailas-cloud/propmatch/internal/usecase/ranking"
	"github.com/kailas-cloud/propmatch/internal/version"
)

// embedder is the full vectorization surface the composition root wires.
type embedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

func serveCommand(_ *cli.Context) error {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting propmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("dataset", cfg.Dataset.Path),
	)

	// Optional embedding cache. Empty addrs run the engine without Redis.
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(context.Background(), readiness); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()

	docEmbedder := buildEmbedder(cfg, cfg.Embedding.DocumentInstruction, store, logger)
	queryEmbedder := buildEmbedder(cfg, cfg.Embedding.QueryInstruction, store, logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider.Name),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	source := csvfile.New(csvfile.Config{
		Path:      cfg.Dataset.Path,
		Separator: []rune(cfg.Dataset.Separator)[0],
		Encoding:  cfg.Dataset.Encoding,
		MaxRows:   cfg.Dataset.MaxRows,
	}, logger)

	ingestSvc := ingestuc.New(source, docEmbedder, logger).
		WithBatching(cfg.Ingest.Workers, cfg.Ingest.BatchSize)

	// The corpus is built in the background; /search returns 503 until
	// the holder publishes a ready snapshot.
	holder := corpus.NewHolder()
	go func() {
		c, err := ingestSvc.Build(context.Background())
		if err != nil {
			if domain.IsIngestionError(err) {
				logger.Fatal("Corpus ingestion failed", zap.Error(err))
			}
			logger.Error("Corpus build failed, engine stays not ready", zap.Error(err))
			return
		}
		holder.Set(c)
		logger.Info("Corpus published", zap.Int("listings", c.Len()))
	}()

	rankingSvc := rankinguc.New(holder, queryEmbedder, cfg.Ranking.Weights)

	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(holder, newEmbeddingHealthChecker(queryEmbedder), cachePinger)

	server := chiTransport.NewServer(rankingSvc, healthSvc, holder, chiTransport.SearchDefaults{
		Threshold: cfg.Ranking.DefaultThreshold,
		Limit:     cfg.Ranking.DefaultLimit,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction
func buildEmbedder(
	cfg config.Config,
	instruction string,
	store db.Store,
	logger *zap.Logger,
) embedder {
	// Base provider (with transport metrics built-in)
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.Provider.APIKey,
		BaseURL:    cfg.Embedding.Provider.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider.Name,
		Logger:     logger,
	})

	// Cached
	var emb embedder = base
	if store != nil {
		emb = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}

	// Instruction prefix (outermost — cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(emb, instruction)
	}

	return emb
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
