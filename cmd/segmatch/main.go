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
	"go.uber.org/zap"

	"github.com/audiencelab/segmatch/internal/config"
	"github.com/audiencelab/segmatch/internal/db"
	dbRedis "github.com/audiencelab/segmatch/internal/db/redis"
	"github.com/audiencelab/segmatch/internal/domain"
	"github.com/audiencelab/segmatch/internal/domain/heuristic"
	logpkg "github.com/audiencelab/segmatch/internal/logger"
	"github.com/audiencelab/segmatch/internal/metrics"
	"github.com/audiencelab/segmatch/internal/repository/embcache"
	"github.com/audiencelab/segmatch/internal/repository/resultcache"
	chiTransport "github.com/audiencelab/segmatch/internal/transport/chi"
	openaiEmb "github.com/audiencelab/segmatch/internal/transport/openai"
	"github.com/audiencelab/segmatch/internal/transport/pinecone"
	embeddinguc "github.com/audiencelab/segmatch/internal/usecase/embedding"
	healthuc "github.com/audiencelab/segmatch/internal/usecase/health"
	resolveuc "github.com/audiencelab/segmatch/internal/usecase/resolve"
	"github.com/audiencelab/segmatch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting segmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_variant", cfg.Embedding.Variant),
		zap.String("index", cfg.Index.Name),
	)

	// Optional redis store for the persistent embedding cache
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

		ctx := context.Background()
		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	metrics.Register()

	embedder := buildEmbedder(cfg, store, logger)

	// The index and the embedder must agree on vector width before the
	// first query reaches either of them.
	if cfg.Embedding.Variant != config.VariantDisabled && embedder.Dimensions() != cfg.Index.Dimensions {
		logger.Fatal("Embedding dimensions do not match index dimensions",
			zap.Int("embedding", embedder.Dimensions()),
			zap.Int("index", cfg.Index.Dimensions),
		)
	}

	index := pinecone.NewClient(&pinecone.Config{
		Host:       cfg.Index.Host,
		APIKey:     cfg.Index.APIKey,
		Dimensions: cfg.Index.Dimensions,
		MaxTopK:    cfg.Index.MaxTopK,
		Timeout:    time.Duration(cfg.Index.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	// Pass nil interface (not typed nil pointer!) when a stage is disabled.
	// Go gotcha: (*heuristic.Matcher)(nil) wrapped in Matcher != nil.
	var matcher resolveuc.Matcher
	var patterns chiTransport.PatternTable
	if m := buildMatcher(cfg, logger); m != nil {
		matcher = m
		patterns = m
	}

	var results resolveuc.ResultCache
	if cfg.ResultCache.Enabled {
		results = resultcache.New(
			cfg.ResultCache.Size,
			time.Duration(cfg.ResultCache.TTLSec)*time.Second,
			metrics.ResultCacheTotal,
		)
	}

	resolver := resolveuc.New(matcher, embedder, index, results, logger)

	var cachePinger healthuc.Pinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(index, newEmbeddingHealthChecker(embedder), cachePinger)

	server := chiTransport.NewServer(resolver, healthSvc, index, patterns, logger)

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
}

// buildEmbedder assembles the decorator chain: OpenAI -> Lazy -> Cached -> Instrumented.
// The lazy layer defers the first provider round-trip to the first semantic
// query, so keyword-only traffic starts serving immediately.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) domain.Embedder {
	if cfg.Embedding.Variant == config.VariantDisabled {
		logger.Info("Embedding disabled, keyword-only mode")
		return embeddinguc.NewDisabled()
	}

	lazy := embeddinguc.NewLazyEmbedder(cfg.Embedding.Dimensions, func() (domain.Embedder, error) {
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Variant,
			Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
			Logger:     logger,
		}), nil
	})

	var embedder domain.Embedder = lazy
	if store != nil {
		embedder = embcache.New(embcache.Config{
			Inner:      lazy,
			Store:      store,
			KeyPrefix:  cfg.Cache.KeyPrefix,
			Model:      cfg.Embedding.Model,
			TTL:        time.Duration(cfg.Cache.TTLHours) * time.Hour,
			CacheTotal: metrics.EmbeddingCacheTotal,
			Logger:     logger,
		})
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Embedding.Variant, cfg.Embedding.Model, logger)
}

// buildMatcher returns the heuristic table from config, or the built-in
// table when none is configured. Returns nil when heuristics are disabled.
func buildMatcher(cfg config.Config, logger *zap.Logger) *heuristic.Matcher {
	if !cfg.HeuristicsEnabled() {
		logger.Info("Heuristic matching disabled")
		return nil
	}

	if len(cfg.Heuristics.Patterns) == 0 {
		return heuristic.Default()
	}

	entries := make([]heuristic.Entry, len(cfg.Heuristics.Patterns))
	for i, p := range cfg.Heuristics.Patterns {
		entries[i] = heuristic.Entry{Pattern: p.Pattern, Topics: p.Topics}
	}
	matcher, err := heuristic.NewMatcher(entries)
	if err != nil {
		logger.Fatal("Invalid heuristic patterns", zap.Error(err))
	}
	logger.Info("Loaded heuristic patterns from config", zap.Int("count", matcher.Len()))
	return matcher
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
