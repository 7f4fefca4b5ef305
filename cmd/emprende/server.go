package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/emprendecr/emprende/internal/shell/analytics"
	"github.com/emprendecr/emprende/internal/shell/api"
	"github.com/emprendecr/emprende/internal/shell/cache"
	"github.com/emprendecr/emprende/internal/shell/resolver"
	"github.com/emprendecr/emprende/internal/shell/seed"
	"github.com/emprendecr/emprende/internal/shell/store"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitCacheError      = 3
	ExitHTTPServerError = 4
	ExitSeedError       = 5
)

// =============================================================================
// Server
// =============================================================================

// Server represents the marketplace application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	store      store.Store
	redis      *cache.Redis
	recorder   *analytics.Recorder
	aggregator *analytics.Aggregator
	logger     *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(ctx context.Context, cfg *Config, logger *slog.Logger) (*Server, error) {
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	candidates, redisCache, err := newCandidateCache(ctx, cfg, logger)
	if err != nil {
		s.Close()
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitCacheError,
		}
	}

	codec := domain.DefaultCodec()
	codec.MaxNameLength = cfg.Slug.MaxNameLength

	res := resolver.New(s, candidates, codec, logger)
	recorder := analytics.NewRecorder(s, cfg.Analytics.RecordTimeout, logger)
	aggregator := analytics.NewAggregator(analytics.AggregatorConfig{
		Store:     s,
		Interval:  cfg.Analytics.FlushInterval,
		BatchSize: cfg.Analytics.BatchSize,
		Logger:    logger,
	})

	handler := api.NewHandler(s, res, recorder, logger, api.Config{
		BaseURL:        cfg.Site.BaseURL,
		CountryCode:    cfg.Contact.CountryCode,
		ContactMessage: cfg.Contact.Message,
		PageSize:       cfg.Listing.PageSize,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Codec:          codec,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		store:      s,
		redis:      redisCache,
		recorder:   recorder,
		aggregator: aggregator,
		logger:     logger,
	}, nil
}

// newCandidateCache picks Redis when a URL is configured and an in-process
// cache otherwise. The Redis cache is also returned so it can be closed.
func newCandidateCache(ctx context.Context, cfg *Config, logger *slog.Logger) (cache.Candidates, *cache.Redis, error) {
	if cfg.Cache.RedisURL == "" {
		logger.Info("slug cache: in-memory", "ttl", cfg.Cache.TTL)
		return cache.NewMemory(cfg.Cache.TTL), nil, nil
	}

	r, err := cache.NewRedis(ctx, cfg.Cache.RedisURL, cfg.Cache.TTL, logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("slug cache: redis", "ttl", cfg.Cache.TTL)
	return r, r, nil
}

// Seed loads a catalog file into the store.
func (s *Server) Seed(ctx context.Context, path string) error {
	res, err := seed.LoadFile(ctx, s.store, path)
	if err != nil {
		return &ServerError{
			Op:       "Seed",
			Err:      err,
			ExitCode: ExitSeedError,
		}
	}
	s.logger.Info("catalog seeded",
		"path", path,
		"categories", res.Categories,
		"businesses", res.Businesses,
		"products", res.Products,
		"services", res.Services,
	)
	return nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	aggCtx, stopAgg := context.WithCancel(context.Background())
	defer stopAgg()
	go s.aggregator.Start(aggCtx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		s.Shutdown(context.Background())
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server. In-flight contact events are
// written before the final aggregation pass.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.recorder.Wait()
	s.aggregator.Stop()

	if n, err := s.aggregator.FlushNow(shutdownCtx); err != nil {
		s.logger.Error("final contact aggregation failed", "error", err)
	} else if n > 0 {
		s.logger.Info("final contact aggregation", "events", n)
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("redis close error", "error", err)
		}
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("database close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// Close releases resources of a server that was never started.
func (s *Server) Close() {
	if s.redis != nil {
		s.redis.Close()
	}
	s.store.Close()
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
