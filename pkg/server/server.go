package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	//nolint:gosec // only exposed if pprofAddr config is set
	_ "net/http/pprof"

	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/api"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/i18n"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/observability"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/prisons"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/redis"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/session"
	r "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Server represents the main application server
type Server struct {
	log    logrus.FieldLogger
	config *Config

	redis *r.Client

	bundle   *i18n.Bundle
	catalog  *prisons.Catalog
	watcher  *prisons.FileWatcher
	sessions *session.Service
	api      api.Service

	pprofServer  *http.Server
	healthServer *http.Server
}

// NewServer creates a new server instance and wires its components
func NewServer(ctx context.Context, log logrus.FieldLogger, config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config: config,
		log:    log,
	}

	if config.Redis != nil {
		redisClient, err := redis.New(ctx, config.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}

		s.redis = redisClient
	}

	bundle, err := i18n.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("failed to load locale catalogs: %w", err)
	}
	s.bundle = bundle

	var cache *prisons.Cache
	if s.redis != nil {
		cache = prisons.NewCache(s.redis, config.Redis.PrefixKey("prisons"), config.Prisons.CacheTTL)
	}

	s.catalog = prisons.NewCatalog(log, config.Prisons.NewSource(), cache, config.Prisons.Options, config.Prisons.RefreshSchedule)
	if config.Prisons.WatchFile {
		watcher, err := prisons.NewFileWatcher(log, config.Prisons.File, config.Prisons.WatchDebounce, s.catalog.Reload)
		if err != nil {
			return nil, err
		}
		s.watcher = watcher
	}

	s.sessions = session.NewService(log, s.newSessionStore(), s.catalog, s.bundle)
	s.api = api.NewService(&config.API, s.catalog, s.sessions, s.bundle, log)

	return s, nil
}

func (s *Server) newSessionStore() session.Store {
	if s.config.Sessions.Store == session.StoreRedis {
		return session.NewRedisStore(s.redis, s.config.Redis.PrefixKey("session")+":", s.config.Sessions.TTL)
	}

	return session.NewMemoryStore(s.config.Sessions.TTL)
}

// Start starts the server and all its components
func (s *Server) Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.log.WithFields(logrus.Fields{
		"has_redis":     s.redis != nil,
		"session_store": s.config.Sessions.Store,
		"locales":       s.bundle.Locales(),
	}).Debug("Server component states")

	if err := s.catalog.Start(ctx); err != nil {
		return fmt.Errorf("failed to load prison list: %w", err)
	}

	if s.watcher != nil {
		if err := s.watcher.Start(ctx); err != nil {
			s.abortStart()
			return err
		}
	}

	if err := s.api.Start(ctx); err != nil {
		s.abortStart()
		return fmt.Errorf("failed to start api: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// Start metrics server
	g.Go(func() error {
		defer func() {
			if recovered := recover(); recovered != nil {
				s.log.WithField("panic", recovered).Error("Panic in metrics server goroutine")
			}
		}()
		observability.StartMetricsServer(s.log, s.config.MetricsAddr)
		<-ctx.Done()

		return nil
	})

	// Start pprof server if configured
	if s.config.PProfAddr != nil {
		s.pprofServer = s.newPProfServer()
		g.Go(func() error {
			return s.serve(ctx, "pprof", s.pprofServer)
		})
	}

	// Start health check server if configured
	if s.config.HealthCheckAddr != nil {
		s.healthServer = s.newHealthCheckServer()
		g.Go(func() error {
			return s.serve(ctx, "healthcheck", s.healthServer)
		})
	}

	// Wait for shutdown signal
	g.Go(func() error {
		<-ctx.Done()

		// Use a fresh context for cleanup since the current one is canceled
		return s.stop(context.Background())
	})

	return g.Wait()
}

func (s *Server) stop(ctx context.Context) error {
	cleanupCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.log.Info("Starting graceful shutdown...")

	if err := s.api.Stop(); err != nil {
		s.log.WithError(err).Error("failed to stop API server")
	}

	s.catalog.Stop()

	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.log.WithError(err).Error("failed to stop prison file watcher")
		}
	}

	if s.redis != nil {
		s.log.Info("Closing Redis connection...")

		if err := s.redis.Close(); err != nil {
			s.log.WithError(err).Error("failed to close redis")
		}
	}

	if s.pprofServer != nil {
		if err := s.pprofServer.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to shutdown pprof server")
		}
	}

	if s.healthServer != nil {
		if err := s.healthServer.Shutdown(cleanupCtx); err != nil {
			s.log.WithError(err).Error("failed to shutdown health server")
		}
	}

	if err := observability.StopMetricsServer(cleanupCtx); err != nil {
		s.log.WithError(err).Error("failed to stop metrics server")
	}

	s.log.Info("Server stopped gracefully")

	return nil
}

// abortStart stops the components started before a failed Start
func (s *Server) abortStart() {
	s.catalog.Stop()

	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.log.WithError(err).Error("failed to stop prison file watcher")
		}
	}
}

func (s *Server) newPProfServer() *http.Server {
	return &http.Server{
		Addr:              *s.config.PProfAddr,
		ReadHeaderTimeout: 120 * time.Second,
	}
}

func (s *Server) newHealthCheckServer() *http.Server {
	return &http.Server{
		Addr:              *s.config.HealthCheckAddr,
		ReadHeaderTimeout: 120 * time.Second,
		Handler:           s.healthHandler(),
	}
}

// serve runs srv until it is shut down, then waits for ctx
func (s *Server) serve(ctx context.Context, name string, srv *http.Server) error {
	s.log.WithField("addr", srv.Addr).Infof("Starting %s server", name)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-ctx.Done()

	return nil
}

// healthHandler reports ready once a prison list is loaded
func (s *Server) healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := s.catalog.List(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
	})
}
