package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/api/handlers"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/i18n"
	"github.com/sirupsen/logrus"
)

// Service defines the API service interface
type Service interface {
	Start(ctx context.Context) error
	Stop() error
}

type service struct {
	app      *fiber.App
	server   *http.Server
	config   *Config
	catalog  handlers.ListProvider
	sessions handlers.SessionService
	bundle   *i18n.Bundle
	log      logrus.FieldLogger
}

// NewService creates a new API service
func NewService(cfg *Config, catalog handlers.ListProvider, sessions handlers.SessionService, bundle *i18n.Bundle, log logrus.FieldLogger) Service {
	return &service{
		config:   cfg,
		catalog:  catalog,
		sessions: sessions,
		bundle:   bundle,
		log:      log.WithField("service", "api"),
	}
}

// NewApp builds the Fiber app with middleware and every route under /api/v1
func NewApp(server *handlers.Server, allowOrigins []string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		AppName:      "Prison Facets API",
	})

	setupMiddleware(app, allowOrigins)

	server.Register(app.Group("/api/v1"))

	return app
}

// Start initializes and starts the API server
func (s *service) Start(_ context.Context) error {
	if !s.config.Enabled {
		s.log.Info("API service is disabled")
		return nil
	}

	s.app = NewApp(handlers.NewServer(s.catalog, s.sessions, s.bundle, s.log), s.config.AllowOrigins)

	s.server = &http.Server{
		Addr:              s.config.Addr,
		Handler:           adaptor.FiberApp(s.app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.log.WithField("addr", s.config.Addr).Info("Starting API server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("Server failed to start")
		}
	}()

	return nil
}

// Stop gracefully shuts down the API server
func (s *service) Stop() error {
	if s.server == nil {
		return nil
	}

	s.log.Info("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
