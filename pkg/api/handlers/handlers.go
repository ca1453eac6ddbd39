// Package handlers implements the HTTP handlers of the prison facet API.
package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/facets"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/i18n"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/prisons"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/session"
	"github.com/sirupsen/logrus"
)

// ListProvider returns the current prison list and reloads it on demand
type ListProvider interface {
	List() (*prisons.List, error)
	UpdatedAt() time.Time
	Reload(ctx context.Context) error
}

// SessionService manages filter sessions
type SessionService interface {
	Create(ctx context.Context, locale string, initial facets.SelectorState) (*session.View, error)
	Get(ctx context.Context, id string) (*session.View, error)
	Change(ctx context.Context, id string, facet facets.Facet, value string) (*session.View, error)
	Clear(ctx context.Context, id string) (*session.View, error)
	SelectPrisons(ctx context.Context, id string, values []string) (*session.View, error)
	Delete(ctx context.Context, id string) error
}

// Server holds the dependencies of the API handlers
type Server struct {
	catalog  ListProvider
	sessions SessionService
	bundle   *i18n.Bundle
	log      logrus.FieldLogger
}

// NewServer creates a new API server instance
func NewServer(catalog ListProvider, sessions SessionService, bundle *i18n.Bundle, log logrus.FieldLogger) *Server {
	return &Server{
		catalog:  catalog,
		sessions: sessions,
		bundle:   bundle,
		log:      log.WithField("component", "api.handlers"),
	}
}

// Register mounts every route on the router
func (s *Server) Register(router fiber.Router) {
	router.Get("/healthz", s.Health)

	router.Get("/prisons", s.ListPrisons)
	router.Get("/prisons/mapping", s.GetMapping)
	router.Post("/prisons/reload", s.ReloadPrisons)
	router.Get("/choices", s.GetChoices)
	router.Post("/eligibility", s.ComputeEligibility)

	router.Post("/sessions", s.CreateSession)
	router.Get("/sessions/:id", s.GetSession)
	router.Put("/sessions/:id/selectors/:facet", s.ChangeSelector)
	router.Delete("/sessions/:id/selectors", s.ClearSelectors)
	router.Put("/sessions/:id/prisons", s.SelectPrisons)
	router.Delete("/sessions/:id", s.DeleteSession)
}

// Health handles GET /healthz
func (s *Server) Health(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// locale resolves the request locale from ?lang= and Accept-Language
func (s *Server) locale(c fiber.Ctx) string {
	return s.bundle.Resolve(c.Query("lang"), c.Get(fiber.HeaderAcceptLanguage))
}
