package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/facets"
)

// SelectorChange is the body of PUT /sessions/:id/selectors/:facet
type SelectorChange struct {
	Value string `json:"value"`
}

// PrisonSelection is the body of PUT /sessions/:id/prisons. Each value may hold
// several comma-separated prison identifiers; ALL selects every prison.
type PrisonSelection struct {
	Prisons []string `json:"prisons"`
}

// CreateSession handles POST /api/v1/sessions. An optional selector state body
// presets the selectors.
func (s *Server) CreateSession(c fiber.Ctx) error {
	var initial facets.SelectorState
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&initial); err != nil {
			return ErrInvalidBody
		}
	}

	view, err := s.sessions.Create(c.Context(), s.locale(c), initial)
	if err != nil {
		return translateError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

// GetSession handles GET /api/v1/sessions/:id
func (s *Server) GetSession(c fiber.Ctx) error {
	view, err := s.sessions.Get(c.Context(), c.Params("id"))
	if err != nil {
		return translateError(err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

// ChangeSelector handles PUT /api/v1/sessions/:id/selectors/:facet
func (s *Server) ChangeSelector(c fiber.Ctx) error {
	facet, err := facets.ParseFacet(c.Params("facet"))
	if err != nil {
		return ErrUnknownFacet
	}

	var change SelectorChange
	if err := c.Bind().Body(&change); err != nil {
		return ErrInvalidBody
	}

	view, err := s.sessions.Change(c.Context(), c.Params("id"), facet, change.Value)
	if err != nil {
		return translateError(err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

// ClearSelectors handles DELETE /api/v1/sessions/:id/selectors
func (s *Server) ClearSelectors(c fiber.Ctx) error {
	view, err := s.sessions.Clear(c.Context(), c.Params("id"))
	if err != nil {
		return translateError(err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

// SelectPrisons handles PUT /api/v1/sessions/:id/prisons
func (s *Server) SelectPrisons(c fiber.Ctx) error {
	var selection PrisonSelection
	if err := c.Bind().Body(&selection); err != nil {
		return ErrInvalidBody
	}

	view, err := s.sessions.SelectPrisons(c.Context(), c.Params("id"), selection.Prisons)
	if err != nil {
		return translateError(err)
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

// DeleteSession handles DELETE /api/v1/sessions/:id
func (s *Server) DeleteSession(c fiber.Ctx) error {
	if err := s.sessions.Delete(c.Context(), c.Params("id")); err != nil {
		return translateError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
