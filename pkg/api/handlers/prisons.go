package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/facets"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/prisons"
)

// FacetChoices is the choice list of one facet selector
type FacetChoices struct {
	Facet   facets.Facet     `json:"facet"`
	Label   string           `json:"label"`
	Choices []prisons.Choice `json:"choices"`
}

// ListPrisons handles GET /api/v1/prisons
func (s *Server) ListPrisons(c fiber.Ctx) error {
	list, err := s.catalog.List()
	if err != nil {
		return translateError(err)
	}

	choices := list.PrisonChoices()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"prisons":    choices,
		"total":      len(choices),
		"updated_at": s.catalog.UpdatedAt(),
	})
}

// ReloadPrisons handles POST /api/v1/prisons/reload. It drops the cached list
// and reads the source again; sessions already created keep their snapshot.
func (s *Server) ReloadPrisons(c fiber.Ctx) error {
	if err := s.catalog.Reload(c.Context()); err != nil {
		s.log.WithError(err).Warn("Prison list reload failed")
		return ErrReloadFailed
	}

	list, err := s.catalog.List()
	if err != nil {
		return translateError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"total":      len(list.PrisonChoices()),
		"updated_at": s.catalog.UpdatedAt(),
	})
}

// GetMapping handles GET /api/v1/prisons/mapping, the static mapping a page
// embeds before the filter initialises
func (s *Server) GetMapping(c fiber.Ctx) error {
	list, err := s.catalog.List()
	if err != nil {
		return translateError(err)
	}

	dataset := list.Dataset(s.bundle.NoMatchesLabel(s.locale(c)))

	return c.Status(fiber.StatusOK).JSON(dataset)
}

// GetChoices handles GET /api/v1/choices
func (s *Server) GetChoices(c fiber.Ctx) error {
	list, err := s.catalog.List()
	if err != nil {
		return translateError(err)
	}

	locale := s.locale(c)
	out := make([]FacetChoices, 0, len(facets.AllFacets()))

	for _, facet := range facets.AllFacets() {
		choices := []prisons.Choice{{Value: "", Label: s.bundle.BlankChoiceLabel(locale, facet)}}
		choices = append(choices, list.FacetChoices(facet)...)

		out = append(out, FacetChoices{
			Facet:   facet,
			Label:   s.bundle.FacetLabel(locale, facet),
			Choices: choices,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"locale": locale,
		"facets": out,
	})
}

// ComputeEligibility handles POST /api/v1/eligibility. The body is a selector
// state; the response lists eligibility for every offered prison.
func (s *Server) ComputeEligibility(c fiber.Ctx) error {
	var state facets.SelectorState
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&state); err != nil {
			return ErrInvalidBody
		}
	}

	list, err := s.catalog.List()
	if err != nil {
		return translateError(err)
	}

	locale := s.locale(c)
	dataset := list.Dataset(s.bundle.NoMatchesLabel(locale))

	ids := make([]string, 0, len(list.PrisonChoices()))
	for _, choice := range list.PrisonChoices() {
		ids = append(ids, choice.Value)
	}

	records := dataset.Records(ids)
	eligibility := facets.ComputeEligibility(records, state)

	mode := facets.ModeNormal
	if eligibility.NoneEligible() {
		mode = facets.ModeNoMatches
	}

	response := fiber.Map{
		"state":       state,
		"eligibility": eligibility,
		"eligible":    eligibility.EligibleIDs(records),
		"mode":        mode.String(),
	}
	if mode == facets.ModeNoMatches {
		response["label"] = dataset.NoMatchesLabel
	}

	return c.Status(fiber.StatusOK).JSON(response)
}
