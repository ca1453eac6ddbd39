package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/facets"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/prisons"
	"github.com/ministryofjustice/money-to-prisoners-noms-ops/pkg/session"
)

// ErrSessionNotFound is returned when a session is unknown or has expired
var ErrSessionNotFound = fiber.NewError(fiber.StatusNotFound, "session not found")

// ErrUnknownFacet is returned when the facet path parameter is not region, category or population
var ErrUnknownFacet = fiber.NewError(fiber.StatusBadRequest, "unknown facet, expected region, category or population")

// ErrInvalidBody is returned when a request body cannot be decoded
var ErrInvalidBody = fiber.NewError(fiber.StatusBadRequest, "invalid request body")

// ErrUnknownPrison is returned when a selected prison is not one of the session's options
var ErrUnknownPrison = fiber.NewError(fiber.StatusBadRequest, "unknown prison")

// ErrPrisonsUnavailable is returned when the prison list has not been loaded
var ErrPrisonsUnavailable = fiber.NewError(fiber.StatusServiceUnavailable, "prison list not loaded")

// ErrReloadFailed is returned when the prison source cannot be read
var ErrReloadFailed = fiber.NewError(fiber.StatusBadGateway, "failed to reload prison list")

// translateError maps service errors onto API errors
func translateError(err error) error {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return ErrSessionNotFound
	case errors.Is(err, facets.ErrUnknownFacet):
		return ErrUnknownFacet
	case errors.Is(err, session.ErrUnknownPrison):
		return fiber.NewError(ErrUnknownPrison.Code, err.Error())
	case errors.Is(err, prisons.ErrCatalogNotLoaded):
		return ErrPrisonsUnavailable
	default:
		return err
	}
}

// ErrorHandler provides consistent error responses
func ErrorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fiberErr *fiber.Error
	if ok := errors.As(err, &fiberErr); ok {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}
