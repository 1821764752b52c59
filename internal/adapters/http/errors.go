package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mechlink/mechlink/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal logs the cause and hides it from the client.
func errInternal(c *fiber.Ctx, err error) error {
	LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
	return newError(c, fiber.StatusInternalServerError, "internal_error", "internal server error")
}

// errFromDomain maps service errors onto HTTP statuses. An address the
// geocoder cannot resolve, for whatever reason, reads as not found.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrWorkshopNotFound):
		return errNotFound(c, "workshop not found")
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrProviderUnavailable):
		return errNotFound(c, err.Error())
	default:
		return errInternal(c, err)
	}
}
