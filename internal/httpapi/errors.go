package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/relentnet/matchops-sync/internal/errs"
)

// ErrorResponse mirrors core's ErrorResponse shape: a status label plus a
// human-readable message.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// writeError maps the closed errs.Code taxonomy onto HTTP status
// codes and writes a JSON ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	var e *errs.Error
	if !errors.As(err, &e) {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Status: "error", Error: err.Error()})
	}

	status := fiber.StatusInternalServerError
	switch e.Code {
	case errs.NotInitialized:
		status = fiber.StatusServiceUnavailable
	case errs.Network:
		status = fiber.StatusBadGateway
	case errs.Auth:
		status = fiber.StatusUnauthorized
	case errs.Validation:
		status = fiber.StatusBadRequest
	case errs.AlreadyExists:
		status = fiber.StatusConflict
	case errs.Conflict:
		status = fiber.StatusConflict
	case errs.RateLimited:
		status = fiber.StatusTooManyRequests
	case errs.StorageCorruption:
		status = fiber.StatusInternalServerError
	case errs.Backend:
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(ErrorResponse{Status: string(e.Code), Error: e.Message})
}
