package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/hwmarket/backend/internal/http/dto"
	"github.com/hwmarket/backend/internal/services"
)

// respondErr maps the service error taxonomy onto HTTP statuses. The error
// message passes through untouched so contract strings reach the client
// verbatim.
func respondErr(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrActiveDispute):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrDeliveryNotConfirmed),
		errors.Is(err, services.ErrRefundDenied):
		status = fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrPersistence):
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: err.Error()})
}
