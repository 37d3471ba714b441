package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/http/dto"
	"github.com/hwmarket/backend/internal/middleware"
	"github.com/hwmarket/backend/internal/repositories"
	"github.com/hwmarket/backend/internal/services"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders *services.OrderService
	escrow *services.EscrowService
	log    *zap.Logger
}

func NewOrderHandler(orders *services.OrderService, escrow *services.EscrowService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, escrow: escrow, log: log}
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid listing_id"})
	}

	order, escrow, err := h.orders.Checkout(c.Context(), middleware.GetUserID(c), listingID, req.ShippingAddress)
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CheckoutResponse{
		Order:  order,
		Escrow: escrow,
		Status: order.Status,
	})
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	order, err := h.orders.GetOrder(c.Context(), orderID, middleware.GetUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: order})
}

func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	filter := repositories.OrderFilter{Limit: 20}

	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}

	orders, err := h.orders.ListOrders(c.Context(), middleware.GetUserID(c), filter)
	if err != nil {
		h.log.Error("list orders failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: orders})
}

func (h *OrderHandler) MarkShipped(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	if err := h.orders.MarkShipped(c.Context(), orderID, middleware.GetUserID(c)); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *OrderHandler) ConfirmDelivery(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	result, err := h.orders.ConfirmDelivery(c.Context(), orderID, middleware.GetUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

// GetAuditTrail exposes the order's custody history to its participants.
func (h *OrderHandler) GetAuditTrail(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	// Participant check rides on GetOrder.
	if _, err := h.orders.GetOrder(c.Context(), orderID, middleware.GetUserID(c)); err != nil {
		return respondErr(c, err)
	}

	limit, offset := 50, 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	entries, err := h.escrow.GetAuditTrail(c.Context(), orderID, limit, offset)
	if err != nil {
		h.log.Error("audit trail failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}
