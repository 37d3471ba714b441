package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/config"
	"github.com/hwmarket/backend/internal/http/dto"
	"github.com/hwmarket/backend/internal/middleware"
	"github.com/hwmarket/backend/internal/repositories"
	"github.com/hwmarket/backend/internal/services"
	"go.uber.org/zap"
)

type DisputeHandler struct {
	disputes *services.DisputeService
	orders   *services.OrderService
	cfg      *config.Config
	log      *zap.Logger
}

func NewDisputeHandler(disputes *services.DisputeService, orders *services.OrderService, cfg *config.Config, log *zap.Logger) *DisputeHandler {
	return &DisputeHandler{disputes: disputes, orders: orders, cfg: cfg, log: log}
}

func (h *DisputeHandler) OpenDispute(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid order id"})
	}

	var req dto.OpenDisputeRequest
	if err := c.BodyParser(&req); err != nil || req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "reason is required"})
	}
	if len(req.Reason) > h.cfg.DisputeReasonMaxLen {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "reason is too long"})
	}
	if len(req.EvidenceURLs) > h.cfg.MaxEvidenceURLs {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "too many evidence urls"})
	}

	dispute, err := h.disputes.OpenDispute(c.Context(), orderID, middleware.GetUserID(c), req.Reason, req.Description, req.EvidenceURLs)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: dispute})
}

func (h *DisputeHandler) GetDispute(c *fiber.Ctx) error {
	disputeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid dispute id"})
	}

	dispute, err := h.disputes.GetDispute(c.Context(), disputeID)
	if err != nil {
		return respondErr(c, err)
	}

	// Participants only; the admin surface has its own routes.
	if _, err := h.orders.GetOrder(c.Context(), dispute.OrderID, middleware.GetUserID(c)); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dispute})
}

func (h *DisputeHandler) ListMyDisputes(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	filter := repositories.DisputeFilter{
		ComplainantID: &userID,
		Limit:         20,
	}
	if v := c.Query("status"); v != "" {
		filter.Status = &v
	}

	disputes, err := h.disputes.ListDisputes(c.Context(), filter)
	if err != nil {
		h.log.Error("list disputes failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: disputes})
}
