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

// AdminHandler is the adjudication surface: dispute queue, review and
// verdicts. Routes are mounted behind AdjudicatorMiddleware, and the services
// re-check the stored role on every verdict.
type AdminHandler struct {
	disputes *services.DisputeService
	escrow   *services.EscrowService
	catalog  *services.CatalogService
	log      *zap.Logger
}

func NewAdminHandler(disputes *services.DisputeService, escrow *services.EscrowService, catalog *services.CatalogService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{disputes: disputes, escrow: escrow, catalog: catalog, log: log}
}

func (h *AdminHandler) SuspendListing(c *fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid listing id"})
	}

	if err := h.catalog.SuspendListing(c.Context(), listingID, middleware.GetUserID(c)); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *AdminHandler) ListDisputes(c *fiber.Ctx) error {
	filter := repositories.DisputeFilter{Limit: 20}

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

	disputes, err := h.disputes.ListDisputes(c.Context(), filter)
	if err != nil {
		h.log.Error("list disputes failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: disputes})
}

func (h *AdminHandler) GetDispute(c *fiber.Ctx) error {
	disputeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid dispute id"})
	}

	dispute, err := h.disputes.GetDispute(c.Context(), disputeID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dispute})
}

func (h *AdminHandler) StartReview(c *fiber.Ctx) error {
	disputeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid dispute id"})
	}

	if err := h.disputes.StartReview(c.Context(), disputeID, middleware.GetUserID(c)); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *AdminHandler) IssueVerdict(c *fiber.Ctx) error {
	disputeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid dispute id"})
	}

	var req dto.IssueVerdictRequest
	if err := c.BodyParser(&req); err != nil || req.Verdict == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "verdict is required (BUYER, SELLER, REJECTED)"})
	}

	result, err := h.disputes.IssueVerdict(c.Context(), disputeID, req.Verdict, middleware.GetUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

func (h *AdminHandler) GetAuditTrail(c *fiber.Ctx) error {
	targetID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid target id"})
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

	entries, err := h.escrow.GetAuditTrail(c.Context(), targetID, limit, offset)
	if err != nil {
		h.log.Error("audit trail failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}
