package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hwmarket/backend/internal/config"
	"github.com/hwmarket/backend/internal/models"
)

// MetaHandler serves the static vocabulary clients need to render forms.
type MetaHandler struct {
	cfg *config.Config
}

func NewMetaHandler(cfg *config.Config) *MetaHandler {
	return &MetaHandler{cfg: cfg}
}

func (h *MetaHandler) GetCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"categories": []string{
			models.CategoryGPU, models.CategoryCPU, models.CategoryRAM,
			models.CategoryMobo, models.CategoryOther,
		},
		"conditions": []string{
			models.ConditionNew, models.ConditionUsed,
			models.ConditionRefurbished, models.ConditionDamaged,
		},
	})
}

func (h *MetaHandler) GetMarketplaceInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"escrow_hold_days":       h.cfg.EscrowHoldDays,
		"max_evidence_urls":      h.cfg.MaxEvidenceURLs,
		"dispute_reason_max_len": h.cfg.DisputeReasonMaxLen,
	})
}
