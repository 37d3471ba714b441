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

type ListingHandler struct {
	catalog *services.CatalogService
	log     *zap.Logger
}

func NewListingHandler(catalog *services.CatalogService, log *zap.Logger) *ListingHandler {
	return &ListingHandler{catalog: catalog, log: log}
}

func (h *ListingHandler) CreateListing(c *fiber.Ctx) error {
	var req dto.CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	listing, err := h.catalog.CreateListing(c.Context(), middleware.GetUserID(c), services.CreateListingInput{
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Condition:   req.Condition,
		Category:    req.Category,
		Specs:       req.Specs,
		Images:      req.Images,
		Publish:     req.Publish,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: listing})
}

func (h *ListingHandler) UpdateListing(c *fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid listing id"})
	}

	var req dto.CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	listing, err := h.catalog.UpdateListing(c.Context(), listingID, middleware.GetUserID(c), services.CreateListingInput{
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Condition:   req.Condition,
		Category:    req.Category,
		Specs:       req.Specs,
		Images:      req.Images,
		Publish:     req.Publish,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: listing})
}

func (h *ListingHandler) GetListing(c *fiber.Ctx) error {
	listingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid listing id"})
	}

	listing, err := h.catalog.GetListing(c.Context(), listingID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: listing})
}

func (h *ListingHandler) SearchListings(c *fiber.Ctx) error {
	filter := repositories.ListingFilter{Limit: 20}

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
	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}
	if v := c.Query("q"); v != "" {
		filter.Query = &v
	}
	if v := c.Query("seller_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.SellerID = &id
		}
	}

	listings, err := h.catalog.SearchListings(c.Context(), filter)
	if err != nil {
		h.log.Error("search listings failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: listings})
}

func (h *ListingHandler) ImportListing(c *fiber.Ctx) error {
	var req dto.ImportListingRequest
	if err := c.BodyParser(&req); err != nil || req.PageURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "page_url is required"})
	}

	listing, err := h.catalog.ImportListing(c.Context(), middleware.GetUserID(c), req.PageURL, req.Category)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: listing})
}
