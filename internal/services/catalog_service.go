package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/listingparser"
	"github.com/hwmarket/backend/internal/models"
	"github.com/hwmarket/backend/internal/rbac"
	"github.com/hwmarket/backend/internal/repositories"
	"go.uber.org/zap"
)

// CatalogService is presentational CRUD over listings. It never touches
// order status.
type CatalogService struct {
	stores repositories.Stores
	parser *listingparser.Parser
	log    *zap.Logger
}

func NewCatalogService(stores repositories.Stores, parser *listingparser.Parser, log *zap.Logger) *CatalogService {
	return &CatalogService{stores: stores, parser: parser, log: log}
}

type CreateListingInput struct {
	Title       string
	Description string
	PriceCents  int64
	Condition   string
	Category    string
	Specs       any
	Images      []string
	Publish     bool
}

func (s *CatalogService) CreateListing(ctx context.Context, sellerID uuid.UUID, input CreateListingInput) (*models.Listing, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if input.PriceCents <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if !models.IsValidCondition(input.Condition) {
		return nil, fmt.Errorf("%w: invalid condition %q", ErrValidation, input.Condition)
	}
	if !models.IsValidCategory(input.Category) {
		return nil, fmt.Errorf("%w: invalid category %q", ErrValidation, input.Category)
	}

	status := models.ListingStatusDraft
	if input.Publish {
		status = models.ListingStatusActive
	}

	listing := &models.Listing{
		SellerID:    sellerID,
		Title:       input.Title,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Condition:   input.Condition,
		Category:    input.Category,
		Specs:       input.Specs,
		Images:      input.Images,
		Status:      status,
	}
	if err := s.stores.Listings().Create(ctx, listing); err != nil {
		return nil, persistence(err)
	}
	return listing, nil
}

func (s *CatalogService) UpdateListing(ctx context.Context, listingID, actorID uuid.UUID, input CreateListingInput) (*models.Listing, error) {
	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != actorID {
		return nil, fmt.Errorf("%w: only the seller can edit a listing", ErrUnauthorized)
	}
	if listing.Status == models.ListingStatusSold {
		return nil, fmt.Errorf("%w: sold listings are immutable", ErrInvalidState)
	}

	listing.Title = input.Title
	listing.Description = input.Description
	listing.PriceCents = input.PriceCents
	listing.Condition = input.Condition
	listing.Category = input.Category
	listing.Specs = input.Specs
	listing.Images = input.Images
	if input.Publish && listing.Status == models.ListingStatusDraft {
		listing.Status = models.ListingStatusActive
	}

	if err := s.stores.Listings().Update(ctx, listing); err != nil {
		return nil, persistence(err)
	}
	return listing, nil
}

func (s *CatalogService) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return s.getListing(ctx, id)
}

// SuspendListing is a moderation action: it pulls a listing off the market
// without deleting it. Sold listings stay sold.
func (s *CatalogService) SuspendListing(ctx context.Context, listingID, actorID uuid.UUID) error {
	actor, err := s.stores.Profiles().Get(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: unknown actor", ErrUnauthorized)
		}
		return persistence(err)
	}
	if !rbac.HasPermission(actor.Role, rbac.PermSuspendListing) {
		return fmt.Errorf("%w: suspending listings requires a moderator role", ErrUnauthorized)
	}

	listing, err := s.getListing(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.Status == models.ListingStatusSold {
		return fmt.Errorf("%w: sold listings cannot be suspended", ErrInvalidState)
	}

	if err := s.stores.Listings().UpdateStatus(ctx, listingID, models.ListingStatusSuspended); err != nil {
		return persistence(err)
	}
	s.log.Info("listing suspended",
		zap.String("listing_id", listingID.String()),
		zap.String("actor_id", actorID.String()))
	return nil
}

func (s *CatalogService) SearchListings(ctx context.Context, f repositories.ListingFilter) ([]models.Listing, error) {
	return s.stores.Listings().Search(ctx, f)
}

// ImportListing fetches a product page and prefills a DRAFT listing from its
// parsed title, price and spec table. The seller reviews before publishing.
func (s *CatalogService) ImportListing(ctx context.Context, sellerID uuid.UUID, pageURL, category string) (*models.Listing, error) {
	if !models.IsValidCategory(category) {
		return nil, fmt.Errorf("%w: invalid category %q", ErrValidation, category)
	}

	page, err := s.parser.FetchAndParse(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse product page: %v", ErrValidation, err)
	}
	if page.Title == "" {
		return nil, fmt.Errorf("%w: product page has no recognizable title", ErrValidation)
	}

	listing := &models.Listing{
		SellerID:    sellerID,
		Title:       page.Title,
		Description: page.Description,
		PriceCents:  page.PriceCents,
		Condition:   models.ConditionUsed,
		Category:    category,
		Specs:       page.Specs,
		Images:      page.ImageURLs,
		Status:      models.ListingStatusDraft,
	}
	if err := s.stores.Listings().Create(ctx, listing); err != nil {
		return nil, persistence(err)
	}
	return listing, nil
}

func (s *CatalogService) getListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, err := s.stores.Listings().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: listing %s", ErrNotFound, id)
		}
		return nil, persistence(err)
	}
	return listing, nil
}
