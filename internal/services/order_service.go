package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/events"
	"github.com/hwmarket/backend/internal/models"
	"github.com/hwmarket/backend/internal/repositories"
	"go.uber.org/zap"
)

// OrderService is the checkout/fulfilment shell around the escrow engine.
// It creates orders and asserts shipping evidence; custody decisions belong
// to EscrowService.
type OrderService struct {
	stores    repositories.Stores
	escrow    *EscrowService
	publisher events.Publisher
	log       *zap.Logger
}

func NewOrderService(stores repositories.Stores, escrow *EscrowService, publisher events.Publisher, log *zap.Logger) *OrderService {
	return &OrderService{stores: stores, escrow: escrow, publisher: publisher, log: log}
}

// Checkout creates a PENDING order for an active listing, snapshotting the
// listing price, then locks the buyer's funds and marks the listing SOLD.
func (s *OrderService) Checkout(ctx context.Context, buyerID, listingID uuid.UUID, shippingAddress any) (*models.Order, *models.EscrowResult, error) {
	listing, err := s.stores.Listings().Get(ctx, listingID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: listing %s", ErrNotFound, listingID)
		}
		return nil, nil, persistence(err)
	}

	if listing.Status != models.ListingStatusActive {
		return nil, nil, fmt.Errorf("%w: listing is %s", ErrInvalidState, listing.Status)
	}
	if listing.SellerID == buyerID {
		return nil, nil, fmt.Errorf("%w: cannot buy your own listing", ErrValidation)
	}

	order := &models.Order{
		BuyerID:         buyerID,
		SellerID:        listing.SellerID,
		ListingID:       listingID,
		Status:          models.OrderStatusPending,
		PriceCents:      listing.PriceCents,
		ShippingAddress: shippingAddress,
	}
	if err := s.stores.Orders().Create(ctx, order); err != nil {
		return nil, nil, persistence(err)
	}

	result, err := s.escrow.LockFunds(ctx, order.ID, listing.PriceCents, buyerID)
	if err != nil {
		// The PENDING order remains; the buyer can retry payment from it.
		return order, nil, err
	}
	order.Status = models.OrderStatusPaid

	if err := s.stores.Listings().UpdateStatus(ctx, listingID, models.ListingStatusSold); err != nil {
		s.log.Error("failed to mark listing sold", zap.String("listing_id", listingID.String()), zap.Error(err))
	}

	return order, result, nil
}

// MarkShipped is the seller's assertion that the item left their hands:
// PAID -> SHIPPED. No custody change.
func (s *OrderService) MarkShipped(ctx context.Context, orderID, actorID uuid.UUID) error {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if order.SellerID != actorID {
		return fmt.Errorf("%w: only the seller can mark shipment", ErrUnauthorized)
	}

	ok, err := s.stores.Orders().CompareAndSetStatus(ctx, orderID, models.OrderStatusPaid, models.OrderStatusShipped)
	if err != nil {
		return persistence(err)
	}
	if !ok {
		return fmt.Errorf("%w: order is not %s", ErrInvalidState, models.OrderStatusPaid)
	}

	if err := s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{
		Type: events.EventOrderShipped,
		Payload: map[string]any{
			"order_id": orderID.String(),
			"buyer_id": order.BuyerID.String(),
		},
	}); err != nil {
		s.log.Warn("notification publish failed", zap.String("event", events.EventOrderShipped), zap.Error(err))
	}
	return nil
}

// ConfirmDelivery is the buyer's delivery confirmation; it is the evidence
// that releases the escrowed funds to the seller.
func (s *OrderService) ConfirmDelivery(ctx context.Context, orderID, actorID uuid.UUID) (*models.EscrowResult, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != actorID {
		return nil, fmt.Errorf("%w: only the buyer can confirm delivery", ErrUnauthorized)
	}
	return s.escrow.ReleaseFunds(ctx, orderID, models.ShippingStatusDelivered, actorID)
}

// GetOrder returns the order to its participants only.
func (s *OrderService) GetOrder(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != actorID && order.SellerID != actorID {
		return nil, fmt.Errorf("%w: not a participant of this order", ErrUnauthorized)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, f repositories.OrderFilter) ([]models.OrderWithListing, error) {
	return s.stores.Orders().ListByUser(ctx, userID, f)
}

func (s *OrderService) getOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.stores.Orders().Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, persistence(err)
	}
	return order, nil
}
