package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/events"
	"github.com/hwmarket/backend/internal/models"
	"github.com/hwmarket/backend/internal/repositories"
	"go.uber.org/zap"
)

// EscrowService owns the fund-custody state machine. Each operation takes the
// evidence for its transition as an explicit parameter (shipping status,
// dispute resolution) and never re-derives it, so preconditions fail
// deterministically and the machine tests without live collaborators.
//
// Transitions go through CompareAndSetStatus: concurrent calls on the same
// order serialize at the row, and the loser fails with ErrInvalidState
// instead of double-applying a fund movement.
type EscrowService struct {
	stores    repositories.Stores
	publisher events.Publisher
	log       *zap.Logger
}

func NewEscrowService(stores repositories.Stores, publisher events.Publisher, log *zap.Logger) *EscrowService {
	return &EscrowService{stores: stores, publisher: publisher, log: log}
}

// LockFunds takes the buyer's payment into custody: PENDING -> PAID.
// amountCents must match the listing price snapshotted on the order at
// checkout.
func (s *EscrowService) LockFunds(ctx context.Context, orderID uuid.UUID, amountCents int64, actorID uuid.UUID) (*models.EscrowResult, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if amountCents != order.PriceCents {
		return nil, fmt.Errorf("%w: amount %d does not match listing price %d", ErrValidation, amountCents, order.PriceCents)
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("%w: cannot lock funds for order in %s", ErrInvalidState, order.Status)
	}

	err = s.stores.WithinTx(ctx, func(tx repositories.Stores) error {
		ok, err := tx.Orders().CompareAndSetStatus(ctx, orderID, models.OrderStatusPending, models.OrderStatusPaid)
		if err != nil {
			return persistence(err)
		}
		if !ok {
			return fmt.Errorf("%w: order left %s concurrently", ErrInvalidState, models.OrderStatusPending)
		}
		return tx.Audit().Append(ctx, &models.AuditLog{
			ActorID:   &actorID,
			ActorType: "user",
			Action:    models.AuditActionLockFunds,
			TargetID:  &orderID,
			Details: map[string]any{
				"old_status":   models.OrderStatusPending,
				"new_status":   models.OrderStatusPaid,
				"amount_cents": amountCents,
			},
		})
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	s.publish(ctx, events.EventFundsLocked, order, map[string]any{"amount_cents": amountCents})
	return &models.EscrowResult{Success: true, Status: models.EscrowStatusLocked}, nil
}

// ReleaseFunds hands custody to the seller once delivery is confirmed.
// shippingStatus is asserted by the caller from the logistics collaborator;
// anything but DELIVERED fails closed. Release is also blocked while a
// dispute is active, regardless of delivery evidence.
func (s *EscrowService) ReleaseFunds(ctx context.Context, orderID uuid.UUID, shippingStatus string, actorID uuid.UUID) (*models.EscrowResult, error) {
	if shippingStatus != models.ShippingStatusDelivered {
		return nil, ErrDeliveryNotConfirmed
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoActiveDispute(ctx, order); err != nil {
		return nil, err
	}
	if !models.IsValidTransition(order.Status, models.OrderStatusCompleted) {
		return nil, fmt.Errorf("%w: cannot release funds for order in %s", ErrInvalidState, order.Status)
	}

	err = s.stores.WithinTx(ctx, func(tx repositories.Stores) error {
		ok, err := tx.Orders().CompareAndSetStatus(ctx, orderID, order.Status, models.OrderStatusCompleted)
		if err != nil {
			return persistence(err)
		}
		if !ok {
			return fmt.Errorf("%w: order left %s concurrently", ErrInvalidState, order.Status)
		}
		return tx.Audit().Append(ctx, &models.AuditLog{
			ActorID:   &actorID,
			ActorType: "user",
			Action:    models.AuditActionReleaseFunds,
			TargetID:  &orderID,
			Details: map[string]any{
				"old_status":      order.Status,
				"new_status":      models.OrderStatusCompleted,
				"shipping_status": shippingStatus,
			},
		})
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	s.publish(ctx, events.EventFundsReleased, order, nil)
	return &models.EscrowResult{Success: true, Status: models.EscrowStatusReleased}, nil
}

// RefundToBuyer returns custody to the buyer: only a dispute resolved in the
// buyer's favor is acceptable evidence.
func (s *EscrowService) RefundToBuyer(ctx context.Context, orderID uuid.UUID, disputeResolution string, actorID uuid.UUID) (*models.EscrowResult, error) {
	if disputeResolution != models.DisputeStatusResolvedBuyer {
		return nil, ErrRefundDenied
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !models.IsValidTransition(order.Status, models.OrderStatusCancelled) {
		return nil, fmt.Errorf("%w: cannot refund order in %s", ErrInvalidState, order.Status)
	}

	err = s.stores.WithinTx(ctx, func(tx repositories.Stores) error {
		ok, err := tx.Orders().CompareAndSetStatus(ctx, orderID, order.Status, models.OrderStatusCancelled)
		if err != nil {
			return persistence(err)
		}
		if !ok {
			return fmt.Errorf("%w: order left %s concurrently", ErrInvalidState, order.Status)
		}
		return tx.Audit().Append(ctx, &models.AuditLog{
			ActorID:   &actorID,
			ActorType: "admin",
			Action:    models.AuditActionRefundToBuyer,
			TargetID:  &orderID,
			Details: map[string]any{
				"old_status": order.Status,
				"new_status": models.OrderStatusCancelled,
				"resolution": disputeResolution,
			},
		})
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	s.publish(ctx, events.EventFundsRefunded, order, nil)
	return &models.EscrowResult{Success: true, Status: models.EscrowStatusRefunded}, nil
}

// ApplyVerdict moves the order per an adjudicator verdict, inside the
// caller's transaction. The verdict itself substitutes for delivery or
// refund evidence, so the normal preconditions are bypassed. The dispute
// service owns the single audit entry for the verdict; none is written here.
func (s *EscrowService) ApplyVerdict(ctx context.Context, tx repositories.Stores, order *models.Order, verdict string) (string, error) {
	var next string
	switch verdict {
	case models.VerdictBuyer:
		next = models.OrderStatusCancelled
	case models.VerdictSeller:
		next = models.OrderStatusCompleted
	case models.VerdictRejected:
		// Funds stay locked; the order rejoins the normal flow.
		next = models.OrderStatusPaid
	default:
		return "", fmt.Errorf("%w: unknown verdict %q", ErrValidation, verdict)
	}

	if !models.IsValidTransition(order.Status, next) {
		return "", fmt.Errorf("%w: cannot apply %s verdict to order in %s", ErrInvalidState, verdict, order.Status)
	}

	ok, err := tx.Orders().CompareAndSetStatus(ctx, order.ID, order.Status, next)
	if err != nil {
		return "", persistence(err)
	}
	if !ok {
		return "", fmt.Errorf("%w: order left %s concurrently", ErrInvalidState, order.Status)
	}
	return next, nil
}

// GetAuditTrail returns the fund-moving decisions recorded for an order or
// dispute, newest first.
func (s *EscrowService) GetAuditTrail(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	return s.stores.Audit().ListByTarget(ctx, targetID, limit, offset)
}

func (s *EscrowService) getOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.stores.Orders().Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, persistence(err)
	}
	return order, nil
}

func (s *EscrowService) ensureNoActiveDispute(ctx context.Context, order *models.Order) error {
	if order.Status == models.OrderStatusDisputed {
		return ErrActiveDispute
	}
	active, err := s.stores.Disputes().FindActiveByOrder(ctx, order.ID)
	if err != nil {
		return persistence(err)
	}
	if active != nil {
		return ErrActiveDispute
	}
	return nil
}

func (s *EscrowService) publish(ctx context.Context, eventType string, order *models.Order, extra map[string]any) {
	payload := map[string]any{
		"order_id":  order.ID.String(),
		"buyer_id":  order.BuyerID.String(),
		"seller_id": order.SellerID.String(),
		"at":        time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		payload[k] = v
	}
	if err := s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{Type: eventType, Payload: payload}); err != nil {
		s.log.Warn("notification publish failed", zap.String("event", eventType), zap.Error(err))
	}
}

// wrapTxErr keeps engine errors intact and tags raw store failures as
// persistence errors.
func wrapTxErr(err error) error {
	switch {
	case errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrActiveDispute),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrPersistence):
		return err
	default:
		return persistence(err)
	}
}
