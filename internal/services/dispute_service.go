package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/events"
	"github.com/hwmarket/backend/internal/models"
	"github.com/hwmarket/backend/internal/repositories"
	"go.uber.org/zap"
)

// Adjudicator asserts whether an actor may issue dispute verdicts.
// Authorization policy lives behind this capability, not in the state machine.
type Adjudicator interface {
	IsAdjudicator(ctx context.Context, actorID uuid.UUID) (bool, error)
}

// DisputeService owns the dispute lifecycle and serializes a verdict into
// coordinated dispute, order and audit writes. The three effects share one
// transaction: a verdict either fully applies or leaves the dispute in its
// pre-verdict state.
type DisputeService struct {
	stores      repositories.Stores
	escrow      *EscrowService
	adjudicator Adjudicator
	publisher   events.Publisher
	log         *zap.Logger
}

func NewDisputeService(
	stores repositories.Stores,
	escrow *EscrowService,
	adjudicator Adjudicator,
	publisher events.Publisher,
	log *zap.Logger,
) *DisputeService {
	return &DisputeService{
		stores:      stores,
		escrow:      escrow,
		adjudicator: adjudicator,
		publisher:   publisher,
		log:         log,
	}
}

// OpenDispute files a complaint on an order whose funds are in custody
// (PAID or SHIPPED) and freezes the normal release path by moving the order
// to DISPUTED.
func (s *DisputeService) OpenDispute(ctx context.Context, orderID, complainantID uuid.UUID, reason, description string, evidenceURLs []string) (*models.Dispute, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrValidation)
	}

	order, err := s.stores.Orders().Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, persistence(err)
	}

	if complainantID != order.BuyerID && complainantID != order.SellerID {
		return nil, fmt.Errorf("%w: only the buyer or seller may open a dispute", ErrUnauthorized)
	}
	if order.Status != models.OrderStatusPaid && order.Status != models.OrderStatusShipped {
		return nil, fmt.Errorf("%w: order in %s is not disputable", ErrInvalidState, order.Status)
	}

	active, err := s.stores.Disputes().FindActiveByOrder(ctx, orderID)
	if err != nil {
		return nil, persistence(err)
	}
	if active != nil {
		return nil, fmt.Errorf("%w: an active dispute already exists for this order", ErrInvalidState)
	}

	dispute := &models.Dispute{
		OrderID:       orderID,
		ComplainantID: complainantID,
		Reason:        reason,
		Status:        models.DisputeStatusOpen,
		EvidenceURLs:  evidenceURLs,
	}
	if description != "" {
		dispute.Description = &description
	}

	err = s.stores.WithinTx(ctx, func(tx repositories.Stores) error {
		ok, err := tx.Orders().CompareAndSetStatus(ctx, orderID, order.Status, models.OrderStatusDisputed)
		if err != nil {
			return persistence(err)
		}
		if !ok {
			return fmt.Errorf("%w: order left %s concurrently", ErrInvalidState, order.Status)
		}
		if err := tx.Disputes().Insert(ctx, dispute); err != nil {
			return persistence(err)
		}
		return tx.Audit().Append(ctx, &models.AuditLog{
			ActorID:   &complainantID,
			ActorType: "user",
			Action:    models.AuditActionOpenDispute,
			TargetID:  &dispute.ID,
			Details: map[string]any{
				"order_id":         orderID.String(),
				"reason":           reason,
				"pre_order_status": order.Status,
			},
		})
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	s.publishDispute(ctx, events.EventDisputeOpened, dispute, order, map[string]any{"reason": reason})
	return dispute, nil
}

// StartReview marks a dispute as being actively adjudicated: OPEN -> UNDER_REVIEW.
func (s *DisputeService) StartReview(ctx context.Context, disputeID, actorID uuid.UUID) error {
	if err := s.requireAdjudicator(ctx, actorID); err != nil {
		return err
	}

	ok, err := s.stores.Disputes().CompareAndSetStatus(ctx, disputeID, models.DisputeStatusOpen, models.DisputeStatusUnderReview, nil)
	if err != nil {
		return persistence(err)
	}
	if !ok {
		return fmt.Errorf("%w: dispute is not %s", ErrInvalidState, models.DisputeStatusOpen)
	}

	_ = s.stores.Audit().Append(ctx, &models.AuditLog{
		ActorID:   &actorID,
		ActorType: "admin",
		Action:    models.AuditActionStartDisputeReview,
		TargetID:  &disputeID,
	})
	return nil
}

// IssueVerdict closes a dispute. Atomically, as one transaction:
//  1. dispute status moves to the resolved status for the verdict;
//  2. the order moves per the verdict (BUYER -> CANCELLED refund,
//     SELLER -> COMPLETED release, REJECTED -> back to PAID);
//  3. exactly one audit entry records actor, verdict, order and dispute ids.
//
// If two verdicts race, only the first to move the dispute out of
// OPEN/UNDER_REVIEW succeeds; the second fails with ErrInvalidState.
func (s *DisputeService) IssueVerdict(ctx context.Context, disputeID uuid.UUID, verdict string, actorID uuid.UUID) (*models.VerdictResult, error) {
	if err := s.requireAdjudicator(ctx, actorID); err != nil {
		return nil, err
	}

	resolved := models.ResolvedStatusForVerdict(verdict)
	if resolved == "" {
		return nil, fmt.Errorf("%w: unknown verdict %q", ErrValidation, verdict)
	}

	dispute, err := s.stores.Disputes().Get(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: dispute %s", ErrNotFound, disputeID)
		}
		return nil, persistence(err)
	}
	if !dispute.IsActive() {
		return nil, fmt.Errorf("%w: dispute already %s", ErrInvalidState, dispute.Status)
	}

	order, err := s.stores.Orders().Get(ctx, dispute.OrderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, dispute.OrderID)
		}
		return nil, persistence(err)
	}

	var orderStatus string
	err = s.stores.WithinTx(ctx, func(tx repositories.Stores) error {
		ok, err := tx.Disputes().CompareAndSetStatus(ctx, disputeID, dispute.Status, resolved, &actorID)
		if err != nil {
			return persistence(err)
		}
		if !ok {
			return fmt.Errorf("%w: dispute left %s concurrently", ErrInvalidState, dispute.Status)
		}

		orderStatus, err = s.escrow.ApplyVerdict(ctx, tx, order, verdict)
		if err != nil {
			return err
		}

		return tx.Audit().Append(ctx, &models.AuditLog{
			ActorID:   &actorID,
			ActorType: "admin",
			Action:    verdictAuditAction(verdict),
			TargetID:  &disputeID,
			Details: map[string]any{
				"order_id":   dispute.OrderID.String(),
				"dispute_id": disputeID.String(),
				"resolution": resolved,
				"timestamp":  time.Now().UTC().Format(time.RFC3339),
			},
		})
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	s.publishDispute(ctx, events.EventDisputeVerdict, dispute, order, map[string]any{
		"verdict":      verdict,
		"order_status": orderStatus,
	})

	return &models.VerdictResult{
		Success:       true,
		DisputeID:     disputeID,
		OrderID:       dispute.OrderID,
		Verdict:       verdict,
		DisputeStatus: resolved,
		OrderStatus:   orderStatus,
	}, nil
}

func (s *DisputeService) GetDispute(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	d, err := s.stores.Disputes().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: dispute %s", ErrNotFound, id)
		}
		return nil, persistence(err)
	}
	return d, nil
}

func (s *DisputeService) ListDisputes(ctx context.Context, f repositories.DisputeFilter) ([]models.Dispute, error) {
	return s.stores.Disputes().List(ctx, f)
}

func (s *DisputeService) requireAdjudicator(ctx context.Context, actorID uuid.UUID) error {
	ok, err := s.adjudicator.IsAdjudicator(ctx, actorID)
	if err != nil {
		return persistence(err)
	}
	if !ok {
		return fmt.Errorf("%w: actor is not an adjudicator", ErrUnauthorized)
	}
	return nil
}

func verdictAuditAction(verdict string) string {
	switch verdict {
	case models.VerdictBuyer:
		return models.AuditActionResolveDisputeBuyer
	case models.VerdictSeller:
		return models.AuditActionResolveDisputeSeller
	default:
		return models.AuditActionResolveDisputeReject
	}
}

func (s *DisputeService) publishDispute(ctx context.Context, eventType string, dispute *models.Dispute, order *models.Order, extra map[string]any) {
	payload := map[string]any{
		"dispute_id": dispute.ID.String(),
		"order_id":   order.ID.String(),
		"buyer_id":   order.BuyerID.String(),
		"seller_id":  order.SellerID.String(),
	}
	for k, v := range extra {
		payload[k] = v
	}
	if err := s.publisher.Publish(ctx, events.StreamMarketplace, events.Event{Type: eventType, Payload: payload}); err != nil {
		s.log.Warn("notification publish failed", zap.String("event", eventType), zap.Error(err))
	}
}
