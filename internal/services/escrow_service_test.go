package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/events"
	"github.com/hwmarket/backend/internal/models"
	"github.com/hwmarket/backend/internal/repositories"
	"go.uber.org/zap"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, events.Event) error { return nil }

func newEscrowEnv(t *testing.T) (*repositories.Memory, *EscrowService) {
	t.Helper()
	mem := repositories.NewMemory()
	return mem, NewEscrowService(mem, nopPublisher{}, zap.NewNop())
}

func seedOrder(t *testing.T, mem *repositories.Memory, status string, priceCents int64) *models.Order {
	t.Helper()
	order := &models.Order{
		BuyerID:    uuid.New(),
		SellerID:   uuid.New(),
		ListingID:  uuid.New(),
		Status:     status,
		PriceCents: priceCents,
	}
	if err := mem.Orders().Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func auditEntries(t *testing.T, mem *repositories.Memory, targetID uuid.UUID) []models.AuditLog {
	t.Helper()
	entries, err := mem.Audit().ListByTarget(context.Background(), targetID, 100, 0)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	return entries
}

func orderStatus(t *testing.T, mem *repositories.Memory, id uuid.UUID) string {
	t.Helper()
	order, err := mem.Orders().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	return order.Status
}

func TestLockFunds(t *testing.T) {
	ctx := context.Background()
	mem, escrow := newEscrowEnv(t)
	order := seedOrder(t, mem, models.OrderStatusPending, 5000)

	result, err := escrow.LockFunds(ctx, order.ID, 5000, order.BuyerID)
	if err != nil {
		t.Fatalf("LockFunds: %v", err)
	}
	if !result.Success || result.Status != models.EscrowStatusLocked {
		t.Errorf("result = %+v, want success with status %s", result, models.EscrowStatusLocked)
	}
	if got := orderStatus(t, mem, order.ID); got != models.OrderStatusPaid {
		t.Errorf("order status = %s, want %s", got, models.OrderStatusPaid)
	}

	entries := auditEntries(t, mem, order.ID)
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	if entries[0].Action != models.AuditActionLockFunds {
		t.Errorf("audit action = %s, want %s", entries[0].Action, models.AuditActionLockFunds)
	}
}

func TestLockFundsRejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		orderStatus string
		amount      int64
		wantErr     error
	}{
		{"wrong amount", models.OrderStatusPending, 4999, ErrValidation},
		{"zero amount", models.OrderStatusPending, 0, ErrValidation},
		{"negative amount", models.OrderStatusPending, -5000, ErrValidation},
		{"already paid", models.OrderStatusPaid, 5000, ErrInvalidState},
		{"completed order", models.OrderStatusCompleted, 5000, ErrInvalidState},
		{"cancelled order", models.OrderStatusCancelled, 5000, ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem, escrow := newEscrowEnv(t)
			order := seedOrder(t, mem, tt.orderStatus, 5000)

			_, err := escrow.LockFunds(ctx, order.ID, tt.amount, order.BuyerID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got := orderStatus(t, mem, order.ID); got != tt.orderStatus {
				t.Errorf("order status changed to %s", got)
			}
			if entries := auditEntries(t, mem, order.ID); len(entries) != 0 {
				t.Errorf("rejected lock wrote %d audit entries", len(entries))
			}
		})
	}
}

func TestLockFundsUnknownOrder(t *testing.T) {
	_, escrow := newEscrowEnv(t)
	_, err := escrow.LockFunds(context.Background(), uuid.New(), 5000, uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestReleaseFunds(t *testing.T) {
	ctx := context.Background()

	for _, from := range []string{models.OrderStatusPaid, models.OrderStatusShipped} {
		t.Run("from "+from, func(t *testing.T) {
			mem, escrow := newEscrowEnv(t)
			order := seedOrder(t, mem, from, 5000)

			result, err := escrow.ReleaseFunds(ctx, order.ID, models.ShippingStatusDelivered, order.BuyerID)
			if err != nil {
				t.Fatalf("ReleaseFunds: %v", err)
			}
			if !result.Success || result.Status != models.EscrowStatusReleased {
				t.Errorf("result = %+v, want success with status %s", result, models.EscrowStatusReleased)
			}
			if got := orderStatus(t, mem, order.ID); got != models.OrderStatusCompleted {
				t.Errorf("order status = %s, want %s", got, models.OrderStatusCompleted)
			}

			entries := auditEntries(t, mem, order.ID)
			if len(entries) != 1 || entries[0].Action != models.AuditActionReleaseFunds {
				t.Errorf("audit = %+v, want single %s entry", entries, models.AuditActionReleaseFunds)
			}
		})
	}
}

func TestReleaseFundsWithoutDelivery(t *testing.T) {
	ctx := context.Background()
	mem, escrow := newEscrowEnv(t)
	order := seedOrder(t, mem, models.OrderStatusPaid, 5000)

	for _, shipping := range []string{models.ShippingStatusPending, models.ShippingStatusShipped, ""} {
		_, err := escrow.ReleaseFunds(ctx, order.ID, shipping, order.BuyerID)
		if !errors.Is(err, ErrDeliveryNotConfirmed) {
			t.Fatalf("shipping %q: err = %v, want ErrDeliveryNotConfirmed", shipping, err)
		}
		if err.Error() != "Cannot release funds: Item not delivered." {
			t.Errorf("error text = %q", err.Error())
		}
	}

	if got := orderStatus(t, mem, order.ID); got != models.OrderStatusPaid {
		t.Errorf("order status = %s, want unchanged %s", got, models.OrderStatusPaid)
	}
	if entries := auditEntries(t, mem, order.ID); len(entries) != 0 {
		t.Errorf("rejected release wrote %d audit entries", len(entries))
	}
}

func TestReleaseFundsBlockedByActiveDispute(t *testing.T) {
	ctx := context.Background()
	mem, escrow := newEscrowEnv(t)

	// Dispute row still OPEN even though the order is back in SHIPPED:
	// the guard must consult the dispute store, not just order status.
	order := seedOrder(t, mem, models.OrderStatusShipped, 5000)
	err := mem.Disputes().Insert(ctx, &models.Dispute{
		OrderID:       order.ID,
		ComplainantID: order.BuyerID,
		Reason:        "item dead on arrival",
		Status:        models.DisputeStatusOpen,
	})
	if err != nil {
		t.Fatalf("seed dispute: %v", err)
	}

	if _, err := escrow.ReleaseFunds(ctx, order.ID, models.ShippingStatusDelivered, order.BuyerID); !errors.Is(err, ErrActiveDispute) {
		t.Fatalf("err = %v, want ErrActiveDispute", err)
	}

	// DISPUTED order status alone also blocks.
	disputed := seedOrder(t, mem, models.OrderStatusDisputed, 5000)
	if _, err := escrow.ReleaseFunds(ctx, disputed.ID, models.ShippingStatusDelivered, disputed.BuyerID); !errors.Is(err, ErrActiveDispute) {
		t.Fatalf("disputed order: err = %v, want ErrActiveDispute", err)
	}
}

func TestRefundToBuyer(t *testing.T) {
	ctx := context.Background()
	mem, escrow := newEscrowEnv(t)
	order := seedOrder(t, mem, models.OrderStatusDisputed, 5000)

	result, err := escrow.RefundToBuyer(ctx, order.ID, models.DisputeStatusResolvedBuyer, uuid.New())
	if err != nil {
		t.Fatalf("RefundToBuyer: %v", err)
	}
	if !result.Success || result.Status != models.EscrowStatusRefunded {
		t.Errorf("result = %+v, want success with status %s", result, models.EscrowStatusRefunded)
	}
	if got := orderStatus(t, mem, order.ID); got != models.OrderStatusCancelled {
		t.Errorf("order status = %s, want %s", got, models.OrderStatusCancelled)
	}

	entries := auditEntries(t, mem, order.ID)
	if len(entries) != 1 || entries[0].Action != models.AuditActionRefundToBuyer {
		t.Errorf("audit = %+v, want single %s entry", entries, models.AuditActionRefundToBuyer)
	}
}

func TestRefundToBuyerDenied(t *testing.T) {
	ctx := context.Background()
	mem, escrow := newEscrowEnv(t)
	order := seedOrder(t, mem, models.OrderStatusDisputed, 5000)

	for _, resolution := range []string{
		models.DisputeStatusResolvedSeller,
		models.DisputeStatusOpen,
		models.DisputeStatusUnderReview,
		models.DisputeStatusRejected,
		"",
	} {
		_, err := escrow.RefundToBuyer(ctx, order.ID, resolution, uuid.New())
		if !errors.Is(err, ErrRefundDenied) {
			t.Fatalf("resolution %q: err = %v, want ErrRefundDenied", resolution, err)
		}
		if err.Error() != "Refund denied: Dispute not resolved in favor of buyer." {
			t.Errorf("error text = %q", err.Error())
		}
	}

	if got := orderStatus(t, mem, order.ID); got != models.OrderStatusDisputed {
		t.Errorf("order status = %s, want unchanged %s", got, models.OrderStatusDisputed)
	}
}

// failingAuditStores delegates everything to the wrapped stores but refuses
// audit appends, to prove a failed append aborts the whole transition.
type failingAuditStores struct {
	repositories.Stores
}

func (f failingAuditStores) Audit() repositories.AuditStore { return failingAudit{} }

func (f failingAuditStores) WithinTx(ctx context.Context, fn func(tx repositories.Stores) error) error {
	return f.Stores.WithinTx(ctx, func(tx repositories.Stores) error {
		return fn(failingAuditStores{tx})
	})
}

type failingAudit struct{}

func (failingAudit) Append(context.Context, *models.AuditLog) error {
	return errors.New("audit store down")
}

func (failingAudit) ListByTarget(context.Context, uuid.UUID, int, int) ([]models.AuditLog, error) {
	return nil, errors.New("audit store down")
}

func TestLockFundsRollsBackOnAuditFailure(t *testing.T) {
	ctx := context.Background()
	mem := repositories.NewMemory()
	escrow := NewEscrowService(failingAuditStores{mem}, nopPublisher{}, zap.NewNop())
	order := seedOrder(t, mem, models.OrderStatusPending, 5000)

	_, err := escrow.LockFunds(ctx, order.ID, 5000, order.BuyerID)
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}
	if got := orderStatus(t, mem, order.ID); got != models.OrderStatusPending {
		t.Errorf("order status = %s after rollback, want %s", got, models.OrderStatusPending)
	}
}

func TestApplyVerdictMapping(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		verdict string
		want    string
	}{
		{models.VerdictBuyer, models.OrderStatusCancelled},
		{models.VerdictSeller, models.OrderStatusCompleted},
		{models.VerdictRejected, models.OrderStatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.verdict, func(t *testing.T) {
			mem, escrow := newEscrowEnv(t)
			order := seedOrder(t, mem, models.OrderStatusDisputed, 5000)

			next, err := escrow.ApplyVerdict(ctx, mem, order, tt.verdict)
			if err != nil {
				t.Fatalf("ApplyVerdict: %v", err)
			}
			if next != tt.want {
				t.Errorf("next status = %s, want %s", next, tt.want)
			}
			if got := orderStatus(t, mem, order.ID); got != tt.want {
				t.Errorf("order status = %s, want %s", got, tt.want)
			}
			// The verdict audit entry belongs to the dispute service.
			if entries := auditEntries(t, mem, order.ID); len(entries) != 0 {
				t.Errorf("ApplyVerdict wrote %d audit entries", len(entries))
			}
		})
	}
}

func TestApplyVerdictUnknownVerdict(t *testing.T) {
	mem, escrow := newEscrowEnv(t)
	order := seedOrder(t, mem, models.OrderStatusDisputed, 5000)

	if _, err := escrow.ApplyVerdict(context.Background(), mem, order, "SPLIT"); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}
