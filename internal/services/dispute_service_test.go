package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/models"
	"github.com/hwmarket/backend/internal/repositories"
	"go.uber.org/zap"
)

func newDisputeEnv(t *testing.T) (*repositories.Memory, *DisputeService, uuid.UUID) {
	t.Helper()
	mem := repositories.NewMemory()
	escrow := NewEscrowService(mem, nopPublisher{}, zap.NewNop())

	moderator := &models.Profile{
		Email:        "mod@example.com",
		PasswordHash: "x",
		Role:         models.RoleModerator,
	}
	if err := mem.Profiles().Create(context.Background(), moderator); err != nil {
		t.Fatalf("seed moderator: %v", err)
	}

	disputes := NewDisputeService(mem, escrow, NewRoleAdjudicator(mem.Profiles()), nopPublisher{}, zap.NewNop())
	return mem, disputes, moderator.ID
}

func seedDisputedOrder(t *testing.T, mem *repositories.Memory, disputes *DisputeService) (*models.Order, *models.Dispute) {
	t.Helper()
	order := seedOrder(t, mem, models.OrderStatusPaid, 5000)
	dispute, err := disputes.OpenDispute(context.Background(), order.ID, order.BuyerID, "item never arrived", "", nil)
	if err != nil {
		t.Fatalf("open dispute: %v", err)
	}
	return order, dispute
}

func TestOpenDispute(t *testing.T) {
	ctx := context.Background()

	for _, from := range []string{models.OrderStatusPaid, models.OrderStatusShipped} {
		t.Run("from "+from, func(t *testing.T) {
			mem, disputes, _ := newDisputeEnv(t)
			order := seedOrder(t, mem, from, 5000)

			dispute, err := disputes.OpenDispute(ctx, order.ID, order.BuyerID, "wrong item shipped", "got a GTX 1060", nil)
			if err != nil {
				t.Fatalf("OpenDispute: %v", err)
			}
			if dispute.Status != models.DisputeStatusOpen {
				t.Errorf("dispute status = %s, want %s", dispute.Status, models.DisputeStatusOpen)
			}
			if got := orderStatus(t, mem, order.ID); got != models.OrderStatusDisputed {
				t.Errorf("order status = %s, want %s", got, models.OrderStatusDisputed)
			}

			entries := auditEntries(t, mem, dispute.ID)
			if len(entries) != 1 || entries[0].Action != models.AuditActionOpenDispute {
				t.Errorf("audit = %+v, want single %s entry", entries, models.AuditActionOpenDispute)
			}
		})
	}
}

func TestOpenDisputeRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("non-participant", func(t *testing.T) {
		mem, disputes, _ := newDisputeEnv(t)
		order := seedOrder(t, mem, models.OrderStatusPaid, 5000)

		_, err := disputes.OpenDispute(ctx, order.ID, uuid.New(), "not my order but still", "", nil)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("seller may open", func(t *testing.T) {
		mem, disputes, _ := newDisputeEnv(t)
		order := seedOrder(t, mem, models.OrderStatusShipped, 5000)

		if _, err := disputes.OpenDispute(ctx, order.ID, order.SellerID, "buyer refuses handoff", "", nil); err != nil {
			t.Errorf("seller open dispute: %v", err)
		}
	})

	t.Run("empty reason", func(t *testing.T) {
		mem, disputes, _ := newDisputeEnv(t)
		order := seedOrder(t, mem, models.OrderStatusPaid, 5000)

		_, err := disputes.OpenDispute(ctx, order.ID, order.BuyerID, "   ", "", nil)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("err = %v, want ErrValidation", err)
		}
	})

	for _, status := range []string{
		models.OrderStatusPending,
		models.OrderStatusCompleted,
		models.OrderStatusCancelled,
		models.OrderStatusDisputed,
	} {
		t.Run("order in "+status, func(t *testing.T) {
			mem, disputes, _ := newDisputeEnv(t)
			order := seedOrder(t, mem, status, 5000)

			_, err := disputes.OpenDispute(ctx, order.ID, order.BuyerID, "some reason", "", nil)
			if !errors.Is(err, ErrInvalidState) {
				t.Errorf("err = %v, want ErrInvalidState", err)
			}
		})
	}

	t.Run("second active dispute", func(t *testing.T) {
		mem, disputes, _ := newDisputeEnv(t)
		order, _ := seedDisputedOrder(t, mem, disputes)

		_, err := disputes.OpenDispute(ctx, order.ID, order.SellerID, "counter complaint", "", nil)
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("err = %v, want ErrInvalidState", err)
		}
	})
}

func TestIssueVerdictBuyer(t *testing.T) {
	ctx := context.Background()
	mem, disputes, modID := newDisputeEnv(t)
	order, dispute := seedDisputedOrder(t, mem, disputes)

	result, err := disputes.IssueVerdict(ctx, dispute.ID, models.VerdictBuyer, modID)
	if err != nil {
		t.Fatalf("IssueVerdict: %v", err)
	}
	if !result.Success {
		t.Error("result not successful")
	}
	if result.DisputeStatus != models.DisputeStatusResolvedBuyer {
		t.Errorf("dispute status = %s, want %s", result.DisputeStatus, models.DisputeStatusResolvedBuyer)
	}
	if result.OrderStatus != models.OrderStatusCancelled {
		t.Errorf("order status = %s, want %s", result.OrderStatus, models.OrderStatusCancelled)
	}
	if got := orderStatus(t, mem, order.ID); got != models.OrderStatusCancelled {
		t.Errorf("stored order status = %s, want %s", got, models.OrderStatusCancelled)
	}

	stored, err := mem.Disputes().Get(ctx, dispute.ID)
	if err != nil {
		t.Fatalf("get dispute: %v", err)
	}
	if stored.Status != models.DisputeStatusResolvedBuyer {
		t.Errorf("stored dispute status = %s", stored.Status)
	}
	if stored.ResolvedBy == nil || *stored.ResolvedBy != modID {
		t.Errorf("resolved_by = %v, want %s", stored.ResolvedBy, modID)
	}
	if stored.ResolvedAt == nil {
		t.Error("resolved_at not set")
	}

	// Exactly one verdict entry beyond the open-dispute entry.
	entries := auditEntries(t, mem, dispute.ID)
	var verdictEntries []models.AuditLog
	for _, e := range entries {
		if e.Action == models.AuditActionResolveDisputeBuyer {
			verdictEntries = append(verdictEntries, e)
		}
	}
	if len(verdictEntries) != 1 {
		t.Fatalf("verdict audit entries = %d, want 1", len(verdictEntries))
	}
	details, ok := verdictEntries[0].Details.(map[string]any)
	if !ok {
		t.Fatalf("details = %T, want map", verdictEntries[0].Details)
	}
	if details["order_id"] != order.ID.String() {
		t.Errorf("details order_id = %v", details["order_id"])
	}
	if details["resolution"] != models.DisputeStatusResolvedBuyer {
		t.Errorf("details resolution = %v", details["resolution"])
	}
	if details["timestamp"] == "" || details["timestamp"] == nil {
		t.Error("details timestamp missing")
	}
}

func TestIssueVerdictSeller(t *testing.T) {
	ctx := context.Background()
	mem, disputes, modID := newDisputeEnv(t)
	order, dispute := seedDisputedOrder(t, mem, disputes)

	result, err := disputes.IssueVerdict(ctx, dispute.ID, models.VerdictSeller, modID)
	if err != nil {
		t.Fatalf("IssueVerdict: %v", err)
	}
	if result.DisputeStatus != models.DisputeStatusResolvedSeller {
		t.Errorf("dispute status = %s, want %s", result.DisputeStatus, models.DisputeStatusResolvedSeller)
	}
	if got := orderStatus(t, mem, order.ID); got != models.OrderStatusCompleted {
		t.Errorf("order status = %s, want %s", got, models.OrderStatusCompleted)
	}
}

func TestIssueVerdictRejected(t *testing.T) {
	ctx := context.Background()
	mem, disputes, modID := newDisputeEnv(t)
	order, dispute := seedDisputedOrder(t, mem, disputes)

	result, err := disputes.IssueVerdict(ctx, dispute.ID, models.VerdictRejected, modID)
	if err != nil {
		t.Fatalf("IssueVerdict: %v", err)
	}
	if result.DisputeStatus != models.DisputeStatusRejected {
		t.Errorf("dispute status = %s, want %s", result.DisputeStatus, models.DisputeStatusRejected)
	}
	// Funds stay in custody and the order rejoins the normal flow.
	if got := orderStatus(t, mem, order.ID); got != models.OrderStatusPaid {
		t.Errorf("order status = %s, want %s", got, models.OrderStatusPaid)
	}
}

func TestIssueVerdictTwice(t *testing.T) {
	ctx := context.Background()
	mem, disputes, modID := newDisputeEnv(t)
	_, dispute := seedDisputedOrder(t, mem, disputes)

	if _, err := disputes.IssueVerdict(ctx, dispute.ID, models.VerdictBuyer, modID); err != nil {
		t.Fatalf("first verdict: %v", err)
	}

	before := len(auditEntries(t, mem, dispute.ID))
	if _, err := disputes.IssueVerdict(ctx, dispute.ID, models.VerdictSeller, modID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second verdict err = %v, want ErrInvalidState", err)
	}
	if after := len(auditEntries(t, mem, dispute.ID)); after != before {
		t.Errorf("second verdict changed audit count %d -> %d", before, after)
	}
}

func TestIssueVerdictAuthorization(t *testing.T) {
	ctx := context.Background()
	mem, disputes, _ := newDisputeEnv(t)
	order, dispute := seedDisputedOrder(t, mem, disputes)

	// Unknown actor and plain user are both refused.
	if _, err := disputes.IssueVerdict(ctx, dispute.ID, models.VerdictBuyer, uuid.New()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("unknown actor err = %v, want ErrUnauthorized", err)
	}

	user := &models.Profile{Email: "user@example.com", PasswordHash: "x", Role: models.RoleUser}
	if err := mem.Profiles().Create(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := disputes.IssueVerdict(ctx, dispute.ID, models.VerdictBuyer, user.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("plain user err = %v, want ErrUnauthorized", err)
	}

	if got := orderStatus(t, mem, order.ID); got != models.OrderStatusDisputed {
		t.Errorf("order status = %s, want untouched %s", got, models.OrderStatusDisputed)
	}
}

func TestIssueVerdictUnknownVerdict(t *testing.T) {
	_, disputes, modID := newDisputeEnv(t)
	if _, err := disputes.IssueVerdict(context.Background(), uuid.New(), "SPLIT", modID); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestStartReviewThenVerdict(t *testing.T) {
	ctx := context.Background()
	mem, disputes, modID := newDisputeEnv(t)
	order, dispute := seedDisputedOrder(t, mem, disputes)

	if err := disputes.StartReview(ctx, dispute.ID, modID); err != nil {
		t.Fatalf("StartReview: %v", err)
	}
	stored, _ := mem.Disputes().Get(ctx, dispute.ID)
	if stored.Status != models.DisputeStatusUnderReview {
		t.Fatalf("dispute status = %s, want %s", stored.Status, models.DisputeStatusUnderReview)
	}

	// Second review attempt loses the CAS.
	if err := disputes.StartReview(ctx, dispute.ID, modID); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second review err = %v, want ErrInvalidState", err)
	}

	result, err := disputes.IssueVerdict(ctx, dispute.ID, models.VerdictSeller, modID)
	if err != nil {
		t.Fatalf("verdict from review: %v", err)
	}
	if result.OrderStatus != models.OrderStatusCompleted {
		t.Errorf("order status = %s, want %s", result.OrderStatus, models.OrderStatusCompleted)
	}
	if got := orderStatus(t, mem, order.ID); got != models.OrderStatusCompleted {
		t.Errorf("stored order status = %s", got)
	}
}

func TestIssueVerdictRollsBackOnAuditFailure(t *testing.T) {
	ctx := context.Background()
	mem := repositories.NewMemory()
	escrow := NewEscrowService(mem, nopPublisher{}, zap.NewNop())

	moderator := &models.Profile{Email: "mod@example.com", PasswordHash: "x", Role: models.RoleModerator}
	if err := mem.Profiles().Create(ctx, moderator); err != nil {
		t.Fatalf("seed moderator: %v", err)
	}

	seeder := NewDisputeService(mem, escrow, NewRoleAdjudicator(mem.Profiles()), nopPublisher{}, zap.NewNop())
	order, dispute := seedDisputedOrder(t, mem, seeder)

	broken := NewDisputeService(failingAuditStores{mem}, escrow, NewRoleAdjudicator(mem.Profiles()), nopPublisher{}, zap.NewNop())
	if _, err := broken.IssueVerdict(ctx, dispute.ID, models.VerdictBuyer, moderator.ID); !errors.Is(err, ErrPersistence) {
		t.Fatalf("err = %v, want ErrPersistence", err)
	}

	// All three effects rolled back together.
	stored, _ := mem.Disputes().Get(ctx, dispute.ID)
	if stored.Status != models.DisputeStatusOpen {
		t.Errorf("dispute status = %s after rollback, want %s", stored.Status, models.DisputeStatusOpen)
	}
	if got := orderStatus(t, mem, order.ID); got != models.OrderStatusDisputed {
		t.Errorf("order status = %s after rollback, want %s", got, models.OrderStatusDisputed)
	}
}
