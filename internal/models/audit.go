package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions. Every fund-moving decision writes exactly one entry.
const (
	AuditActionLockFunds            = "LOCK_FUNDS"
	AuditActionReleaseFunds         = "RELEASE_FUNDS"
	AuditActionRefundToBuyer        = "REFUND_TO_BUYER"
	AuditActionOpenDispute          = "OPEN_DISPUTE"
	AuditActionStartDisputeReview   = "START_DISPUTE_REVIEW"
	AuditActionResolveDisputeBuyer  = "RESOLVE_DISPUTE_BUYER"
	AuditActionResolveDisputeSeller = "RESOLVE_DISPUTE_SELLER"
	AuditActionResolveDisputeReject = "RESOLVE_DISPUTE_REJECTED"
)

// AuditLog is append-only: entries are never updated or deleted.
type AuditLog struct {
	ID        uuid.UUID  `json:"id"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty"`
	ActorType string     `json:"actor_type"` // user/admin/system
	Action    string     `json:"action"`
	TargetID  *uuid.UUID `json:"target_id,omitempty"` // order or dispute id
	Details   any        `json:"details,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
