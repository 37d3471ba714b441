package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute statuses
const (
	DisputeStatusOpen           = "OPEN"
	DisputeStatusUnderReview    = "UNDER_REVIEW"
	DisputeStatusResolvedBuyer  = "RESOLVED_BUYER"
	DisputeStatusResolvedSeller = "RESOLVED_SELLER"
	DisputeStatusRejected       = "REJECTED"
)

// Adjudicator verdicts
const (
	VerdictBuyer    = "BUYER"
	VerdictSeller   = "SELLER"
	VerdictRejected = "REJECTED"
)

// ActiveDisputeStatuses are the statuses from which a verdict may still be
// issued. At most one dispute in these statuses exists per order.
var ActiveDisputeStatuses = []string{DisputeStatusOpen, DisputeStatusUnderReview}

type Dispute struct {
	ID            uuid.UUID  `json:"id"`
	OrderID       uuid.UUID  `json:"order_id"`
	ComplainantID uuid.UUID  `json:"complainant_id"`
	Reason        string     `json:"reason"`
	Description   *string    `json:"description,omitempty"`
	EvidenceURLs  []string   `json:"evidence_urls,omitempty"`
	Status        string     `json:"status"`
	ResolvedBy    *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsActive reports whether the dispute still blocks the order's normal
// release path.
func (d *Dispute) IsActive() bool {
	return d.Status == DisputeStatusOpen || d.Status == DisputeStatusUnderReview
}

// ResolvedStatusForVerdict maps an adjudicator verdict to the terminal
// dispute status it produces. Returns "" for an unknown verdict.
func ResolvedStatusForVerdict(verdict string) string {
	switch verdict {
	case VerdictBuyer:
		return DisputeStatusResolvedBuyer
	case VerdictSeller:
		return DisputeStatusResolvedSeller
	case VerdictRejected:
		return DisputeStatusRejected
	default:
		return ""
	}
}
