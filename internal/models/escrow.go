package models

import "github.com/google/uuid"

// Custody results reported to callers. These are the authoritative custody
// statuses, not money movement: a payment processor is slotted in behind
// this contract.
const (
	EscrowStatusLocked   = "LOCKED"
	EscrowStatusReleased = "RELEASED"
	EscrowStatusRefunded = "REFUNDED"
)

// EscrowResult is the discriminated result of a fund-custody operation.
type EscrowResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// VerdictResult reports the coordinated outcome of an adjudicator verdict.
type VerdictResult struct {
	Success       bool      `json:"success"`
	DisputeID     uuid.UUID `json:"dispute_id"`
	OrderID       uuid.UUID `json:"order_id"`
	Verdict       string    `json:"verdict"`
	DisputeStatus string    `json:"dispute_status"`
	OrderStatus   string    `json:"order_status"`
}
