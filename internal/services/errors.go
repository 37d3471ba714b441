package services

import (
	"errors"
	"fmt"
)

// Failure taxonomy of the escrow and dispute engines. Every failure leaves
// state untouched; callers decide whether to retry with corrected input.
var (
	// ErrNotFound: the referenced order, dispute, listing or profile does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation: malformed input, reported before any store write.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState: the operation is not legal from the current status.
	// Primary defense against double-spend and double-resolution.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrDeliveryNotConfirmed carries the contract string surfaced to users.
	ErrDeliveryNotConfirmed = errors.New("Cannot release funds: Item not delivered.")

	// ErrRefundDenied carries the contract string surfaced to users.
	ErrRefundDenied = errors.New("Refund denied: Dispute not resolved in favor of buyer.")

	// ErrActiveDispute: funds are frozen while a dispute is OPEN/UNDER_REVIEW.
	ErrActiveDispute = errors.New("funds are frozen: an active dispute exists for this order")

	// ErrUnauthorized: the actor lacks the role the operation requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPersistence: the underlying store transaction failed and was rolled
	// back. Retryable from the caller's point of view.
	ErrPersistence = errors.New("persistence failure")
)

func persistence(err error) error {
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
