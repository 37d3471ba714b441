package models

import "testing"

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		// Happy path
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPaid, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusCompleted, true},

		// Delivery confirmed before the seller marked shipment
		{OrderStatusPaid, OrderStatusCompleted, true},

		// Dispute paths
		{OrderStatusPaid, OrderStatusDisputed, true},
		{OrderStatusShipped, OrderStatusDisputed, true},
		{OrderStatusDisputed, OrderStatusCompleted, true},
		{OrderStatusDisputed, OrderStatusCancelled, true},
		{OrderStatusDisputed, OrderStatusPaid, true},

		// Cancellation before payment
		{OrderStatusPending, OrderStatusCancelled, true},

		// Invalid transitions
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusPending, OrderStatusDisputed, false},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusPaid, OrderStatusCancelled, false},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusCompleted, OrderStatusDisputed, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{"nonexistent", OrderStatusPaid, false},
		{OrderStatusPending, "nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			result := IsValidTransition(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestAllStatusesHaveTransitionEntry(t *testing.T) {
	allStatuses := []string{
		OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusDisputed,
	}

	for _, status := range allStatuses {
		if _, ok := ValidOrderTransitions[status]; !ok {
			t.Errorf("status %q missing from ValidOrderTransitions map", status)
		}
	}
}

func TestTerminalStatusesHaveNoTransitions(t *testing.T) {
	terminal := []string{OrderStatusCompleted, OrderStatusCancelled}
	for _, status := range terminal {
		transitions := ValidOrderTransitions[status]
		if len(transitions) != 0 {
			t.Errorf("terminal status %q should have no transitions, got %v", status, transitions)
		}
	}
}

func TestResolvedStatusForVerdict(t *testing.T) {
	tests := []struct {
		verdict  string
		expected string
	}{
		{VerdictBuyer, DisputeStatusResolvedBuyer},
		{VerdictSeller, DisputeStatusResolvedSeller},
		{VerdictRejected, DisputeStatusRejected},
		{"SPLIT", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ResolvedStatusForVerdict(tt.verdict); got != tt.expected {
			t.Errorf("ResolvedStatusForVerdict(%q) = %q, want %q", tt.verdict, got, tt.expected)
		}
	}
}
