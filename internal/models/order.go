package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusDisputed  = "DISPUTED"
)

// Shipping evidence supplied by the logistics collaborator.
const (
	ShippingStatusPending   = "PENDING"
	ShippingStatusShipped   = "SHIPPED"
	ShippingStatusDelivered = "DELIVERED"
)

// Valid state transitions: from -> []to.
// COMPLETED and CANCELLED are terminal. DISPUTED -> PAID is the path back
// after a rejected dispute: funds stay locked and the normal flow resumes.
var ValidOrderTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusShipped, OrderStatusCompleted, OrderStatusDisputed},
	OrderStatusShipped:   {OrderStatusCompleted, OrderStatusDisputed},
	OrderStatusDisputed:  {OrderStatusCompleted, OrderStatusCancelled, OrderStatusPaid},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidOrderTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID              uuid.UUID `json:"id"`
	BuyerID         uuid.UUID `json:"buyer_id"`
	SellerID        uuid.UUID `json:"seller_id"`
	ListingID       uuid.UUID `json:"listing_id"`
	Status          string    `json:"status"`
	PriceCents      int64     `json:"price_cents"` // listing price snapshot at checkout
	ShippingAddress any       `json:"shipping_address,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OrderWithListing embeds Order and adds listing info to avoid N+1 queries.
type OrderWithListing struct {
	Order
	ListingTitle    *string `json:"listing_title,omitempty"`
	ListingCategory *string `json:"listing_category,omitempty"`
}
