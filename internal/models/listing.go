package models

import (
	"time"

	"github.com/google/uuid"
)

// Listing statuses
const (
	ListingStatusDraft     = "DRAFT"
	ListingStatusActive    = "ACTIVE"
	ListingStatusSold      = "SOLD"
	ListingStatusSuspended = "SUSPENDED"
)

// Hardware condition
const (
	ConditionNew         = "NEW"
	ConditionUsed        = "USED"
	ConditionRefurbished = "REFURBISHED"
	ConditionDamaged     = "DAMAGED"
)

// Hardware categories
const (
	CategoryGPU   = "GPU"
	CategoryCPU   = "CPU"
	CategoryRAM   = "RAM"
	CategoryMobo  = "MOBO"
	CategoryOther = "OTHER"
)

var validCategories = map[string]bool{
	CategoryGPU: true, CategoryCPU: true, CategoryRAM: true,
	CategoryMobo: true, CategoryOther: true,
}

var validConditions = map[string]bool{
	ConditionNew: true, ConditionUsed: true,
	ConditionRefurbished: true, ConditionDamaged: true,
}

func IsValidCategory(c string) bool { return validCategories[c] }

func IsValidCondition(c string) bool { return validConditions[c] }

type Listing struct {
	ID          uuid.UUID `json:"id"`
	SellerID    uuid.UUID `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Condition   string    `json:"condition"`
	Category    string    `json:"category"`
	Specs       any       `json:"specs,omitempty"` // key/value hardware specs
	Images      []string  `json:"images,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
