package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/models"
)

var ErrNotFound = errors.New("repositories: not found")

// OrderStore is the custody-state persistence contract. Status moves only
// through CompareAndSetStatus so concurrent transitions on the same order
// serialize at the row.
type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, f OrderFilter) ([]models.OrderWithListing, error)
}

type OrderFilter struct {
	Status *string
	Limit  int
	Offset int
}

type DisputeStore interface {
	Insert(ctx context.Context, d *models.Dispute) error
	Get(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	// FindActiveByOrder returns the OPEN/UNDER_REVIEW dispute for the order,
	// or (nil, nil) when none exists.
	FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error)
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next string, resolvedBy *uuid.UUID) (bool, error)
	List(ctx context.Context, f DisputeFilter) ([]models.Dispute, error)
}

type DisputeFilter struct {
	Status        *string
	ComplainantID *uuid.UUID
	Limit         int
	Offset        int
}

// AuditStore never updates or deletes. A failed append inside a transaction
// aborts the whole unit.
type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	ListByTarget(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.AuditLog, error)
}

type ListingStore interface {
	Create(ctx context.Context, l *models.Listing) error
	Get(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	Update(ctx context.Context, l *models.Listing) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Search(ctx context.Context, f ListingFilter) ([]models.Listing, error)
}

type ListingFilter struct {
	SellerID *uuid.UUID
	Category *string
	Status   *string
	Query    *string // matches title
	Limit    int
	Offset   int
}

type ProfileStore interface {
	Create(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	Update(ctx context.Context, p *models.Profile) error
}

// Stores bundles the marketplace persistence capabilities. WithinTx runs fn
// against transaction-bound stores: either every write in fn commits or none
// does. Calling WithinTx on already transaction-bound stores joins the open
// transaction.
type Stores interface {
	Orders() OrderStore
	Disputes() DisputeStore
	Listings() ListingStore
	Profiles() ProfileStore
	Audit() AuditStore
	WithinTx(ctx context.Context, fn func(tx Stores) error) error
}
