package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type OrderRepo struct {
	q Querier
}

func (r *OrderRepo) Create(ctx context.Context, o *models.Order) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO orders (buyer_id, seller_id, listing_id, status, price_cents, shipping_address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, o.BuyerID, o.SellerID, o.ListingID, o.Status, o.PriceCents, o.ShippingAddress,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := r.q.QueryRow(ctx, `
		SELECT id, buyer_id, seller_id, listing_id, status, price_cents, shipping_address, created_at, updated_at
		FROM orders WHERE id = $1
	`, id).Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.ListingID, &o.Status, &o.PriceCents,
		&o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// CompareAndSetStatus moves the order status only if it still equals
// expected. Returns false when another writer got there first.
func (r *OrderRepo) CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next string) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = now() WHERE id = $2 AND status = $3
	`, next, id, expected)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, f OrderFilter) ([]models.OrderWithListing, error) {
	query := `
		SELECT o.id, o.buyer_id, o.seller_id, o.listing_id, o.status, o.price_cents,
		       o.shipping_address, o.created_at, o.updated_at,
		       l.title, l.category
		FROM orders o
		JOIN listings l ON l.id = o.listing_id
		WHERE (o.buyer_id = $1 OR o.seller_id = $1)
	`
	args := []any{userID}
	argIdx := 2

	if f.Status != nil {
		query += fmt.Sprintf(" AND o.status = $%d", argIdx)
		args = append(args, *f.Status)
		argIdx++
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.OrderWithListing
	for rows.Next() {
		var o models.OrderWithListing
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.SellerID, &o.ListingID, &o.Status, &o.PriceCents,
			&o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt,
			&o.ListingTitle, &o.ListingCategory); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
