package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type ListingRepo struct {
	q Querier
}

func (r *ListingRepo) Create(ctx context.Context, l *models.Listing) error {
	specsBytes, _ := json.Marshal(l.Specs)
	return r.q.QueryRow(ctx, `
		INSERT INTO listings (seller_id, title, description, price_cents, condition, category, specs, images, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, l.SellerID, l.Title, l.Description, l.PriceCents, l.Condition, l.Category, specsBytes, l.Images, l.Status,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (r *ListingRepo) Get(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var l models.Listing
	var specsBytes []byte
	err := r.q.QueryRow(ctx, `
		SELECT id, seller_id, title, description, price_cents, condition, category, specs, images, status, created_at, updated_at
		FROM listings WHERE id = $1
	`, id).Scan(&l.ID, &l.SellerID, &l.Title, &l.Description, &l.PriceCents, &l.Condition, &l.Category,
		&specsBytes, &l.Images, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	_ = json.Unmarshal(specsBytes, &l.Specs)
	return &l, nil
}

func (r *ListingRepo) Update(ctx context.Context, l *models.Listing) error {
	specsBytes, _ := json.Marshal(l.Specs)
	_, err := r.q.Exec(ctx, `
		UPDATE listings
		SET title = $1, description = $2, price_cents = $3, condition = $4, category = $5,
		    specs = $6, images = $7, status = $8, updated_at = now()
		WHERE id = $9
	`, l.Title, l.Description, l.PriceCents, l.Condition, l.Category, specsBytes, l.Images, l.Status, l.ID)
	return err
}

func (r *ListingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.q.Exec(ctx, `UPDATE listings SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	return err
}

func (r *ListingRepo) Search(ctx context.Context, f ListingFilter) ([]models.Listing, error) {
	query := `
		SELECT id, seller_id, title, description, price_cents, condition, category, specs, images, status, created_at, updated_at
		FROM listings
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.SellerID != nil {
		where = append(where, fmt.Sprintf("seller_id = $%d", argIdx))
		args = append(args, *f.SellerID)
		argIdx++
	}
	if f.Category != nil {
		where = append(where, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, *f.Category)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}
	if f.Query != nil {
		where = append(where, fmt.Sprintf("title ILIKE '%%' || $%d || '%%'", argIdx))
		args = append(args, *f.Query)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		var specsBytes []byte
		if err := rows.Scan(&l.ID, &l.SellerID, &l.Title, &l.Description, &l.PriceCents, &l.Condition, &l.Category,
			&specsBytes, &l.Images, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(specsBytes, &l.Specs)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
