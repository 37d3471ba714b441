package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type DisputeRepo struct {
	q Querier
}

func (r *DisputeRepo) Insert(ctx context.Context, d *models.Dispute) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO disputes (order_id, complainant_id, reason, description, evidence_urls, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, d.OrderID, d.ComplainantID, d.Reason, d.Description, d.EvidenceURLs, d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *DisputeRepo) Get(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	d, err := r.scanOne(r.q.QueryRow(ctx, `
		SELECT id, order_id, complainant_id, reason, description, evidence_urls,
		       status, resolved_by, resolved_at, created_at, updated_at
		FROM disputes WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *DisputeRepo) FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	d, err := r.scanOne(r.q.QueryRow(ctx, `
		SELECT id, order_id, complainant_id, reason, description, evidence_urls,
		       status, resolved_by, resolved_at, created_at, updated_at
		FROM disputes WHERE order_id = $1 AND status IN ($2, $3)
	`, orderID, models.DisputeStatusOpen, models.DisputeStatusUnderReview))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

// CompareAndSetStatus resolves a dispute only from the status the caller
// observed. Concurrent verdicts race on this row: exactly one wins.
func (r *DisputeRepo) CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next string, resolvedBy *uuid.UUID) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE disputes
		SET status = $1,
		    resolved_by = COALESCE($2, resolved_by),
		    resolved_at = CASE WHEN $2 IS NULL THEN resolved_at ELSE now() END,
		    updated_at = now()
		WHERE id = $3 AND status = $4
	`, next, resolvedBy, id, expected)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *DisputeRepo) List(ctx context.Context, f DisputeFilter) ([]models.Dispute, error) {
	query := `
		SELECT id, order_id, complainant_id, reason, description, evidence_urls,
		       status, resolved_by, resolved_at, created_at, updated_at
		FROM disputes
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}
	if f.ComplainantID != nil {
		where = append(where, fmt.Sprintf("complainant_id = $%d", argIdx))
		args = append(args, *f.ComplainantID)
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

	var disputes []models.Dispute
	for rows.Next() {
		var d models.Dispute
		if err := rows.Scan(&d.ID, &d.OrderID, &d.ComplainantID, &d.Reason, &d.Description, &d.EvidenceURLs,
			&d.Status, &d.ResolvedBy, &d.ResolvedAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		disputes = append(disputes, d)
	}
	return disputes, rows.Err()
}

func (r *DisputeRepo) scanOne(row pgx.Row) (*models.Dispute, error) {
	var d models.Dispute
	err := row.Scan(&d.ID, &d.OrderID, &d.ComplainantID, &d.Reason, &d.Description, &d.EvidenceURLs,
		&d.Status, &d.ResolvedBy, &d.ResolvedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
