package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/models"
)

// AuditRepo only ever inserts. There is no update or delete path.
type AuditRepo struct {
	q Querier
}

func (r *AuditRepo) Append(ctx context.Context, entry *models.AuditLog) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO audit_log (actor_id, actor_type, action, target_id, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, entry.ActorID, entry.ActorType, entry.Action, entry.TargetID, entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *AuditRepo) ListByTarget(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, actor_id, actor_type, action, target_id, details, created_at
		FROM audit_log WHERE target_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, targetID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.ActorID, &l.ActorType, &l.Action, &l.TargetID, &l.Details, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
