package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/models"
	"github.com/jackc/pgx/v5"
)

type ProfileRepo struct {
	q Querier
}

const profileColumns = `id, email, password_hash, username, full_name, avatar_url,
	reputation_score, is_verified_seller, role, created_at, updated_at`

func (r *ProfileRepo) Create(ctx context.Context, p *models.Profile) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO profiles (email, password_hash, username, full_name, avatar_url, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, reputation_score, is_verified_seller, created_at, updated_at
	`, p.Email, p.PasswordHash, p.Username, p.FullName, p.AvatarURL, p.Role,
	).Scan(&p.ID, &p.ReputationScore, &p.IsVerifiedSeller, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProfileRepo) Get(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return r.scanOne(r.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
}

func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.scanOne(r.q.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE email = $1`, email))
}

func (r *ProfileRepo) Update(ctx context.Context, p *models.Profile) error {
	_, err := r.q.Exec(ctx, `
		UPDATE profiles
		SET username = $1, full_name = $2, avatar_url = $3, reputation_score = $4,
		    is_verified_seller = $5, role = $6, updated_at = now()
		WHERE id = $7
	`, p.Username, p.FullName, p.AvatarURL, p.ReputationScore, p.IsVerifiedSeller, p.Role, p.ID)
	return err
}

func (r *ProfileRepo) scanOne(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.Username, &p.FullName, &p.AvatarURL,
		&p.ReputationScore, &p.IsVerifiedSeller, &p.Role, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
