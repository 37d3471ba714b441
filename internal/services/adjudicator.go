package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/rbac"
	"github.com/hwmarket/backend/internal/repositories"
)

// RoleAdjudicator answers adjudicator checks from the profile store's role
// column. An unknown actor is simply not an adjudicator.
type RoleAdjudicator struct {
	profiles repositories.ProfileStore
}

func NewRoleAdjudicator(profiles repositories.ProfileStore) *RoleAdjudicator {
	return &RoleAdjudicator{profiles: profiles}
}

func (a *RoleAdjudicator) IsAdjudicator(ctx context.Context, actorID uuid.UUID) (bool, error) {
	profile, err := a.profiles.Get(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return rbac.IsAdjudicator(profile.Role), nil
}
