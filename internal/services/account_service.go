package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hwmarket/backend/internal/auth"
	"github.com/hwmarket/backend/internal/config"
	"github.com/hwmarket/backend/internal/models"
	"github.com/hwmarket/backend/internal/repositories"
	"go.uber.org/zap"
)

// AccountService handles registration, login and profile edits. Identity is
// an external collaborator from the engine's perspective: the engines only
// ever see an authenticated actor id and role.
type AccountService struct {
	stores repositories.Stores
	cfg    *config.Config
	log    *zap.Logger
}

func NewAccountService(stores repositories.Stores, cfg *config.Config, log *zap.Logger) *AccountService {
	return &AccountService{stores: stores, cfg: cfg, log: log}
}

func (s *AccountService) Register(ctx context.Context, email, password string, username *string) (*models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrValidation)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	if _, err := s.stores.Profiles().GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrValidation)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, persistence(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		Email:        email,
		PasswordHash: hash,
		Username:     username,
		Role:         models.RoleUser,
	}
	if err := s.stores.Profiles().Create(ctx, profile); err != nil {
		return nil, persistence(err)
	}
	return profile, nil
}

// Login verifies credentials and returns a signed token plus the profile.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	profile, err := s.stores.Profiles().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
		}
		return "", nil, persistence(err)
	}

	if !auth.CheckPassword(profile.PasswordHash, password) {
		return "", nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	token, err := auth.GenerateJWT(s.cfg.JWTSecret, profile.ID, profile.Role, s.cfg.JWTExpiration)
	if err != nil {
		return "", nil, err
	}
	return token, profile, nil
}

func (s *AccountService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile, err := s.stores.Profiles().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: profile %s", ErrNotFound, id)
		}
		return nil, persistence(err)
	}
	return profile, nil
}

type UpdateProfileInput struct {
	Username  *string
	FullName  *string
	AvatarURL *string
}

func (s *AccountService) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*models.Profile, error) {
	profile, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		profile.Username = input.Username
	}
	if input.FullName != nil {
		profile.FullName = input.FullName
	}
	if input.AvatarURL != nil {
		profile.AvatarURL = input.AvatarURL
	}

	if err := s.stores.Profiles().Update(ctx, profile); err != nil {
		return nil, persistence(err)
	}
	return profile, nil
}
