package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oxbryte/openly-backend/pkg/config"
	"github.com/oxbryte/openly-backend/pkg/db"
	"github.com/oxbryte/openly-backend/pkg/db/models"
	pkgerrors "github.com/oxbryte/openly-backend/pkg/errors"
	"github.com/oxbryte/openly-backend/pkg/logger"
	"github.com/oxbryte/openly-backend/pkg/security"
)

var (
	pinRe        = regexp.MustCompile(`^\d{4,8}$`)
	uniqueNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,38}[a-z0-9]$`)
)

// Service exposes account signup and the unique-name handle surface.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (*UserDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	CheckUniqueName(ctx context.Context, name string) (*UniqueNameCheckDTO, error)
	AssignUniqueName(ctx context.Context, userID uuid.UUID, name string) (*UserDTO, error)
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Repo   *Repository
	DB     *db.Client
	PinCfg config.PinConfig
	Logger *logger.Logger
}

// service implements the user service.
type service struct {
	repo     *Repository
	dbClient *db.Client
	pinCfg   config.PinConfig
	logg     *logger.Logger
}

// NewService constructs a user service instance.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{
		repo:     params.Repo,
		dbClient: params.DB,
		pinCfg:   params.PinCfg,
		logg:     params.Logger,
	}, nil
}

// Signup provisions an account directly, without waiting for the identity
// provider lifecycle webhook. Uniqueness of username and wallet address is
// arbitrated by the database indexes.
func (s *service) Signup(ctx context.Context, input SignupInput) (*UserDTO, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if !pinRe.MatchString(input.Pin) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pin must be 4 to 8 digits")
	}
	wallet := strings.TrimSpace(input.WalletAddress)
	if wallet == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "walletAddress is required")
	}

	var email *string
	if input.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*input.Email))
		if normalized != "" {
			email = &normalized
		}
	}

	pinHash, err := security.HashPin(input.Pin, s.pinCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash pin")
	}

	created := &models.User{
		ID:            uuid.New(),
		Username:      username,
		Email:         email,
		PinHash:       pinHash,
		WalletAddress: &wallet,
	}
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Insert(ctx, created)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "username") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		if db.IsUniqueViolation(err, "wallet_address") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "wallet address already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithUserID(ctx, created.ID.String()), "user signed up")
	}
	return toUserDTO(created), nil
}

// GetByID loads the profile for the authenticated user.
func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return toUserDTO(found), nil
}

// CheckUniqueName reports whether the normalized handle is free to claim.
func (s *service) CheckUniqueName(ctx context.Context, name string) (*UniqueNameCheckDTO, error) {
	normalized, err := normalizeUniqueName(name)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.UniqueNameExists(ctx, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check unique name")
	}
	return &UniqueNameCheckDTO{Name: normalized, Available: !exists}, nil
}

// AssignUniqueName claims the handle for the user and marks onboarding
// complete. A losing race surfaces as a conflict from the unique index.
func (s *service) AssignUniqueName(ctx context.Context, userID uuid.UUID, name string) (*UserDTO, error) {
	normalized, err := normalizeUniqueName(name)
	if err != nil {
		return nil, err
	}

	var updated *models.User
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
		}
		if found.UniqueName != nil && *found.UniqueName == normalized {
			updated = found
			return nil
		}
		found.UniqueName = &normalized
		found.OnboardingComplete = true
		if err := repo.Update(ctx, found); err != nil {
			if db.IsUniqueViolation(err, "unique_name") {
				return pkgerrors.New(pkgerrors.CodeConflict, "unique name already taken")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign unique name")
		}
		updated = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toUserDTO(updated), nil
}

func normalizeUniqueName(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if !uniqueNameRe.MatchString(normalized) {
		return "", pkgerrors.New(pkgerrors.CodeValidation,
			"unique name must be 3 to 40 characters of lowercase letters, digits and hyphens")
	}
	return normalized, nil
}
