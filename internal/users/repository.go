package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oxbryte/openly-backend/pkg/db/models"
)

// Repository wires together user persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Insert creates the user row. Duplicate aliases surface as unique
// violations for the caller to translate.
func (r *Repository) Insert(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID loads the user without filters.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByClerkID resolves the non-deleted user behind an external
// identity subject. The access guard depends on the deleted filter.
func (r *Repository) FindActiveByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		First(&user, "clerk_id = ? AND deleted = ?", clerkID, false).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByClerkID loads the user regardless of soft-delete state.
func (r *Repository) FindByClerkID(ctx context.Context, clerkID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "clerk_id = ?", clerkID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail loads a non-deleted user by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		First(&user, "email = ? AND deleted = ?", email, false).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update persists the mutated user row.
func (r *Repository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UniqueNameExists reports whether the alias is already claimed.
func (r *Repository) UniqueNameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("unique_name = ?", name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetUniqueName claims the alias for the user. The unique index arbitrates
// races; callers translate the violation to a conflict.
func (r *Repository) SetUniqueName(ctx context.Context, userID uuid.UUID, name string) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("unique_name", name).Error
}

// SoftDeleteByClerkID marks the user deleted without dropping the row, so
// payment history keeps its seller reference.
func (r *Repository) SoftDeleteByClerkID(ctx context.Context, clerkID string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("clerk_id = ?", clerkID).
		Updates(map[string]any{
			"deleted":    true,
			"deleted_at": now,
		}).Error
}
