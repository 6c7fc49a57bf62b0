package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pazargate/internal/models"
)

// ProfileRepository handles read access to marketplace profiles.
// Profiles are created by the account service; this gateway only reads.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{
		db: db,
	}
}

// GetByPhone retrieves a profile by phone, or nil when absent
func (r *ProfileRepository) GetByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	var profile models.Profile
	err := withReadRetry(ctx, func() error {
		err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&profile).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return storeErr("profile.get_by_phone", err)
		}
		return err
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

// GetByID retrieves a profile by ID, or nil when absent
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := withReadRetry(ctx, func() error {
		err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return storeErr("profile.get_by_id", err)
		}
		return err
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}
