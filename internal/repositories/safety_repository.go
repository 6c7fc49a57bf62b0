package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pazargate/internal/models"
)

// SafetyRepository handles database operations for image safety flags
type SafetyRepository struct {
	db *gorm.DB
}

// NewSafetyRepository creates a new safety repository
func NewSafetyRepository(db *gorm.DB) *SafetyRepository {
	return &SafetyRepository{
		db: db,
	}
}

// Insert appends a flag row. The trail is append-only on the gate
// path; only moderation review mutates rows afterwards.
func (r *SafetyRepository) Insert(ctx context.Context, flag *models.ImageSafetyFlag) error {
	err := r.db.WithContext(ctx).Create(flag).Error
	return storeErr("safety.insert", err)
}

// GetByID retrieves a flag by ID, or nil when absent
func (r *SafetyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ImageSafetyFlag, error) {
	var flag models.ImageSafetyFlag
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&flag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("safety.get_by_id", err)
	}
	return &flag, nil
}

// ListByStatus retrieves flags in a review state, newest first
func (r *SafetyRepository) ListByStatus(ctx context.Context, status models.FlagStatus, limit int) ([]*models.ImageSafetyFlag, error) {
	var flags []*models.ImageSafetyFlag
	err := withReadRetry(ctx, func() error {
		err := r.db.WithContext(ctx).
			Where("status = ?", status).
			Order("created_at DESC").
			Limit(limit).
			Find(&flags).Error
		return storeErr("safety.list_by_status", err)
	})
	if err != nil {
		return nil, err
	}
	return flags, nil
}

// Update persists the review fields of a flag
func (r *SafetyRepository) Update(ctx context.Context, flag *models.ImageSafetyFlag) error {
	err := r.db.WithContext(ctx).Model(&models.ImageSafetyFlag{}).
		Where("id = ?", flag.ID).
		Updates(map[string]interface{}{
			"status":      flag.Status,
			"reviewed_at": flag.ReviewedAt,
			"reviewer":    flag.Reviewer,
			"notes":       flag.Notes,
		}).Error
	return storeErr("safety.update", err)
}
