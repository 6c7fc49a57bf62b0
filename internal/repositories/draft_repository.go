package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pazargate/internal/models"
)

// DraftRepository handles database operations for in-progress drafts
type DraftRepository struct {
	db *gorm.DB
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{
		db: db,
	}
}

// GetByUserID retrieves the user's draft, or nil when none exists
func (r *DraftRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Draft, error) {
	var draft models.Draft
	err := withReadRetry(ctx, func() error {
		err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&draft).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return storeErr("draft.get_by_user", err)
		}
		return err
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &draft, nil
}

// Upsert stores the draft; the unique index on user_id keeps it to
// one draft per user
func (r *DraftRepository) Upsert(ctx context.Context, draft *models.Draft) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"state", "listing_data", "images", "vision_product", "updated_at",
		}),
	}).Create(draft).Error
	return storeErr("draft.upsert", err)
}

// Delete removes the user's draft. Deleting an absent draft is a no-op.
func (r *DraftRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Draft{}).Error
	return storeErr("draft.delete", err)
}
