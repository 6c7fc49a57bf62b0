package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pazargate/internal/models"
)

// SecurityRepository handles database operations for PIN records and
// the verification audit trail
type SecurityRepository struct {
	db *gorm.DB
}

// NewSecurityRepository creates a new security repository
func NewSecurityRepository(db *gorm.DB) *SecurityRepository {
	return &SecurityRepository{
		db: db,
	}
}

// GetByPhone retrieves the PIN record for a phone, or nil when absent
func (r *SecurityRepository) GetByPhone(ctx context.Context, phone string) (*models.PinRecord, error) {
	var record models.PinRecord
	err := withReadRetry(ctx, func() error {
		err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&record).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return storeErr("security.get_by_phone", err)
		}
		return err
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// Upsert stores the PIN record, replacing the hash when the user
// already has one (re-register replaces).
func (r *SecurityRepository) Upsert(ctx context.Context, record *models.PinRecord) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"phone", "pin_hash", "failed_attempts", "is_locked", "blocked_until", "updated_at",
		}),
	}).Create(record).Error
	return storeErr("security.upsert", err)
}

// Save persists the brute-force state fields of an existing record.
// An explicit column list is used so zeroed counters are written.
func (r *SecurityRepository) Save(ctx context.Context, record *models.PinRecord) error {
	err := r.db.WithContext(ctx).Model(&models.PinRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"failed_attempts": record.FailedAttempts,
			"is_locked":       record.IsLocked,
			"blocked_until":   record.BlockedUntil,
			"last_login":      record.LastLogin,
		}).Error
	return storeErr("security.save", err)
}

// DeleteOrphans removes PIN rows claiming the phone for a different
// user, so a re-registered number cannot resolve to a stale profile
func (r *SecurityRepository) DeleteOrphans(ctx context.Context, phone string, keepUserID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("phone = ? AND user_id != ?", phone, keepUserID).
		Delete(&models.PinRecord{}).Error
	return storeErr("security.delete_orphans", err)
}

// AppendAttempt writes one row to the append-only verification audit
func (r *SecurityRepository) AppendAttempt(ctx context.Context, attempt *models.PinAttempt) error {
	err := r.db.WithContext(ctx).Create(attempt).Error
	return storeErr("security.append_attempt", err)
}

// CountRecentFailures returns the failed attempts for a phone since
// the given time, used by the moderation surface
func (r *SecurityRepository) CountRecentFailures(ctx context.Context, phone string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PinAttempt{}).
		Where("phone = ? AND success = ? AND attempted_at >= ?", phone, false, since).
		Count(&count).Error
	if err != nil {
		return 0, storeErr("security.count_failures", err)
	}
	return count, nil
}
