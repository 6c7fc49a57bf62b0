package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pazargate/internal/models"
)

// SessionRepository handles database operations for timed sessions
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{
		db: db,
	}
}

// GetActive retrieves the active session for a phone, or nil when none
// exists. Expiry is not checked here; the session manager owns that.
func (r *SessionRepository) GetActive(ctx context.Context, phone string) (*models.Session, error) {
	var session models.Session
	err := withReadRetry(ctx, func() error {
		err := r.db.WithContext(ctx).
			Where("phone = ? AND is_active = ?", phone, true).
			First(&session).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return storeErr("session.get_active", err)
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gorm.ErrRecordNotFound
		}
		return nil
	})

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &session, nil
}

// GetByID retrieves a session by ID, or nil when absent
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("session.get_by_id", err)
	}
	return &session, nil
}

// Open atomically ends any prior active session for the phone (reason
// manual) and inserts a fresh one. The partial unique index over
// (phone) WHERE is_active guards concurrent opens; on a conflict the
// transaction retries once after the competing row has landed.
func (r *SessionRepository) Open(ctx context.Context, userID uuid.UUID, phone string, ttl time.Duration) (*models.Session, error) {
	var opened *models.Session

	attempt := func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			now := time.Now().UTC()

			if err := endActiveTx(tx, phone, models.EndReasonManual, now); err != nil {
				return err
			}

			session := &models.Session{
				UserID:       userID,
				Phone:        phone,
				IsActive:     true,
				SessionType:  models.SessionTypeTimed,
				CreatedAt:    now,
				ExpiresAt:    now.Add(ttl),
				LastActivity: now,
			}
			if err := tx.Create(session).Error; err != nil {
				return err
			}

			opened = session
			return nil
		})
	}

	err := attempt()
	if err != nil && isUniqueViolation(err) {
		// A concurrent open won the index race; end its row and retry
		err = attempt()
	}
	if err != nil {
		return nil, storeErr("session.open", err)
	}

	return opened, nil
}

// endActiveTx flips every active row for the phone to ended
func endActiveTx(tx *gorm.DB, phone string, reason models.EndReason, now time.Time) error {
	return tx.Model(&models.Session{}).
		Where("phone = ? AND is_active = ?", phone, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"ended_at":   now,
			"end_reason": reason,
		}).Error
}

// Touch updates last_activity without moving the absolute expiry
func (r *SessionRepository) Touch(ctx context.Context, id uuid.UUID, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("last_activity", now).Error
	return storeErr("session.touch", err)
}

// End transitions a session to inactive with the given reason.
// Already-ended sessions are left untouched, which makes the call
// idempotent: the first reason and timestamp win.
func (r *SessionRepository) End(ctx context.Context, id uuid.UUID, reason models.EndReason, now time.Time) error {
	err := r.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"ended_at":   now,
			"end_reason": reason,
		}).Error
	return storeErr("session.end", err)
}

// SweepExpired ends every active session whose expiry has passed and
// returns the sessions it transitioned, so the manager can run its
// end hook for each.
func (r *SessionRepository) SweepExpired(ctx context.Context, now time.Time) ([]*models.Session, error) {
	var swept []*models.Session

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("is_active = ? AND expires_at <= ?", true, now).
			Find(&swept).Error; err != nil {
			return err
		}
		if len(swept) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(swept))
		for i, s := range swept {
			ids[i] = s.ID
		}

		return tx.Model(&models.Session{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"is_active":  false,
				"ended_at":   now,
				"end_reason": models.EndReasonTimeout,
			}).Error
	})
	if err != nil {
		return nil, storeErr("session.sweep", err)
	}

	return swept, nil
}
