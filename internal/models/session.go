package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionType distinguishes timed windows from event-based ones
type SessionType string

const (
	SessionTypeTimed      SessionType = "timed"
	SessionTypeEventBased SessionType = "event-based"
)

// IsValid checks if the session type is valid
func (t SessionType) IsValid() bool {
	return t == SessionTypeTimed || t == SessionTypeEventBased
}

// EndReason is the tagged cause of a session's termination
type EndReason string

const (
	EndReasonTimeout            EndReason = "timeout"
	EndReasonUserCancelled      EndReason = "user_cancelled"
	EndReasonOperationCompleted EndReason = "operation_completed"
	EndReasonManual             EndReason = "manual"
)

// IsValid checks if the end reason is valid
func (r EndReason) IsValid() bool {
	switch r {
	case EndReasonTimeout, EndReasonUserCancelled, EndReasonOperationCompleted, EndReasonManual:
		return true
	default:
		return false
	}
}

// Session represents a phone-scoped authentication window with an
// absolute expiry. At most one session per phone is active at a time;
// the partial unique index on (phone) WHERE is_active enforces it.
type Session struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID       uuid.UUID   `gorm:"type:uuid;not null;index:idx_user_sessions_user_id" json:"user_id"`
	Phone        string      `gorm:"type:varchar(20);not null;index:idx_user_sessions_phone" json:"phone"`
	Token        string      `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_sessions_token" json:"token"`
	IsActive     bool        `gorm:"not null;default:true" json:"is_active"`
	SessionType  SessionType `gorm:"type:varchar(20);not null;default:'timed'" json:"session_type"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt    time.Time   `gorm:"not null" json:"expires_at"`
	LastActivity time.Time   `gorm:"not null" json:"last_activity"`
	EndedAt      *time.Time  `json:"ended_at,omitempty"`
	EndReason    *EndReason  `gorm:"type:varchar(30)" json:"end_reason,omitempty"`
}

// TableName specifies the table name for Session
func (Session) TableName() string {
	return "user_sessions"
}

// BeforeCreate hook to generate UUID and token if not set
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Token == "" {
		s.Token = uuid.NewString()
	}
	return nil
}

// IsExpired checks if the session has passed its absolute expiry
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Alive checks if the session is active and not yet expired
func (s *Session) Alive(now time.Time) bool {
	return s.IsActive && !s.IsExpired(now)
}

// End transitions the session to inactive with the given reason.
// Calling End on an already ended session is a no-op.
func (s *Session) End(reason EndReason, now time.Time) {
	if !s.IsActive {
		return
	}
	s.IsActive = false
	s.EndedAt = &now
	s.EndReason = &reason
}

// Touch updates the activity timestamp without moving the expiry
func (s *Session) Touch(now time.Time) {
	s.LastActivity = now
}

// RemainingSeconds returns how long the session has left, floored at zero
func (s *Session) RemainingSeconds(now time.Time) int {
	if s.IsExpired(now) {
		return 0
	}
	return int(s.ExpiresAt.Sub(now).Seconds())
}
