package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PinRecord holds the hashed PIN and brute-force state for one profile.
// Invariant: IsLocked is true exactly while BlockedUntil lies in the future.
type PinRecord struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_security_user_id" json:"user_id"`
	Phone          string     `gorm:"type:varchar(20);not null;uniqueIndex:idx_user_security_phone" json:"phone"`
	PinHash        string     `gorm:"type:varchar(64);not null" json:"-"`
	FailedAttempts int        `gorm:"not null;default:0" json:"failed_attempts"`
	IsLocked       bool       `gorm:"not null;default:false" json:"is_locked"`
	BlockedUntil   *time.Time `json:"blocked_until,omitempty"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for PinRecord
func (PinRecord) TableName() string {
	return "user_security"
}

// BeforeCreate hook to generate UUID if not set
func (p *PinRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// LockActive checks if the record is locked and the lock has not expired
func (p *PinRecord) LockActive(now time.Time) bool {
	return p.IsLocked && p.BlockedUntil != nil && p.BlockedUntil.After(now)
}

// ClearLock resets the brute-force state
func (p *PinRecord) ClearLock() {
	p.FailedAttempts = 0
	p.IsLocked = false
	p.BlockedUntil = nil
}

// Lock sets the lock until the given time
func (p *PinRecord) Lock(until time.Time) {
	p.IsLocked = true
	p.BlockedUntil = &until
}

// MarkLogin records a successful verification
func (p *PinRecord) MarkLogin(now time.Time) {
	p.ClearLock()
	p.LastLogin = &now
}

// PinAttempt is one row in the append-only verification audit trail
type PinAttempt struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Phone       string    `gorm:"type:varchar(20);not null;index:idx_pin_attempts_phone" json:"phone"`
	AttemptedAt time.Time `gorm:"not null" json:"attempted_at"`
	Success     bool      `gorm:"not null" json:"success"`
	Source      string    `gorm:"type:varchar(20);not null;default:'whatsapp'" json:"source"`
}

// TableName specifies the table name for PinAttempt
func (PinAttempt) TableName() string {
	return "pin_verification_attempts"
}
