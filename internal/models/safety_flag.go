package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FlagType is the classifier's category for a blocked image
type FlagType string

const (
	FlagTypeNone      FlagType = "none"
	FlagTypeWeapon    FlagType = "weapon"
	FlagTypeDrugs     FlagType = "drugs"
	FlagTypeViolence  FlagType = "violence"
	FlagTypeAbuse     FlagType = "abuse"
	FlagTypeTerrorism FlagType = "terrorism"
	FlagTypeStolen    FlagType = "stolen"
	FlagTypeDocument  FlagType = "document"
	FlagTypeSexual    FlagType = "sexual"
	FlagTypeHate      FlagType = "hate"
	FlagTypeUnknown   FlagType = "unknown"
)

// IsValid checks if the flag type is valid
func (f FlagType) IsValid() bool {
	switch f {
	case FlagTypeNone, FlagTypeWeapon, FlagTypeDrugs, FlagTypeViolence,
		FlagTypeAbuse, FlagTypeTerrorism, FlagTypeStolen, FlagTypeDocument,
		FlagTypeSexual, FlagTypeHate, FlagTypeUnknown:
		return true
	default:
		return false
	}
}

// Confidence is the classifier's certainty bucket
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// IsValid checks if the confidence is valid
func (c Confidence) IsValid() bool {
	return c == ConfidenceHigh || c == ConfidenceMedium || c == ConfidenceLow
}

// FlagStatus tracks the moderation review state of a flag
type FlagStatus string

const (
	FlagStatusPending   FlagStatus = "pending"
	FlagStatusConfirmed FlagStatus = "confirmed"
	FlagStatusDismissed FlagStatus = "dismissed"
	FlagStatusBanned    FlagStatus = "banned"
)

// IsValid checks if the flag status is valid
func (s FlagStatus) IsValid() bool {
	switch s {
	case FlagStatusPending, FlagStatusConfirmed, FlagStatusDismissed, FlagStatusBanned:
		return true
	default:
		return false
	}
}

// ImageSafetyFlag is one row in the append-only safety audit trail.
// A row is written whenever the gate blocks an upload; review happens
// later through the admin surface. Nothing auto-bans.
type ImageSafetyFlag struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index:idx_safety_flags_user_id" json:"user_id,omitempty"`
	ImageRef   *string    `gorm:"type:text" json:"image_ref,omitempty"`
	FlagType   FlagType   `gorm:"type:varchar(20);not null" json:"flag_type"`
	Confidence Confidence `gorm:"type:varchar(10);not null" json:"confidence"`
	Message    string     `gorm:"type:text" json:"message"`
	Status     FlagStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_safety_flags_status" json:"status"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	Reviewer   *uuid.UUID `gorm:"type:uuid" json:"reviewer,omitempty"`
	Notes      *string    `gorm:"type:text" json:"notes,omitempty"`
}

// TableName specifies the table name for ImageSafetyFlag
func (ImageSafetyFlag) TableName() string {
	return "image_safety_flags"
}

// BeforeCreate hook to generate UUID if not set
func (f *ImageSafetyFlag) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Review marks the flag as handled by a moderator
func (f *ImageSafetyFlag) Review(status FlagStatus, reviewer uuid.UUID, notes string, now time.Time) {
	f.Status = status
	f.Reviewer = &reviewer
	f.ReviewedAt = &now
	if notes != "" {
		f.Notes = &notes
	}
}
