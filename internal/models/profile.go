package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role represents a profile's access level
type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin || r == RoleModerator
}

// IsStaff checks if the role grants access to the moderation surface
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleModerator
}

// Profile represents a marketplace user. Profiles are created
// out-of-band; this service only reads them.
type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Phone       *string   `gorm:"type:varchar(20);uniqueIndex:idx_profiles_phone" json:"phone,omitempty"`
	DisplayName *string   `gorm:"type:varchar(255)" json:"display_name,omitempty"`
	Role        Role      `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for Profile
func (Profile) TableName() string {
	return "profiles"
}

// BeforeCreate hook to generate UUID if not set
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
