package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// DraftState represents the lifecycle stage of a draft listing
type DraftState string

const (
	DraftStateDraft     DraftState = "DRAFT"
	DraftStatePreview   DraftState = "PREVIEW"
	DraftStatePublished DraftState = "PUBLISHED"
	DraftStateCancelled DraftState = "CANCELLED"
)

// IsValid checks if the draft state is valid
func (s DraftState) IsValid() bool {
	switch s {
	case DraftStateDraft, DraftStatePreview, DraftStatePublished, DraftStateCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal checks if the state accepts no further transitions
func (s DraftState) IsTerminal() bool {
	return s == DraftStatePublished || s == DraftStateCancelled
}

// ListingData is the attribute bag accumulated across turns while a
// listing is being drafted. Price is an integer TRY amount.
type ListingData struct {
	Title       string            `json:"title,omitempty"`
	Price       int64             `json:"price,omitempty"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	Condition   string            `json:"condition,omitempty"`
	Location    string            `json:"location,omitempty"`
	Stock       int               `json:"stock,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Scan implements sql.Scanner interface for ListingData
func (d *ListingData) Scan(value interface{}) error {
	if value == nil {
		*d = ListingData{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return gorm.ErrInvalidData
	}

	return json.Unmarshal(bytes, d)
}

// Value implements driver.Valuer interface for ListingData
func (d ListingData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Merge overlays non-empty fields from other onto d
func (d *ListingData) Merge(other ListingData) {
	if other.Title != "" {
		d.Title = other.Title
	}
	if other.Price > 0 {
		d.Price = other.Price
	}
	if other.Category != "" {
		d.Category = other.Category
	}
	if other.Description != "" {
		d.Description = other.Description
	}
	if other.Condition != "" {
		d.Condition = other.Condition
	}
	if other.Location != "" {
		d.Location = other.Location
	}
	if other.Stock > 0 {
		d.Stock = other.Stock
	}
	for k, v := range other.Extra {
		if d.Extra == nil {
			d.Extra = make(map[string]string)
		}
		d.Extra[k] = v
	}
}

// MissingFields returns which of the preview-required fields are absent
func (d *ListingData) MissingFields() []string {
	var missing []string
	if d.Title == "" {
		missing = append(missing, "title")
	}
	if d.Price <= 0 {
		missing = append(missing, "price")
	}
	if d.Category == "" {
		missing = append(missing, "category")
	}
	return missing
}

// VisionProduct is the opaque classifier snapshot attached to a draft
type VisionProduct map[string]interface{}

// Scan implements sql.Scanner interface for VisionProduct
func (v *VisionProduct) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return gorm.ErrInvalidData
	}

	return json.Unmarshal(bytes, v)
}

// Value implements driver.Valuer interface for VisionProduct
func (v VisionProduct) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// Draft is the single in-progress listing a user carries across turns
type Draft struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_active_drafts_user_id" json:"user_id"`
	State         DraftState     `gorm:"type:varchar(20);not null;default:'DRAFT'" json:"state"`
	ListingData   ListingData    `gorm:"type:jsonb" json:"listing_data"`
	Images        pq.StringArray `gorm:"type:text[]" json:"images"`
	VisionProduct VisionProduct  `gorm:"type:jsonb" json:"vision_product,omitempty"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for Draft
func (Draft) TableName() string {
	return "active_drafts"
}

// BeforeCreate hook to generate UUID if not set
func (d *Draft) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
