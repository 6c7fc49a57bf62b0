package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ListingType is the coarse discriminator carried in listing metadata
type ListingType string

const (
	ListingTypeElectronics ListingType = "electronics"
	ListingTypeVehicle     ListingType = "vehicle"
	ListingTypeProperty    ListingType = "property"
	ListingTypeFashion     ListingType = "fashion"
	ListingTypeGeneral     ListingType = "general"
)

// IsValid checks if the listing type is valid
func (t ListingType) IsValid() bool {
	switch t {
	case ListingTypeElectronics, ListingTypeVehicle, ListingTypeProperty,
		ListingTypeFashion, ListingTypeGeneral:
		return true
	default:
		return false
	}
}

// ListingMetadata is the jsonb metadata column on a published listing
type ListingMetadata struct {
	Type   ListingType            `json:"type"`
	Vision map[string]interface{} `json:"vision,omitempty"`
}

// Scan implements sql.Scanner interface for ListingMetadata
func (m *ListingMetadata) Scan(value interface{}) error {
	if value == nil {
		*m = ListingMetadata{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return gorm.ErrInvalidData
	}

	return json.Unmarshal(bytes, m)
}

// Value implements driver.Valuer interface for ListingMetadata
func (m ListingMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Listing is a published marketplace listing. This service only
// inserts, lists and deletes rows; search and ranking live elsewhere.
type Listing struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_listings_user_id" json:"user_id"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Price       int64           `gorm:"not null" json:"price"`
	Category    string          `gorm:"type:varchar(100);not null" json:"category"`
	Description string          `gorm:"type:text" json:"description"`
	Condition   string          `gorm:"type:varchar(20);not null;default:'used'" json:"condition"`
	Location    string          `gorm:"type:varchar(100);not null;default:'Türkiye'" json:"location"`
	Stock       int             `gorm:"not null;default:1" json:"stock"`
	Status      string          `gorm:"type:varchar(20);not null;default:'active';index:idx_listings_status" json:"status"`
	Metadata    ListingMetadata `gorm:"type:jsonb" json:"metadata"`
	Images      pq.StringArray  `gorm:"type:text[]" json:"images"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for Listing
func (Listing) TableName() string {
	return "listings"
}

// BeforeCreate hook to generate UUID if not set
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
