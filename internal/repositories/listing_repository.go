package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pazargate/internal/models"
)

// ListingRepository is the writer surface over published listings.
// Search and ranking belong to the marketplace backend; the gateway
// only inserts on publish, lists for the owner and deletes on request.
type ListingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{
		db: db,
	}
}

// Insert writes a published listing
func (r *ListingRepository) Insert(ctx context.Context, listing *models.Listing) error {
	err := r.db.WithContext(ctx).Create(listing).Error
	return storeErr("listing.insert", err)
}

// ListByUser retrieves the user's active listings, newest first
func (r *ListingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Listing, error) {
	var listings []*models.Listing
	err := withReadRetry(ctx, func() error {
		err := r.db.WithContext(ctx).
			Where("user_id = ? AND status = ?", userID, "active").
			Order("created_at DESC").
			Find(&listings).Error
		return storeErr("listing.list_by_user", err)
	})
	if err != nil {
		return nil, err
	}
	return listings, nil
}

// GetByIDAndUser retrieves one of the user's listings, or nil
func (r *ListingRepository) GetByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("listing.get_by_id", err)
	}
	return &listing, nil
}

// Delete removes a listing owned by the user. Returns the number of
// rows affected so callers can tell a miss from a delete.
func (r *ListingRepository) Delete(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Listing{})
	if result.Error != nil {
		return 0, storeErr("listing.delete", result.Error)
	}
	return result.RowsAffected, nil
}
