package models

// Intent is the closed routing enumeration produced by the intent router
type Intent string

const (
	IntentCreateListing  Intent = "create_listing"
	IntentUpdateListing  Intent = "update_listing"
	IntentDeleteListing  Intent = "delete_listing"
	IntentPublishListing Intent = "publish_listing"
	IntentSearchProduct  Intent = "search_product"
	IntentViewMyListings Intent = "view_my_listings"
	IntentSmallTalk      Intent = "small_talk"
	IntentCancel         Intent = "cancel"
)

// IsValid checks if the intent is a member of the closed set
func (i Intent) IsValid() bool {
	switch i {
	case IntentCreateListing, IntentUpdateListing, IntentDeleteListing,
		IntentPublishListing, IntentSearchProduct, IntentViewMyListings,
		IntentSmallTalk, IntentCancel:
		return true
	default:
		return false
	}
}

// IsListingFlow checks if the intent is handled by the draft state
// machine rather than forwarded to the agent backend
func (i Intent) IsListingFlow() bool {
	switch i {
	case IntentCreateListing, IntentUpdateListing, IntentPublishListing, IntentDeleteListing:
		return true
	default:
		return false
	}
}
