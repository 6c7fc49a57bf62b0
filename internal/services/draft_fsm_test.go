package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pazargate/internal/models"
)

func newFSM(drafts DraftStore, listings ListingWriter) *DraftFSM {
	return NewDraftFSM(drafts, listings, testLogger())
}

func TestMergeCreatesDraftAndExtractsAttributes(t *testing.T) {
	ctx := context.Background()
	drafts := newFakeDraftStore()
	fsm := newFSM(drafts, &fakeListingWriter{})
	userID := uuid.New()

	result, err := fsm.Step(ctx, userID, models.IntentCreateListing,
		"Marka: Toyota, Model: Corolla, Fiyat: 500.000 TL", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, OutcomePreview, result.Outcome, "title, price and category are complete")
	data := result.Draft.ListingData
	assert.Equal(t, "Toyota Corolla", data.Title)
	assert.Equal(t, int64(500_000), data.Price)
	assert.Equal(t, "Otomotiv", data.Category)
	assert.Equal(t, "Türkiye", data.Location)
	assert.Equal(t, 1, data.Stock)
	assert.Equal(t, "used", data.Condition)
	assert.Equal(t, models.DraftStatePreview, result.Draft.State)
}

func TestMergeAccumulatesAcrossTurns(t *testing.T) {
	ctx := context.Background()
	drafts := newFakeDraftStore()
	fsm := newFSM(drafts, &fakeListingWriter{})
	userID := uuid.New()

	result, err := fsm.Step(ctx, userID, models.IntentCreateListing, "Telefon satıyorum, sıfır iPhone", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDraftUpdated, result.Outcome)
	assert.Contains(t, result.Missing, "title")
	assert.Contains(t, result.Missing, "price")
	assert.Equal(t, "Elektronik", result.Draft.ListingData.Category)
	assert.Equal(t, "new", result.Draft.ListingData.Condition)

	result, err = fsm.Step(ctx, userID, models.IntentUpdateListing, "Başlık: iPhone 13 128GB", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDraftUpdated, result.Outcome)
	assert.Equal(t, []string{"price"}, result.Missing)

	result, err = fsm.Step(ctx, userID, models.IntentUpdateListing, "Fiyat: 25 bin TL", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomePreview, result.Outcome)
	assert.Equal(t, int64(25_000), result.Draft.ListingData.Price)
	assert.Equal(t, "iPhone 13 128GB", result.Draft.ListingData.Title)
}

func TestOneDraftPerUser(t *testing.T) {
	ctx := context.Background()
	drafts := newFakeDraftStore()
	fsm := newFSM(drafts, &fakeListingWriter{})
	userID := uuid.New()

	first, err := fsm.Step(ctx, userID, models.IntentCreateListing, "Ürün: bisiklet", nil, nil)
	require.NoError(t, err)
	second, err := fsm.Step(ctx, userID, models.IntentCreateListing, "Fiyat: 2000 TL", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Draft.ID, second.Draft.ID, "a second create folds into the same draft")
	assert.Equal(t, "bisiklet", second.Draft.ListingData.Title)
	assert.Equal(t, int64(2000), second.Draft.ListingData.Price)
}

func TestPublishInsertsListingAndDeletesDraft(t *testing.T) {
	ctx := context.Background()
	drafts := newFakeDraftStore()
	listings := &fakeListingWriter{}
	fsm := newFSM(drafts, listings)
	userID := uuid.New()

	_, err := fsm.Step(ctx, userID, models.IntentCreateListing,
		"Marka: Toyota, Model: Corolla, Fiyat: 500.000 TL", []string{"img-1"}, nil)
	require.NoError(t, err)

	result, err := fsm.Step(ctx, userID, models.IntentPublishListing, "onayla", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomePublished, result.Outcome)
	assert.NotEqual(t, uuid.Nil, result.ListingID)

	require.Len(t, listings.listings, 1)
	published := listings.listings[0]
	assert.Equal(t, "Toyota Corolla", published.Title)
	assert.Equal(t, int64(500_000), published.Price)
	assert.Equal(t, "active", published.Status)
	assert.Equal(t, models.ListingTypeVehicle, published.Metadata.Type)
	assert.Equal(t, []string{"img-1"}, []string(published.Images))

	active, err := fsm.Active(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, active, "draft is gone after publish")
}

func TestPublishCarriesVisionSnapshot(t *testing.T) {
	ctx := context.Background()
	drafts := newFakeDraftStore()
	listings := &fakeListingWriter{}
	fsm := newFSM(drafts, listings)
	userID := uuid.New()

	vision := models.VisionProduct{"name": "bisiklet", "condition": "used"}
	_, err := fsm.Step(ctx, userID, models.IntentCreateListing,
		"Ürün: bisiklet, Fiyat: 2000 TL", []string{"img-1"}, vision)
	require.NoError(t, err)

	draft, err := fsm.Active(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, "bisiklet", draft.VisionProduct["name"])

	result, err := fsm.Step(ctx, userID, models.IntentPublishListing, "onayla", nil, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomePublished, result.Outcome)

	require.Len(t, listings.listings, 1)
	assert.Equal(t, "bisiklet", listings.listings[0].Metadata.Vision["name"])
}

func TestPublishWithMissingFieldsReturnsToDraft(t *testing.T) {
	ctx := context.Background()
	drafts := newFakeDraftStore()
	fsm := newFSM(drafts, &fakeListingWriter{})
	userID := uuid.New()

	_, err := fsm.Step(ctx, userID, models.IntentCreateListing, "Ürün: bisiklet", nil, nil)
	require.NoError(t, err)

	result, err := fsm.Step(ctx, userID, models.IntentPublishListing, "onayla", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeMissingFields, result.Outcome)
	assert.Contains(t, result.Missing, "price")
	assert.Equal(t, models.DraftStateDraft, result.Draft.State)
}

func TestPublishFailureKeepsPreview(t *testing.T) {
	ctx := context.Background()
	drafts := newFakeDraftStore()
	listings := &fakeListingWriter{failInsert: errors.New("insert failed")}
	fsm := newFSM(drafts, listings)
	userID := uuid.New()

	_, err := fsm.Step(ctx, userID, models.IntentCreateListing,
		"Marka: Toyota, Model: Corolla, Fiyat: 500.000 TL", nil, nil)
	require.NoError(t, err)

	_, err = fsm.Step(ctx, userID, models.IntentPublishListing, "onayla", nil, nil)
	require.Error(t, err)

	draft, err := fsm.Active(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, draft, "draft survives a failed publish")
	assert.Equal(t, models.DraftStatePreview, draft.State)

	// Retry succeeds once the store recovers
	listings.failInsert = nil
	result, err := fsm.Step(ctx, userID, models.IntentPublishListing, "onayla", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomePublished, result.Outcome)
}

func TestPublishWithoutDraft(t *testing.T) {
	ctx := context.Background()
	fsm := newFSM(newFakeDraftStore(), &fakeListingWriter{})

	result, err := fsm.Step(ctx, uuid.New(), models.IntentPublishListing, "onayla", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoDraft, result.Outcome)
}

func TestCancelRemovesDraft(t *testing.T) {
	ctx := context.Background()
	drafts := newFakeDraftStore()
	fsm := newFSM(drafts, &fakeListingWriter{})
	userID := uuid.New()

	_, err := fsm.Step(ctx, userID, models.IntentCreateListing, "Ürün: bisiklet", nil, nil)
	require.NoError(t, err)

	result, err := fsm.Cancel(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, result.Outcome)

	active, err := fsm.Active(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestEditFromPreviewReopensDraft(t *testing.T) {
	ctx := context.Background()
	drafts := newFakeDraftStore()
	fsm := newFSM(drafts, &fakeListingWriter{})
	userID := uuid.New()

	result, err := fsm.Step(ctx, userID, models.IntentCreateListing,
		"Marka: Toyota, Model: Corolla, Fiyat: 500.000 TL", nil, nil)
	require.NoError(t, err)
	require.Equal(t, OutcomePreview, result.Outcome)

	// A price edit re-runs the merge and lands back in PREVIEW since
	// the required fields stay complete
	result, err = fsm.Step(ctx, userID, models.IntentUpdateListing, "Fiyat: 450.000 TL", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomePreview, result.Outcome)
	assert.Equal(t, int64(450_000), result.Draft.ListingData.Price)
}

func TestDeleteFlow(t *testing.T) {
	ctx := context.Background()
	listings := &fakeListingWriter{}
	fsm := newFSM(newFakeDraftStore(), listings)
	userID := uuid.New()

	require.NoError(t, listings.Insert(ctx, &models.Listing{UserID: userID, Title: "Eski Bisiklet", Price: 2000, Status: "active"}))
	require.NoError(t, listings.Insert(ctx, &models.Listing{UserID: userID, Title: "iPhone 12", Price: 15000, Status: "active"}))

	// Ambiguous request lists the candidates
	result, err := fsm.StartDelete(ctx, userID, "ilanımı sil")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleteList, result.Outcome)
	assert.Len(t, result.Listings, 2)

	// Ordinal picks one and asks for confirmation
	result, err = fsm.StartDelete(ctx, userID, "2 numaralı ilanı sil")
	require.NoError(t, err)
	require.Equal(t, OutcomeDeleteConfirm, result.Outcome)
	assert.Equal(t, "iPhone 12", result.Target.Title)

	// Title match works too
	result, err = fsm.StartDelete(ctx, userID, "eski bisiklet ilanımı sil")
	require.NoError(t, err)
	require.Equal(t, OutcomeDeleteConfirm, result.Outcome)
	target := result.Target

	resolved, err := fsm.ResolveDelete(ctx, userID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleted, resolved.Outcome)

	remaining, err := listings.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "iPhone 12", remaining[0].Title)
}

func TestDeleteFlowEmpty(t *testing.T) {
	ctx := context.Background()
	fsm := newFSM(newFakeDraftStore(), &fakeListingWriter{})

	result, err := fsm.StartDelete(ctx, uuid.New(), "ilanımı sil")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleteEmpty, result.Outcome)
}

func TestResolveDeleteWrongOwner(t *testing.T) {
	ctx := context.Background()
	listings := &fakeListingWriter{}
	fsm := newFSM(newFakeDraftStore(), listings)
	owner := uuid.New()

	listing := &models.Listing{UserID: owner, Title: "Koltuk", Price: 900, Status: "active"}
	require.NoError(t, listings.Insert(ctx, listing))

	result, err := fsm.ResolveDelete(ctx, uuid.New(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleteEmpty, result.Outcome, "other users cannot delete the listing")
}

func TestExtractAttributes(t *testing.T) {
	data := ExtractAttributes("Kategori: Elektronik, Durum: sıfır, Konum: İstanbul, Adet: 3, Açıklama: kutusunda")
	assert.Equal(t, "Elektronik", data.Category)
	assert.Equal(t, "new", data.Condition)
	assert.Equal(t, "İstanbul", data.Location)
	assert.Equal(t, 3, data.Stock)
	assert.Equal(t, "kutusunda", data.Description)

	data = ExtractAttributes("500 bin TL istiyorum")
	assert.Equal(t, int64(500_000), data.Price, "free-text price with currency cue")

	data = ExtractAttributes("arabam 2015 model")
	assert.Zero(t, data.Price, "bare numbers without currency cues are not prices")
}

func TestNormalizeCondition(t *testing.T) {
	assert.Equal(t, "new", NormalizeCondition("Sıfır"))
	assert.Equal(t, "new", NormalizeCondition("yeni"))
	assert.Equal(t, "refurbished", NormalizeCondition("Yenilenmiş"))
	assert.Equal(t, "used", NormalizeCondition("ikinci el"))
	assert.Equal(t, "", NormalizeCondition("fena değil"))
}
