package services

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"pazargate/internal/models"
	"pazargate/pkg/logger"
	"pazargate/pkg/textnorm"
)

// DraftStore is the persistence surface the FSM needs for drafts
type DraftStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Draft, error)
	Upsert(ctx context.Context, draft *models.Draft) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

// ListingWriter is the external listings surface the FSM publishes to
type ListingWriter interface {
	Insert(ctx context.Context, listing *models.Listing) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Listing, error)
	Delete(ctx context.Context, id, userID uuid.UUID) (int64, error)
}

// StepOutcome tags what the FSM did with a turn. The controller maps
// outcomes to user-visible Turkish; the FSM never formats messages.
type StepOutcome int

const (
	OutcomeDraftUpdated StepOutcome = iota
	OutcomePreview
	OutcomePublished
	OutcomeCancelled
	OutcomeMissingFields
	OutcomeNoDraft
	OutcomeDeleteList
	OutcomeDeleteConfirm
	OutcomeDeleteEmpty
	OutcomeDeleted
)

// StepResult is the structured result of one FSM step
type StepResult struct {
	Outcome   StepOutcome
	Draft     *models.Draft
	Missing   []string
	ListingID uuid.UUID
	Listings  []*models.Listing
	Target    *models.Listing
}

var (
	attrPairRe = regexp.MustCompile(`(?i)([\p{L} ]+?)\s*:\s*([^,\n]+)`)
	ordinalRe  = regexp.MustCompile(`\b(\d{1,2})\b`)
)

// DraftFSM drives the per-user draft lifecycle:
// DRAFT accepts attributes, PREVIEW awaits confirmation, PUBLISHED and
// CANCELLED are terminal (the row is deleted). One draft per user.
type DraftFSM struct {
	drafts   DraftStore
	listings ListingWriter
	logger   *logger.Logger
}

// NewDraftFSM creates a new draft state machine
func NewDraftFSM(drafts DraftStore, listings ListingWriter, log *logger.Logger) *DraftFSM {
	return &DraftFSM{
		drafts:   drafts,
		listings: listings,
		logger:   log,
	}
}

// Active returns the user's in-progress draft, or nil
func (f *DraftFSM) Active(ctx context.Context, userID uuid.UUID) (*models.Draft, error) {
	draft, err := f.drafts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if draft == nil || draft.State.IsTerminal() {
		return nil, nil
	}
	return draft, nil
}

// Step advances the draft for a create/update/publish turn
func (f *DraftFSM) Step(ctx context.Context, userID uuid.UUID, intent models.Intent, text string, images []string, vision models.VisionProduct) (*StepResult, error) {
	switch intent {
	case models.IntentPublishListing:
		return f.publish(ctx, userID, images)
	default:
		return f.merge(ctx, userID, text, images, vision)
	}
}

// merge folds the turn's attributes into the draft, creating it on
// first contact. The draft advances to PREVIEW when the user asks for
// it or when the required fields are complete.
func (f *DraftFSM) merge(ctx context.Context, userID uuid.UUID, text string, images []string, vision models.VisionProduct) (*StepResult, error) {
	draft, err := f.Active(ctx, userID)
	if err != nil {
		return nil, err
	}

	if draft == nil {
		draft = &models.Draft{
			UserID: userID,
			State:  models.DraftStateDraft,
		}
	}

	// An edit from PREVIEW reopens the draft
	draft.State = models.DraftStateDraft

	extracted := ExtractAttributes(text)
	draft.ListingData.Merge(extracted)
	applyDefaults(&draft.ListingData)

	if draft.ListingData.Category == "" {
		if cat, _, ok := SuggestCategory(draft.ListingData.Title + " " + draft.ListingData.Description + " " + text); ok {
			draft.ListingData.Category = cat
		}
	}

	for _, img := range images {
		draft.Images = append(draft.Images, img)
	}
	if vision != nil {
		draft.VisionProduct = vision
	}

	missing := draft.ListingData.MissingFields()
	if len(missing) == 0 {
		draft.State = models.DraftStatePreview
	}

	if err := f.drafts.Upsert(ctx, draft); err != nil {
		return nil, err
	}

	if draft.State == models.DraftStatePreview {
		return &StepResult{Outcome: OutcomePreview, Draft: draft}, nil
	}

	// An explicit preview request with fields still missing is a
	// validation miss, not a silent merge
	if textnorm.HasPrefixToken(textnorm.Tokens(textnorm.Normalize(text)), "onizle") {
		return &StepResult{Outcome: OutcomeMissingFields, Draft: draft, Missing: missing}, nil
	}
	return &StepResult{Outcome: OutcomeDraftUpdated, Draft: draft, Missing: missing}, nil
}

// publish inserts the listing and removes the draft. Anything but an
// explicit insert success leaves the draft in PREVIEW.
func (f *DraftFSM) publish(ctx context.Context, userID uuid.UUID, images []string) (*StepResult, error) {
	draft, err := f.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return &StepResult{Outcome: OutcomeNoDraft}, nil
	}

	missing := draft.ListingData.MissingFields()
	if len(missing) > 0 {
		draft.State = models.DraftStateDraft
		if err := f.drafts.Upsert(ctx, draft); err != nil {
			return nil, err
		}
		return &StepResult{Outcome: OutcomeMissingFields, Draft: draft, Missing: missing}, nil
	}

	data := draft.ListingData
	applyDefaults(&data)

	listing := &models.Listing{
		UserID:      userID,
		Title:       data.Title,
		Price:       data.Price,
		Category:    data.Category,
		Description: data.Description,
		Condition:   data.Condition,
		Location:    data.Location,
		Stock:       data.Stock,
		Status:      "active",
		Metadata: models.ListingMetadata{
			Type:   TypeForCategory(data.Category),
			Vision: draft.VisionProduct,
		},
		Images: append(draft.Images, images...),
	}

	if err := f.listings.Insert(ctx, listing); err != nil {
		// Draft stays in PREVIEW for another attempt
		draft.State = models.DraftStatePreview
		if upErr := f.drafts.Upsert(ctx, draft); upErr != nil {
			f.logger.Error("failed to keep draft in preview after publish error: %v", upErr)
		}
		return nil, err
	}

	if err := f.drafts.Delete(ctx, userID); err != nil {
		f.logger.Error("failed to delete draft after publish for user %s: %v", userID, err)
	}

	f.logger.Info("listing %s published for user %s", listing.ID, userID)
	return &StepResult{Outcome: OutcomePublished, ListingID: listing.ID}, nil
}

// Cancel removes the user's draft in response to a cancel turn
func (f *DraftFSM) Cancel(ctx context.Context, userID uuid.UUID) (*StepResult, error) {
	if err := f.drafts.Delete(ctx, userID); err != nil {
		return nil, err
	}
	return &StepResult{Outcome: OutcomeCancelled}, nil
}

// CancelSilent removes the draft when the session ends; no reply owed
func (f *DraftFSM) CancelSilent(ctx context.Context, userID uuid.UUID) {
	if err := f.drafts.Delete(ctx, userID); err != nil {
		f.logger.Error("failed to drop draft on session end for user %s: %v", userID, err)
	}
}

// StartDelete resolves a delete_listing turn against the user's
// published listings. A unique match asks for confirmation; otherwise
// the candidate list goes back so the user can pick by number.
func (f *DraftFSM) StartDelete(ctx context.Context, userID uuid.UUID, text string) (*StepResult, error) {
	listings, err := f.listings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return &StepResult{Outcome: OutcomeDeleteEmpty}, nil
	}

	if target := matchListing(listings, text); target != nil {
		return &StepResult{Outcome: OutcomeDeleteConfirm, Target: target, Listings: listings}, nil
	}

	return &StepResult{Outcome: OutcomeDeleteList, Listings: listings}, nil
}

// ResolveDelete deletes the previously confirmed listing
func (f *DraftFSM) ResolveDelete(ctx context.Context, userID, listingID uuid.UUID) (*StepResult, error) {
	rows, err := f.listings.Delete(ctx, listingID, userID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return &StepResult{Outcome: OutcomeDeleteEmpty}, nil
	}
	return &StepResult{Outcome: OutcomeDeleted, ListingID: listingID}, nil
}

// matchListing picks a listing by ordinal ("2 numaralı ilanı sil") or
// by title words present in the text
func matchListing(listings []*models.Listing, text string) *models.Listing {
	if m := ordinalRe.FindStringSubmatch(text); m != nil {
		if idx, err := strconv.Atoi(m[1]); err == nil && idx >= 1 && idx <= len(listings) {
			return listings[idx-1]
		}
	}

	normalized := textnorm.Normalize(text)
	for _, l := range listings {
		title := textnorm.Normalize(l.Title)
		if title != "" && strings.Contains(normalized, title) {
			return l
		}
	}
	return nil
}

// ExtractAttributes pulls listing attributes from "Anahtar: değer"
// pairs and free text. Prices run through the shared text parser.
func ExtractAttributes(text string) models.ListingData {
	var data models.ListingData
	var brand, model string

	for _, m := range attrPairRe.FindAllStringSubmatch(text, -1) {
		key := textnorm.Normalize(strings.TrimSpace(m[1]))
		// Keep only the last word of the key: "ve Model" -> "model"
		if parts := strings.Fields(key); len(parts) > 0 {
			key = parts[len(parts)-1]
		}
		value := strings.TrimSpace(m[2])

		switch key {
		case "marka":
			brand = value
		case "model":
			model = value
		case "baslik", "urun":
			data.Title = value
		case "fiyat", "ucret":
			if price, ok := textnorm.ParsePrice(value); ok {
				data.Price = price
			}
		case "kategori":
			data.Category = value
		case "aciklama":
			data.Description = value
		case "durum":
			data.Condition = NormalizeCondition(value)
		case "konum", "sehir":
			data.Location = value
		case "adet", "stok":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				data.Stock = n
			}
		}
	}

	if data.Title == "" && (brand != "" || model != "") {
		data.Title = strings.TrimSpace(brand + " " + model)
	}

	// Free-text price ("500 bin TL istiyorum") when no pair carried one
	if data.Price == 0 {
		normalized := textnorm.Normalize(text)
		if strings.Contains(normalized, "tl") || strings.Contains(normalized, "lira") ||
			strings.Contains(normalized, "bin") || strings.Contains(normalized, "milyon") {
			if price, ok := textnorm.ParsePrice(text); ok {
				data.Price = price
			}
		}
	}

	if data.Condition == "" {
		if cond := conditionFromText(text); cond != "" {
			data.Condition = cond
		}
	}

	return data
}

// NormalizeCondition maps Turkish and English condition words onto the
// closed set new/used/refurbished
func NormalizeCondition(raw string) string {
	switch textnorm.Normalize(strings.TrimSpace(raw)) {
	case "yeni", "sifir", "new":
		return "new"
	case "yenilenmis", "refurbished":
		return "refurbished"
	case "kullanilmis", "ikinci el", "used":
		return "used"
	default:
		return ""
	}
}

func conditionFromText(text string) string {
	normalized := textnorm.Normalize(text)
	switch {
	case strings.Contains(normalized, "sifir") || textnorm.HasToken(textnorm.Tokens(normalized), []string{"yeni"}):
		return "new"
	case strings.Contains(normalized, "yenilenmis"):
		return "refurbished"
	case strings.Contains(normalized, "kullanilmis") || strings.Contains(normalized, "ikinci el"):
		return "used"
	default:
		return ""
	}
}

// applyDefaults fills the marketplace defaults the FSM guarantees
func applyDefaults(data *models.ListingData) {
	if data.Location == "" {
		data.Location = "Türkiye"
	}
	if data.Stock == 0 {
		data.Stock = 1
	}
	if data.Condition == "" {
		data.Condition = "used"
	}
}
