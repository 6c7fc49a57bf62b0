package services

import (
	"regexp"
	"strings"

	"pazargate/internal/config"
	"pazargate/internal/models"
	"pazargate/pkg/textnorm"
)

// IntentRouter is the deterministic keyword-priority classifier over
// the closed intent set. The ordered rules are the contract: earlier
// Turkish phrasings drifted under free-form classification, so routing
// is rule-based on purpose. Classify is a pure function of the
// normalized text and the draft flag.
type IntentRouter struct {
	cancel     triggerSet
	deleteSet  triggerSet
	ownListing triggerSet
	allListing triggerSet
	update     triggerSet
	confirm    triggerSet
	sell       triggerSet
	buy        triggerSet
}

// listing-family tokens considered by the delete rule; the plural
// "ilanlarım" forms belong to the own-listing rule instead
var ilanFamily = []string{"ilan", "ilani", "ilanim", "ilanimi"}

var (
	priceChangeRe = regexp.MustCompile(`fiyat(i|ini)?\s+\S+\s+(yap|olsun)`)
	possessiveRe  = regexp.MustCompile(`\p{L}+(um|im)\s+var`)
	attrTurnRe    = regexp.MustCompile(`\p{L}{2,}\s*:\s*\S`)
)

// triggerSet holds normalized single-word triggers and multi-word
// phrase triggers separately; words match whole tokens, phrases match
// as substrings of the normalized text.
type triggerSet struct {
	words   []string
	phrases []string
}

func newTriggerSet(raw []string) triggerSet {
	var set triggerSet
	for _, entry := range raw {
		n := textnorm.Normalize(strings.TrimSpace(entry))
		if n == "" {
			continue
		}
		if strings.Contains(n, " ") {
			set.phrases = append(set.phrases, n)
		} else {
			set.words = append(set.words, n)
		}
	}
	return set
}

func (s triggerSet) matches(normalized string, tokens []string) bool {
	return textnorm.HasToken(tokens, s.words) || textnorm.HasPhrase(normalized, s.phrases)
}

// NewIntentRouter builds a router from the configured trigger sets
func NewIntentRouter(cfg config.RouterConfig) *IntentRouter {
	return &IntentRouter{
		cancel:     newTriggerSet(cfg.CancelKeywords),
		deleteSet:  newTriggerSet(cfg.DeleteTriggers),
		ownListing: newTriggerSet(cfg.OwnListingTriggers),
		allListing: newTriggerSet(cfg.AllListingTriggers),
		update:     newTriggerSet(cfg.UpdateTriggers),
		confirm:    newTriggerSet(cfg.ConfirmTriggers),
		sell:       newTriggerSet(cfg.SellTriggers),
		buy:        newTriggerSet(cfg.BuyTriggers),
	}
}

// Classify maps a message to an intent. First matching rule wins.
func (r *IntentRouter) Classify(text string, hasDraft bool) models.Intent {
	normalized := textnorm.Normalize(text)
	tokens := textnorm.Tokens(normalized)

	// delete wins even when cancel keywords are present
	if r.deleteSet.matches(normalized, tokens) && textnorm.HasToken(tokens, ilanFamily) {
		return models.IntentDeleteListing
	}

	if r.ownListing.matches(normalized, tokens) {
		return models.IntentViewMyListings
	}

	if r.allListing.matches(normalized, tokens) {
		return models.IntentSearchProduct
	}

	if r.update.matches(normalized, tokens) || priceChangeRe.MatchString(normalized) {
		return models.IntentUpdateListing
	}

	if hasDraft && r.confirm.matches(normalized, tokens) {
		return models.IntentPublishListing
	}

	if r.sell.matches(normalized, tokens) ||
		(possessiveRe.MatchString(normalized) && textnorm.HasPrefixToken(tokens, "sat")) {
		return models.IntentCreateListing
	}

	if r.buy.matches(normalized, tokens) {
		return models.IntentSearchProduct
	}

	if r.cancel.matches(normalized, tokens) && !textnorm.HasPrefixToken(tokens, "ilan") {
		return models.IntentCancel
	}

	// Attribute turns ("Marka: Toyota, Fiyat: 500.000 TL") feed the
	// draft even without a sell verb
	if attrTurnRe.MatchString(normalized) {
		return models.IntentCreateListing
	}

	return models.IntentSmallTalk
}

// IsCancel reports whether the text is a cancel: a cancel keyword with
// no ilan-prefixed token, the same exclusion the cancel routing rule
// applies. Texts naming a listing fall through to routing so the
// delete rule can claim them. The controller uses this ahead of
// routing to end sessions or drop drafts.
func (r *IntentRouter) IsCancel(text string) bool {
	normalized := textnorm.Normalize(text)
	tokens := textnorm.Tokens(normalized)
	return r.cancel.matches(normalized, tokens) && !textnorm.HasPrefixToken(tokens, "ilan")
}

// IsConfirm reports whether the text matches the confirmation set,
// used to resolve a queued destructive action
func (r *IntentRouter) IsConfirm(text string) bool {
	normalized := textnorm.Normalize(text)
	tokens := textnorm.Tokens(normalized)
	return r.confirm.matches(normalized, tokens)
}
