package services

import (
	"math"
	"sort"

	"pazargate/internal/models"
	"pazargate/pkg/textnorm"
)

// categoryKeywords maps marketplace categories to the Turkish keywords
// that signal them. Matching happens on normalized (diacritic-folded)
// text, substring-based to catch inflected forms.
var categoryKeywords = map[string][]string{
	"Otomotiv":         {"araba", "arac", "otomobil", "motor", "kamyon", "motorsiklet", "bmw", "mercedes", "volkswagen", "renault", "toyota", "honda", "lastik"},
	"Elektronik":       {"telefon", "bilgisayar", "laptop", "tablet", "televizyon", "iphone", "samsung", "macbook", "oyun konsolu", "playstation", "xbox", "kulaklik", "sarj"},
	"Emlak":            {"daire", "dubleks", "villa", "arsa", "isyeri", "ofis", "kiralik", "satilik", "bahce", "balkon"},
	"Mobilya":          {"koltuk", "masa", "sandalye", "dolap", "yatak", "kanepe", "gardirop", "kitaplik", "berjer", "kose takimi"},
	"Giyim":            {"ayakkabi", "bot", "mont", "kaban", "pantolon", "gomlek", "elbise", "ceket", "tisort"},
	"Kozmetik & Bakım": {"kolonya", "parfum", "deodorant", "sampuan", "sabun", "krem", "makyaj", "cilt bakimi", "tiras"},
	"Spor & Outdoor":   {"bisiklet", "scooter", "kamp", "cadir", "fitness", "kayak", "dalis"},
	"Hobi & Eğlence":   {"muzik", "gitar", "piyano", "kitap", "roman", "koleksiyon", "pul"},
	"Anne & Bebek":     {"bebek arabasi", "mama sandalyesi", "oyuncak", "bebek odasi", "biberon"},
	"Hayvanlar":        {"kopek", "kedi", "kus", "akvaryum", "kafes", "evcil hayvan"},
	"Ev & Yaşam":       {"mutfak", "tencere", "tabak", "dekorasyon", "vazo", "lamba", "hali", "perde"},
}

// categoryTypes maps a category to the coarse metadata discriminator
var categoryTypes = map[string]models.ListingType{
	"Otomotiv":   models.ListingTypeVehicle,
	"Elektronik": models.ListingTypeElectronics,
	"Emlak":      models.ListingTypeProperty,
	"Giyim":      models.ListingTypeFashion,
}

// SuggestCategory scores each category by keyword hits in the text
// and returns the best match with a confidence in [0,1]. Returns
// ok=false when nothing matches. Categories are scanned in sorted
// order so tie scores resolve the same way on every run.
func SuggestCategory(text string) (category string, confidence float64, ok bool) {
	normalized := textnorm.Normalize(text)

	cats := make([]string, 0, len(categoryKeywords))
	for cat := range categoryKeywords {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	bestScore := 0
	for _, cat := range cats {
		score := 0
		for _, kw := range categoryKeywords[cat] {
			if textnorm.HasPhrase(normalized, []string{kw}) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			category = cat
		}
	}

	if bestScore == 0 {
		return "", 0, false
	}

	return category, math.Min(float64(bestScore)/3.0, 1.0), true
}

// TypeForCategory derives the metadata type discriminator from a
// category name; unknown categories fall back to general
func TypeForCategory(category string) models.ListingType {
	if t, ok := categoryTypes[category]; ok {
		return t
	}
	return models.ListingTypeGeneral
}
