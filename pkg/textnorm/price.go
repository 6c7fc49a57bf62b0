// pkg/textnorm/price.go
package textnorm

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	thousandsGrouped = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
	decimalComma     = regexp.MustCompile(`^\d+,\d+$`)
	decimalDot       = regexp.MustCompile(`^\d+\.\d+$`)
	plainNumber      = regexp.MustCompile(`^\d+$`)
	numberToken      = regexp.MustCompile(`(\d[\d.,]*)\s*(milyon|bin|[mk]\b)?`)
)

var currencyWords = []string{"tl", "try", "lira", "₺"}

var wordOnes = map[string]int64{
	"bir": 1, "iki": 2, "uc": 3, "dort": 4, "bes": 5,
	"alti": 6, "yedi": 7, "sekiz": 8, "dokuz": 9,
}

var wordTens = map[string]int64{
	"on": 10, "yirmi": 20, "otuz": 30, "kirk": 40, "elli": 50,
	"altmis": 60, "yetmis": 70, "seksen": 80, "doksan": 90,
}

// ParsePrice turns Turkish marketplace price text into an integer TRY
// amount. Understands grouped digits ("500.000 TL"), decimal commas,
// scale words and suffixes ("25 bin", "2.5M", "1,5 milyon") and basic
// spelled-out numbers ("otuz bes bin"). Returns false when no price
// can be recognized.
func ParsePrice(raw string) (int64, bool) {
	n := Normalize(raw)
	for _, w := range currencyWords {
		n = strings.ReplaceAll(n, w, " ")
	}
	n = strings.TrimSpace(n)
	if n == "" {
		return 0, false
	}

	if m := numberToken.FindStringSubmatch(n); m != nil && m[1] != "" {
		value, ok := parseNumeric(strings.Trim(m[1], ".,"), scaleOf(m[2]) > 1)
		if ok {
			total := value * float64(scaleOf(m[2]))
			if total >= 1 {
				return int64(math.Round(total)), true
			}
		}
	}

	return parseWords(n)
}

func scaleOf(suffix string) int64 {
	switch suffix {
	case "m", "milyon":
		return 1_000_000
	case "k", "bin":
		return 1_000
	default:
		return 1
	}
}

// parseNumeric resolves the dot/comma ambiguity: grouped dots are
// thousands separators, a single comma (or a dot followed by a scale
// word) is a decimal point.
func parseNumeric(s string, scaled bool) (float64, bool) {
	switch {
	case plainNumber.MatchString(s):
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil
	case thousandsGrouped.MatchString(s) && !scaled:
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ".", ""), 64)
		return v, err == nil
	case decimalComma.MatchString(s):
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		return v, err == nil
	case decimalDot.MatchString(s):
		v, err := strconv.ParseFloat(s, 64)
		return v, err == nil
	default:
		return 0, false
	}
}

// parseWords evaluates spelled-out numbers like "otuz bes bin":
// tens and ones accumulate, scale words multiply the accumulated group.
func parseWords(n string) (int64, bool) {
	var total, group int64
	seen := false
	for _, tok := range Tokens(n) {
		switch {
		case tok == "yuz":
			if group == 0 {
				group = 1
			}
			group *= 100
			seen = true
		case tok == "bin":
			if group == 0 {
				group = 1
			}
			total += group * 1_000
			group = 0
			seen = true
		case tok == "milyon":
			if group == 0 {
				group = 1
			}
			total += group * 1_000_000
			group = 0
			seen = true
		default:
			if v, ok := wordTens[tok]; ok {
				group += v
				seen = true
			} else if v, ok := wordOnes[tok]; ok {
				group += v
				seen = true
			}
		}
	}
	total += group
	if !seen || total == 0 {
		return 0, false
	}
	return total, true
}
