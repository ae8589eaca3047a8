package series

import (
	"strings"
	"unicode"

	"chcli/pkg/contracts/domain"
)

// GroupPostcode reduces a raw postcode to its group key by dropping the
// last truncate characters of the normalised form. "SW1A 1AA" with
// truncate 2 becomes "SW1A1", which collects the whole "SW1A 1##"
// neighbourhood into one series.
//
// Postcodes that normalise to nothing map to GroupInvalid; postcodes
// shorter than the truncation length map to GroupTooShort. Both are
// counted like any other group so no record disappears.
func GroupPostcode(postcode string, truncate int) domain.GroupKey {
	normalized := normalizePostcode(postcode)
	if normalized == "" {
		return domain.GroupInvalid
	}
	// Truncation counts characters, not bytes; registry data is ASCII but
	// garbage rows are not guaranteed to be.
	runes := []rune(normalized)
	if len(runes) <= truncate {
		return domain.GroupTooShort
	}
	return domain.GroupKey(runes[:len(runes)-truncate])
}

// normalizePostcode uppercases and strips all whitespace, including
// interior runs. Registry data writes "SW1A 1AA", "SW1A1AA" and
// "SW1A  1AA" for the same place.
func normalizePostcode(postcode string) string {
	trimmed := strings.TrimSpace(postcode)
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
