package process

import (
	"regexp"
	"strings"
)

// Rules are applied in declaration order so each one sees already-cleaned
// text.
var (
	trademarkGlyphRegex = regexp.MustCompile(`[™®©℗℠]`)
	trademarkTextRegex  = regexp.MustCompile(`(?i)\((?:TM|R|C)\)`)
	editionMarkerRegex  = regexp.MustCompile(`(?i)\s*\b(Game of the Year|GOTY|Definitive|Enhanced|Complete|Ultimate|Deluxe|Premium|Gold|Platinum|Collector's?)\s*(Edition)?\b`)
	yearEditionRegex    = regexp.MustCompile(`(?i)\s*\b(20\d{2})\s*(Edition)?\b`)
	platformRegex       = regexp.MustCompile(`(?i)\s*\b(PC|Steam|Windows)\s*(Edition|Version)?\b`)
	suffixMarkerRegex   = regexp.MustCompile(`(?i)\s*\b(Remastered|HD|Director's Cut|Special Edition)\b`)
	trailingPunctRegex  = regexp.MustCompile(`[!?]+$`)
	whitespaceRunRegex  = regexp.MustCompile(`\s+`)
	trailingDashRegex   = regexp.MustCompile(`\s*-\s*$`)
)

// NormalizeTitle strips edition, platform and trademark noise from a raw
// title to produce a canonical search key. Pure and idempotent; the output
// may equal the input when nothing matched, which callers treat as
// "normalization added no value".
func NormalizeTitle(raw string) string {
	title := trademarkGlyphRegex.ReplaceAllString(raw, "")
	title = trademarkTextRegex.ReplaceAllString(title, "")
	title = editionMarkerRegex.ReplaceAllString(title, "")
	title = yearEditionRegex.ReplaceAllString(title, "")
	title = platformRegex.ReplaceAllString(title, "")
	title = suffixMarkerRegex.ReplaceAllString(title, "")
	title = trailingPunctRegex.ReplaceAllString(title, "")
	title = whitespaceRunRegex.ReplaceAllString(title, " ")
	title = trailingDashRegex.ReplaceAllString(title, "")
	return strings.TrimSpace(title)
}
