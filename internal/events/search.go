package events

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Event titles and locations are mostly Spanish; searches must match
// regardless of accents ("Travesia" finds "Travesía").
var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldText(s string) string {
	folded, _, err := transform.String(foldChain, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

func matchesQuery(event Event, query string) bool {
	if query == "" {
		return true
	}
	needle := foldText(query)
	return strings.Contains(foldText(event.Title), needle) ||
		strings.Contains(foldText(event.Location), needle)
}
