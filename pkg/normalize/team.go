package normalize

import (
	"strings"
	"unicode"

	"github.com/menta2k/minimap-analyzer/pkg/types"
)

// Short tags only count as whole words; "t" must not match "team".
var (
	redWords  = map[string]bool{"t": true, "red": true, "enemy": true, "enemies": true, "hostile": true}
	blueWords = map[string]bool{"ct": true, "blue": true, "ally": true, "allies": true, "friendly": true, "green": true, "cyan": true}

	redStems  = []string{"attack", "opponent", "terrorist"}
	blueStems = []string{"defend", "teammate", "counter"}
)

// CanonicalSide maps a free-text team label onto the closed set of sides
func CanonicalSide(label string) types.TeamSide {
	words := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	// blue is checked first so "counter-terrorist" is not read as "terrorist"
	for _, w := range words {
		if blueWords[w] || hasStem(w, blueStems) {
			return types.SideBlue
		}
	}
	for _, w := range words {
		if redWords[w] || hasStem(w, redStems) {
			return types.SideRed
		}
	}
	return types.SideUnknown
}

func hasStem(word string, stems []string) bool {
	for _, s := range stems {
		if strings.HasPrefix(word, s) {
			return true
		}
	}
	return false
}
