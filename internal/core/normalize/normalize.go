// Package normalize canonicalizes organization and person names into a
// comparable form.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

// punctuation is replaced with spaces before tokenizing.
var punctuation = strings.NewReplacer(
	".", " ",
	",", " ",
	"-", " ",
	"–", " ", // en dash
	"—", " ", // em dash
)

// Fold case-folds and trims s. It is the "raw" comparison form.
func Fold(s string) string {
	// cases.Caser is stateful, so each call gets its own.
	return strings.TrimSpace(cases.Fold().String(s))
}

// Name returns the canonical form of an organization display name: folded,
// punctuation turned to spaces, a leading "the" dropped, every "of" dropped,
// "university"/"college" dropped at either end, whitespace collapsed.
//
// The strip rules run to a fixpoint, so Name(Name(x)) == Name(x).
func Name(s string) string {
	words := strings.Fields(punctuation.Replace(Fold(s)))

	for changed := true; changed; {
		changed = false

		if len(words) > 1 && words[0] == "the" {
			words = words[1:]
			changed = true
		}

		kept := words[:0:0]
		for _, w := range words {
			if w == "of" {
				changed = true
				continue
			}
			kept = append(kept, w)
		}
		words = kept

		if n := len(words); n > 0 && isInstitutionWord(words[n-1]) {
			words = words[:n-1]
			changed = true
		}
		if len(words) > 0 && isInstitutionWord(words[0]) {
			words = words[1:]
			changed = true
		}
	}

	return strings.Join(words, " ")
}

func isInstitutionWord(w string) bool {
	return w == "university" || w == "college"
}
