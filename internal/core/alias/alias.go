// Package alias recognizes name equivalences that edit distance misses:
// abbreviated place words ("St." for "Saint") and given-name nicknames
// ("Bill" for "William").
package alias

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agenthands/roster/internal/core/normalize"
	"github.com/agenthands/roster/internal/core/similarity"
)

// Pattern pairs the full and abbreviated spelling of one word. Both are
// matched against whole tokens.
type Pattern struct {
	Full   *regexp.Regexp
	Abbrev *regexp.Regexp
	token  string
}

func newPattern(name, full, abbrev string) Pattern {
	return Pattern{
		Full:   regexp.MustCompile(`(?i)^` + full + `$`),
		Abbrev: regexp.MustCompile(`(?i)^` + abbrev + `$`),
		// NUL-delimited so no real token can collide with a placeholder
		token: "\x00" + name + "\x00",
	}
}

// Patterns is the ordered substitution list.
var Patterns = []Pattern{
	newPattern("saint", `saint`, `st\.?`),
	newPattern("mount", `mount`, `mt\.?`),
	newPattern("university", `university`, `u\.?`),
	newPattern("north", `north`, `n\.?`),
	newPattern("south", `south`, `s\.?`),
	newPattern("east", `east`, `e\.?`),
	newPattern("west", `west`, `w\.?`),
}

// Substitute replaces every full or abbreviated form in name with its
// pattern's placeholder.
func Substitute(name string) string {
	tokens := strings.Fields(normalize.Fold(name))
	for i, tok := range tokens {
		for _, p := range Patterns {
			if p.Full.MatchString(tok) || p.Abbrev.MatchString(tok) {
				tokens[i] = p.token
				break
			}
		}
	}
	return strings.Join(tokens, " ")
}

// PatternWord reports whether token is the full or abbreviated form of any
// pattern.
func PatternWord(token string) bool {
	for _, p := range Patterns {
		if p.Full.MatchString(token) || p.Abbrev.MatchString(token) {
			return true
		}
	}
	return false
}

// PatternMatch reports whether a and b are the same name once every
// abbreviation pattern has been substituted in both.
func PatternMatch(a, b string) bool {
	sa, sb := Substitute(a), Substitute(b)
	return sa != "" && sa == sb
}

// GivenNameMatch reports whether a and b are listed under the same
// canonical given name. The canonical name counts as its own variant.
func GivenNameMatch(a, b string) bool {
	a, b = normalize.Fold(a), normalize.Fold(b)
	if a == "" || b == "" {
		return false
	}
	for _, ca := range nicknameIndex[a] {
		for _, cb := range nicknameIndex[b] {
			if ca == cb {
				return true
			}
		}
	}
	return false
}

// InitialMatch reports whether a and b start with the same character and at
// least one of them is a bare initial ("J" or "J.").
func InitialMatch(a, b string) bool {
	a, b = normalize.Fold(a), normalize.Fold(b)
	if a == "" || b == "" {
		return false
	}
	ra, _ := utf8.DecodeRuneInString(a)
	rb, _ := utf8.DecodeRuneInString(b)
	if ra != rb {
		return false
	}
	return isInitial(a) || isInitial(b)
}

func isInitial(s string) bool {
	return utf8.RuneCountInString(strings.TrimSuffix(s, ".")) == 1
}

// Near reports whether a and b are within maxDistance edits of each other
// after folding.
func Near(a, b string, maxDistance int) bool {
	return similarity.Distance(normalize.Fold(a), normalize.Fold(b)) <= maxDistance
}
