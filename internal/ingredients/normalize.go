// Package ingredients turns free product text into a weighted ingredient
// list: extraction, name clean-up, mapping onto database ids and mass
// imputation.
package ingredients

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	trailingParen   = regexp.MustCompile(`\s*\(.*\)$`)
	trailingBracket = regexp.MustCompile(`\s*\[.*\]$`)
	percentToken    = regexp.MustCompile(`\d+(?:[.,]\d+)?\s*%`)
	markers         = regexp.MustCompile(`[*†‡™®]`)
	spaces          = regexp.MustCompile(`\s+`)
)

// NormalizeName lowercases an ingredient name and strips the decorations
// labels commonly carry: a trailing parenthetical or bracket, percentages and
// footnote or trademark markers.
func NormalizeName(name string) string {
	// Casers carry state; one per call.
	s := cases.Lower(language.Und).String(strings.TrimSpace(name))
	s = trailingParen.ReplaceAllString(s, "")
	s = trailingBracket.ReplaceAllString(s, "")
	s = percentToken.ReplaceAllString(s, "")
	s = markers.ReplaceAllString(s, "")
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// foldKey additionally drops diacritics and ligatures so "œuf", "oeuf" and
// "Œuf" compare equal.
func foldKey(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, NormalizeName(name))
	if err != nil {
		s = NormalizeName(name)
	}
	return ligatures.Replace(s)
}

var ligatures = strings.NewReplacer("œ", "oe", "æ", "ae", "ß", "ss")
