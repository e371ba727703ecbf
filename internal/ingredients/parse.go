package ingredients

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Ingredient is one entry of a label's ingredient list. Percentage is set
// only when the label states it.
type Ingredient struct {
	Name       string   `json:"name"`
	Percentage *float64 `json:"percentage,omitempty"`
	Original   string   `json:"original_text,omitempty"`
}

const separators = ",;•\n"

var (
	percentValue = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
	footnotes    = regexp.MustCompile(`[*†‡]`)
)

// ParseList splits an ingredient list and pulls out stated percentages.
// Parts shorter than two characters are dropped.
func ParseList(text string) []Ingredient {
	var out []Ingredient
	for _, part := range splitList(text) {
		part = strings.TrimSpace(part)
		if len([]rune(part)) < 2 {
			continue
		}
		ing := Ingredient{Original: part}
		name := part
		if m := percentValue.FindStringSubmatch(part); m != nil {
			if v, err := strconv.ParseFloat(strings.Replace(m[1], ",", ".", 1), 64); err == nil {
				ing.Percentage = &v
			}
			name = percentValue.ReplaceAllString(name, "")
		}
		name = footnotes.ReplaceAllString(name, "")
		name = strings.TrimSpace(spaces.ReplaceAllString(name, " "))
		name = strings.Trim(name, " :-")
		if name == "" {
			continue
		}
		ing.Name = name
		out = append(out, ing)
	}
	return out
}

// splitList splits on separators that are not inside parentheses, so
// "chocolate (cocoa, sugar), milk" yields two parts.
func splitList(text string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range text {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		}
		if depth == 0 && strings.ContainsRune(separators, r) {
			parts = append(parts, text[start:i])
			start = i + utf8.RuneLen(r)
		}
	}
	return append(parts, text[start:])
}
