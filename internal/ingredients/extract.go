package ingredients

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Extraction is what an extractor recovers from free product text.
type Extraction struct {
	Ingredients []Ingredient `json:"ingredients"`
	Materials   []string     `json:"materials"`
	Origins     []string     `json:"origins"`
	Labels      []string     `json:"labels"`
	Source      string       `json:"source"`
}

// Extractor recovers ingredients, packaging materials, origins and labels
// from product text.
type Extractor interface {
	Extract(ctx context.Context, text string) (Extraction, error)
}

var (
	// A sentence-ending period must be followed by whitespace or the end of
	// the text so decimals such as "12.5%" stay inside the section.
	ingredientSection = regexp.MustCompile(`(?is)(?:ingredients?|composition|ingrédients?)\s*[:\-]?\s*(.+?)(?:\.\s|\.$|\n\n|$)`)
	originPhrase      = regexp.MustCompile(`(?i)(?:origine|origin|origen|herkunft|made in|product of|produit de|fabriqué en)\s*:?\s*([\p{L}][\p{L} \-]{1,40})`)
)

var labelKeywords = []struct {
	label    string
	keywords []string
}{
	{"bio", []string{"bio", "organic", "biologique", "ökologisch", "ecológico"}},
	{"recyclable", []string{"recyclable", "recycled", "recyclé", "recycle"}},
	{"vegan", []string{"vegan", "végétalien", "vegano"}},
	{"fair_trade", []string{"fair trade", "fairtrade", "commerce équitable"}},
	{"non_gmo", []string{"non-gmo", "sans ogm", "gmo-free"}},
	{"gluten_free", []string{"gluten-free", "sans gluten", "glutenfrei"}},
	{"natural", []string{"natural", "naturel", "natürlich", "100% natural"}},
}

// materialKeywords maps packaging words (several languages) onto packaging
// table keys. An empty value means the word is detected but has no factor.
var materialKeywords = map[string]string{
	"plastic": "plastic", "plastique": "plastic", "pp": "plastic", "ps": "plastic",
	"pvc": "plastic", "ldpe": "plastic", "pet": "pet", "hdpe": "hdpe",
	"glass": "glass", "verre": "glass",
	"metal": "steel", "métal": "steel", "tin": "steel", "steel": "steel", "acier": "steel",
	"aluminum": "aluminum", "aluminium": "aluminum",
	"cardboard": "cardboard", "carton": "cardboard",
	"paper": "paper", "papier": "paper",
	"wood": "wood", "bois": "wood",
	"tetra pak": "tetra_pak",
	"biodegradable": "",
}

var materialPattern = wordPattern(mapKeys(materialKeywords))

// labelPatterns holds one keyword pattern per label, in labelKeywords order.
var labelPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(labelKeywords))
	for i, lk := range labelKeywords {
		out[i] = wordPattern(lk.keywords)
	}
	return out
}()

// wordPattern matches any of words, longest first so "tetra pak" wins over
// shorter alternatives. Word boundaries are checked by wordMatches.
func wordPattern(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	sort.Slice(quoted, func(i, j int) bool {
		if len(quoted[i]) != len(quoted[j]) {
			return len(quoted[i]) > len(quoted[j])
		}
		return quoted[i] < quoted[j]
	})
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}

// wordMatches returns the matches of re in s that are not glued to a letter
// on either side, so short keywords such as "pp", "tin" or "bio" never match
// inside ordinary words. The boundaries consume no characters, so adjacent
// words separated by a single comma are both found.
func wordMatches(re *regexp.Regexp, s string) []string {
	var out []string
	for _, loc := range re.FindAllStringIndex(s, -1) {
		before, _ := utf8.DecodeLastRuneInString(s[:loc[0]])
		after, _ := utf8.DecodeRuneInString(s[loc[1]:])
		if unicode.IsLetter(before) || unicode.IsLetter(after) {
			continue
		}
		out = append(out, s[loc[0]:loc[1]])
	}
	return out
}

func mapKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// PackagingMaterial maps a detected material word onto a packaging table key.
func PackagingMaterial(word string) (string, bool) {
	m, ok := materialKeywords[strings.ToLower(word)]
	return m, ok && m != ""
}

// RegexExtractor is the local, dependency-free extractor. It is also the
// fallback whenever a remote extractor is unavailable.
type RegexExtractor struct{}

func (RegexExtractor) Extract(_ context.Context, text string) (Extraction, error) {
	return ExtractText(text), nil
}

// ExtractText runs the keyword and pattern extraction over text.
func ExtractText(text string) Extraction {
	out := Extraction{
		Ingredients: []Ingredient{},
		Materials:   []string{},
		Origins:     []string{},
		Labels:      []string{},
		Source:      "regex",
	}

	if m := ingredientSection.FindStringSubmatch(text); m != nil {
		out.Ingredients = ParseList(m[1])
	}
	if len(out.Ingredients) == 0 {
		out.Ingredients = []Ingredient{}
		for _, ing := range ParseList(text) {
			if len([]rune(ing.Name)) > 2 {
				out.Ingredients = append(out.Ingredients, ing)
			}
		}
	}

	lowerText := strings.ToLower(text)
	for i, lk := range labelKeywords {
		if len(wordMatches(labelPatterns[i], lowerText)) > 0 {
			out.Labels = append(out.Labels, lk.label)
		}
	}

	seen := map[string]bool{}
	for _, w := range wordMatches(materialPattern, lowerText) {
		if !seen[w] {
			seen[w] = true
			out.Materials = append(out.Materials, w)
		}
	}

	for _, m := range originPhrase.FindAllStringSubmatch(text, -1) {
		if o := strings.TrimSpace(m[1]); o != "" {
			out.Origins = append(out.Origins, o)
		}
	}
	return out
}
