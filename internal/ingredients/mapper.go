package ingredients

import (
	"sort"
	"strings"

	"ecolabel/internal/reference"
)

type MatchMethod string

const (
	MatchDirect   MatchMethod = "direct"
	MatchSynonym  MatchMethod = "synonym"
	MatchFuzzy    MatchMethod = "fuzzy"
	MatchUnmapped MatchMethod = "unmapped"
)

const fuzzyThreshold = 0.8

// Mapping is the outcome of mapping one ingredient name.
type Mapping struct {
	Name       string      `json:"name"`
	Normalized string      `json:"normalized_name"`
	ID         string      `json:"ecoinvent_id,omitempty"`
	Category   string      `json:"category"`
	Unit       string      `json:"unit"`
	Method     MatchMethod `json:"method"`
}

func (m Mapping) Mapped() bool { return m.Method != MatchUnmapped }

// Mapper maps free ingredient names onto database ids: direct lookup, then
// multilingual synonyms, then a fuzzy word match.
type Mapper struct {
	mappings map[string]reference.IngredientMapping // folded key
	names    map[string]string                      // folded key -> table key
	synonyms map[string]string                      // folded synonym -> folded canonical
	keys     []string                               // sorted folded keys
}

func NewMapper(t *reference.Tables) *Mapper {
	m := &Mapper{
		mappings: make(map[string]reference.IngredientMapping, len(t.Mappings)),
		names:    make(map[string]string, len(t.Mappings)),
		synonyms: make(map[string]string, len(t.Synonyms)),
	}
	for name, mp := range t.Mappings {
		k := foldKey(name)
		m.mappings[k] = mp
		m.names[k] = name
		m.keys = append(m.keys, k)
	}
	sort.Strings(m.keys)
	for from, to := range t.Synonyms {
		m.synonyms[foldKey(from)] = foldKey(to)
	}
	return m
}

func (m *Mapper) Map(name string) Mapping {
	normalized := NormalizeName(name)
	key := foldKey(name)

	if mp, ok := m.mappings[key]; ok {
		return m.result(name, m.names[key], mp, MatchDirect)
	}
	if canon, ok := m.synonyms[key]; ok {
		if mp, ok := m.mappings[canon]; ok {
			return m.result(name, m.names[canon], mp, MatchSynonym)
		}
	}
	if k, ok := m.fuzzy(key); ok {
		return m.result(name, m.names[k], m.mappings[k], MatchFuzzy)
	}
	return Mapping{Name: name, Normalized: normalized, Category: "unknown", Unit: "kg", Method: MatchUnmapped}
}

func (m *Mapper) result(name, normalized string, mp reference.IngredientMapping, method MatchMethod) Mapping {
	unit := mp.Unit
	if unit == "" {
		unit = "kg"
	}
	return Mapping{Name: name, Normalized: normalized, ID: mp.ID, Category: mp.Category, Unit: unit, Method: method}
}

// fuzzy picks the best-scoring key at or above the threshold. Keys are
// scanned in sorted order and only a strictly better score replaces the
// current best, so equal scores resolve to the smallest key.
func (m *Mapper) fuzzy(key string) (string, bool) {
	best, bestScore := "", 0.0
	for _, k := range m.keys {
		s := similarity(key, k)
		if s >= fuzzyThreshold && s > bestScore {
			best, bestScore = k, s
		}
	}
	return best, best != ""
}

// similarity scores containment as 0.9, otherwise word-level Jaccard.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.9
	}
	wa, wb := wordSet(a), wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if wb[w] {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

func wordSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(s) {
		out[w] = true
	}
	return out
}
