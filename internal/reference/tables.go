// Package reference holds the process-wide impact factor tables. A Tables
// value is built once at startup (defaults plus dataset overlays) and only
// read afterwards, so it may be shared across goroutines without locking.
package reference

import (
	"sort"
	"strings"
)

// Factor is a per-kg impact triple: kg CO2e, litres of water, MJ of energy.
type Factor struct {
	CO2PerKg    float64 `json:"co2" yaml:"co2"`
	WaterPerKg  float64 `json:"water" yaml:"water"`
	EnergyPerKg float64 `json:"energy" yaml:"energy"`
}

type TransportFactor struct {
	CO2PerTonKm    float64 `json:"co2_per_tkm" yaml:"co2_per_tkm"`
	EnergyPerTonKm float64 `json:"energy_per_tkm" yaml:"energy_per_tkm"`
}

// IngredientMapping links a common ingredient name to a database id.
type IngredientMapping struct {
	ID       string `json:"ecoinvent_id" yaml:"ecoinvent_id"`
	Category string `json:"category" yaml:"category"`
	Unit     string `json:"unit,omitempty" yaml:"unit,omitempty"`
}

const (
	DefaultTransportMode = "truck"
	DefaultDistanceKm    = 1000.0

	LongDistanceMultiplier   = 1.30
	MediumDistanceMultiplier = 1.15
)

var (
	DefaultIngredient = Factor{CO2PerKg: 1.0, WaterPerKg: 500, EnergyPerKg: 5.0}
	DefaultPackaging  = Factor{CO2PerKg: 3.0, WaterPerKg: 100, EnergyPerKg: 40}
)

// Tables is the full set of lookup tables consumed by the pipeline.
//
// Ingredient indicators are kept as three independent tables because the
// datasets overlay them independently (a water-only dataset must not reset
// the CO2 value of the same ingredient).
type Tables struct {
	CO2       map[string]float64
	Water     map[string]float64
	Energy    map[string]float64
	Packaging map[string]Factor
	Transport map[string]TransportFactor
	Distances map[string]float64

	LongDistanceOrigins   []string
	MediumDistanceOrigins []string

	Mappings map[string]IngredientMapping
	Synonyms map[string]string
}

// PackagingFactor returns the factor for a material, or DefaultPackaging.
func (t *Tables) PackagingFactor(material string) (Factor, bool) {
	f, ok := t.Packaging[Key(material)]
	if !ok {
		return DefaultPackaging, false
	}
	return f, true
}

// TransportMode returns the factor for a mode and the mode actually used;
// unknown modes fall back to DefaultTransportMode.
func (t *Tables) TransportMode(mode string) (TransportFactor, string) {
	k := Key(mode)
	if f, ok := t.Transport[k]; ok {
		return f, k
	}
	return t.Transport[DefaultTransportMode], DefaultTransportMode
}

// Distance returns the typical distance between two regions. The lookup is
// symmetric; unknown pairs return DefaultDistanceKm.
func (t *Tables) Distance(from, to string) float64 {
	if d, ok := t.Distances[regionPair(from, to)]; ok {
		return d
	}
	return DefaultDistanceKm
}

// OriginMultiplier scales ingredient CO2 by how far the origin sits from the
// point of sale. Matching is a case-insensitive substring test.
func (t *Tables) OriginMultiplier(origin string) float64 {
	o := Key(origin)
	if o == "" {
		return 1.0
	}
	for _, c := range t.LongDistanceOrigins {
		if strings.Contains(o, c) {
			return LongDistanceMultiplier
		}
	}
	for _, c := range t.MediumDistanceOrigins {
		if strings.Contains(o, c) {
			return MediumDistanceMultiplier
		}
	}
	return 1.0
}

// Ingredients returns every ingredient key known to any indicator table.
func (t *Tables) Ingredients() []string {
	seen := make(map[string]struct{}, len(t.CO2))
	for _, m := range []map[string]float64{t.CO2, t.Water, t.Energy} {
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func (t *Tables) Materials() []string { return sortedKeys(t.Packaging) }
func (t *Tables) Modes() []string { return sortedKeys(t.Transport) }
func (t *Tables) MappingKeys() []string { return sortedKeys(t.Mappings) }

// Key is the canonical table key for a free-form name.
func Key(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func regionPair(a, b string) string {
	a, b = Key(a), Key(b)
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
