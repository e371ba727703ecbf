// Package lca turns an ingredient, transport and packaging description into
// life-cycle impact totals. Everything here is a pure function of its inputs
// and the injected reference tables.
package lca

import (
	"sort"
	"strings"

	"ecolabel/internal/reference"
)

// Method records how a factor was found.
type Method string

const (
	MethodExact   Method = "exact"
	MethodFuzzy   Method = "fuzzy"
	MethodDefault Method = "default"
)

// Resolution is the outcome of resolving one ingredient. Each indicator is
// resolved on its own table, so the methods can differ.
type Resolution struct {
	Key    string           `json:"key"`
	Factor reference.Factor `json:"factor"`

	CO2Method    Method `json:"co2_method"`
	WaterMethod  Method `json:"water_method"`
	EnergyMethod Method `json:"energy_method"`
}

// Resolver maps ingredient names to per-kg impact factors.
type Resolver struct {
	co2, water, energy indicatorTable
}

type indicatorTable struct {
	values map[string]float64
	keys   []string // sorted
	def    float64
}

func NewResolver(t *reference.Tables) *Resolver {
	return &Resolver{
		co2:    newIndicatorTable(t.CO2, reference.DefaultIngredient.CO2PerKg),
		water:  newIndicatorTable(t.Water, reference.DefaultIngredient.WaterPerKg),
		energy: newIndicatorTable(t.Energy, reference.DefaultIngredient.EnergyPerKg),
	}
}

func newIndicatorTable(m map[string]float64, def float64) indicatorTable {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return indicatorTable{values: m, keys: keys, def: def}
}

// Resolve never fails: an ingredient nobody knows gets the default factor.
// A non-empty explicitID takes precedence over the name.
func (r *Resolver) Resolve(name, explicitID string) Resolution {
	key := reference.Key(explicitID)
	if key == "" {
		key = reference.Key(name)
	}
	res := Resolution{Key: key}
	res.Factor.CO2PerKg, res.CO2Method = r.co2.lookup(key)
	res.Factor.WaterPerKg, res.WaterMethod = r.water.lookup(key)
	res.Factor.EnergyPerKg, res.EnergyMethod = r.energy.lookup(key)
	return res
}

func (t indicatorTable) lookup(key string) (float64, Method) {
	if key == "" {
		return t.def, MethodDefault
	}
	if v, ok := t.values[key]; ok {
		return v, MethodExact
	}
	if k, ok := t.contains(key); ok {
		return t.values[k], MethodFuzzy
	}
	return t.def, MethodDefault
}

// contains finds a table key that contains, or is contained in, key. The
// candidate sharing the longest substring wins; ties go to the
// lexicographically smallest key.
func (t indicatorTable) contains(key string) (string, bool) {
	best, bestLen := "", 0
	for _, k := range t.keys {
		if !strings.Contains(k, key) && !strings.Contains(key, k) {
			continue
		}
		if n := min(len(k), len(key)); n > bestLen {
			best, bestLen = k, n
		}
	}
	return best, bestLen > 0
}
