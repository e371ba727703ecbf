package scoring

import (
	"math"

	"ecolabel/internal/domain"
)

// Flags are the qualitative bonus/malus signals attached to a product.
type Flags struct {
	BioCertified          bool `json:"bio_certified"`
	RecyclablePackaging   bool `json:"recyclable_packaging"`
	LocalSourcing         bool `json:"local_sourcing"`
	FairTrade             bool `json:"fair_trade"`
	EndangeredSpecies     bool `json:"endangered_species"`
	DeforestationRisk     bool `json:"deforestation_risk"`
	ExcessivePackaging    bool `json:"excessive_packaging"`
	LongDistanceTransport bool `json:"long_distance_transport"`
}

// Or merges two flag sets; a flag raised in either is raised in the result.
func (f Flags) Or(o Flags) Flags {
	return Flags{
		BioCertified:          f.BioCertified || o.BioCertified,
		RecyclablePackaging:   f.RecyclablePackaging || o.RecyclablePackaging,
		LocalSourcing:         f.LocalSourcing || o.LocalSourcing,
		FairTrade:             f.FairTrade || o.FairTrade,
		EndangeredSpecies:     f.EndangeredSpecies || o.EndangeredSpecies,
		DeforestationRisk:     f.DeforestationRisk || o.DeforestationRisk,
		ExcessivePackaging:    f.ExcessivePackaging || o.ExcessivePackaging,
		LongDistanceTransport: f.LongDistanceTransport || o.LongDistanceTransport,
	}
}

type rule struct {
	kind   string
	label  string
	points float64
	active func(Flags) bool
}

// Negative points are bonuses (a lower score is better).
var rules = []rule{
	{"bio_certified", "Organic Certification", -10, func(f Flags) bool { return f.BioCertified }},
	{"recyclable_packaging", "Recyclable Packaging", -5, func(f Flags) bool { return f.RecyclablePackaging }},
	{"local_sourcing", "Local Sourcing", -8, func(f Flags) bool { return f.LocalSourcing }},
	{"fair_trade", "Fair Trade Certified", -3, func(f Flags) bool { return f.FairTrade }},
	{"endangered_species", "Endangered Species Risk", 15, func(f Flags) bool { return f.EndangeredSpecies }},
	{"deforestation_risk", "Deforestation Risk", 12, func(f Flags) bool { return f.DeforestationRisk }},
	{"excessive_packaging", "Excessive Packaging", 5, func(f Flags) bool { return f.ExcessivePackaging }},
	{"long_distance_transport", "Long Distance Transport", 7, func(f Flags) bool { return f.LongDistanceTransport }},
}

func DefaultWeights() domain.Weights {
	return domain.Weights{CO2: 0.5, Water: 0.3, Energy: 0.2}
}

// Synthesizer combines normalized indicators and flags into an EcoScore.
type Synthesizer struct {
	weights domain.Weights
}

// NewSynthesizer rescales w proportionally when it does not sum to 1.
// Negative weights, or weights summing to zero, are rejected.
func NewSynthesizer(w domain.Weights) (*Synthesizer, error) {
	if w.CO2 < 0 || w.Water < 0 || w.Energy < 0 {
		return nil, domain.Invalid("weights", "must be non-negative, got %+v", w)
	}
	sum := w.CO2 + w.Water + w.Energy
	if sum <= 0 || math.IsInf(sum, 0) || math.IsNaN(sum) {
		return nil, domain.Invalid("weights", "must sum to a positive number, got %v", sum)
	}
	if sum != 1 {
		w = domain.Weights{CO2: w.CO2 / sum, Water: w.Water / sum, Energy: w.Energy / sum}
	}
	return &Synthesizer{weights: w}, nil
}

func (s *Synthesizer) Weights() domain.Weights { return s.weights }

// Base returns the weighted sum of the indicators, clamped to [0,100].
func (s *Synthesizer) Base(ind domain.Indicators) float64 {
	return clamp(ind.CO2*s.weights.CO2+ind.Water*s.weights.Water+ind.Energy*s.weights.Energy, 0, 100)
}

// Adjust applies every active rule to base, in rule order.
func Adjust(base float64, flags Flags) (float64, []domain.Adjustment) {
	adjustments := []domain.Adjustment{}
	total := 0.0
	for _, r := range rules {
		if !r.active(flags) {
			continue
		}
		total += r.points
		adjustments = append(adjustments, domain.Adjustment{Type: r.kind, Label: r.label, Points: r.points})
	}
	return clamp(base+total, 0, 100), adjustments
}

// Synthesize grades ind under flags. Confidence is left to the caller, which
// owns the normalizer that produced ind.
func (s *Synthesizer) Synthesize(ind domain.Indicators, flags Flags) domain.EcoScore {
	base := s.Base(ind)
	adjusted, adjustments := Adjust(base, flags)
	letter := Letter(adjusted)
	return domain.EcoScore{
		Numeric:     round2(adjusted),
		Letter:      letter,
		Explanation: Explain(letter, ind, adjustments),
		Breakdown: domain.ScoreBreakdown{
			BaseScore:            round2(base),
			AdjustedScore:        round2(adjusted),
			NormalizedIndicators: ind,
			Adjustments:          adjustments,
			Weights:              s.weights,
		},
	}
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
