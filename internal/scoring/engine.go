package scoring

import "ecolabel/internal/domain"

// Engine chains the normalizer and synthesizer.
type Engine struct {
	Normalizer  *Normalizer
	Synthesizer *Synthesizer
}

func NewEngine(r Ranges, w domain.Weights) (*Engine, error) {
	s, err := NewSynthesizer(w)
	if err != nil {
		return nil, err
	}
	return &Engine{Normalizer: NewNormalizer(r), Synthesizer: s}, nil
}

// Score grades per-kg indicators. The result carries confidence and the
// median comparison next to the synthesized grade.
func (e *Engine) Score(co2, water, energy float64, flags Flags) domain.EcoScore {
	ind := e.Normalizer.Normalize(co2, water, energy)
	out := e.Synthesizer.Synthesize(ind, flags)
	out.Confidence = round2(e.Normalizer.Confidence(ind))
	out.Breakdown.Comparison = e.Normalizer.Compare(ind)
	return out
}

// PerKg divides whole-product totals by the product mass. A missing or
// non-positive mass counts as 1 kg.
func PerKg(co2, water, energy, massKg float64) (float64, float64, float64) {
	if !(massKg > 0) {
		massKg = 1
	}
	return co2 / massKg, water / massKg, energy / massKg
}
