// Package scoring turns per-kg life-cycle indicators into an A-E eco-score.
package scoring

import (
	"ecolabel/internal/domain"
)

// Range is the reference span of one indicator. Values at or below Min score
// 0 (best), values at or above Max score 100 (worst).
type Range struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Unit   string  `json:"unit"`
}

// scale maps v onto [0,100]. A degenerate range scores 50.
func (r Range) scale(v float64) float64 {
	if r.Max == r.Min {
		return 50
	}
	return clamp((v-r.Min)/(r.Max-r.Min)*100, 0, 100)
}

type Ranges struct {
	CO2    Range `json:"co2"`
	Water  Range `json:"water"`
	Energy Range `json:"energy"`
}

func DefaultRanges() Ranges {
	return Ranges{
		CO2:    Range{Min: 0.1, Max: 3.0, Median: 1.5, Unit: "kg CO2e/kg"},
		Water:  Range{Min: 100, Max: 1500, Median: 800, Unit: "L/kg"},
		Energy: Range{Min: 1.0, Max: 8.0, Median: 4.0, Unit: "MJ/kg"},
	}
}

// Below these per-kg values a product is treated as having no measurable
// impact (plain water and the like).
const (
	zeroCO2    = 0.01
	zeroWater  = 10
	zeroEnergy = 0.5
)

type Normalizer struct {
	ranges Ranges
}

func NewNormalizer(r Ranges) *Normalizer { return &Normalizer{ranges: r} }

func (n *Normalizer) Ranges() Ranges { return n.ranges }

// Normalize maps per-kg indicators onto 0-100, higher being worse.
func (n *Normalizer) Normalize(co2, water, energy float64) domain.Indicators {
	out := domain.Indicators{CO2Raw: co2, WaterRaw: water, EnergyRaw: energy}
	if co2 < zeroCO2 && water < zeroWater && energy < zeroEnergy {
		return out
	}
	out.CO2 = n.ranges.CO2.scale(co2)
	out.Water = n.ranges.Water.scale(water)
	out.Energy = n.ranges.Energy.scale(energy)
	return out
}

// Confidence drops as indicators approach the ends of their reference range,
// where the linear scale saturates.
func (n *Normalizer) Confidence(ind domain.Indicators) float64 {
	return (indicatorConfidence(ind.CO2) + indicatorConfidence(ind.Water) + indicatorConfidence(ind.Energy)) / 3
}

func indicatorConfidence(v float64) float64 {
	switch {
	case v < 5 || v > 95:
		return 0.7
	case v < 10 || v > 90:
		return 0.85
	default:
		return 1.0
	}
}

// Percentile places a raw value within the reference range of indicator
// ("co2", "water" or "energy"). Unknown indicators sit at 50.
func (n *Normalizer) Percentile(indicator string, value float64) float64 {
	r, ok := n.rangeOf(indicator)
	if !ok {
		return 50
	}
	return r.scale(value)
}

// CompareToMedian rates a raw value against the indicator's reference median.
func (n *Normalizer) CompareToMedian(indicator string, value float64) (domain.MedianComparison, bool) {
	r, ok := n.rangeOf(indicator)
	if !ok {
		return domain.MedianComparison{}, false
	}
	ratio := 0.0
	if r.Median > 0 {
		ratio = value / r.Median
	}
	return domain.MedianComparison{
		Value:  value,
		Median: r.Median,
		Ratio:  round2(ratio),
		Rating: rateRatio(ratio),
		Unit:   r.Unit,
	}, true
}

// Compare rates all three raw indicators against their medians.
func (n *Normalizer) Compare(ind domain.Indicators) map[string]domain.MedianComparison {
	out := make(map[string]domain.MedianComparison, 3)
	for name, v := range map[string]float64{"co2": ind.CO2Raw, "water": ind.WaterRaw, "energy": ind.EnergyRaw} {
		if c, ok := n.CompareToMedian(name, v); ok {
			out[name] = c
		}
	}
	return out
}

func rateRatio(ratio float64) string {
	switch {
	case ratio < 0.5:
		return "much_better"
	case ratio < 0.8:
		return "better"
	case ratio < 1.2:
		return "average"
	case ratio < 2.0:
		return "worse"
	default:
		return "much_worse"
	}
}

func (n *Normalizer) rangeOf(indicator string) (Range, bool) {
	switch indicator {
	case "co2":
		return n.ranges.CO2, true
	case "water":
		return n.ranges.Water, true
	case "energy":
		return n.ranges.Energy, true
	}
	return Range{}, false
}
