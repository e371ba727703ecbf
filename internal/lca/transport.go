package lca

import (
	"sort"

	"ecolabel/internal/reference"
)

// TransportImpact returns the CO2 (kg) and energy (MJ) of moving weightKg over
// distanceKm by mode. Unknown modes are priced as trucks.
func TransportImpact(t *reference.Tables, mode string, distanceKm, weightKg float64) (co2, energy float64) {
	f, _ := t.TransportMode(mode)
	tkm := weightKg / 1000 * distanceKm
	return tkm * f.CO2PerTonKm, tkm * f.EnergyPerTonKm
}

type ModeComparison struct {
	Mode   string  `json:"mode"`
	CO2    float64 `json:"co2"`
	Energy float64 `json:"energy"`
}

// CompareModes prices the same shipment with every known mode, cleanest
// first.
func CompareModes(t *reference.Tables, distanceKm, weightKg float64) []ModeComparison {
	out := make([]ModeComparison, 0, len(t.Transport))
	for _, mode := range t.Modes() {
		co2, energy := TransportImpact(t, mode, distanceKm, weightKg)
		out = append(out, ModeComparison{Mode: mode, CO2: round4(co2), Energy: round4(energy)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CO2 < out[j].CO2 })
	return out
}
