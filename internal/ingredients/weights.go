package ingredients

import (
	"math"

	"ecolabel/internal/lca"
)

// decayRate shapes the share of unlabelled ingredients: labels list
// ingredients in descending order of mass, so position i gets a weight
// proportional to e^(-decayRate*i).
const decayRate = 0.25

// Weighted is a mapped ingredient ready for weight imputation.
type Weighted struct {
	Ingredient
	Mapping Mapping
	Origin  string
}

// ImputeWeights assigns a mass to every ingredient of a product weighing
// productKg (1 kg when unknown). A stated percentage is authoritative;
// otherwise the ingredient takes its decay share of the whole mass, where
// shares are normalized over all positions.
func ImputeWeights(items []Weighted, productKg float64) []lca.Ingredient {
	if !(productKg > 0) || math.IsInf(productKg, 0) {
		productKg = 1
	}
	shares := DecayShares(len(items))
	out := make([]lca.Ingredient, 0, len(items))
	for i, it := range items {
		w := shares[i] * productKg
		if p := it.Percentage; p != nil && *p > 0 {
			w = *p / 100 * productKg
		}
		name := it.Name
		if it.Mapping.Normalized != "" {
			name = it.Mapping.Normalized
		}
		out = append(out, lca.Ingredient{
			Name:       name,
			WeightKg:   w,
			ExplicitID: it.Mapping.ID,
			Origin:     it.Origin,
		})
	}
	return out
}

// DecayShares returns n shares following e^(-0.25*i), summing to 1.
func DecayShares(n int) []float64 {
	shares := make([]float64, n)
	total := 0.0
	for i := range shares {
		shares[i] = math.Exp(-decayRate * float64(i))
		total += shares[i]
	}
	for i := range shares {
		shares[i] /= total
	}
	return shares
}
