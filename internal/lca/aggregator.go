package lca

import (
	"math"
	"strings"

	"ecolabel/internal/domain"
	"ecolabel/internal/reference"
)

type Ingredient struct {
	Name       string  `json:"name"`
	WeightKg   float64 `json:"weight"`
	ExplicitID string  `json:"ecoinvent_id,omitempty"`
	Origin     string  `json:"origin,omitempty"`
}

// TransportLeg is one shipment segment. A nil WeightKg means the whole
// ingredient mass travels.
type TransportLeg struct {
	Mode       string   `json:"mode"`
	DistanceKm float64  `json:"distance_km"`
	WeightKg   *float64 `json:"weight_kg,omitempty"`
}

type Packaging struct {
	Material string  `json:"material"`
	WeightKg float64 `json:"weight_kg"`
}

type Request struct {
	Ingredients []Ingredient   `json:"ingredients"`
	Transport   []TransportLeg `json:"transport,omitempty"`
	Packaging   *Packaging     `json:"packaging,omitempty"`
}

// Validate rejects shapes the aggregator refuses to compute over.
func (r Request) Validate() error {
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return domain.Invalid("ingredients", "entry %d has an empty name", i)
		}
		if !validMass(ing.WeightKg) {
			return domain.Invalid("ingredients", "%q has invalid weight %v", ing.Name, ing.WeightKg)
		}
	}
	for i, leg := range r.Transport {
		if !validMass(leg.DistanceKm) {
			return domain.Invalid("transport", "leg %d has invalid distance %v", i, leg.DistanceKm)
		}
		if leg.WeightKg != nil && !validMass(*leg.WeightKg) {
			return domain.Invalid("transport", "leg %d has invalid weight %v", i, *leg.WeightKg)
		}
	}
	if r.Packaging != nil && !validMass(r.Packaging.WeightKg) {
		return domain.Invalid("packaging", "invalid weight %v", r.Packaging.WeightKg)
	}
	return nil
}

func validMass(v float64) bool { return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0) }

// Observer is notified of every factor lookup, per indicator.
type Observer func(indicator string, method Method)

type Option func(*Aggregator)

func WithObserver(o Observer) Option { return func(a *Aggregator) { a.observe = o } }

// Aggregator combines resolved factors, origin, transport and packaging into
// whole-product totals.
type Aggregator struct {
	tables   *reference.Tables
	resolver *Resolver
	observe  Observer
}

func NewAggregator(t *reference.Tables, opts ...Option) *Aggregator {
	a := &Aggregator{tables: t, resolver: NewResolver(t)}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Aggregator) Resolver() *Resolver { return a.resolver }

// Aggregate computes totals and breakdown for req. Sums are carried at full
// precision; totals and subtotals are rounded to 4 decimals on output.
func (a *Aggregator) Aggregate(req Request) (domain.LCAResult, error) {
	if err := req.Validate(); err != nil {
		return domain.LCAResult{}, err
	}

	var (
		ing       domain.IngredientsBreakdown
		totalMass float64
	)
	ing.Details = make([]domain.IngredientImpact, 0, len(req.Ingredients))
	for _, in := range req.Ingredients {
		res := a.resolver.Resolve(in.Name, in.ExplicitID)
		a.notify(res)
		mult := a.tables.OriginMultiplier(in.Origin)

		co2 := in.WeightKg * res.Factor.CO2PerKg * mult
		water := in.WeightKg * res.Factor.WaterPerKg
		energy := in.WeightKg * res.Factor.EnergyPerKg

		ing.CO2 += co2
		ing.Water += water
		ing.Energy += energy
		totalMass += in.WeightKg

		ing.Details = append(ing.Details, domain.IngredientImpact{
			Name:     in.Name,
			WeightKg: in.WeightKg,
			CO2:      round4(co2),
			Water:    round4(water),
			Energy:   round4(energy),
			FactorsUsed: domain.FactorsUsed{
				CO2Factor:        res.Factor.CO2PerKg,
				WaterFactor:      res.Factor.WaterPerKg,
				EnergyFactor:     res.Factor.EnergyPerKg,
				OriginMultiplier: mult,
			},
		})
	}

	var tr domain.TransportBreakdown
	for _, leg := range req.Transport {
		w := totalMass
		if leg.WeightKg != nil {
			w = *leg.WeightKg
		}
		co2, energy := TransportImpact(a.tables, leg.Mode, leg.DistanceKm, w)
		tr.CO2 += co2
		tr.Energy += energy
	}

	var pk domain.PackagingBreakdown
	if p := req.Packaging; p != nil && strings.TrimSpace(p.Material) != "" && p.WeightKg > 0 {
		f, _ := a.tables.PackagingFactor(p.Material)
		pk = domain.PackagingBreakdown{
			CO2:    p.WeightKg * f.CO2PerKg,
			Water:  p.WeightKg * f.WaterPerKg,
			Energy: p.WeightKg * f.EnergyPerKg,
		}
	}

	out := domain.LCAResult{
		CO2:    round4(ing.CO2 + tr.CO2 + pk.CO2),
		Water:  round4(ing.Water + pk.Water),
		Energy: round4(ing.Energy + tr.Energy + pk.Energy),
	}
	out.Breakdown.Ingredients = domain.IngredientsBreakdown{
		CO2: round4(ing.CO2), Water: round4(ing.Water), Energy: round4(ing.Energy),
		Details: ing.Details,
	}
	out.Breakdown.Transport = domain.TransportBreakdown{CO2: round4(tr.CO2), Energy: round4(tr.Energy)}
	out.Breakdown.Packaging = domain.PackagingBreakdown{
		CO2: round4(pk.CO2), Water: round4(pk.Water), Energy: round4(pk.Energy),
	}
	return out, nil
}

func (a *Aggregator) notify(r Resolution) {
	if a.observe == nil {
		return
	}
	a.observe("co2", r.CO2Method)
	a.observe("water", r.WaterMethod)
	a.observe("energy", r.EnergyMethod)
}

func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }
