package domain

import "time"

// Core domain records. HTTP and storage shapes are derived from these; the
// pipeline packages (lca, scoring) produce them and never mutate them after.

// FactorsUsed records which per-kg factors were applied to one ingredient.
type FactorsUsed struct {
	CO2Factor        float64 `json:"co2_factor"`
	WaterFactor      float64 `json:"water_factor"`
	EnergyFactor     float64 `json:"energy_factor"`
	OriginMultiplier float64 `json:"origin_multiplier"`
}

type IngredientImpact struct {
	Name        string      `json:"name"`
	WeightKg    float64     `json:"weight_kg"`
	CO2         float64     `json:"co2"`
	Water       float64     `json:"water"`
	Energy      float64     `json:"energy"`
	FactorsUsed FactorsUsed `json:"factors_used"`
}

type IngredientsBreakdown struct {
	CO2     float64            `json:"co2"`
	Water   float64            `json:"water"`
	Energy  float64            `json:"energy"`
	Details []IngredientImpact `json:"details"`
}

// Transport carries no water term.
type TransportBreakdown struct {
	CO2    float64 `json:"co2"`
	Energy float64 `json:"energy"`
}

type PackagingBreakdown struct {
	CO2    float64 `json:"co2"`
	Water  float64 `json:"water"`
	Energy float64 `json:"energy"`
}

type Breakdown struct {
	Ingredients IngredientsBreakdown `json:"ingredients"`
	Transport   TransportBreakdown   `json:"transport"`
	Packaging   PackagingBreakdown   `json:"packaging"`
}

// LCAResult is the output of the life-cycle aggregator: whole-product totals
// (kg CO2e, litres, MJ) plus the per-component breakdown.
type LCAResult struct {
	CO2       float64   `json:"co2"`
	Water     float64   `json:"water"`
	Energy    float64   `json:"energy"`
	Breakdown Breakdown `json:"breakdown"`
}

// LCARecord is a persisted, append-only LCAResult.
type LCARecord struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id,omitempty"`
	LCAResult
	CreatedAt time.Time `json:"created_at"`
}

// Indicators holds per-kg indicators mapped onto a 0-100 badness scale, next
// to the raw values they came from.
type Indicators struct {
	CO2       float64 `json:"co2_normalized"`
	Water     float64 `json:"water_normalized"`
	Energy    float64 `json:"energy_normalized"`
	CO2Raw    float64 `json:"co2_raw"`
	WaterRaw  float64 `json:"water_raw"`
	EnergyRaw float64 `json:"energy_raw"`
}

type Adjustment struct {
	Type   string  `json:"type"`
	Label  string  `json:"label"`
	Points float64 `json:"points"`
}

type Weights struct {
	CO2    float64 `json:"co2"`
	Water  float64 `json:"water"`
	Energy float64 `json:"energy"`
}

// MedianComparison positions a raw indicator against its reference median.
type MedianComparison struct {
	Value  float64 `json:"value"`
	Median float64 `json:"median"`
	Ratio  float64 `json:"ratio"`
	Rating string  `json:"rating"`
	Unit   string  `json:"unit"`
}

type ScoreBreakdown struct {
	BaseScore            float64                     `json:"base_score"`
	AdjustedScore        float64                     `json:"adjusted_score"`
	NormalizedIndicators Indicators                  `json:"normalized_indicators"`
	Adjustments          []Adjustment                `json:"adjustments"`
	Weights              Weights                     `json:"weights"`
	Comparison           map[string]MedianComparison `json:"comparison,omitempty"`
}

// EcoScore is the synthesized A-E grade for one product.
type EcoScore struct {
	Numeric     float64        `json:"score_numeric"`
	Letter      string         `json:"score_letter"`
	Confidence  float64        `json:"confidence"`
	Explanation string         `json:"explanation"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
}

// ScoreRecord is a persisted EcoScore. A product accumulates a history of
// these; the most recent by CreatedAt is canonical.
type ScoreRecord struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id,omitempty"`
	LCAID     string `json:"lca_id,omitempty"`
	EcoScore
	CreatedAt time.Time `json:"created_at"`
}

type ProductStatus string

const (
	ProductPending ProductStatus = "pending"
	ProductScored  ProductStatus = "scored"
	ProductFailed  ProductStatus = "failed"
)

// Product is the public-facing summary of a scored product.
type Product struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Brand           string        `json:"brand,omitempty"`
	GTIN            string        `json:"gtin,omitempty"`
	IngredientsText string        `json:"ingredients_text,omitempty"`
	Packaging       string        `json:"packaging,omitempty"`
	WeightKg        float64       `json:"weight_kg,omitempty"`
	Origin          string        `json:"origin,omitempty"`
	Status          ProductStatus `json:"status"`

	ScoreID      string   `json:"score_id,omitempty"`
	ScoreLetter  string   `json:"score_letter,omitempty"`
	ScoreNumeric float64  `json:"score_numeric,omitempty"`
	Confidence   float64  `json:"confidence,omitempty"`
	CO2          float64  `json:"co2,omitempty"`
	Water        float64  `json:"water,omitempty"`
	Energy       float64  `json:"energy,omitempty"`
	Ingredients  []string `json:"ingredients,omitempty"`
	Origins      []string `json:"origins,omitempty"`
	Labels       []string `json:"labels,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job tracks one background scoring run for a product.
type Job struct {
	ID         string     `json:"id"`
	ProductID  string     `json:"product_id"`
	Status     JobStatus  `json:"status"`
	Attempts   int        `json:"attempts"`
	Error      string     `json:"error,omitempty"`
	QueuedAt   time.Time  `json:"queued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
