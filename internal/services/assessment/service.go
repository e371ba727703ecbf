// Package assessment runs and stores life-cycle assessments.
package assessment

import (
	"context"
	"log/slog"
	"time"

	"ecolabel/internal/domain"
	"ecolabel/internal/lca"
	"ecolabel/internal/metrics"
	"ecolabel/internal/ports"
	"ecolabel/internal/reference"
)

type Service struct {
	repo    ports.LCARepository
	tables  *reference.Tables
	agg     *lca.Aggregator
	metrics *metrics.Recorder
	log     *slog.Logger
}

func New(repo ports.LCARepository, tables *reference.Tables, rec *metrics.Recorder, logger *slog.Logger) *Service {
	s := &Service{repo: repo, tables: tables, metrics: rec, log: logger.With("service", "lca")}
	s.agg = lca.NewAggregator(tables, lca.WithObserver(func(indicator string, m lca.Method) {
		rec.FactorResolved(indicator, string(m))
	}))
	return s
}

// Evaluate aggregates req without storing anything.
func (s *Service) Evaluate(req lca.Request) (domain.LCAResult, error) {
	defer s.metrics.ObserveStage("aggregate", time.Now())
	return s.agg.Aggregate(req)
}

// Calculate aggregates req and appends the result, linked to productID when
// one is given.
func (s *Service) Calculate(ctx context.Context, productID string, req lca.Request) (domain.LCARecord, error) {
	res, err := s.Evaluate(req)
	if err != nil {
		return domain.LCARecord{}, err
	}
	rec, err := s.repo.CreateLCA(ctx, domain.LCARecord{ProductID: productID, LCAResult: res})
	if err != nil {
		return domain.LCARecord{}, err
	}
	s.log.Debug("lca stored", "lca_id", rec.ID, "product_id", productID,
		"ingredients", len(req.Ingredients), "co2", res.CO2)
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.LCARecord, error) {
	return s.repo.GetLCA(ctx, id)
}

// Factors lists what the reference tables know about.
type Factors struct {
	Ingredients    []string `json:"ingredients"`
	Materials      []string `json:"packaging_materials"`
	TransportModes []string `json:"transport_modes"`
	Mapped         []string `json:"mapped_ingredients"`
}

func (s *Service) Factors() Factors {
	return Factors{
		Ingredients:    s.tables.Ingredients(),
		Materials:      s.tables.Materials(),
		TransportModes: s.tables.Modes(),
		Mapped:         s.tables.MappingKeys(),
	}
}

// Resolve reports which factors an ingredient name would use.
func (s *Service) Resolve(name, explicitID string) lca.Resolution {
	return s.agg.Resolver().Resolve(name, explicitID)
}

// CompareTransport prices a shipment with every mode.
func (s *Service) CompareTransport(distanceKm, weightKg float64) ([]lca.ModeComparison, error) {
	if !(distanceKm >= 0) {
		return nil, domain.Invalid("distance_km", "must be non-negative, got %v", distanceKm)
	}
	if !(weightKg >= 0) {
		return nil, domain.Invalid("weight_kg", "must be non-negative, got %v", weightKg)
	}
	return lca.CompareModes(s.tables, distanceKm, weightKg), nil
}

// EstimateDistance returns the tabulated distance between two regions, or the
// default distance when the pair is unknown.
func (s *Service) EstimateDistance(origin, destination string) float64 {
	return s.tables.Distance(origin, destination)
}
