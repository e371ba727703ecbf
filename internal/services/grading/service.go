// Package grading turns LCA indicators into stored eco-scores.
package grading

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"ecolabel/internal/domain"
	"ecolabel/internal/metrics"
	"ecolabel/internal/ports"
	"ecolabel/internal/scoring"
)

// Indicators are whole-product LCA totals.
type Indicators struct {
	CO2       float64 `json:"co2"`
	Water     float64 `json:"water"`
	Energy    float64 `json:"energy"`
	ProductID string  `json:"product_id,omitempty"`
	LCAID     string  `json:"lca_id,omitempty"`
}

type ScoreRequest struct {
	Indicators      Indicators     `json:"indicators"`
	BonusMalus      *scoring.Flags `json:"bonus_malus,omitempty"`
	ProductWeightKg float64        `json:"product_weight_kg,omitempty"`
}

func (r ScoreRequest) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"co2", r.Indicators.CO2},
		{"water", r.Indicators.Water},
		{"energy", r.Indicators.Energy},
	} {
		if !(v.val >= 0) || math.IsInf(v.val, 0) {
			return domain.Invalid(v.name, "must be a non-negative number, got %v", v.val)
		}
	}
	if r.ProductWeightKg < 0 || math.IsNaN(r.ProductWeightKg) || math.IsInf(r.ProductWeightKg, 0) {
		return domain.Invalid("product_weight_kg", "must be positive, got %v", r.ProductWeightKg)
	}
	return nil
}

type Service struct {
	repo    ports.ScoreRepository
	engine  *scoring.Engine
	latest  *cache.Cache
	cacheMu sync.Mutex
	metrics *metrics.Recorder
	log     *slog.Logger
}

// New builds the service. Latest scores are cached per product for
// cacheTTL; a zero TTL disables the cache.
func New(repo ports.ScoreRepository, engine *scoring.Engine, cacheTTL time.Duration, rec *metrics.Recorder, logger *slog.Logger) *Service {
	s := &Service{repo: repo, engine: engine, metrics: rec, log: logger.With("service", "scoring")}
	if cacheTTL > 0 {
		s.latest = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

// Evaluate grades req without storing it.
func (s *Service) Evaluate(req ScoreRequest) (domain.EcoScore, error) {
	if err := req.Validate(); err != nil {
		return domain.EcoScore{}, err
	}
	defer s.metrics.ObserveStage("score", time.Now())
	co2, water, energy := scoring.PerKg(req.Indicators.CO2, req.Indicators.Water, req.Indicators.Energy, req.ProductWeightKg)
	var flags scoring.Flags
	if req.BonusMalus != nil {
		flags = *req.BonusMalus
	}
	return s.engine.Score(co2, water, energy, flags), nil
}

// Compute grades req and appends the score to the product's history.
func (s *Service) Compute(ctx context.Context, req ScoreRequest) (domain.ScoreRecord, error) {
	score, err := s.Evaluate(req)
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	rec, err := s.repo.CreateScore(ctx, domain.ScoreRecord{
		ProductID: req.Indicators.ProductID,
		LCAID:     req.Indicators.LCAID,
		EcoScore:  score,
	})
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	if rec.ProductID != "" {
		s.remember(rec)
	}
	s.metrics.ScoreComputed(rec.Letter)
	s.log.Info("score computed", "score_id", rec.ID, "product_id", rec.ProductID,
		"grade", rec.Letter, "score", rec.Numeric, "confidence", rec.Confidence)
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.ScoreRecord, error) {
	return s.repo.GetScore(ctx, id)
}

// History returns every score of a product, newest first.
func (s *Service) History(ctx context.Context, productID string) ([]domain.ScoreRecord, error) {
	return s.repo.ListScoresByProduct(ctx, productID)
}

// Latest returns the canonical score of a product.
func (s *Service) Latest(ctx context.Context, productID string) (domain.ScoreRecord, error) {
	if s.latest != nil {
		if v, ok := s.latest.Get(productID); ok {
			return v.(domain.ScoreRecord), nil
		}
	}
	exists, rec, err := s.repo.LatestScore(ctx, productID)
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	if !exists {
		return domain.ScoreRecord{}, domain.ErrNotFound
	}
	s.remember(rec)
	return rec, nil
}

// remember caches rec as the product's latest score unless a newer one is
// already cached. A reader that loaded a row before a concurrent Compute
// stored its record cannot overwrite that record.
func (s *Service) remember(rec domain.ScoreRecord) {
	if s.latest == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if v, ok := s.latest.Get(rec.ProductID); ok && v.(domain.ScoreRecord).CreatedAt.After(rec.CreatedAt) {
		return
	}
	s.latest.SetDefault(rec.ProductID, rec)
}

func (s *Service) Thresholds() []scoring.Threshold { return scoring.Thresholds() }

// Simulate estimates the effect of improvements on a numeric score.
func (s *Service) Simulate(current float64, improvements []string) (scoring.Simulation, error) {
	if !(current >= 0 && current <= 100) {
		return scoring.Simulation{}, domain.Invalid("current_score", "must be within [0, 100], got %v", current)
	}
	return scoring.Simulate(current, improvements), nil
}
