package grading

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecolabel/internal/adapters/memory"
	"ecolabel/internal/domain"
	"ecolabel/internal/logging"
	"ecolabel/internal/scoring"
)

func newService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()
	engine, err := scoring.NewEngine(scoring.DefaultRanges(), scoring.DefaultWeights())
	require.NoError(t, err)
	return New(memory.New(), engine, ttl, nil, logging.Discard())
}

func TestCompute_ZeroImpactIsA(t *testing.T) {
	svc := newService(t, time.Minute)
	rec, err := svc.Compute(context.Background(), ScoreRequest{
		Indicators: Indicators{ProductID: "p-1"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "A", rec.Letter)
	assert.Equal(t, 0.0, rec.Numeric)
	assert.Equal(t, "p-1", rec.ProductID)
}

func TestCompute_DividesByProductWeight(t *testing.T) {
	svc := newService(t, 0)
	whole, err := svc.Evaluate(ScoreRequest{
		Indicators:      Indicators{CO2: 10, Water: 2000, Energy: 40},
		ProductWeightKg: 2,
	})
	require.NoError(t, err)
	perKg, err := svc.Evaluate(ScoreRequest{
		Indicators: Indicators{CO2: 5, Water: 1000, Energy: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, perKg, whole)
	assert.Equal(t, 5.0, whole.Breakdown.NormalizedIndicators.CO2Raw)
}

func TestCompute_BonusMalus(t *testing.T) {
	svc := newService(t, 0)
	base, err := svc.Evaluate(ScoreRequest{Indicators: Indicators{CO2: 5, Water: 1000, Energy: 20}})
	require.NoError(t, err)
	withBonus, err := svc.Evaluate(ScoreRequest{
		Indicators: Indicators{CO2: 5, Water: 1000, Energy: 20},
		BonusMalus: &scoring.Flags{BioCertified: true},
	})
	require.NoError(t, err)
	assert.InDelta(t, base.Numeric-10, withBonus.Numeric, 1e-9)
	require.Len(t, withBonus.Breakdown.Adjustments, 1)
	assert.Equal(t, "bio_certified", withBonus.Breakdown.Adjustments[0].Type)
}

func TestCompute_Validation(t *testing.T) {
	svc := newService(t, 0)
	for _, req := range []ScoreRequest{
		{Indicators: Indicators{CO2: -1}},
		{Indicators: Indicators{Water: math.NaN()}},
		{Indicators: Indicators{Energy: math.Inf(1)}},
		{ProductWeightKg: -2},
	} {
		_, err := svc.Compute(context.Background(), req)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr, "%+v", req)
	}
}

func TestLatest_InvalidatedOnInsert(t *testing.T) {
	svc := newService(t, time.Hour)
	ctx := context.Background()

	_, err := svc.Latest(ctx, "p-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	first, err := svc.Compute(ctx, ScoreRequest{Indicators: Indicators{CO2: 1, ProductID: "p-1"}})
	require.NoError(t, err)
	got, err := svc.Latest(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	second, err := svc.Compute(ctx, ScoreRequest{Indicators: Indicators{CO2: 30, ProductID: "p-1"}})
	require.NoError(t, err)
	got, err = svc.Latest(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	history, err := svc.History(ctx, "p-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
}

// interleavedRepo runs afterRead once, between a LatestScore read and its
// return, to stage a write that lands while a reader holds an older row.
type interleavedRepo struct {
	*memory.Store
	afterRead func()
}

func (r *interleavedRepo) LatestScore(ctx context.Context, productID string) (bool, domain.ScoreRecord, error) {
	exists, rec, err := r.Store.LatestScore(ctx, productID)
	if hook := r.afterRead; hook != nil {
		r.afterRead = nil
		hook()
	}
	return exists, rec, err
}

func TestLatest_StaleReadDoesNotOverwriteNewerScore(t *testing.T) {
	engine, err := scoring.NewEngine(scoring.DefaultRanges(), scoring.DefaultWeights())
	require.NoError(t, err)
	repo := &interleavedRepo{Store: memory.New()}
	svc := New(repo, engine, time.Hour, nil, logging.Discard())
	ctx := context.Background()

	old, err := repo.CreateScore(ctx, domain.ScoreRecord{ProductID: "p-1", EcoScore: domain.EcoScore{Letter: "C"}})
	require.NoError(t, err)

	var fresh domain.ScoreRecord
	repo.afterRead = func() {
		fresh, err = svc.Compute(ctx, ScoreRequest{Indicators: Indicators{CO2: 1, ProductID: "p-1"}})
		require.NoError(t, err)
	}
	got, err := svc.Latest(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, old.ID, got.ID)

	got, err = svc.Latest(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, got.ID)
}

func TestSimulate(t *testing.T) {
	svc := newService(t, 0)
	sim, err := svc.Simulate(45, []string{"bio_certified", "unknown"})
	require.NoError(t, err)
	assert.Equal(t, 35.0, sim.PotentialScore)
	assert.True(t, sim.GradeChange)

	_, err = svc.Simulate(120, nil)
	assert.Error(t, err)
}

func TestThresholds(t *testing.T) {
	svc := newService(t, 0)
	th := svc.Thresholds()
	require.Len(t, th, 5)
	assert.Equal(t, "A", th[0].Letter)
}
