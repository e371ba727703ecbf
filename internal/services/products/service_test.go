package products

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecolabel/internal/adapters/memory"
	"ecolabel/internal/domain"
	"ecolabel/internal/logging"
	"ecolabel/internal/reference"
	"ecolabel/internal/scoring"
	"ecolabel/internal/services/assessment"
	"ecolabel/internal/services/grading"
)

const jamText = "Ingredients: wheat flour 60%, sugar, sunflower oil. Organic. Packaging: glass jar. Made in France"

type fixture struct {
	svc    *Service
	store  *memory.Store
	scores *grading.Service
	tables *reference.Tables
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	tables := reference.Defaults()
	engine, err := scoring.NewEngine(scoring.DefaultRanges(), scoring.DefaultWeights())
	require.NoError(t, err)
	scores := grading.New(store, engine, time.Minute, nil, logging.Discard())
	svc := New(Deps{
		Products: store,
		Jobs:     store,
		Tables:   tables,
		LCA:      assessment.New(store, tables, nil, logging.Discard()),
		Scores:   scores,
		Defaults: Defaults{PackagingMaterial: "plastic", PackagingWeightKg: 0.05},
		Logger:   logging.Discard(),
	})
	return fixture{svc: svc, store: store, scores: scores, tables: tables}
}

func TestSubmitAndProcess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, jobID, err := f.svc.Submit(ctx, SubmitRequest{
		Title:           "Strawberry jam",
		Brand:           "Maison",
		GTIN:            "3017620422003",
		IngredientsText: jamText,
		WeightKg:        0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ProductPending, p.Status)

	job, err := f.svc.Job(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobQueued, job.Status)
	assert.Equal(t, p.ID, job.ProductID)

	require.NoError(t, f.svc.Process(ctx, p.ID))

	got, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductScored, got.Status)
	assert.NotEmpty(t, got.ScoreID)
	assert.Contains(t, []string{"A", "B", "C", "D", "E"}, got.ScoreLetter)
	assert.Len(t, got.Ingredients, 3)
	assert.Contains(t, got.Labels, "bio")
	assert.Contains(t, got.Origins, "France")
	assert.Greater(t, got.CO2, 0.0)

	latest, err := f.scores.Latest(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, got.ScoreID, latest.ID)
	require.Len(t, latest.Breakdown.Adjustments, 1)
	assert.Equal(t, "bio_certified", latest.Breakdown.Adjustments[0].Type)

	rec, err := f.store.GetLCA(ctx, latest.LCAID)
	require.NoError(t, err)
	glass, _ := f.tables.PackagingFactor("glass")
	assert.InDelta(t, 0.05*glass.CO2PerKg, rec.Breakdown.Packaging.CO2, 1e-9)
}

func TestSubmit_UpsertsByGTIN(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, _, err := f.svc.Submit(ctx, SubmitRequest{Title: "Old", GTIN: "12345678", IngredientsText: "sugar"})
	require.NoError(t, err)
	second, _, err := f.svc.Submit(ctx, SubmitRequest{Title: "New", GTIN: "12345678", IngredientsText: "salt"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := f.svc.GetByGTIN(ctx, "12345678")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)
	for _, req := range []SubmitRequest{
		{GTIN: "12ab5678"},
		{GTIN: "123"},
		{WeightKg: -1},
	} {
		_, _, err := f.svc.Submit(context.Background(), req)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr, "%+v", req)
	}
}

func TestSubmit_DefaultTitle(t *testing.T) {
	f := newFixture(t)
	p, _, err := f.svc.Submit(context.Background(), SubmitRequest{IngredientsText: "sugar"})
	require.NoError(t, err)
	assert.Equal(t, "Unknown Product", p.Title)
}

func TestProcess_NoIngredientsFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _, err := f.svc.Submit(ctx, SubmitRequest{Title: "Mystery"})
	require.NoError(t, err)

	err = f.svc.Process(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNoIngredients)
	got, err := f.svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProductFailed, got.Status)
}

type failingScores struct{}

func (failingScores) Compute(context.Context, grading.ScoreRequest) (domain.ScoreRecord, error) {
	return domain.ScoreRecord{}, errors.New("scoring backend down")
}

func TestProcess_ScoringFailureMarksProductFailed(t *testing.T) {
	f := newFixture(t)
	f.svc.scores = failingScores{}
	ctx := context.Background()
	p, _, err := f.svc.Submit(ctx, SubmitRequest{Title: "Bread", IngredientsText: "Ingredients: wheat, water, salt."})
	require.NoError(t, err)

	err = f.svc.Process(ctx, p.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scoring backend down")
	got, _ := f.svc.Get(ctx, p.ID)
	assert.Equal(t, domain.ProductFailed, got.Status)
}

func TestProcess_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.svc.Process(context.Background(), "nope"), domain.ErrNotFound)
}

func TestPackagingChoice(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		declared string
		detected []string
		want     string
	}{
		{"Verre", nil, "glass"},
		{"tetra_pak", []string{"glass"}, "tetra_pak"},
		{"mystery wrap", []string{"biodegradable", "carton"}, "cardboard"},
		{"", nil, "plastic"},
	}
	for _, c := range cases {
		got := f.svc.packaging(c.declared, c.detected)
		assert.Equal(t, c.want, got.Material, c.declared)
		assert.Equal(t, 0.05, got.WeightKg)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, title := range []string{"Dark chocolate", "Milk chocolate", "Orange juice"} {
		_, _, err := f.svc.Submit(ctx, SubmitRequest{Title: title, IngredientsText: "sugar"})
		require.NoError(t, err)
	}

	got, err := f.svc.Search(ctx, "chocolate", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = f.svc.Search(ctx, "CHOC", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = f.svc.Search(ctx, "c", 10)
	assert.Error(t, err)
	_, err = f.svc.Search(ctx, "choc", 51)
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t)
	a, err := f.svc.Analyze(context.Background(), jamText)
	require.NoError(t, err)
	assert.Equal(t, "regex", a.Source)
	assert.Len(t, a.Mappings, len(a.Ingredients))
	assert.Contains(t, a.Materials, "glass")

	_, err = f.svc.Analyze(context.Background(), "   ")
	assert.Error(t, err)
}

func TestAnalyzeHTML(t *testing.T) {
	f := newFixture(t)
	page := `<html><head><title>Shop</title></head><body>
<script>var tracking = "sugar";</script>
<p>Ingredients: cocoa butter, sugar.</p></body></html>`
	a, err := f.svc.AnalyzeHTML(context.Background(), strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, a.Ingredients, 2)
	assert.Equal(t, "cocoa butter", a.Ingredients[0].Name)
}
