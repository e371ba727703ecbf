package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecolabel/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "ecolabel.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestProducts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, domain.Product{Title: "Dark chocolate", Brand: "Cacao & Co", GTIN: "12345678", Status: domain.ProductPending})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	again, err := s.CreateProduct(ctx, domain.Product{Title: "Dark chocolate 70%", GTIN: "12345678", Status: domain.ProductPending})
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)

	_, err = s.CreateProduct(ctx, domain.Product{Title: "Milk chocolate", Status: domain.ProductPending})
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, domain.Product{Title: "Orange juice", Status: domain.ProductPending})
	require.NoError(t, err)

	again.Status = domain.ProductScored
	again.ScoreLetter = "C"
	again.Ingredients = []string{"cocoa mass", "sugar"}
	require.NoError(t, s.UpdateProduct(ctx, again))

	got, err := s.GetProductByGTIN(ctx, "12345678")
	require.NoError(t, err)
	assert.Equal(t, "Dark chocolate 70%", got.Title)
	assert.Equal(t, domain.ProductScored, got.Status)
	assert.Equal(t, []string{"cocoa mass", "sugar"}, got.Ingredients)

	resubmitted, err := s.CreateProduct(ctx, domain.Product{Title: "Dark chocolate 85%", GTIN: "12345678", Status: domain.ProductPending})
	require.NoError(t, err)
	assert.Equal(t, "Dark chocolate 85%", resubmitted.Title)
	assert.Equal(t, domain.ProductPending, resubmitted.Status)
	assert.Equal(t, "C", resubmitted.ScoreLetter)
	assert.Equal(t, []string{"cocoa mass", "sugar"}, resubmitted.Ingredients)

	found, err := s.SearchProducts(ctx, "CHOCOLATE", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = s.SearchProducts(ctx, "85%", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = s.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.UpdateProduct(ctx, domain.Product{ID: "missing"}), domain.ErrNotFound)
}

func TestLCAAndScores(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	lca, err := s.CreateLCA(ctx, domain.LCARecord{
		ProductID: "p-1",
		LCAResult: domain.LCAResult{CO2: 2.5, Breakdown: domain.Breakdown{
			Ingredients: domain.IngredientsBreakdown{CO2: 2, Details: []domain.IngredientImpact{{Name: "wheat", WeightKg: 1}}},
		}},
	})
	require.NoError(t, err)
	got, err := s.GetLCA(ctx, lca.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.CO2)
	require.Len(t, got.Breakdown.Ingredients.Details, 1)
	assert.Equal(t, "wheat", got.Breakdown.Ingredients.Details[0].Name)

	var ids []string
	for _, letter := range []string{"C", "B", "A"} {
		rec, err := s.CreateScore(ctx, domain.ScoreRecord{ProductID: "p-1", LCAID: lca.ID, EcoScore: domain.EcoScore{Letter: letter}})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	history, err := s.ListScoresByProduct(ctx, "p-1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{history[0].ID, history[1].ID, history[2].ID})

	exists, latest, err := s.LatestScore(ctx, "p-1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "A", latest.Letter)

	exists, _, err = s.LatestScore(ctx, "p-2")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.GetScore(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.EnqueueJob(ctx, "p-1")
	require.NoError(t, err)
	second, err := s.EnqueueJob(ctx, "p-2")
	require.NoError(t, err)

	job, found, err := s.ClaimNext(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, first, job.ID)
	require.NoError(t, s.MarkCompleted(ctx, job.ID))

	inline, err := s.StartJobForProduct(ctx, "p-2")
	require.NoError(t, err)
	assert.Equal(t, second, inline)
	require.NoError(t, s.MarkFailed(ctx, inline, "extract: timeout"))

	_, found, err = s.ClaimNext(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	j, err := s.GetJob(ctx, inline)
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, j.Status)
	assert.Equal(t, "extract: timeout", j.Error)
	assert.Equal(t, 1, j.Attempts)
	assert.NotNil(t, j.FinishedAt)

	fresh, err := s.StartJobForProduct(ctx, "p-3")
	require.NoError(t, err)
	j, err = s.GetJob(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, domain.JobRunning, j.Status)

	assert.ErrorIs(t, s.MarkCompleted(ctx, "missing"), domain.ErrNotFound)
}
