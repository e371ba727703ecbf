package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecolabel/internal/domain"
)

func TestCreateProduct_UpsertKeepsScoreSummary(t *testing.T) {
	s := New()
	ctx := context.Background()

	p, err := s.CreateProduct(ctx, domain.Product{Title: "Jam", GTIN: "12345678", Status: domain.ProductPending})
	require.NoError(t, err)
	p.Status = domain.ProductScored
	p.ScoreID, p.ScoreLetter, p.ScoreNumeric = "s-1", "B", 31.5
	p.CO2, p.Water, p.Energy = 1.2, 300, 4
	p.Ingredients = []string{"sugar"}
	require.NoError(t, s.UpdateProduct(ctx, p))

	again, err := s.CreateProduct(ctx, domain.Product{Title: "Jam (new recipe)", GTIN: "12345678", Status: domain.ProductPending})
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, "Jam (new recipe)", again.Title)
	assert.Equal(t, domain.ProductPending, again.Status)
	assert.Equal(t, "s-1", again.ScoreID)
	assert.Equal(t, "B", again.ScoreLetter)
	assert.Equal(t, 1.2, again.CO2)
	assert.Equal(t, []string{"sugar"}, again.Ingredients)

	stored, err := s.GetProductByGTIN(ctx, "12345678")
	require.NoError(t, err)
	assert.Equal(t, again, stored)
}

func TestCreateProduct_WithoutGTINAlwaysInserts(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, err := s.CreateProduct(ctx, domain.Product{Title: "Loose apples"})
	require.NoError(t, err)
	b, err := s.CreateProduct(ctx, domain.Product{Title: "Loose apples"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}
