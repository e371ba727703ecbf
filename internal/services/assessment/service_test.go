package assessment

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecolabel/internal/adapters/memory"
	"ecolabel/internal/domain"
	"ecolabel/internal/lca"
	"ecolabel/internal/logging"
	"ecolabel/internal/metrics"
	"ecolabel/internal/reference"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	rec, err := metrics.NewRecorder(prometheus.NewRegistry())
	require.NoError(t, err)
	store := memory.New()
	return New(store, reference.Defaults(), rec, logging.Discard()), store
}

func TestCalculate_StoresResult(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	rec, err := svc.Calculate(ctx, "p-1", lca.Request{
		Ingredients: []lca.Ingredient{{Name: "wheat", WeightKg: 0.5}, {Name: "sugar", WeightKg: 0.2}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "p-1", rec.ProductID)
	assert.InDelta(t, 0.52, rec.CO2, 1e-9)

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.LCAResult, got.LCAResult)
}

func TestCalculate_InvalidRequestNotStored(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Calculate(context.Background(), "", lca.Request{
		Ingredients: []lca.Ingredient{{Name: "", WeightKg: 1}},
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "ingredients", verr.Field)
}

func TestGet_Unknown(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFactorsAndResolve(t *testing.T) {
	svc, _ := newService(t)
	f := svc.Factors()
	assert.Contains(t, f.Ingredients, "wheat")
	assert.Contains(t, f.Materials, "glass")
	assert.Contains(t, f.TransportModes, "truck")

	res := svc.Resolve("zzqx", "")
	assert.Equal(t, lca.MethodDefault, res.CO2Method)
	assert.Equal(t, reference.DefaultIngredient, res.Factor)
}

func TestCompareTransport(t *testing.T) {
	svc, _ := newService(t)
	modes, err := svc.CompareTransport(500, 1000)
	require.NoError(t, err)
	require.NotEmpty(t, modes)
	for i := 1; i < len(modes); i++ {
		assert.LessOrEqual(t, modes[i-1].CO2, modes[i].CO2)
	}

	_, err = svc.CompareTransport(-1, 10)
	assert.Error(t, err)
}

func TestEstimateDistance(t *testing.T) {
	svc, _ := newService(t)
	assert.Equal(t, 8000.0, svc.EstimateDistance("asia", "europe"))
	assert.Equal(t, reference.DefaultDistanceKm, svc.EstimateDistance("mars", "europe"))
}
