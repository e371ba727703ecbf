package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"ecolabel/internal/domain"
	"ecolabel/internal/logging"
)

func startPostgres(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests are skipped with -short")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "eco",
				"POSTGRES_PASSWORD": "eco",
				"POSTGRES_DB":       "ecolabel",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432")
	require.NoError(t, err)
	url := fmt.Sprintf("postgres://eco:eco@%s:%s/ecolabel?sslmode=disable", host, port.Port())

	require.NoError(t, Migrate(ctx, url, logging.Discard()))
	db, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPostgresStore(t *testing.T) {
	db := startPostgres(t)
	ctx := context.Background()

	t.Run("products upsert by gtin", func(t *testing.T) {
		p, err := db.CreateProduct(ctx, domain.Product{Title: "Jam", GTIN: "3017620422003", Status: domain.ProductPending})
		require.NoError(t, err)
		again, err := db.CreateProduct(ctx, domain.Product{Title: "Jam v2", GTIN: "3017620422003", Status: domain.ProductPending})
		require.NoError(t, err)
		assert.Equal(t, p.ID, again.ID)
		assert.Equal(t, "Jam v2", again.Title)

		again.Status = domain.ProductScored
		again.Labels = []string{"bio"}
		require.NoError(t, db.UpdateProduct(ctx, again))
		got, err := db.GetProductByGTIN(ctx, "3017620422003")
		require.NoError(t, err)
		assert.Equal(t, domain.ProductScored, got.Status)
		assert.Equal(t, []string{"bio"}, got.Labels)

		found, err := db.SearchProducts(ctx, "jam", 10)
		require.NoError(t, err)
		assert.Len(t, found, 1)

		_, err = db.GetProduct(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("lca and scores", func(t *testing.T) {
		lca, err := db.CreateLCA(ctx, domain.LCARecord{ProductID: "p-1", LCAResult: domain.LCAResult{CO2: 1.5}})
		require.NoError(t, err)
		got, err := db.GetLCA(ctx, lca.ID)
		require.NoError(t, err)
		assert.Equal(t, 1.5, got.CO2)

		first, err := db.CreateScore(ctx, domain.ScoreRecord{ProductID: "p-1", LCAID: lca.ID, EcoScore: domain.EcoScore{Numeric: 30, Letter: "B"}})
		require.NoError(t, err)
		second, err := db.CreateScore(ctx, domain.ScoreRecord{ProductID: "p-1", EcoScore: domain.EcoScore{Numeric: 10, Letter: "A"}})
		require.NoError(t, err)

		exists, latest, err := db.LatestScore(ctx, "p-1")
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Equal(t, second.ID, latest.ID)

		history, err := db.ListScoresByProduct(ctx, "p-1")
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, first.ID, history[1].ID)

		exists, _, err = db.LatestScore(ctx, "nobody")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("jobs", func(t *testing.T) {
		p, err := db.CreateProduct(ctx, domain.Product{Title: "Bread", Status: domain.ProductPending})
		require.NoError(t, err)
		jobID, err := db.EnqueueJob(ctx, p.ID)
		require.NoError(t, err)

		job, found, err := db.ClaimNext(ctx)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, jobID, job.ID)

		require.NoError(t, db.MarkFailed(ctx, jobID, "boom"))
		j, err := db.GetJob(ctx, jobID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobFailed, j.Status)
		assert.Equal(t, 1, j.Attempts)
		assert.Equal(t, "boom", j.Error)

		inline, err := db.StartJobForProduct(ctx, p.ID)
		require.NoError(t, err)
		require.NoError(t, db.MarkCompleted(ctx, inline))
		j, err = db.GetJob(ctx, inline)
		require.NoError(t, err)
		assert.Equal(t, domain.JobCompleted, j.Status)
		assert.NotNil(t, j.FinishedAt)
	})
}
