package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecolabel/internal/adapters/memory"
	"ecolabel/internal/logging"
	"ecolabel/internal/metrics"
	"ecolabel/internal/reference"
	"ecolabel/internal/scoring"
	"ecolabel/internal/services/assessment"
	"ecolabel/internal/services/grading"
	"ecolabel/internal/services/products"
)

type testAPI struct {
	srv   *httptest.Server
	store *memory.Store
}

func newTestAPI(t *testing.T) testAPI {
	t.Helper()
	store := memory.New()
	tables := reference.Defaults()
	rec, err := metrics.NewRecorder(prometheus.NewRegistry())
	require.NoError(t, err)
	engine, err := scoring.NewEngine(scoring.DefaultRanges(), scoring.DefaultWeights())
	require.NoError(t, err)

	lcaSvc := assessment.New(store, tables, rec, logging.Discard())
	scoreSvc := grading.New(store, engine, time.Minute, rec, logging.Discard())
	catalog := products.New(products.Deps{
		Products: store,
		Jobs:     store,
		Tables:   tables,
		LCA:      lcaSvc,
		Scores:   scoreSvc,
		Defaults: products.Defaults{PackagingMaterial: "plastic", PackagingWeightKg: 0.05},
		Metrics:  rec,
		Logger:   logging.Discard(),
	})
	api := New(Deps{
		LCA:       lcaSvc,
		Scores:    scoreSvc,
		Catalog:   catalog,
		Jobs:      store,
		Processor: catalog,
		Metrics:   rec,
		Logger:    logging.Discard(),
	})
	srv := httptest.NewServer(api.Routes())
	t.Cleanup(srv.Close)
	return testAPI{srv: srv, store: store}
}

func (a testAPI) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode response: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)
	code, body := a.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestHealthz_NotReady(t *testing.T) {
	api := New(Deps{Logger: logging.Discard(), Ready: func(context.Context) error { return errors.New("db down") }})
	w := httptest.NewRecorder()
	api.Routes().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "db down")
}

func TestLCACalcAndFetch(t *testing.T) {
	a := newTestAPI(t)
	code, body := a.do(t, http.MethodPost, "/lca/calc", `{
		"product_id": "p-1",
		"ingredients": [{"name": "wheat flour", "weight": 0.5}],
		"transport": [{"mode": "truck", "distance_km": 100}],
		"packaging": {"material": "glass", "weight_kg": 0.2}
	}`)
	require.Equal(t, http.StatusOK, code, body)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "p-1", body["product_id"])
	assert.Greater(t, body["co2"].(float64), 0.0)

	code, body = a.do(t, http.MethodGet, "/lca/result/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, body["id"])

	code, _ = a.do(t, http.MethodGet, "/lca/result/nope", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestLCACalc_Invalid(t *testing.T) {
	a := newTestAPI(t)
	code, body := a.do(t, http.MethodPost, "/lca/calc", `{"ingredients": [{"name": "sugar", "weight": -1}]}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "ingredients", body["field"])

	code, _ = a.do(t, http.MethodPost, "/lca/calc", `{not json`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLCAFactorsAndTransport(t *testing.T) {
	a := newTestAPI(t)
	code, body := a.do(t, http.MethodGet, "/lca/factors", "")
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["ingredients"])
	assert.Contains(t, body["packaging_materials"], "glass")

	code, body = a.do(t, http.MethodGet, "/lca/transport/compare?distance_km=500&weight_kg=2", "")
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["modes"])

	code, _ = a.do(t, http.MethodGet, "/lca/transport/compare?distance_km=500", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(t, http.MethodGet, "/lca/transport/compare?distance_km=abc&weight_kg=1", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = a.do(t, http.MethodGet, "/lca/distance?origin=France&destination=France", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "distance_km")
}

func TestScoreComputeAndHistory(t *testing.T) {
	a := newTestAPI(t)
	code, body := a.do(t, http.MethodPost, "/score/compute", `{
		"indicators": {"co2": 1.2, "water": 300, "energy": 8, "product_id": "p-9"},
		"bonus_malus": {"bio_certified": true}
	}`)
	require.Equal(t, http.StatusOK, code, body)
	id := body["id"].(string)
	assert.Contains(t, []any{"A", "B", "C", "D", "E"}, body["score_letter"])

	code, body = a.do(t, http.MethodGet, "/score/result/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, body["id"])

	code, body = a.do(t, http.MethodGet, "/score/product/p-9", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, body = a.do(t, http.MethodGet, "/score/product/p-9/latest", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, body["id"])

	code, _ = a.do(t, http.MethodGet, "/score/product/none/latest", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = a.do(t, http.MethodPost, "/score/compute", `{"indicators": {"co2": -1}}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "co2", body["field"])
}

func TestThresholdsAndSimulate(t *testing.T) {
	a := newTestAPI(t)
	code, body := a.do(t, http.MethodGet, "/score/thresholds", "")
	require.Equal(t, http.StatusOK, code)
	grades := body["grades"].([]any)
	require.Len(t, grades, 5)
	first := grades[0].(map[string]any)
	assert.Equal(t, "A", first["letter"])
	assert.Equal(t, "0-20", first["range"])

	code, body = a.do(t, http.MethodPost, "/score/simulate", `{"current_score": 45, "improvements": ["bio_certified"]}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "C", body["current_grade"])
	assert.Less(t, body["potential_score"].(float64), 45.0)

	code, _ = a.do(t, http.MethodPost, "/score/simulate", `{"current_score": 140}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestExtract(t *testing.T) {
	a := newTestAPI(t)
	code, body := a.do(t, http.MethodPost, "/nlp/extract", `{"text": "Ingredients: sugar, cocoa butter. Packaging: glass jar"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["ingredients"], 2)

	code, body = a.do(t, http.MethodPost, "/nlp/extract",
		`{"text": "<div><p>Ingredients: sugar, salt</p></div>", "content_type": "html"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["ingredients"], 2)
}

func TestProducts_AsyncSubmit(t *testing.T) {
	a := newTestAPI(t)
	code, body := a.do(t, http.MethodPost, "/products", `{"title": "Cocoa spread", "gtin": "3017620422003", "ingredients_text": "sugar, hazelnuts 13%"}`)
	require.Equal(t, http.StatusAccepted, code, body)
	assert.Equal(t, "pending", body["status"])
	productID := body["product_id"].(string)
	jobID := body["job_id"].(string)

	code, body = a.do(t, http.MethodGet, "/jobs/"+jobID, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "queued", body["status"])

	code, body = a.do(t, http.MethodGet, "/products/"+productID, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pending", body["status"])
	badge := body["eco_score"].(map[string]any)
	assert.NotContains(t, badge, "numeric")

	code, body = a.do(t, http.MethodGet, "/products/gtin/3017620422003", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, productID, body["id"])

	code, _ = a.do(t, http.MethodGet, "/products/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestProducts_WaitAndSearch(t *testing.T) {
	a := newTestAPI(t)
	code, body := a.do(t, http.MethodPost, "/products?wait=true&timeout=5", `{
		"title": "Strawberry jam",
		"brand": "Maison",
		"ingredients_text": "Ingredients: wheat flour 60%, sugar. Packaging: glass jar",
		"weight_kg": 0.4
	}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "scored", body["status"])
	badge := body["eco_score"].(map[string]any)
	assert.Contains(t, badge, "numeric")
	assert.NotEqual(t, "#808080", badge["color"])
	breakdown := body["breakdown"].(map[string]any)
	assert.Equal(t, "kg CO2e", breakdown["co2"].(map[string]any)["unit"])
	assert.NotEmpty(t, body["score_url"])

	code, body = a.do(t, http.MethodGet, "/products/search?q=jam", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["count"])

	code, _ = a.do(t, http.MethodGet, "/products/search?q=j", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(t, http.MethodGet, "/products/search?q=jam&limit=500", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(t, http.MethodGet, "/products/search", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestProducts_WaitWithoutIngredients(t *testing.T) {
	a := newTestAPI(t)
	code, _ := a.do(t, http.MethodPost, "/products?wait=true", `{"title": "Mystery box", "ingredients_text": "   "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodGet, "/score/thresholds", "")

	resp, err := http.Get(a.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sb strings.Builder
	_, err = io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, sb.String(), `route="/score/thresholds"`)
}
