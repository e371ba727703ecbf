package httpadapter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"ecolabel/internal/domain"
	"ecolabel/internal/lca"
	"ecolabel/internal/scoring"
	"ecolabel/internal/services/grading"
	"ecolabel/internal/services/products"
	"ecolabel/internal/workers/scorerunner"
)

const (
	defaultWaitTimeout = 30
	maxWaitTimeout     = 120
)

// queryParam binds one form-style query parameter into dest. Optional
// parameters bind through a pointer to a pointer and stay nil when absent.
func queryParam(r *http.Request, name string, required bool, dest any) error {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		return badRequest("invalid query parameter %s: %v", name, err)
	}
	return nil
}

// LCA

type lcaCalcRequest struct {
	ProductID string `json:"product_id,omitempty"`
	lca.Request
}

func (s *Server) postLCACalc(w http.ResponseWriter, r *http.Request) {
	var req lcaCalcRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.lca.Calculate(r.Context(), req.ProductID, req.Request)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) getLCAResult(w http.ResponseWriter, r *http.Request) {
	rec, err := s.lca.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) getLCAFactors(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.lca.Factors())
}

func (s *Server) getTransportCompare(w http.ResponseWriter, r *http.Request) {
	var distance, weight float64
	if err := queryParam(r, "distance_km", true, &distance); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := queryParam(r, "weight_kg", true, &weight); err != nil {
		s.writeError(w, r, err)
		return
	}
	modes, err := s.lca.CompareTransport(distance, weight)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"distance_km": distance, "weight_kg": weight, "modes": modes})
}

func (s *Server) getDistance(w http.ResponseWriter, r *http.Request) {
	var origin, destination string
	if err := queryParam(r, "origin", true, &origin); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := queryParam(r, "destination", true, &destination); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"origin":      origin,
		"destination": destination,
		"distance_km": s.lca.EstimateDistance(origin, destination),
	})
}

// Scores

func (s *Server) postScoreCompute(w http.ResponseWriter, r *http.Request) {
	var req grading.ScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.scores.Compute(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) getScoreResult(w http.ResponseWriter, r *http.Request) {
	rec, err := s.scores.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) getScoreHistory(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	list, err := s.scores.History(r.Context(), productID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product_id": productID, "count": len(list), "scores": list})
}

func (s *Server) getLatestScore(w http.ResponseWriter, r *http.Request) {
	rec, err := s.scores.Latest(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type gradeView struct {
	Letter      string  `json:"letter"`
	Color       string  `json:"color"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Range       string  `json:"range"`
	Description string  `json:"description"`
}

func (s *Server) getThresholds(w http.ResponseWriter, _ *http.Request) {
	th := s.scores.Thresholds()
	grades := make([]gradeView, 0, len(th))
	for _, t := range th {
		grades = append(grades, gradeView{
			Letter: t.Letter, Color: t.Color, Min: t.Min, Max: t.Max,
			Range:       fmt.Sprintf("%g-%g", t.Min, t.Max),
			Description: t.Description,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"grades": grades})
}

type simulateRequest struct {
	CurrentScore float64  `json:"current_score"`
	Improvements []string `json:"improvements"`
}

func (s *Server) postSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sim, err := s.scores.Simulate(req.CurrentScore, req.Improvements)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

// Extraction

type extractRequest struct {
	Text        string `json:"text"`
	ContentType string `json:"content_type,omitempty"`
}

func (s *Server) postExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var (
		res products.Analysis
		err error
	)
	if strings.EqualFold(req.ContentType, "html") {
		res, err = s.catalog.AnalyzeHTML(r.Context(), strings.NewReader(req.Text))
	} else {
		res, err = s.catalog.Analyze(r.Context(), req.Text)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Products

func (s *Server) postProduct(w http.ResponseWriter, r *http.Request) {
	var req products.SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	var (
		wait    *bool
		timeout *int
	)
	if err := queryParam(r, "wait", false, &wait); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := queryParam(r, "timeout", false, &timeout); err != nil {
		s.writeError(w, r, err)
		return
	}
	seconds := defaultWaitTimeout
	if timeout != nil && *timeout > 0 && *timeout <= maxWaitTimeout {
		seconds = *timeout
	}

	p, jobID, err := s.catalog.Submit(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if wait == nil || !*wait {
		writeJSON(w, http.StatusAccepted, map[string]any{"product_id": p.ID, "job_id": jobID, "status": p.Status})
		return
	}

	// Blocking path: same processor the workers use.
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(seconds)*time.Second)
	defer cancel()
	if _, err := scorerunner.ProcessInline(ctx, s.jobs, s.processor, p.ID); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err = s.catalog.Get(r.Context(), p.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(p))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(p))
}

func (s *Server) getProductByGTIN(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.GetByGTIN(r.Context(), chi.URLParam(r, "gtin"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProductView(p))
}

type searchHit struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Brand    string        `json:"brand,omitempty"`
	GTIN     string        `json:"gtin,omitempty"`
	EcoScore ecoScoreBadge `json:"eco_score"`
}

func (s *Server) getProductSearch(w http.ResponseWriter, r *http.Request) {
	var (
		q     string
		limit *int
	)
	if err := queryParam(r, "q", true, &q); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := queryParam(r, "limit", false, &limit); err != nil {
		s.writeError(w, r, err)
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}
	list, err := s.catalog.Search(r.Context(), q, n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	hits := make([]searchHit, 0, len(list))
	for _, p := range list {
		hits = append(hits, searchHit{
			ID: p.ID, Title: p.Title, Brand: p.Brand, GTIN: p.GTIN,
			EcoScore: ecoScoreBadge{Letter: p.ScoreLetter, Color: scoring.Color(p.ScoreLetter)},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "count": len(hits), "results": hits})
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.catalog.Job(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// Views

type ecoScoreBadge struct {
	Letter     string   `json:"letter,omitempty"`
	Numeric    *float64 `json:"numeric,omitempty"`
	Color      string   `json:"color"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type indicatorView struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Label string  `json:"label"`
}

type productView struct {
	ID          string                   `json:"id"`
	Title       string                   `json:"title"`
	Brand       string                   `json:"brand,omitempty"`
	GTIN        string                   `json:"gtin,omitempty"`
	Status      domain.ProductStatus     `json:"status"`
	EcoScore    ecoScoreBadge            `json:"eco_score"`
	Breakdown   map[string]indicatorView `json:"breakdown"`
	Ingredients []string                 `json:"ingredients"`
	Origins     []string                 `json:"origins"`
	Labels      []string                 `json:"labels"`
	ScoreURL    string                   `json:"score_url,omitempty"`
	LastUpdated time.Time                `json:"last_updated"`
}

func newProductView(p domain.Product) productView {
	v := productView{
		ID: p.ID, Title: p.Title, Brand: p.Brand, GTIN: p.GTIN, Status: p.Status,
		EcoScore: ecoScoreBadge{Letter: p.ScoreLetter, Color: scoring.Color(p.ScoreLetter)},
		Breakdown: map[string]indicatorView{
			"co2":    {Value: p.CO2, Unit: "kg CO2e", Label: "Carbon Footprint"},
			"water":  {Value: p.Water, Unit: "L", Label: "Water Usage"},
			"energy": {Value: p.Energy, Unit: "MJ", Label: "Energy Consumption"},
		},
		Ingredients: nonNil(p.Ingredients),
		Origins:     nonNil(p.Origins),
		Labels:      nonNil(p.Labels),
		LastUpdated: p.UpdatedAt,
	}
	if p.Status == domain.ProductScored {
		numeric, confidence := p.ScoreNumeric, p.Confidence
		v.EcoScore.Numeric = &numeric
		v.EcoScore.Confidence = &confidence
	}
	if p.ScoreID != "" {
		v.ScoreURL = "/score/result/" + p.ScoreID
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
