package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ecolabel/internal/domain"
	"ecolabel/internal/lca"
	"ecolabel/internal/metrics"
	"ecolabel/internal/ports"
	"ecolabel/internal/scoring"
	"ecolabel/internal/services/assessment"
	"ecolabel/internal/services/grading"
	"ecolabel/internal/services/products"
	"ecolabel/internal/workers/scorerunner"
)

const maxBodyBytes = 1 << 20

// Assessor runs and stores LCAs.
type Assessor interface {
	Calculate(ctx context.Context, productID string, req lca.Request) (domain.LCARecord, error)
	Get(ctx context.Context, id string) (domain.LCARecord, error)
	Factors() assessment.Factors
	CompareTransport(distanceKm, weightKg float64) ([]lca.ModeComparison, error)
	EstimateDistance(origin, destination string) float64
}

// Scorer grades indicators and serves score history.
type Scorer interface {
	Compute(ctx context.Context, req grading.ScoreRequest) (domain.ScoreRecord, error)
	Get(ctx context.Context, id string) (domain.ScoreRecord, error)
	History(ctx context.Context, productID string) ([]domain.ScoreRecord, error)
	Latest(ctx context.Context, productID string) (domain.ScoreRecord, error)
	Thresholds() []scoring.Threshold
	Simulate(current float64, improvements []string) (scoring.Simulation, error)
}

// Catalog accepts product submissions and serves scored products.
type Catalog interface {
	Submit(ctx context.Context, req products.SubmitRequest) (domain.Product, string, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	GetByGTIN(ctx context.Context, gtin string) (domain.Product, error)
	Search(ctx context.Context, q string, limit int) ([]domain.Product, error)
	Job(ctx context.Context, id string) (domain.Job, error)
	Analyze(ctx context.Context, text string) (products.Analysis, error)
	AnalyzeHTML(ctx context.Context, r io.Reader) (products.Analysis, error)
}

type Server struct {
	lca       Assessor
	scores    Scorer
	catalog   Catalog
	jobs      ports.JobRepository
	processor scorerunner.Processor
	metrics   *metrics.Recorder
	log       *slog.Logger
	ready     func(ctx context.Context) error
}

type Deps struct {
	LCA       Assessor
	Scores    Scorer
	Catalog   Catalog
	Jobs      ports.JobRepository
	Processor scorerunner.Processor
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
	// Ready is polled by /healthz; nil means always ready.
	Ready func(ctx context.Context) error
}

func New(d Deps) *Server {
	return &Server{
		lca:       d.LCA,
		scores:    d.Scores,
		catalog:   d.Catalog,
		jobs:      d.Jobs,
		processor: d.Processor,
		metrics:   d.Metrics,
		log:       d.Logger.With("component", "http"),
		ready:     d.Ready,
	}
}

// Routes returns the full API router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.getHealthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/lca", func(r chi.Router) {
		r.Post("/calc", s.postLCACalc)
		r.Get("/result/{id}", s.getLCAResult)
		r.Get("/factors", s.getLCAFactors)
		r.Get("/transport/compare", s.getTransportCompare)
		r.Get("/distance", s.getDistance)
	})
	r.Route("/score", func(r chi.Router) {
		r.Post("/compute", s.postScoreCompute)
		r.Get("/result/{id}", s.getScoreResult)
		r.Get("/thresholds", s.getThresholds)
		r.Get("/product/{productID}", s.getScoreHistory)
		r.Get("/product/{productID}/latest", s.getLatestScore)
		r.Post("/simulate", s.postSimulate)
	})
	r.Post("/nlp/extract", s.postExtract)
	r.Route("/products", func(r chi.Router) {
		r.Post("/", s.postProduct)
		r.Get("/search", s.getProductSearch)
		r.Get("/gtin/{gtin}", s.getProductByGTIN)
		r.Get("/{id}", s.getProduct)
	})
	r.Get("/jobs/{id}", s.getJob)
	return r
}

// observe logs each request and counts it by route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.HTTPRequest(route, r.Method, status)
		s.log.Debug("request", "method", r.Method, "route", route, "status", status,
			"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}

type runtimeError struct {
	code int
	msg  string
}

func (e *runtimeError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &runtimeError{code: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		rt   *runtimeError
		verr *domain.ValidationError
	)
	switch {
	case errors.As(err, &rt):
		writeJSON(w, rt.code, errorBody{Error: rt.msg})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, products.ErrNoIngredients):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: "timed out"})
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return badRequest("missing body")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("missing body")
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func (s *Server) getHealthz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
