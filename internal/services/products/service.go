// Package products orchestrates the full pipeline for submitted products:
// extraction, mapping, weight imputation, LCA and scoring.
package products

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"ecolabel/internal/domain"
	"ecolabel/internal/ingredients"
	"ecolabel/internal/lca"
	"ecolabel/internal/metrics"
	"ecolabel/internal/ports"
	"ecolabel/internal/reference"
	"ecolabel/internal/services/grading"
)

const (
	defaultTitle       = "Unknown Product"
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// ErrNoIngredients is recorded on products whose text yields no ingredient.
var ErrNoIngredients = errors.New("no ingredients found in product text")

type lcaCalculator interface {
	Calculate(ctx context.Context, productID string, req lca.Request) (domain.LCARecord, error)
}

type scoreComputer interface {
	Compute(ctx context.Context, req grading.ScoreRequest) (domain.ScoreRecord, error)
}

// Defaults fill in what a submission leaves out.
type Defaults struct {
	PackagingMaterial string
	PackagingWeightKg float64
}

type Service struct {
	products  ports.ProductRepository
	jobs      ports.JobRepository
	extractor ingredients.Extractor
	mapper    *ingredients.Mapper
	tables    *reference.Tables
	lca       lcaCalculator
	scores    scoreComputer
	defaults  Defaults
	metrics   *metrics.Recorder
	log       *slog.Logger
}

type Deps struct {
	Products  ports.ProductRepository
	Jobs      ports.JobRepository
	Extractor ingredients.Extractor
	Tables    *reference.Tables
	LCA       lcaCalculator
	Scores    scoreComputer
	Defaults  Defaults
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
}

func New(d Deps) *Service {
	if d.Extractor == nil {
		d.Extractor = ingredients.RegexExtractor{}
	}
	if d.Defaults.PackagingMaterial == "" {
		d.Defaults.PackagingMaterial = "plastic"
	}
	return &Service{
		products:  d.Products,
		jobs:      d.Jobs,
		extractor: d.Extractor,
		mapper:    ingredients.NewMapper(d.Tables),
		tables:    d.Tables,
		lca:       d.LCA,
		scores:    d.Scores,
		defaults:  d.Defaults,
		metrics:   d.Metrics,
		log:       d.Logger.With("service", "products"),
	}
}

type SubmitRequest struct {
	Title           string  `json:"title"`
	Brand           string  `json:"brand,omitempty"`
	GTIN            string  `json:"gtin,omitempty"`
	IngredientsText string  `json:"ingredients_text"`
	Origin          string  `json:"origin,omitempty"`
	Packaging       string  `json:"packaging,omitempty"`
	WeightKg        float64 `json:"weight_kg,omitempty"`
}

func (r SubmitRequest) Validate() error {
	if g := r.GTIN; g != "" {
		if len(g) < 8 || len(g) > 14 || strings.IndexFunc(g, func(c rune) bool { return !unicode.IsDigit(c) }) >= 0 {
			return domain.Invalid("gtin", "must be 8 to 14 digits, got %q", g)
		}
	}
	if r.WeightKg < 0 {
		return domain.Invalid("weight_kg", "must be non-negative, got %v", r.WeightKg)
	}
	return nil
}

// Submit stores the product (replacing any product with the same GTIN) in
// the pending state and queues a scoring job for it.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (domain.Product, string, error) {
	if err := req.Validate(); err != nil {
		return domain.Product{}, "", err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultTitle
	}
	p, err := s.products.CreateProduct(ctx, domain.Product{
		Title:           title,
		Brand:           strings.TrimSpace(req.Brand),
		GTIN:            req.GTIN,
		IngredientsText: req.IngredientsText,
		Packaging:       strings.TrimSpace(req.Packaging),
		WeightKg:        req.WeightKg,
		Origin:          strings.TrimSpace(req.Origin),
		Status:          domain.ProductPending,
	})
	if err != nil {
		return domain.Product{}, "", fmt.Errorf("create product: %w", err)
	}
	jobID, err := s.jobs.EnqueueJob(ctx, p.ID)
	if err != nil {
		return p, "", fmt.Errorf("enqueue job: %w", err)
	}
	s.log.Info("product submitted", "product_id", p.ID, "gtin", p.GTIN, "job_id", jobID)
	return p, jobID, nil
}

// Process runs the pipeline for one stored product and records the outcome
// on it. A failed run leaves the product in the failed state.
func (s *Service) Process(ctx context.Context, productID string) error {
	p, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	scored, err := s.run(ctx, p)
	if err != nil {
		p.Status = domain.ProductFailed
		if uerr := s.products.UpdateProduct(ctx, p); uerr != nil {
			s.log.Error("marking product failed", "product_id", p.ID, "error", uerr)
		}
		return err
	}
	return s.products.UpdateProduct(ctx, scored)
}

func (s *Service) run(ctx context.Context, p domain.Product) (domain.Product, error) {
	start := time.Now()
	ex, err := s.extract(ctx, p.IngredientsText)
	if err != nil {
		return p, err
	}
	if len(ex.Ingredients) == 0 {
		return p, ErrNoIngredients
	}

	items := make([]ingredients.Weighted, 0, len(ex.Ingredients))
	names := make([]string, 0, len(ex.Ingredients))
	for _, ing := range ex.Ingredients {
		m := s.mapper.Map(ing.Name)
		items = append(items, ingredients.Weighted{Ingredient: ing, Mapping: m, Origin: p.Origin})
		names = append(names, ing.Name)
	}
	req := lca.Request{
		Ingredients: ingredients.ImputeWeights(items, p.WeightKg),
		Packaging:   s.packaging(p.Packaging, ex.Materials),
	}

	lcaRec, err := s.lca.Calculate(ctx, p.ID, req)
	if err != nil {
		return p, fmt.Errorf("lca: %w", err)
	}
	flags := ingredients.LabelFlags(ex.Labels)
	score, err := s.scores.Compute(ctx, grading.ScoreRequest{
		Indicators: grading.Indicators{
			CO2:       lcaRec.CO2,
			Water:     lcaRec.Water,
			Energy:    lcaRec.Energy,
			ProductID: p.ID,
			LCAID:     lcaRec.ID,
		},
		BonusMalus:      &flags,
		ProductWeightKg: p.WeightKg,
	})
	if err != nil {
		return p, fmt.Errorf("score: %w", err)
	}

	p.Status = domain.ProductScored
	p.ScoreID = score.ID
	p.ScoreLetter = score.Letter
	p.ScoreNumeric = score.Numeric
	p.Confidence = score.Confidence
	p.CO2, p.Water, p.Energy = lcaRec.CO2, lcaRec.Water, lcaRec.Energy
	p.Ingredients = names
	p.Origins = origins(p.Origin, ex.Origins)
	p.Labels = ex.Labels
	s.log.Info("product scored", "product_id", p.ID, "grade", p.ScoreLetter,
		"ingredients", len(names), "duration", time.Since(start))
	return p, nil
}

func (s *Service) extract(ctx context.Context, text string) (ingredients.Extraction, error) {
	defer s.metrics.ObserveStage("extract", time.Now())
	ex, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return ex, fmt.Errorf("extract: %w", err)
	}
	s.metrics.Extracted(ex.Source)
	return ex, nil
}

// packaging picks the declared material when the tables know it, then the
// first priced material found in the text, then the configured default.
func (s *Service) packaging(declared string, detected []string) *lca.Packaging {
	material := ""
	if declared != "" {
		if m, ok := ingredients.PackagingMaterial(declared); ok {
			material = m
		} else if _, ok := s.tables.PackagingFactor(declared); ok {
			material = reference.Key(declared)
		}
	}
	if material == "" {
		for _, w := range detected {
			if m, ok := ingredients.PackagingMaterial(w); ok {
				material = m
				break
			}
		}
	}
	if material == "" {
		material = s.defaults.PackagingMaterial
	}
	return &lca.Packaging{Material: material, WeightKg: s.defaults.PackagingWeightKg}
}

func origins(declared string, found []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, o := range append([]string{declared}, found...) {
		k := strings.ToLower(strings.TrimSpace(o))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, strings.TrimSpace(o))
	}
	return out
}

func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.products.GetProduct(ctx, id)
}

func (s *Service) Job(ctx context.Context, id string) (domain.Job, error) {
	return s.jobs.GetJob(ctx, id)
}

func (s *Service) GetByGTIN(ctx context.Context, gtin string) (domain.Product, error) {
	return s.products.GetProductByGTIN(ctx, gtin)
}

// Search matches q against titles and brands. A zero limit means the
// default page size.
func (s *Service) Search(ctx context.Context, q string, limit int) ([]domain.Product, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < 2 {
		return nil, domain.Invalid("q", "must be at least 2 characters")
	}
	if limit == 0 {
		limit = defaultSearchLimit
	}
	if limit < 1 || limit > maxSearchLimit {
		return nil, domain.Invalid("limit", "must be between 1 and %d, got %d", maxSearchLimit, limit)
	}
	return s.products.SearchProducts(ctx, q, limit)
}

// Analysis is an extraction with each ingredient's database mapping.
type Analysis struct {
	ingredients.Extraction
	Mappings []ingredients.Mapping `json:"mappings"`
}

// Analyze extracts and maps ingredients from text without storing anything.
func (s *Service) Analyze(ctx context.Context, text string) (Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return Analysis{}, domain.Invalid("text", "must not be empty")
	}
	ex, err := s.extract(ctx, text)
	if err != nil {
		return Analysis{}, err
	}
	out := Analysis{Extraction: ex, Mappings: make([]ingredients.Mapping, 0, len(ex.Ingredients))}
	for _, ing := range ex.Ingredients {
		out.Mappings = append(out.Mappings, s.mapper.Map(ing.Name))
	}
	return out, nil
}

// AnalyzeHTML runs Analyze over the visible text of an HTML page.
func (s *Service) AnalyzeHTML(ctx context.Context, r io.Reader) (Analysis, error) {
	text, err := ingredients.HTMLText(r)
	if err != nil {
		return Analysis{}, domain.Invalid("text", "unreadable html: %v", err)
	}
	return s.Analyze(ctx, text)
}
