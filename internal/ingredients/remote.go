package ingredients

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

type RemoteConfig struct {
	BaseURL  string
	Language string
	Timeout  time.Duration
	CacheTTL time.Duration
}

func (c RemoteConfig) withDefaults() RemoteConfig {
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Hour
	}
	return c
}

// RemoteExtractor asks an NLP service for the extraction and falls back to
// the regex extractor on any failure. Successful answers are cached by text.
type RemoteExtractor struct {
	cfg        RemoteConfig
	httpClient *http.Client
	cache      *cache.Cache
	fallback   Extractor
	log        *slog.Logger
}

func NewRemoteExtractor(cfg RemoteConfig, logger *slog.Logger) *RemoteExtractor {
	cfg = cfg.withDefaults()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &RemoteExtractor{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
		fallback:   RegexExtractor{},
		log:        logger.With("component", "nlp_client"),
	}
}

type remoteRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

type remoteResponse struct {
	Ingredients []struct {
		Name       string   `json:"name"`
		Percentage *float64 `json:"percentage"`
	} `json:"ingredients"`
	Materials []string `json:"materials"`
	Origins   []string `json:"origins"`
	Labels    []string `json:"labels"`
}

// Extract never returns an error: a failed remote call yields the local
// extraction instead.
func (r *RemoteExtractor) Extract(ctx context.Context, text string) (Extraction, error) {
	key := cacheKey(text)
	if cached, found := r.cache.Get(key); found {
		if ex, ok := cached.(Extraction); ok {
			return ex, nil
		}
	}

	ex, err := r.call(ctx, text)
	if err != nil {
		r.log.Warn("nlp service unavailable, using local extraction", "error", err)
		return r.fallback.Extract(ctx, text)
	}
	r.cache.Set(key, ex, cache.DefaultExpiration)
	return ex, nil
}

func (r *RemoteExtractor) call(ctx context.Context, text string) (Extraction, error) {
	body, err := json.Marshal(remoteRequest{Text: text, Language: r.cfg.Language})
	if err != nil {
		return Extraction{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/nlp/extract", bytes.NewReader(body))
	if err != nil {
		return Extraction{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Extraction{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Extraction{}, fmt.Errorf("nlp service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var rr remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return Extraction{}, fmt.Errorf("decode nlp response: %w", err)
	}

	ex := Extraction{
		Ingredients: make([]Ingredient, 0, len(rr.Ingredients)),
		Materials:   nonNil(rr.Materials),
		Origins:     nonNil(rr.Origins),
		Labels:      nonNil(rr.Labels),
		Source:      "remote",
	}
	for _, in := range rr.Ingredients {
		if strings.TrimSpace(in.Name) == "" {
			continue
		}
		ex.Ingredients = append(ex.Ingredients, Ingredient{Name: in.Name, Percentage: in.Percentage, Original: in.Name})
	}
	return ex, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
