package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ecolabel/internal/adapters/memory"
	"ecolabel/internal/services/products"
	"ecolabel/internal/workers/scorerunner"
)

var scoreJSON bool

var scoreCmd = &cobra.Command{
	Use:   "score <file|directory>...",
	Short: "Score product files offline",
	Long: `Runs the full pipeline (extraction, LCA, scoring) over product files
without a database.

Each .json file holds one product submission or an array of them, in the
same shape POST /products accepts. Pass files or directories; directories
are scanned (not recursively) for .json files.
Use --json for machine-readable output.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Output JSON instead of formatted table")
}

type scoreResult struct {
	File    string  `json:"file"`
	Title   string  `json:"title"`
	Letter  string  `json:"score_letter,omitempty"`
	Numeric float64 `json:"score_numeric"`
	CO2     float64 `json:"co2"`
	Water   float64 `json:"water"`
	Energy  float64 `json:"energy"`
	Error   string  `json:"error,omitempty"`
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	files, err := productFiles(args)
	if err != nil {
		return err
	}

	type submission struct {
		file string
		req  products.SubmitRequest
	}
	var subs []submission
	for _, f := range files {
		reqs, err := readSubmissions(f)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		for _, r := range reqs {
			subs = append(subs, submission{file: f, req: r})
		}
	}

	st := memory.New()
	a, err := newApp(st, loadTables(cfg, logger), cfg, nil, logger)
	if err != nil {
		return err
	}

	results := make([]scoreResult, len(subs))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, sub := range subs {
		g.Go(func() error {
			results[i] = scoreOne(ctx, a, st, sub.file, sub.req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scoreJSON {
		return writeJSON(out, results)
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tPRODUCT\tGRADE\tSCORE\tCO2 (kg)\tWATER (L)\tENERGY (MJ)")
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\t%s (%s)\t-\t-\t-\t-\t-\n", filepath.Base(r.File), r.Title, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%.3f\t%.1f\t%.2f\n",
			filepath.Base(r.File), r.Title, r.Letter, r.Numeric, r.CO2, r.Water, r.Energy)
	}
	return tw.Flush()
}

func scoreOne(ctx context.Context, a app, st *memory.Store, file string, req products.SubmitRequest) scoreResult {
	res := scoreResult{File: file, Title: req.Title}
	p, _, err := a.catalog.Submit(ctx, req)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Title = p.Title
	if _, err := scorerunner.ProcessInline(ctx, st, a.catalog, p.ID); err != nil {
		res.Error = err.Error()
		return res
	}
	p, err = a.catalog.Get(ctx, p.ID)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Letter, res.Numeric = p.ScoreLetter, p.ScoreNumeric
	res.CO2, res.Water, res.Energy = p.CO2, p.Water, p.Energy
	return res
}

func productFiles(args []string) ([]string, error) {
	var files []string
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading directory: %w", err)
		}
		n := len(files)
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
				files = append(files, filepath.Join(path, e.Name()))
			}
		}
		if len(files) == n {
			return nil, fmt.Errorf("no .json files found in %s", path)
		}
	}
	return files, nil
}

// readSubmissions accepts a single submission object or an array of them.
func readSubmissions(path string) ([]products.SubmitRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []products.SubmitRequest
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
		return list, nil
	}
	var one products.SubmitRequest
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return []products.SubmitRequest{one}, nil
}
