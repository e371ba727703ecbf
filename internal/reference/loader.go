package reference

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sources names the dataset locations overlaid onto the built-in tables.
// Empty paths are ignored.
type Sources struct {
	EcoinventPath string
	FAOPath       string
	ADEMEPath     string
	// Overlays are YAML (or JSON) files in the overlay format, applied last
	// in the given order.
	Overlays []string
}

// Report summarizes what a Load applied.
type Report struct {
	Files   []string
	Applied int
	Skipped int
}

// Load builds the tables from the defaults and every readable dataset in src.
// Missing files are silently ignored; unreadable files and malformed rows are
// logged and skipped. Load never fails: the defaults alone are a valid table
// set.
func Load(src Sources, logger *slog.Logger) (*Tables, Report) {
	t := Defaults()
	l := &loader{t: t, log: logger}

	if src.EcoinventPath != "" {
		l.file(filepath.Join(src.EcoinventPath, "impact_factors.csv"), l.impactCSV)
		l.file(filepath.Join(src.EcoinventPath, "ingredient_mappings.json"), l.mappingsJSON)
	}
	if src.FAOPath != "" {
		l.file(filepath.Join(src.FAOPath, "agricultural_factors.csv"), l.waterCSV)
	}
	if src.ADEMEPath != "" {
		l.file(filepath.Join(src.ADEMEPath, "co2_factors.json"), l.co2JSON)
		l.file(filepath.Join(src.ADEMEPath, "transport_factors.json"), l.transportJSON)
	}
	for _, p := range src.Overlays {
		l.file(p, l.overlay)
	}

	if len(l.report.Files) > 0 {
		logger.Info("reference datasets loaded",
			"files", len(l.report.Files),
			"applied", l.report.Applied,
			"skipped", l.report.Skipped)
	}
	return t, l.report
}

type loader struct {
	t      *Tables
	log    *slog.Logger
	report Report
	path   string
}

func (l *loader) file(path string, parse func(io.Reader) error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		l.log.Debug("dataset not present", "path", path)
		return
	}
	if err != nil {
		l.log.Warn("dataset unreadable, skipping", "path", path, "error", err)
		return
	}
	defer f.Close()

	l.path = path
	if err := parse(f); err != nil {
		l.log.Warn("dataset malformed, skipping", "path", path, "error", err)
		return
	}
	l.report.Files = append(l.report.Files, path)
}

func (l *loader) skip(row int, reason string) {
	l.report.Skipped++
	l.log.Warn("skipping dataset row", "path", l.path, "row", row, "reason", reason)
}

// impactCSV reads `ingredient,co2,water,energy`; every indicator column is
// optional, both in the header and per row.
func (l *loader) impactCSV(r io.Reader) error {
	tables := []struct {
		col string
		m   map[string]float64
	}{{"co2", l.t.CO2}, {"water", l.t.Water}, {"energy", l.t.Energy}}

	return l.csvRows(r, "ingredient", func(row int, name string, col func(string) (float64, bool, error)) {
		var vals [3]*float64
		for i, tb := range tables {
			v, ok, err := col(tb.col)
			if err != nil {
				l.skip(row, err.Error())
				return
			}
			if ok {
				vals[i] = &v
			}
		}
		applied := false
		for i, v := range vals {
			if v != nil {
				tables[i].m[name] = *v
				applied = true
			}
		}
		if applied {
			l.report.Applied++
		}
	})
}

// waterCSV reads `product,water_footprint`.
func (l *loader) waterCSV(r io.Reader) error {
	return l.csvRows(r, "product", func(row int, name string, col func(string) (float64, bool, error)) {
		v, ok, err := col("water_footprint")
		if err != nil {
			l.skip(row, err.Error())
			return
		}
		if !ok {
			l.skip(row, "missing water_footprint")
			return
		}
		l.t.Water[name] = v
		l.report.Applied++
	})
}

func (l *loader) csvRows(r io.Reader, keyCol string, apply func(row int, name string, col func(string) (float64, bool, error))) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[Key(h)] = i
	}
	if _, ok := idx[keyCol]; !ok {
		return fmt.Errorf("missing %q column", keyCol)
	}

	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			l.skip(row, err.Error())
			continue
		}
		cell := func(c string) string {
			i, ok := idx[c]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		name := Key(cell(keyCol))
		if name == "" {
			l.skip(row, "empty "+keyCol)
			continue
		}
		apply(row, name, func(c string) (float64, bool, error) {
			s := cell(c)
			if s == "" {
				return 0, false, nil
			}
			v, err := parseFactor(s)
			if err != nil {
				return 0, false, fmt.Errorf("%s: %w", c, err)
			}
			return v, true, nil
		})
	}
}

func (l *loader) co2JSON(r io.Reader) error {
	var doc struct {
		Ingredients map[string]float64 `json:"ingredients"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return err
	}
	for name, v := range doc.Ingredients {
		if !validFactor(v) || Key(name) == "" {
			l.skip(0, fmt.Sprintf("ingredient %q: invalid co2 %v", name, v))
			continue
		}
		l.t.CO2[Key(name)] = v
		l.report.Applied++
	}
	return nil
}

func (l *loader) transportJSON(r io.Reader) error {
	var doc struct {
		Modes map[string]TransportFactor `json:"transport_modes"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return err
	}
	l.transport(doc.Modes)
	return nil
}

func (l *loader) mappingsJSON(r io.Reader) error {
	var doc map[string]IngredientMapping
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return err
	}
	l.mappings(doc)
	return nil
}

// overlayDoc is the YAML overlay format:
//
//	ingredients:
//	  quinoa: {co2: 1.2, water: 300}
//	packaging:
//	  bioplastic: {co2: 2.0, water: 90, energy: 30}
//	transport:
//	  barge: {co2_per_tkm: 0.03, energy_per_tkm: 0.35}
//	mappings:
//	  quinoa seeds: {ecoinvent_id: quinoa, category: cereal}
//	synonyms:
//	  quinoa real: quinoa seeds
type overlayDoc struct {
	Ingredients map[string]struct {
		CO2    *float64 `yaml:"co2"`
		Water  *float64 `yaml:"water"`
		Energy *float64 `yaml:"energy"`
	} `yaml:"ingredients"`
	Packaging map[string]Factor            `yaml:"packaging"`
	Transport map[string]TransportFactor   `yaml:"transport"`
	Mappings  map[string]IngredientMapping `yaml:"mappings"`
	Synonyms  map[string]string            `yaml:"synonyms"`
}

func (l *loader) overlay(r io.Reader) error {
	var doc overlayDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return err
	}

	for name, f := range doc.Ingredients {
		k := Key(name)
		if k == "" || !validOptional(f.CO2) || !validOptional(f.Water) || !validOptional(f.Energy) {
			l.skip(0, fmt.Sprintf("ingredient %q: invalid factor", name))
			continue
		}
		if f.CO2 != nil {
			l.t.CO2[k] = *f.CO2
		}
		if f.Water != nil {
			l.t.Water[k] = *f.Water
		}
		if f.Energy != nil {
			l.t.Energy[k] = *f.Energy
		}
		l.report.Applied++
	}
	for name, f := range doc.Packaging {
		k := Key(name)
		if k == "" || !validFactor(f.CO2PerKg) || !validFactor(f.WaterPerKg) || !validFactor(f.EnergyPerKg) {
			l.skip(0, fmt.Sprintf("packaging %q: invalid factor", name))
			continue
		}
		l.t.Packaging[k] = f
		l.report.Applied++
	}
	l.transport(doc.Transport)
	l.mappings(doc.Mappings)
	for from, to := range doc.Synonyms {
		if Key(from) == "" || Key(to) == "" {
			l.skip(0, fmt.Sprintf("synonym %q: empty", from))
			continue
		}
		l.t.Synonyms[Key(from)] = Key(to)
		l.report.Applied++
	}
	return nil
}

func (l *loader) transport(modes map[string]TransportFactor) {
	for name, f := range modes {
		k := Key(name)
		if k == "" || !validFactor(f.CO2PerTonKm) || !validFactor(f.EnergyPerTonKm) {
			l.skip(0, fmt.Sprintf("transport mode %q: invalid factor", name))
			continue
		}
		l.t.Transport[k] = f
		l.report.Applied++
	}
}

func (l *loader) mappings(m map[string]IngredientMapping) {
	for name, mp := range m {
		k := Key(name)
		if k == "" || strings.TrimSpace(mp.ID) == "" {
			l.skip(0, fmt.Sprintf("mapping %q: missing id", name))
			continue
		}
		if mp.Unit == "" {
			mp.Unit = "kg"
		}
		l.t.Mappings[k] = mp
		l.report.Applied++
	}
}

func parseFactor(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if !validFactor(v) {
		return 0, fmt.Errorf("out of range: %v", v)
	}
	return v, nil
}

func validFactor(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func validOptional(v *float64) bool { return v == nil || validFactor(*v) }
