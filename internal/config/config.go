package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrNoDatabaseURL is returned alongside a usable Config when the postgres
// store is selected without a DSN. Callers decide whether that is fatal.
var ErrNoDatabaseURL = errors.New("DATABASE_URL not set")

type Config struct {
	Env         string
	ListenAddr  string
	DatabaseURL string
	StoreDriver string
	SQLitePath  string

	ScoreWorkers int
	PollInterval time.Duration

	EcoinventPath  string
	FAOPath        string
	ADEMEPath      string
	FactorOverlays []string

	NLPServiceURL string
	CacheTTL      time.Duration

	LogLevel  string
	LogFormat string

	DefaultPackagingMaterial string
	DefaultPackagingWeightKg float64

	WeightCO2    float64
	WeightWater  float64
	WeightEnergy float64
}

type binding struct {
	key    string
	envVar string
	def    any
}

var bindings = []binding{
	{"env", "APP_ENV", "development"},
	{"listen_addr", "LISTEN_ADDR", ":8080"},
	{"database_url", "DATABASE_URL", ""},
	{"store_driver", "STORE_DRIVER", "postgres"},
	{"sqlite_path", "SQLITE_PATH", "ecolabel.db"},
	{"score_workers", "SCORE_WORKERS", 0},
	{"poll_interval", "POLL_INTERVAL", "500ms"},
	{"data.ecoinvent", "ECOINVENT_PATH", "data/ecoinvent"},
	{"data.fao", "FAO_PATH", "data/fao"},
	{"data.ademe", "ADEME_PATH", "data/ademe"},
	{"data.overlays", "FACTOR_OVERLAYS", ""},
	{"nlp_service_url", "NLP_SERVICE_URL", ""},
	{"cache_ttl", "CACHE_TTL", "1h"},
	{"log.level", "LOG_LEVEL", "info"},
	{"log.format", "LOG_FORMAT", "text"},
	{"packaging.default_material", "DEFAULT_PACKAGING_MATERIAL", "plastic"},
	{"packaging.default_weight_kg", "DEFAULT_PACKAGING_WEIGHT_KG", 0.05},
	{"weights.co2", "SCORE_WEIGHT_CO2", 0.5},
	{"weights.water", "SCORE_WEIGHT_WATER", 0.3},
	{"weights.energy", "SCORE_WEIGHT_ENERGY", 0.2},
}

// Load reads configuration from the environment and, when file is not
// empty, from a YAML config file. Environment variables win over the file.
func Load(file string) (Config, error) {
	v := viper.New()
	for _, b := range bindings {
		v.SetDefault(b.key, b.def)
		if err := v.BindEnv(b.key, b.envVar); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", b.envVar, err)
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := Config{
		Env:                      v.GetString("env"),
		ListenAddr:               v.GetString("listen_addr"),
		DatabaseURL:              v.GetString("database_url"),
		StoreDriver:              strings.ToLower(v.GetString("store_driver")),
		SQLitePath:               v.GetString("sqlite_path"),
		ScoreWorkers:             v.GetInt("score_workers"),
		PollInterval:             v.GetDuration("poll_interval"),
		EcoinventPath:            v.GetString("data.ecoinvent"),
		FAOPath:                  v.GetString("data.fao"),
		ADEMEPath:                v.GetString("data.ademe"),
		FactorOverlays:           splitList(v.Get("data.overlays")),
		NLPServiceURL:            v.GetString("nlp_service_url"),
		CacheTTL:                 v.GetDuration("cache_ttl"),
		LogLevel:                 v.GetString("log.level"),
		LogFormat:                v.GetString("log.format"),
		DefaultPackagingMaterial: v.GetString("packaging.default_material"),
		DefaultPackagingWeightKg: v.GetFloat64("packaging.default_weight_kg"),
		WeightCO2:                v.GetFloat64("weights.co2"),
		WeightWater:              v.GetFloat64("weights.water"),
		WeightEnergy:             v.GetFloat64("weights.energy"),
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	if cfg.StoreDriver == "postgres" && cfg.DatabaseURL == "" {
		return cfg, ErrNoDatabaseURL
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want postgres, sqlite or memory)", c.StoreDriver)
	}
	if c.ScoreWorkers < 0 {
		return fmt.Errorf("SCORE_WORKERS must be non-negative, got %d", c.ScoreWorkers)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.DefaultPackagingWeightKg < 0 {
		return fmt.Errorf("DEFAULT_PACKAGING_WEIGHT_KG must be non-negative, got %g", c.DefaultPackagingWeightKg)
	}
	return nil
}

// splitList accepts a comma separated string from the environment or a YAML
// list from the config file.
func splitList(raw any) []string {
	var parts []string
	switch v := raw.(type) {
	case string:
		parts = strings.Split(v, ",")
	case []any:
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
	case []string:
		parts = v
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
