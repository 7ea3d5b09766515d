package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/iho/zensubmit/internal/domain"
)

// Review store backends.
const (
	StoreFile  = "file"
	StoreRedis = "redis"
)

// Config holds all application configuration.
type Config struct {
	// Ledger
	BaseURL          string        `env:"ZEN_BASE_URL"       envDefault:"https://zenmoney.ru/api"`
	Cookie           string        `env:"ZEN_COOKIE"`
	Timeout          time.Duration `env:"ZEN_TIMEOUT"        envDefault:"30s"`
	DefaultAccountID string        `env:"DEFAULT_ACCOUNT_ID"`

	// Review artifact
	ReviewStore    string `env:"REVIEW_STORE"     envDefault:"file"`
	ReviewFile     string `env:"REVIEW_FILE"      envDefault:"data/review.json"`
	RedisURL       string `env:"REDIS_URL"        envDefault:"redis://localhost:6379"`
	RedisReviewKey string `env:"REDIS_REVIEW_KEY" envDefault:"zensubmit:review"`

	// Category hints: "Lidl=650871,Rewe=650872" and/or a YAML file.
	CategoryHints     map[string]int64 `env:"CATEGORY_HINTS" envKeyValSeparator:"="`
	CategoryHintsFile string           `env:"CATEGORY_HINTS_FILE"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Metrics are written here after each run when set.
	MetricsTextfile string `env:"METRICS_TEXTFILE"`
}

// Load loads configuration from environment variables, after merging a
// .env file from the working directory if one exists. Variables already set
// in the environment win over the file.
func Load() (*Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path.
func LoadFrom(dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	switch cfg.ReviewStore {
	case StoreFile, StoreRedis:
	default:
		return nil, fmt.Errorf("REVIEW_STORE must be %q or %q, got %q", StoreFile, StoreRedis, cfg.ReviewStore)
	}

	return cfg, nil
}

// hintsFile is the YAML layout of CATEGORY_HINTS_FILE.
type hintsFile struct {
	Hints map[string]int64 `yaml:"hints"`
}

// Hints returns the category hints from CATEGORY_HINTS merged with
// CATEGORY_HINTS_FILE. File entries override environment entries.
func (c *Config) Hints() (domain.CategoryHints, error) {
	if err := validateHints("CATEGORY_HINTS", c.CategoryHints); err != nil {
		return nil, err
	}

	hints := domain.CategoryHints(c.CategoryHints).Merge(nil)
	if c.CategoryHintsFile == "" {
		return hints, nil
	}

	data, err := os.ReadFile(c.CategoryHintsFile)
	if err != nil {
		return nil, fmt.Errorf("read category hints: %w", err)
	}

	var f hintsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse category hints %s: %w", c.CategoryHintsFile, err)
	}
	if err := validateHints(c.CategoryHintsFile, f.Hints); err != nil {
		return nil, err
	}

	return hints.Merge(f.Hints), nil
}

// validateHints rejects ids the ledger cannot hold: category groups are
// positive.
func validateHints(source string, hints map[string]int64) error {
	for payee, id := range hints {
		if id <= 0 {
			return fmt.Errorf("category hints %s: %q has invalid category group id %d", source, payee, id)
		}
	}
	return nil
}
