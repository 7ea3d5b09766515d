package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iho/zensubmit/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ZEN_BASE_URL", "")
	t.Setenv("ZEN_COOKIE", "")
	os.Unsetenv("ZEN_BASE_URL")
	os.Unsetenv("ZEN_COOKIE")

	cfg, err := config.LoadFrom("")
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.BaseURL != "https://zenmoney.ru/api" {
		t.Fatalf("expected default base URL, got %s", cfg.BaseURL)
	}
	if cfg.Cookie != "" {
		t.Fatalf("expected cookie default to be empty, got %q", cfg.Cookie)
	}
	if cfg.ReviewStore != config.StoreFile || cfg.ReviewFile != "data/review.json" {
		t.Fatalf("expected file store at data/review.json, got %s %s", cfg.ReviewStore, cfg.ReviewFile)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("expected 30s timeout, got %s", cfg.Timeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ZEN_BASE_URL", "http://ledger.local/api")
	t.Setenv("ZEN_COOKIE", "PHPSESSID=abc")
	t.Setenv("ZEN_TIMEOUT", "5s")
	t.Setenv("DEFAULT_ACCOUNT_ID", "11025256")
	t.Setenv("REVIEW_STORE", "redis")
	t.Setenv("REDIS_URL", "redis://example:6379")
	t.Setenv("CATEGORY_HINTS", "Lidl=650871,Rewe=650872")

	cfg, err := config.LoadFrom("")
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.BaseURL != "http://ledger.local/api" || cfg.Cookie != "PHPSESSID=abc" {
		t.Fatalf("expected ledger overrides, got %s %s", cfg.BaseURL, cfg.Cookie)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.Timeout)
	}
	if cfg.DefaultAccountID != "11025256" {
		t.Fatalf("expected default account override, got %s", cfg.DefaultAccountID)
	}
	if cfg.ReviewStore != config.StoreRedis || cfg.RedisURL != "redis://example:6379" {
		t.Fatalf("expected redis store settings, got %s %s", cfg.ReviewStore, cfg.RedisURL)
	}

	hints, err := cfg.Hints()
	if err != nil {
		t.Fatalf("unexpected hints error: %v", err)
	}
	if hints["Lidl"] != 650871 || hints["Rewe"] != 650872 || len(hints) != 2 {
		t.Fatalf("unexpected hints: %v", hints)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("ZEN_TIMEOUT", "not-a-duration")

	if _, err := config.LoadFrom(""); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadInvalidStore(t *testing.T) {
	t.Setenv("REVIEW_STORE", "s3")

	if _, err := config.LoadFrom(""); err == nil {
		t.Fatalf("expected error for unknown review store")
	}
}

func TestLoadDotEnv(t *testing.T) {
	os.Unsetenv("DEFAULT_ACCOUNT_ID")
	t.Setenv("ZEN_COOKIE", "from-env")

	path := filepath.Join(t.TempDir(), ".env")
	content := "DEFAULT_ACCOUNT_ID=777\nZEN_COOKIE=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("DEFAULT_ACCOUNT_ID") })

	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DefaultAccountID != "777" {
		t.Fatalf("expected account from .env, got %q", cfg.DefaultAccountID)
	}
	if cfg.Cookie != "from-env" {
		t.Fatalf("expected environment to win over .env, got %q", cfg.Cookie)
	}
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	if _, err := config.LoadFrom(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("expected missing .env to be ignored, got %v", err)
	}
}

func TestHintsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hints.yaml")
	content := "hints:\n  Lidl: 1\n  \"Café\": 650873\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write hints: %v", err)
	}

	cfg := &config.Config{
		CategoryHints:     map[string]int64{"Lidl": 650871, "Rewe": 650872},
		CategoryHintsFile: path,
	}

	hints, err := cfg.Hints()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hints["Lidl"] != 1 {
		t.Fatalf("expected file to override env hint, got %d", hints["Lidl"])
	}
	if hints["Rewe"] != 650872 || hints["Café"] != 650873 {
		t.Fatalf("unexpected hints: %v", hints)
	}
	if cfg.CategoryHints["Lidl"] != 650871 {
		t.Fatalf("Hints must not modify the config")
	}
}

func TestHintsFileErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("hints: [1, 2"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	negative := filepath.Join(dir, "negative.yaml")
	if err := os.WriteFile(negative, []byte("hints:\n  Lidl: -5\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, path := range []string{bad, negative, filepath.Join(dir, "missing.yaml")} {
		cfg := &config.Config{CategoryHintsFile: path}
		if _, err := cfg.Hints(); err == nil {
			t.Fatalf("expected error for %s", path)
		}
	}
}

func TestHintsEnvErrors(t *testing.T) {
	for _, value := range []string{"Lidl=0", "Lidl=650871,Rewe=-5"} {
		t.Setenv("CATEGORY_HINTS", value)

		cfg, err := config.LoadFrom("")
		if err != nil {
			t.Fatalf("unexpected error loading config: %v", err)
		}
		if _, err := cfg.Hints(); err == nil {
			t.Fatalf("expected error for CATEGORY_HINTS=%s", value)
		}
	}
}

func TestHintsEmpty(t *testing.T) {
	hints, err := (&config.Config{}).Hints()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hints) != 0 {
		t.Fatalf("expected no hints, got %v", hints)
	}
}
