package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port == "" {
		t.Fatalf("expected a default port")
	}
	if cfg.SessionTTL <= 0 {
		t.Fatalf("expected positive session ttl, got %s", cfg.SessionTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("DB_MAX_OPEN_CONNS", "0")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" || !cfg.AutoMigrate {
		t.Fatalf("expected overrides, got port=%s auto_migrate=%v", cfg.Port, cfg.AutoMigrate)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected 2h ttl, got %s", cfg.SessionTTL)
	}
	if cfg.DBMaxOpenConns != Default().DBMaxOpenConns {
		t.Fatalf("expected non-positive pool size to fall back, got %d", cfg.DBMaxOpenConns)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("expected two origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("UNDERCOVER_TEST_A=file\nUNDERCOVER_TEST_B=file\n"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("UNDERCOVER_TEST_A", "process")
	t.Setenv("UNDERCOVER_TEST_B", "")
	os.Unsetenv("UNDERCOVER_TEST_B")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("UNDERCOVER_TEST_A"); got != "process" {
		t.Fatalf("expected existing value kept, got %q", got)
	}
	if got := os.Getenv("UNDERCOVER_TEST_B"); got != "file" {
		t.Fatalf("expected value from file, got %q", got)
	}
}
