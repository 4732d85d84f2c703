package config

import (
	"os"
	"path/filepath"
	"testing"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	envVars := []string{
		"TRADESCOPE_API_PORT", "TRADESCOPE_API_HOST",
		"TRADESCOPE_MARKET_NEWS_TTL", "TRADESCOPE_JOURNAL_DB_PATH",
	}
	for _, e := range envVars {
		os.Unsetenv(e)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if len(cfg.API.CORSOrigins) != 1 || cfg.API.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("API.CORSOrigins: got %v", cfg.API.CORSOrigins)
	}

	if cfg.Market.NewsTTL != 600 {
		t.Errorf("Market.NewsTTL: got %d, want 600", cfg.Market.NewsTTL)
	}
	if cfg.Market.CalendarTTL != 600 {
		t.Errorf("Market.CalendarTTL: got %d, want 600", cfg.Market.CalendarTTL)
	}
	if cfg.Market.CandlesTTL != 30 {
		t.Errorf("Market.CandlesTTL: got %d, want 30", cfg.Market.CandlesTTL)
	}
	if cfg.Market.NewsLimit != 20 {
		t.Errorf("Market.NewsLimit: got %d, want 20", cfg.Market.NewsLimit)
	}

	if cfg.Journal.DBPath == "" {
		t.Error("Journal.DBPath should have a default")
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
api:
  port: 9090
  host: "127.0.0.1"
market:
  news_ttl: 120
  candles_ttl: 10
journal:
  db_path: "/tmp/test-journal.db"
logging:
  level: "debug"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host: got %q", cfg.API.Host)
	}
	if cfg.Market.NewsTTL != 120 {
		t.Errorf("Market.NewsTTL: got %d, want 120", cfg.Market.NewsTTL)
	}
	if cfg.Market.CandlesTTL != 10 {
		t.Errorf("Market.CandlesTTL: got %d, want 10", cfg.Market.CandlesTTL)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Market.CalendarTTL != 600 {
		t.Errorf("Market.CalendarTTL: got %d, want default 600", cfg.Market.CalendarTTL)
	}
	if cfg.Journal.DBPath != "/tmp/test-journal.db" {
		t.Errorf("Journal.DBPath: got %q", cfg.Journal.DBPath)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── Env overrides ──

func TestEnvOverridesDefaults(t *testing.T) {
	os.Setenv("TRADESCOPE_API_PORT", "7070")
	defer os.Unsetenv("TRADESCOPE_API_PORT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.Port != 7070 {
		t.Errorf("API.Port: got %d, want env override 7070", cfg.API.Port)
	}
}

// ── Addr ──

func TestAPIAddr(t *testing.T) {
	a := APIConfig{Host: "0.0.0.0", Port: 8080}
	if got := a.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("Addr(): got %q", got)
	}
}

// ── homeDir ──

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	h := homeDir()
	if h == "" {
		t.Error("homeDir() should not return empty string")
	}
}
