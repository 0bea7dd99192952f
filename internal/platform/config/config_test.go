package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetEnv_helpers(t *testing.T) {
	t.Setenv("TS_STR", "hello")
	t.Setenv("TS_INT", "42")
	t.Setenv("TS_BAD_INT", "forty")
	t.Setenv("TS_FLOAT", "-12.5")
	t.Setenv("TS_BOOL", "true")

	if got := GetEnv("TS_STR", "x"); got != "hello" {
		t.Errorf("GetEnv = %q", got)
	}
	if got := GetEnv("TS_UNSET", "x"); got != "x" {
		t.Errorf("GetEnv fallback = %q", got)
	}
	if got := GetEnvInt("TS_INT", 1); got != 42 {
		t.Errorf("GetEnvInt = %d", got)
	}
	if got := GetEnvInt("TS_BAD_INT", 7); got != 7 {
		t.Errorf("GetEnvInt invalid = %d, want fallback 7", got)
	}
	if got := GetEnvFloat("TS_FLOAT", 0); got != -12.5 {
		t.Errorf("GetEnvFloat = %g", got)
	}
	if got := GetEnvBool("TS_BOOL", false); !got {
		t.Error("GetEnvBool = false")
	}
	if got := GetEnvBool("TS_UNSET", true); !got {
		t.Error("GetEnvBool fallback = false")
	}
}

func TestLoad_dotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TS_DOTENV_WIDTH=16\nTS_DOTENV_STRICT=1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// t.Setenv restores the variables afterwards; unset them so godotenv fills them.
	for _, k := range []string{"TS_DOTENV_WIDTH", "TS_DOTENV_STRICT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := GetEnvFloat("TS_DOTENV_WIDTH", 0); got != 16 {
		t.Errorf("width = %g, want 16", got)
	}
	if !GetEnvBool("TS_DOTENV_STRICT", false) {
		t.Error("strict should be true")
	}
}

func TestLoad_missing_file(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected error for missing .env")
	}
}

func TestFromEnv_defaults(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "CATALOG_SOURCE", "MAX_SESSIONS", "SEGMENT_WIDTH", "START_MARGIN", "END_MARGIN"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.Port != "8080" || cfg.LogLevel != "info" || cfg.MaxSessions != 64 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.CatalogSource != "" || cfg.SegmentWidth != 0 || cfg.StartMargin != nil || cfg.EndMargin != nil {
		t.Errorf("catalog overrides should be empty: %+v", cfg)
	}
}

func TestFromEnv_zero_margin_overrides(t *testing.T) {
	t.Setenv("START_MARGIN", "0")
	t.Setenv("END_MARGIN", "-2.5")

	cfg := FromEnv()
	if cfg.StartMargin == nil || *cfg.StartMargin != 0 {
		t.Errorf("StartMargin = %v, want explicit 0", cfg.StartMargin)
	}
	if cfg.EndMargin == nil || *cfg.EndMargin != -2.5 {
		t.Errorf("EndMargin = %v, want -2.5", cfg.EndMargin)
	}
}

func TestLookupEnvFloat(t *testing.T) {
	t.Setenv("TERRAIN_TEST_FLOAT", "0")
	if f, ok := LookupEnvFloat("TERRAIN_TEST_FLOAT"); !ok || f != 0 {
		t.Errorf("set to 0: got %g, %v", f, ok)
	}
	t.Setenv("TERRAIN_TEST_FLOAT", "nope")
	if _, ok := LookupEnvFloat("TERRAIN_TEST_FLOAT"); ok {
		t.Error("invalid value should report unset")
	}
	if _, ok := LookupEnvFloat("TERRAIN_TEST_FLOAT_UNSET"); ok {
		t.Error("unset key should report unset")
	}
}
