package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 8000 {
		t.Fatalf("expected default port 8000, got %d", cfg.HTTP.Port)
	}
	if cfg.Cache.Size != 1024 {
		t.Fatalf("expected default cache size, got %d", cfg.Cache.Size)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  timeout: 5s
model:
  bundle_path: /srv/model.json
cache:
  size: 0
log:
  level: debug
  format: console
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.HTTP.Timeout != 5*time.Second {
		t.Fatalf("unexpected http config: %+v", cfg.HTTP)
	}
	if cfg.Model.BundlePath != "/srv/model.json" {
		t.Fatalf("unexpected bundle path: %s", cfg.Model.BundlePath)
	}
	if cfg.Cache.Size != 0 {
		t.Fatalf("expected cache disabled, got %d", cfg.Cache.Size)
	}
	// untouched sections keep their defaults
	if cfg.Database.Path != "./data/cardioguard.db" {
		t.Fatalf("unexpected database path: %s", cfg.Database.Path)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CARDIO_PORT", "7000")
	t.Setenv("CARDIO_MODEL_PATH", "/tmp/bundle.json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 7000 || cfg.Model.BundlePath != "/tmp/bundle.json" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}

	t.Setenv("CARDIO_PORT", "eighty")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"port":   "http:\n  port: 70000\n",
		"format": "log:\n  format: xml\n",
		"cache":  "cache:\n  size: -1\n",
		"yaml":   "http: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
