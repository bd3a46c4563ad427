package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revup.yaml")
	data := `
endpoint: https://updates.example.com/meta.json
currentVersion: 1.2.3
target: /opt/app/app.bin
preset: conservative
downloadTimeout: 10m
headers:
  Authorization: Bearer tok
fields:
  version: latest
  downloadUrl: binary
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "https://updates.example.com/meta.json" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.CurrentVersion != "1.2.3" || cfg.Preset != "conservative" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if time.Duration(cfg.DownloadTimeout) != 10*time.Minute {
		t.Errorf("DownloadTimeout = %v", cfg.DownloadTimeout)
	}
	if cfg.Headers["Authorization"] != "Bearer tok" {
		t.Errorf("Headers = %v", cfg.Headers)
	}
	if cfg.Fields.Version != "latest" || cfg.Fields.DownloadURL != "binary" {
		t.Errorf("Fields = %+v", cfg.Fields)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REVUP_ENDPOINT", "https://env.example.com/meta")
	t.Setenv("REVUP_CURRENT_VERSION", "9.9.9")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "https://env.example.com/meta" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.CurrentVersion != "9.9.9" {
		t.Errorf("CurrentVersion = %q", cfg.CurrentVersion)
	}
}
