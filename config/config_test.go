package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.MaxUploadMB != 100 {
		t.Errorf("max upload = %d", cfg.MaxUploadMB)
	}
	if cfg.EngineTimeout != 60 {
		t.Errorf("engine timeout = %d", cfg.EngineTimeout)
	}
}

func TestYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "port: \"9000\"\ndata_dir: /var/lib/docmerge\nmax_upload_mb: 25\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.DataDir != "/var/lib/docmerge" {
		t.Errorf("data dir = %q", cfg.DataDir)
	}
	if cfg.MaxUploadBytes() != 25<<20 {
		t.Errorf("max upload bytes = %d", cfg.MaxUploadBytes())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"9000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7777")
	t.Setenv("ENGINE_TIMEOUT_S", "5")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7777" {
		t.Errorf("port = %q, want env override", cfg.Port)
	}
	if cfg.EngineTimeout != 5 {
		t.Errorf("engine timeout = %d", cfg.EngineTimeout)
	}
}

func TestInvalidEnvValues(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "not-a-number")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for bad MAX_UPLOAD_MB")
	}
}

func TestMissingFileIsFine(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("load: %v", err)
	}
}
