package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"humanping/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.BasePath != "/v1" {
		t.Fatalf("unexpected base path %q", cfg.Server.BasePath)
	}
}

func TestFromYAMLRejectsMissingTier(t *testing.T) {
	yml := `catalog:
  templates:
    - title: only easy
      description: d
      difficulty: easy
      location: safe
`
	if _, err := config.FromYAML([]byte(yml)); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestFromYAMLRejectsBadYAML(t *testing.T) {
	if _, err := config.FromYAML([]byte("catalog: [")); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestLoadOptionalFallsBackToDefault(t *testing.T) {
	cfg, err := config.LoadOptional(t.TempDir())
	if err != nil {
		t.Fatalf("load optional: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fallback config invalid: %v", err)
	}
}

func TestLoadReadsWorkspaceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "humanping.yml")
	if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Catalog.Templates) == 0 {
		t.Fatalf("expected templates")
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := config.Load(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing config")
	}
}
