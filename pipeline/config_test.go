package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFile(t *testing.T) {
	// WHAT: Explicit values load; omitted sections fall back to component
	// defaults at construction time.
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
db_path: /var/lib/openings/videos.sqlite
migrate:
  batch_size: 25
artifact:
  min_score: 0.6
  max_videos: 5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/var/lib/openings/videos.sqlite" {
		t.Errorf("db path: %q", cfg.DBPath)
	}
	if cfg.Migrate.BatchSize != 25 {
		t.Errorf("batch size: %d", cfg.Migrate.BatchSize)
	}
	if cfg.Artifact.MinScore != 0.6 || cfg.Artifact.MaxVideos != 5 {
		t.Errorf("artifact: %+v", cfg.Artifact)
	}
}

func TestLoadConfigFileEmptyIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath == "" {
		t.Error("default db path missing")
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
