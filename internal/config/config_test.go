package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Embed.BatchSize != 50 {
		t.Fatalf("embed batch = %d, want 50", cfg.Embed.BatchSize)
	}
	if cfg.Extract.MaxAttempts != 3 {
		t.Fatalf("extract max attempts = %d, want 3", cfg.Extract.MaxAttempts)
	}
	if cfg.Themes.SimilarityThreshold != 0.80 {
		t.Fatalf("similarity threshold = %v, want 0.80", cfg.Themes.SimilarityThreshold)
	}
	if cfg.Cluster.MinClusterSize != 20 || cfg.Themes.MinClusterSize != 10 {
		t.Fatalf("min cluster sizes = %d/%d, want 20/10",
			cfg.Cluster.MinClusterSize, cfg.Themes.MinClusterSize)
	}
}

func TestYAMLOverridesAndEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	yaml := `
themes:
  min_cluster_size: 15
  sample_size: 5
  similarity_threshold: 0.9
  link_batch_size: 100
  shuffle: false
embed:
  batch_size: 25
  cooldown: 1s
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	t.Setenv("VG_THEMES_SAMPLE_SIZE", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Themes.MinClusterSize != 15 {
		t.Fatalf("yaml override lost: min_cluster_size = %d", cfg.Themes.MinClusterSize)
	}
	if cfg.Themes.SampleSize != 7 {
		t.Fatalf("env should win over yaml: sample_size = %d", cfg.Themes.SampleSize)
	}
	if cfg.Embed.Cooldown != time.Second {
		t.Fatalf("cooldown = %v, want 1s", cfg.Embed.Cooldown)
	}
}

func TestValidationRejectsBadThreshold(t *testing.T) {
	t.Setenv("VG_THEMES_SIMILARITY_THRESHOLD", "1.5")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for threshold > 1")
	}
}
