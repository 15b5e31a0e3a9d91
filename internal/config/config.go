package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/versegraph/internal/platform/envutil"
)

// Config carries the pipeline knobs. Defaults mirror the corpus pipeline's
// historical values; a YAML file overrides defaults and environment variables
// override both.
type Config struct {
	Files FilesConfig `yaml:"files"`

	Embed    EmbedConfig    `yaml:"embed"`
	Extract  ExtractConfig  `yaml:"extract"`
	Cluster  ClusterConfig  `yaml:"cluster"`
	Themes   ThemesConfig   `yaml:"themes"`
	Entities EntitiesConfig `yaml:"entities"`
}

type FilesConfig struct {
	Corpus     string `yaml:"corpus"`
	Embeddings string `yaml:"embeddings"`
	Entities   string `yaml:"entities"`
	Clusters   string `yaml:"clusters"`
}

type EmbedConfig struct {
	BatchSize int           `yaml:"batch_size"`
	Cooldown  time.Duration `yaml:"cooldown"`
}

type ExtractConfig struct {
	BatchSize   int           `yaml:"batch_size"`
	Cooldown    time.Duration `yaml:"cooldown"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type ClusterConfig struct {
	MinClusterSize int     `yaml:"min_cluster_size"`
	Epsilon        float64 `yaml:"epsilon"` // <= 0 means auto-estimate
}

type ThemesConfig struct {
	MinClusterSize      int     `yaml:"min_cluster_size"`
	SampleSize          int     `yaml:"sample_size"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	LinkBatchSize       int     `yaml:"link_batch_size"`
	Shuffle             bool    `yaml:"shuffle"`
}

type EntitiesConfig struct {
	BatchSize   int `yaml:"batch_size"`
	Parallelism int `yaml:"parallelism"`
}

func Default() Config {
	return Config{
		Files: FilesConfig{
			Corpus:     "corpus_parsed.json",
			Embeddings: "verse_embeddings.json",
			Entities:   "extracted_entities.json",
			Clusters:   "clusters.json",
		},
		Embed: EmbedConfig{
			BatchSize: 50,
			Cooldown:  300 * time.Millisecond,
		},
		Extract: ExtractConfig{
			BatchSize:   10,
			Cooldown:    500 * time.Millisecond,
			MaxAttempts: 3,
		},
		Cluster: ClusterConfig{
			MinClusterSize: 20,
		},
		Themes: ThemesConfig{
			MinClusterSize:      10,
			SampleSize:          10,
			SimilarityThreshold: 0.80,
			LinkBatchSize:       100,
			Shuffle:             true,
		},
		Entities: EntitiesConfig{
			BatchSize:   50,
			Parallelism: 4,
		},
	}
}

// Load reads the optional YAML file at path (empty path skips the file) and
// applies environment overrides on top.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Files.Corpus = envutil.String("VG_CORPUS_FILE", c.Files.Corpus)
	c.Files.Embeddings = envutil.String("VG_EMBEDDINGS_FILE", c.Files.Embeddings)
	c.Files.Entities = envutil.String("VG_ENTITIES_FILE", c.Files.Entities)
	c.Files.Clusters = envutil.String("VG_CLUSTERS_FILE", c.Files.Clusters)

	c.Embed.BatchSize = envutil.Int("VG_EMBED_BATCH_SIZE", c.Embed.BatchSize)
	c.Embed.Cooldown = envutil.Duration("VG_EMBED_COOLDOWN", c.Embed.Cooldown)

	c.Extract.BatchSize = envutil.Int("VG_EXTRACT_BATCH_SIZE", c.Extract.BatchSize)
	c.Extract.Cooldown = envutil.Duration("VG_EXTRACT_COOLDOWN", c.Extract.Cooldown)
	c.Extract.MaxAttempts = envutil.Int("VG_EXTRACT_MAX_ATTEMPTS", c.Extract.MaxAttempts)

	c.Cluster.MinClusterSize = envutil.Int("VG_CLUSTER_MIN_SIZE", c.Cluster.MinClusterSize)
	c.Cluster.Epsilon = envutil.Float("VG_CLUSTER_EPSILON", c.Cluster.Epsilon)

	c.Themes.MinClusterSize = envutil.Int("VG_THEMES_MIN_CLUSTER_SIZE", c.Themes.MinClusterSize)
	c.Themes.SampleSize = envutil.Int("VG_THEMES_SAMPLE_SIZE", c.Themes.SampleSize)
	c.Themes.SimilarityThreshold = envutil.Float("VG_THEMES_SIMILARITY_THRESHOLD", c.Themes.SimilarityThreshold)
	c.Themes.LinkBatchSize = envutil.Int("VG_THEMES_LINK_BATCH_SIZE", c.Themes.LinkBatchSize)
	c.Themes.Shuffle = envutil.Bool("VG_THEMES_SHUFFLE", c.Themes.Shuffle)

	c.Entities.BatchSize = envutil.Int("VG_ENTITIES_BATCH_SIZE", c.Entities.BatchSize)
	c.Entities.Parallelism = envutil.Int("VG_ENTITIES_PARALLELISM", c.Entities.Parallelism)
}

func (c *Config) validate() error {
	if c.Embed.BatchSize <= 0 {
		return fmt.Errorf("config: embed batch_size must be positive")
	}
	if c.Extract.BatchSize <= 0 {
		return fmt.Errorf("config: extract batch_size must be positive")
	}
	if c.Extract.MaxAttempts <= 0 {
		return fmt.Errorf("config: extract max_attempts must be positive")
	}
	if c.Cluster.MinClusterSize < 2 {
		return fmt.Errorf("config: cluster min_cluster_size must be at least 2")
	}
	if c.Themes.MinClusterSize < 2 {
		return fmt.Errorf("config: themes min_cluster_size must be at least 2")
	}
	if c.Themes.SampleSize <= 0 {
		return fmt.Errorf("config: themes sample_size must be positive")
	}
	if c.Themes.SimilarityThreshold <= 0 || c.Themes.SimilarityThreshold > 1 {
		return fmt.Errorf("config: themes similarity_threshold must be in (0, 1]")
	}
	if c.Themes.LinkBatchSize <= 0 {
		return fmt.Errorf("config: themes link_batch_size must be positive")
	}
	if c.Entities.BatchSize <= 0 {
		return fmt.Errorf("config: entities batch_size must be positive")
	}
	if c.Entities.Parallelism <= 0 {
		return fmt.Errorf("config: entities parallelism must be positive")
	}
	return nil
}
