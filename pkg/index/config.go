package index

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the index manager tunables.
type Config struct {
	// BatchSize is how many content items each rebuild transaction covers.
	BatchSize int `yaml:"batchSize"`
	// DefaultLimit caps search results when the caller passes no limit.
	DefaultLimit int `yaml:"defaultLimit"`
	// PreviewLength truncates result previews to this many characters.
	PreviewLength int `yaml:"previewLength"`
	// CacheSize bounds the LRU cache of content rows on the search path.
	CacheSize int `yaml:"cacheSize"`
	// TokenizeWorkers limits concurrent tokenization inside a rebuild batch.
	TokenizeWorkers int `yaml:"tokenizeWorkers"`
	// SnapshotPath is where SaveSnapshot writes the trie snapshot file.
	SnapshotPath string `yaml:"snapshotPath"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:       100,
		DefaultLimit:    50,
		PreviewLength:   150,
		CacheSize:       256,
		TokenizeWorkers: 4,
		SnapshotPath:    "trie.snapshot",
	}
}

// LoadConfig reads a YAML config file, filling unset fields from defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg.withDefaults(), nil
}

// withDefaults replaces zero values with the defaults.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = def.DefaultLimit
	}
	if c.PreviewLength <= 0 {
		c.PreviewLength = def.PreviewLength
	}
	if c.CacheSize <= 0 {
		c.CacheSize = def.CacheSize
	}
	if c.TokenizeWorkers <= 0 {
		c.TokenizeWorkers = def.TokenizeWorkers
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = def.SnapshotPath
	}
	return c
}
