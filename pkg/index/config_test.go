package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, 150, cfg.PreviewLength)
	assert.Equal(t, 256, cfg.CacheSize)
	assert.Equal(t, 4, cfg.TokenizeWorkers)
	assert.Equal(t, "trie.snapshot", cfg.SnapshotPath)
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batchSize: 25\ndefaultLimit: 10\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 10, cfg.DefaultLimit)
	// Unset fields fall back to defaults.
	assert.Equal(t, 150, cfg.PreviewLength)
	assert.Equal(t, "trie.snapshot", cfg.SnapshotPath)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batchSize: [not an int"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{BatchSize: -1, CacheSize: 8}.withDefaults()
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 8, cfg.CacheSize)
	assert.Equal(t, 4, cfg.TokenizeWorkers)
}
