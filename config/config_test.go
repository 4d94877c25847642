package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.IndexArraysByID)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.False(t, cfg.SkipAllCollections)
	assert.True(t, cfg.CreatePrecomputedCollections)
	assert.Equal(t, DefaultPrecomputeThreshold, cfg.PrecomputeThreshold)
	assert.True(t, cfg.AutoDetectEntities)
	assert.False(t, cfg.LogPerformance)
	assert.Empty(t, cfg.FieldsToIndex)
}

func TestNormalizeFallsBackOnInvalidValues(t *testing.T) {
	cfg := Default()
	cfg.ChunkSize = -100
	cfg.PrecomputeThreshold = -1
	cfg.Normalize()

	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultPrecomputeThreshold, cfg.PrecomputeThreshold)
}

func TestNormalizeKeepsZeroThreshold(t *testing.T) {
	// Zero means "no threshold": aggregate unconditionally.
	cfg := Default()
	cfg.PrecomputeThreshold = 0
	cfg.Normalize()

	assert.Equal(t, 0, cfg.PrecomputeThreshold)
}

func TestApplyMergesOnlySetFields(t *testing.T) {
	cfg := Default()

	chunk := 250
	skip := true
	cfg.Apply(Partial{ChunkSize: &chunk, SkipAllCollections: &skip})

	assert.Equal(t, 250, cfg.ChunkSize)
	assert.True(t, cfg.SkipAllCollections)
	// Untouched fields keep their values.
	assert.True(t, cfg.IndexArraysByID)
	assert.Equal(t, DefaultPrecomputeThreshold, cfg.PrecomputeThreshold)
}

func TestApplyNormalizesInvalidValues(t *testing.T) {
	cfg := Default()

	bad := -5
	cfg.Apply(Partial{ChunkSize: &bad, PrecomputeThreshold: &bad})

	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Equal(t, DefaultPrecomputeThreshold, cfg.PrecomputeThreshold)
}

func TestIndexesField(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.IndexesField("anything"))

	cfg.FieldsToIndex = []string{"name", "status"}
	assert.True(t, cfg.IndexesField("name"))
	assert.False(t, cfg.IndexesField("other"))
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := Default()
	cfg.FieldsToIndex = []string{"name"}

	clone := cfg.Clone()
	clone.FieldsToIndex[0] = "changed"

	assert.Equal(t, "name", cfg.FieldsToIndex[0])
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jsonindex.yaml")

	content := []byte(`
log_level: debug
nats:
  urls: ["nats://10.0.0.1:4222"]
subjects:
  ingest: data.ingest
engine:
  precompute_threshold: 500
  log_performance: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"nats://10.0.0.1:4222"}, cfg.NATS.URLs)
	assert.Equal(t, "data.ingest", cfg.Subjects.Ingest)
	// Unset subjects fall back to defaults.
	assert.Equal(t, "jsonindex.lookup", cfg.Subjects.Lookup)
	assert.Equal(t, 500, cfg.Engine.PrecomputeThreshold)
	assert.True(t, cfg.Engine.LogPerformance)
	// Engine defaults survive a partial engine section.
	assert.True(t, cfg.Engine.IndexArraysByID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
