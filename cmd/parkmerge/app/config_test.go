package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parkmerge/pkg/constants"
	"github.com/agentstation/parkmerge/pkg/reconciler"
	"github.com/agentstation/parkmerge/pkg/scorer"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultCoordTolerance, config.Tolerance)
	assert.Equal(t, constants.DefaultMatchThreshold, config.Threshold)
	assert.Equal(t, scorer.DefaultWeights(), config.Weights)
	assert.Equal(t, constants.DefaultWorkers, config.Workers)
	assert.Equal(t, constants.DefaultSourceAName, config.SourceAName)
	assert.Equal(t, constants.DefaultSourceBName, config.SourceBName)
	assert.True(t, config.Provenance)
	assert.NotEmpty(t, config.LogFormat)
	assert.Empty(t, config.ConfigFile)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PARKMERGE_MATCH_THRESHOLD", "0.7")
	t.Setenv("PARKMERGE_WORKERS", "4")
	t.Setenv("PARKMERGE_SOURCE_B_NAME", "OSM")
	t.Setenv("PARKMERGE_PROVENANCE", "false")
	t.Setenv("LOG_LEVEL", "debug")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 0.7, config.Threshold)
	assert.Equal(t, 4, config.Workers)
	assert.Equal(t, "OSM", config.SourceBName)
	assert.False(t, config.Provenance)
	assert.Equal(t, "debug", config.LogLevel)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	// godotenv never overrides variables that are already set, so make
	// sure the key is absent and restore it afterwards.
	t.Setenv("PARKMERGE_WEIGHT_PHONE", "")
	require.NoError(t, os.Unsetenv("PARKMERGE_WEIGHT_PHONE"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PARKMERGE_WEIGHT_PHONE=0.5\n"), 0o600))

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 0.5, config.Weights.Phone)
}

func TestLoadConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "parkmerge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
coord_tolerance: 0.002
weight_name: 4
source_a_name: Yandex
`), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.002, config.Tolerance)
	assert.Equal(t, 4.0, config.Weights.Name)
	assert.Equal(t, "Yandex", config.SourceAName)
	assert.Equal(t, path, config.ConfigFile)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestReconcilerOptions(t *testing.T) {
	config := testConfig()
	config.Threshold = 0.8
	config.SourceAName = "Yandex"

	r, err := reconciler.New(config.ReconcilerOptions()...)
	require.NoError(t, err)
	a, b := r.Sources()
	assert.Equal(t, "Yandex", a.Name)
	assert.Equal(t, constants.SourceAID, a.ID)
	assert.Equal(t, constants.DefaultSourceBName, b.Name)

	config.Workers = 0
	_, err = reconciler.New(config.ReconcilerOptions()...)
	assert.Error(t, err)
}
