package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parkmerge/internal/store"
	"github.com/agentstation/parkmerge/pkg/constants"
	"github.com/agentstation/parkmerge/pkg/errors"
	"github.com/agentstation/parkmerge/pkg/provenance"
	"github.com/agentstation/parkmerge/pkg/scorer"
)

const listingsA = `[
  {"name": "Parking X", "coordinates": "59.93,30.31", "phone": "+7 911 1234567", "parking_type": "платная"},
  {"name": "Пулково", "coordinates": "59.80,30.27"}
]`

const listingsB = `name,coordinates,phone,parking_type
Parking X,"59.9301,30.3101",8(911)123-45-67,бесплатная
Невский,"55.75,37.61",,
`

func testConfig() *Config {
	return &Config{
		Tolerance:   constants.DefaultCoordTolerance,
		Threshold:   constants.DefaultMatchThreshold,
		Weights:     scorer.DefaultWeights(),
		Workers:     constants.DefaultWorkers,
		SourceAName: constants.DefaultSourceAName,
		SourceBName: constants.DefaultSourceBName,
		Provenance:  true,
		LogFormat:   "json",
		LogOutput:   "discard",
	}
}

func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	a, err := New("1.2.3", "abc123", "2025-01-01", "test", WithConfig(testConfig()), WithOutput(&out))
	require.NoError(t, err)
	return a, &out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestMergeCommand(t *testing.T) {
	dir := t.TempDir()
	fileA := writeFile(t, dir, "a.json", listingsA)
	fileB := writeFile(t, dir, "b.csv", listingsB)

	t.Run("json to stdout", func(t *testing.T) {
		a, out := newTestApp(t)
		require.NoError(t, a.Execute(context.Background(), []string{"merge", "--a", fileA, "--b", fileB, "-o", "json"}))

		var doc struct {
			Records []struct {
				Name       string `json:"name"`
				Provenance string `json:"provenance"`
				Note       string `json:"note"`
			} `json:"records"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
		require.Len(t, doc.Records, 3)
		assert.Equal(t, "matched", doc.Records[0].Provenance)
		assert.Equal(t, "manual review required", doc.Records[0].Note)
		assert.Equal(t, "sourceA-only", doc.Records[1].Provenance)
		assert.Equal(t, "Невский", doc.Records[2].Name)
	})

	t.Run("report file and sqlite archive", func(t *testing.T) {
		a, out := newTestApp(t)
		report := filepath.Join(dir, "out", "merged.csv")
		db := filepath.Join(dir, "runs.db")
		require.NoError(t, a.Execute(context.Background(), []string{
			"merge", "--a", fileA, "--b", fileB, "--out", report, "--sqlite", db,
		}))
		assert.Contains(t, out.String(), "Merged 3 records: 1 matched")

		f, err := os.Open(report)
		require.NoError(t, err)
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		assert.Len(t, rows, 4)

		s, err := store.Open(context.Background(), db)
		require.NoError(t, err)
		defer s.Close()
		runs, err := s.Runs(context.Background())
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, 1, runs[0].Matched)
	})

	t.Run("provenance file", func(t *testing.T) {
		a, _ := newTestApp(t)
		path := filepath.Join(dir, "provenance.yaml")
		require.NoError(t, a.Execute(context.Background(), []string{
			"merge", "--a", fileA, "--b", fileB, "--provenance-out", path, "-o", "json",
		}))
		file, err := provenance.Load(path)
		require.NoError(t, err)
		require.NotNil(t, file)
		assert.NotEmpty(t, file.Provenance["0:name"])
	})

	t.Run("one side falls back to single source", func(t *testing.T) {
		a, out := newTestApp(t)
		require.NoError(t, a.Execute(context.Background(), []string{"merge", "--b", fileB, "-o", "table"}))
		assert.Contains(t, out.String(), "0 matched, 0 only in Yandex Maps, 2 only in 2GIS")
		assert.Contains(t, out.String(), "warning: no records from Yandex Maps")
	})

	t.Run("threshold flag", func(t *testing.T) {
		a, out := newTestApp(t)
		require.NoError(t, a.Execute(context.Background(), []string{
			"merge", "--a", fileA, "--b", fileB, "--threshold", "1", "--source-a", "Yandex", "-o", "table",
		}))
		assert.Equal(t, 1.0, a.Config().Threshold)
		assert.Contains(t, out.String(), "only in Yandex")
	})

	t.Run("no inputs", func(t *testing.T) {
		a, _ := newTestApp(t)
		err := a.Execute(context.Background(), []string{"merge"})
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("invalid threshold", func(t *testing.T) {
		a, _ := newTestApp(t)
		err := a.Execute(context.Background(), []string{"merge", "--a", fileA, "--threshold", "2"})
		require.Error(t, err)
		var cfgErr *errors.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("missing file", func(t *testing.T) {
		a, _ := newTestApp(t)
		err := a.Execute(context.Background(), []string{"merge", "--a", filepath.Join(dir, "nope.json")})
		var ioErr *errors.IOError
		assert.ErrorAs(t, err, &ioErr)
	})

	t.Run("invalid format", func(t *testing.T) {
		a, _ := newTestApp(t)
		err := a.Execute(context.Background(), []string{"merge", "--a", fileA, "-o", "xml"})
		assert.Error(t, err)
	})
}

func TestSingleCommand(t *testing.T) {
	dir := t.TempDir()
	fileB := writeFile(t, dir, "b.csv", listingsB)

	a, out := newTestApp(t)
	require.NoError(t, a.Execute(context.Background(), []string{"single", "--in", fileB, "--side", "b", "-o", "csv"}))
	rows, err := csv.NewReader(out).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Contains(t, rows[1], "sourceB-only")
	assert.Contains(t, rows[1], "no data in Yandex Maps")

	a, _ = newTestApp(t)
	err = a.Execute(context.Background(), []string{"single", "--in", fileB, "--side", "c"})
	assert.True(t, errors.IsValidationError(err))
}

func TestScoreCommand(t *testing.T) {
	dir := t.TempDir()
	fileA := writeFile(t, dir, "a.json", listingsA)
	fileB := writeFile(t, dir, "b.csv", listingsB)

	a, out := newTestApp(t)
	require.NoError(t, a.Execute(context.Background(), []string{
		"score", "--a", fileA, "--b", fileB, "--index-a", "0", "--index-b", "0", "-o", "json",
	}))
	var b scorer.Breakdown
	require.NoError(t, json.Unmarshal(out.Bytes(), &b))
	assert.Equal(t, 1.0, b.Score)
	require.NotNil(t, b.DistanceMetres)

	a, out = newTestApp(t)
	require.NoError(t, a.Execute(context.Background(), []string{
		"score", "--a", fileA, "--b", fileB, "--index-a", "1", "--index-b", "1", "-o", "table",
	}))
	assert.Contains(t, out.String(), "Total")

	a, _ = newTestApp(t)
	err := a.Execute(context.Background(), []string{"score", "--a", fileA, "--b", fileB, "--index-b", "5"})
	assert.True(t, errors.IsValidationError(err))
}

func TestVersionCommand(t *testing.T) {
	a, out := newTestApp(t)
	require.NoError(t, a.Execute(context.Background(), []string{"version"}))
	assert.Equal(t, "parkmerge 1.2.3\n", out.String())

	a, out = newTestApp(t)
	require.NoError(t, a.Execute(context.Background(), []string{"version", "-v"}))
	assert.Contains(t, out.String(), "commit:   abc123")
}

func TestEngineIsCached(t *testing.T) {
	a, _ := newTestApp(t)
	first, err := a.Engine()
	require.NoError(t, err)
	second, err := a.Engine()
	require.NoError(t, err)
	assert.Same(t, first, second)

	a.reset()
	third, err := a.Engine()
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestWithConfigNil(t *testing.T) {
	_, err := New("dev", "", "", "", WithConfig(nil))
	assert.True(t, errors.IsValidationError(err))
}
