package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parkmerge/pkg/reconciler"
	"github.com/agentstation/parkmerge/pkg/records"
	"github.com/agentstation/parkmerge/pkg/scorer"
)

func runResult(t *testing.T) *reconciler.Result {
	t.Helper()
	r, err := reconciler.New()
	require.NoError(t, err)
	a := []records.Record{
		{Name: "Parking X", Coordinates: "59.93,30.31", ParkingType: "платная", Prices: "100"},
		{Name: "Пулково", Coordinates: "59.80,30.27"},
	}
	b := []records.Record{
		{Name: "Parking X", Coordinates: "59.93,30.31", ParkingType: "бесплатная", Prices: "0"},
	}
	return r.ResolveAndMerge(context.Background(), a, b)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"WIDE", FormatWide, false},
		{" json ", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"csv", FormatCSV, false},
		{"", "", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Review Required", Title("review_required"))
	assert.Equal(t, "Name", Title("name"))
}

func TestResultToTableData(t *testing.T) {
	result := runResult(t)

	narrow := ResultToTableData(result, false)
	assert.Equal(t, []string{"#", "Provenance", "Confidence", "Name", "Address", "Parking Type", "Prices", "Conflicts"}, narrow.Headers)
	require.Len(t, narrow.Rows, 2)
	assert.Equal(t, "matched", narrow.Rows[0][1])
	assert.Equal(t, "paid/free conflict; different prices", narrow.Rows[0][7])
	assert.Equal(t, "sourceA-only", narrow.Rows[1][1])
	assert.Len(t, narrow.ColumnAlignment, len(narrow.Headers))

	wide := ResultToTableData(result, true)
	assert.Contains(t, wide.Headers, "Summary A")
	for _, row := range wide.Rows {
		assert.Len(t, row, len(wide.Headers))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short"))
	long := strings.Repeat("я", 60)
	got := []rune(truncate(long))
	assert.Len(t, got, maxCell)
	assert.Equal(t, '…', got[len(got)-1])
}

func TestFormatResult(t *testing.T) {
	result := runResult(t)

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, FormatResult(&buf, result, FormatTable))
		out := buf.String()
		assert.Contains(t, out, "Parking X")
		assert.Contains(t, out, "Пулково")
		assert.Contains(t, out, "Merged 2 records")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, FormatResult(&buf, result, FormatJSON))
		var doc map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		assert.Equal(t, result.RunID, doc["run_id"])
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, FormatResult(&buf, result, FormatCSV))
		rows, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("empty run prints warning", func(t *testing.T) {
		r, err := reconciler.New()
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, FormatResult(&buf, r.ResolveAndMerge(context.Background(), nil, nil), FormatTable))
		assert.Contains(t, buf.String(), "warning: nothing to merge")
	})
}

func TestFormatBreakdown(t *testing.T) {
	dist := 12.0
	b := scorer.Breakdown{
		Parts: []scorer.Part{
			{Attribute: scorer.AttrCoordinates, Score: 1, Weight: 3},
			{Attribute: scorer.AttrName, Score: 0.5, Weight: 2},
		},
		Score:          0.8,
		DistanceMetres: &dist,
	}

	data := BreakdownToTableData(b)
	require.Len(t, data.Rows, 4)
	assert.Equal(t, []string{"Coordinates", "1.000", "3.0", "3.000"}, data.Rows[0])
	assert.Equal(t, "12 m", data.Rows[2][1])
	assert.Equal(t, []string{"Total", "0.800", "", ""}, data.Rows[3])

	var buf bytes.Buffer
	require.NoError(t, FormatBreakdown(&buf, b, FormatJSON))
	assert.Contains(t, buf.String(), `"distance_metres": 12`)

	assert.Error(t, FormatBreakdown(&buf, b, FormatCSV))
}
