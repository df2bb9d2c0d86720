package parkmerge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parkmerge/pkg/errors"
	"github.com/agentstation/parkmerge/pkg/logging"
	"github.com/agentstation/parkmerge/pkg/reconciler"
	"github.com/agentstation/parkmerge/pkg/records"
)

func sampleSources() (a, b []records.Record) {
	a = []records.Record{
		{Name: "Parking X", Coordinates: "59.93,30.31", Phone: "+7 911 1234567", ParkingType: "платная"},
		{Name: "Пулково P1", Coordinates: "59.80,30.27"},
	}
	b = []records.Record{
		{Name: "Parking X", Coordinates: "59.9301,30.3101", Phone: "8(911)123-45-67", ParkingType: "бесплатная"},
		{Name: "Невский 85", Coordinates: "59.93,30.36"},
	}
	return a, b
}

func TestPackageFunctions(t *testing.T) {
	a, b := sampleSources()

	merged := ResolveAndMerge(a, b)
	require.Len(t, merged, 3)
	assert.True(t, merged[0].Matched())
	assert.Equal(t, records.ProvenanceSourceAOnly, merged[1].Provenance)
	assert.Equal(t, records.ProvenanceSourceBOnly, merged[2].Provenance)

	assert.Empty(t, ResolveAndMerge(a, nil))

	single := MergeUnmatchedOnly(b, records.SideB)
	require.Len(t, single, 2)
	assert.Equal(t, records.ProvenanceSourceBOnly, single[0].Provenance)
}

func TestEngineHooks(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	var matched, unmatched []string
	var conflicts int
	e.OnMatched(func(r records.Merged) { matched = append(matched, r.Name) })
	e.OnUnmatched(func(r records.Merged) { unmatched = append(unmatched, r.Name) })
	e.OnConflict(func(_ records.Merged, c []records.Conflict) { conflicts += len(c) })

	a, b := sampleSources()
	result := e.ResolveAndMerge(context.Background(), a, b)

	assert.Equal(t, []string{"Parking X"}, matched)
	assert.Equal(t, []string{"Пулково P1", "Невский 85"}, unmatched)
	assert.Equal(t, 1, conflicts)
	assert.Same(t, result, e.Last())
}

func TestEngineHookRegistersHook(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	var late int
	registered := false
	e.OnMatched(func(records.Merged) {
		if !registered {
			registered = true
			e.OnMatched(func(records.Merged) { late++ })
			e.OnConflict(func(records.Merged, []records.Conflict) { late++ })
		}
	})

	a, b := sampleSources()
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.ResolveAndMerge(context.Background(), a, b)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("merge blocked on hook registration")
	}
	assert.Zero(t, late, "hooks added during a run apply to later runs")

	e.ResolveAndMerge(context.Background(), a, b)
	assert.Equal(t, 2, late)
}

func TestEngineMergeFallsBackToSingleSource(t *testing.T) {
	e, err := New()
	require.NoError(t, err)
	a, b := sampleSources()

	tests := []struct {
		name     string
		a, b     []records.Record
		wantLen  int
		wantProv records.Provenance
		warning  string
	}{
		{"both sides", a, b, 3, records.ProvenanceMatched, ""},
		{"only a", a, nil, 2, records.ProvenanceSourceAOnly, "no records from 2GIS"},
		{"only b", nil, b, 2, records.ProvenanceSourceBOnly, "no records from Yandex Maps"},
		{"neither", nil, nil, 0, "", "nothing to merge"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.Merge(context.Background(), tt.a, tt.b)
			require.Len(t, result.Records, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantProv, result.Records[0].Provenance)
			}
			if tt.warning == "" {
				assert.False(t, result.HasWarnings())
				return
			}
			require.True(t, result.HasWarnings())
			assert.Contains(t, result.Warnings[len(result.Warnings)-1], tt.warning)
		})
	}
}

func TestEngineOptions(t *testing.T) {
	tl := logging.NewTestLogger(t)
	e, err := New(
		WithLogger(tl.Logger),
		WithReconcilerOptions(reconciler.WithThreshold(0.9), reconciler.WithProvenance(false)),
	)
	require.NoError(t, err)

	a, b := sampleSources()
	result := e.ResolveAndMerge(context.Background(), a, b)
	assert.Equal(t, 0.9, result.Metadata.Threshold)
	assert.Empty(t, result.Provenance)
	tl.AssertContains(t, "Merge completed")

	_, err = New(WithLogger(nil))
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))

	_, err = New(WithReconcilerOptions(reconciler.WithWorkers(0)))
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}
