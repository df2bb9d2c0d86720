package match_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/parkmerge/pkg/match"
	"github.com/agentstation/parkmerge/pkg/records"
	"github.com/agentstation/parkmerge/pkg/scorer"
)

// tableScorer looks scores up by record name pair.
type tableScorer struct {
	scores map[string]float64
	calls  atomic.Int64
}

func (s *tableScorer) Score(a, b records.Record) float64 {
	s.calls.Add(1)
	return s.scores[a.Name+"|"+b.Name]
}

func named(names ...string) []records.Record {
	out := make([]records.Record, len(names))
	for i, n := range names {
		out[i] = records.Record{Name: n}
	}
	return out
}

func TestThresholdBoundary(t *testing.T) {
	tests := []struct {
		name   string
		score  float64
		accept bool
	}{
		{"exactly threshold", 0.5, true},
		{"just below", 0.4999, false},
		{"above", 0.51, true},
		{"zero", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &tableScorer{scores: map[string]float64{"a0|b0": tt.score}}
			m := match.New(s, 0.5, 1)
			got := m.Match(context.Background(), named("a0"), named("b0"))
			if tt.accept {
				require.Len(t, got, 1)
				assert.Equal(t, match.Candidate{IndexA: 0, IndexB: 0, Score: tt.score}, got[0])
			} else {
				assert.Empty(t, got)
			}
		})
	}
	assert.True(t, match.Accept(0.5, 0.5))
	assert.False(t, match.Accept(0.4999, 0.5))
}

func TestBestTieGoesToLowestIndex(t *testing.T) {
	j, score, ok := match.Best([]float64{0.2, 0.8, 0.8, 0.1})
	assert.True(t, ok)
	assert.Equal(t, 1, j)
	assert.Equal(t, 0.8, score)

	_, _, ok = match.Best([]float64{0, 0})
	assert.False(t, ok)
	_, _, ok = match.Best(nil)
	assert.False(t, ok)
}

func TestMatchKeepsDuplicateBCandidates(t *testing.T) {
	s := &tableScorer{scores: map[string]float64{
		"a0|b0": 0.9,
		"a1|b0": 0.95,
		"a1|b1": 0.6,
		"a2|b1": 0.4,
	}}
	m := match.New(s, 0.5, 1)
	got := m.Match(context.Background(), named("a0", "a1", "a2"), named("b0", "b1"))
	assert.Equal(t, []match.Candidate{
		{IndexA: 0, IndexB: 0, Score: 0.9},
		{IndexA: 1, IndexB: 0, Score: 0.95},
	}, got)
	assert.EqualValues(t, 6, s.calls.Load())
}

func TestAssignFirstClaimWins(t *testing.T) {
	candidates := []match.Candidate{
		{IndexA: 0, IndexB: 0, Score: 0.9},
		{IndexA: 1, IndexB: 0, Score: 0.95},
		{IndexA: 2, IndexB: 1, Score: 0.7},
		{IndexA: 5, IndexB: 1, Score: 0.7},
	}
	as := match.Assign(candidates, 3, 2)
	assert.Equal(t, []match.Candidate{
		{IndexA: 0, IndexB: 0, Score: 0.9},
		{IndexA: 2, IndexB: 1, Score: 0.7},
	}, as.Pairs)
	assert.Equal(t, []match.Candidate{{IndexA: 1, IndexB: 0, Score: 0.95}}, as.Superseded)
	assert.Equal(t, []bool{true, false, true}, as.UsedA)
	assert.Equal(t, []bool{true, true}, as.UsedB)
}

func TestAssignIsOneToOne(t *testing.T) {
	var candidates []match.Candidate
	for i := 0; i < 10; i++ {
		candidates = append(candidates, match.Candidate{IndexA: i, IndexB: i % 3, Score: 0.8})
	}
	as := match.Assign(candidates, 10, 3)
	seenA, seenB := map[int]bool{}, map[int]bool{}
	for _, p := range as.Pairs {
		assert.False(t, seenA[p.IndexA])
		assert.False(t, seenB[p.IndexB])
		seenA[p.IndexA], seenB[p.IndexB] = true, true
	}
	assert.Len(t, as.Pairs, 3)
	assert.Len(t, as.Superseded, 7)
}

func TestParallelMatrixEqualsSequential(t *testing.T) {
	var a, b []records.Record
	for i := 0; i < 25; i++ {
		a = append(a, records.Record{
			Name:        fmt.Sprintf("Парковка %d", i),
			Coordinates: fmt.Sprintf("59.9%02d,30.3%02d", i, i),
		})
	}
	for j := 0; j < 17; j++ {
		b = append(b, records.Record{
			Name:        fmt.Sprintf("Паркинг %d", j*2),
			Coordinates: fmt.Sprintf("59.9%02d,30.3%02d", j*2, j*2),
		})
	}
	s := scorer.Default()
	seq := match.New(s, 0.5, 1)
	par := match.New(s, 0.5, 8)

	assert.Equal(t, seq.Matrix(a, b), par.Matrix(a, b))
	assert.Equal(t, seq.Match(context.Background(), a, b), par.Match(context.Background(), a, b))
}

func TestMatrixEmptyInputs(t *testing.T) {
	m := match.New(scorer.Default(), 0.5, 4)
	assert.Empty(t, m.Matrix(nil, named("b")))
	assert.Len(t, m.Matrix(named("a", "b"), nil), 2)
	assert.Empty(t, m.Match(context.Background(), named("a"), nil))
	assert.Equal(t, 0.5, m.Threshold())
}
