// Package match pairs listings from two sources greedily.
//
// For every source-A record, in input order, the matcher keeps the single
// best-scoring source-B record and accepts the pair when the score reaches
// the threshold. Candidates are computed independently per A record; a B
// record may be the best candidate of several A records. Assign then walks
// the candidates in A order and lets the first claim on each B record win.
// This is a greedy assignment, not a globally optimal one.
package match

import (
	"context"

	"github.com/sourcegraph/conc/iter"

	"github.com/agentstation/parkmerge/pkg/constants"
	"github.com/agentstation/parkmerge/pkg/logging"
	"github.com/agentstation/parkmerge/pkg/records"
)

// PairScorer scores how likely two records describe the same facility.
// Implementations must be safe for concurrent use when workers > 1.
type PairScorer interface {
	Score(a, b records.Record) float64
}

// Candidate is a tentative pairing of one record from each source.
type Candidate struct {
	IndexA int     `json:"index_a" yaml:"index_a"`
	IndexB int     `json:"index_b" yaml:"index_b"`
	Score  float64 `json:"score" yaml:"score"`
}

// Matcher finds candidate pairs.
type Matcher struct {
	scorer    PairScorer
	threshold float64
	workers   int
}

// New returns a Matcher. workers bounds the goroutines that fill the score
// matrix; values below 1 mean sequential scoring.
func New(scorer PairScorer, threshold float64, workers int) *Matcher {
	if workers < 1 {
		workers = constants.DefaultWorkers
	}
	return &Matcher{scorer: scorer, threshold: threshold, workers: workers}
}

// Threshold returns the inclusive acceptance threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Accept reports whether a best score is good enough to pair.
func Accept(score, threshold float64) bool {
	return score >= threshold
}

// Matrix scores every (A, B) pair. Row i holds the scores of a[i] against
// every record of b. Each worker writes only its own rows.
func (m *Matcher) Matrix(a, b []records.Record) [][]float64 {
	matrix := make([][]float64, len(a))
	if len(a) == 0 || len(b) == 0 {
		return matrix
	}
	fill := func(i int, row *[]float64) {
		r := make([]float64, len(b))
		for j := range b {
			r[j] = m.scorer.Score(a[i], b[j])
		}
		*row = r
	}
	if m.workers == 1 {
		for i := range matrix {
			fill(i, &matrix[i])
		}
		return matrix
	}
	iter.Iterator[[]float64]{MaxGoroutines: m.workers}.ForEachIdx(matrix, fill)
	return matrix
}

// Best returns the index and score of the highest entry in row. On ties the
// lowest index wins. ok is false when no entry is above zero.
func Best(row []float64) (index int, score float64, ok bool) {
	index = -1
	for j, s := range row {
		if s > score {
			index, score = j, s
		}
	}
	return index, score, index >= 0
}

// Match returns one candidate per A record whose best B record reaches the
// threshold, in A order. The same B index may appear in several candidates.
func (m *Matcher) Match(ctx context.Context, a, b []records.Record) []Candidate {
	return m.FromMatrix(ctx, m.Matrix(a, b))
}

// FromMatrix picks the candidates from a precomputed score matrix.
func (m *Matcher) FromMatrix(ctx context.Context, matrix [][]float64) []Candidate {
	logger := logging.FromContext(ctx)
	var out []Candidate
	for i, row := range matrix {
		j, score, ok := Best(row)
		if !ok || !Accept(score, m.threshold) {
			continue
		}
		logger.Debug().
			Int("index_a", i).
			Int("index_b", j).
			Float64("score", score).
			Msg("Candidate accepted")
		out = append(out, Candidate{IndexA: i, IndexB: j, Score: score})
	}
	return out
}

// Assignment is the outcome of first-claim bookkeeping.
type Assignment struct {
	// Pairs are the accepted candidates in A order.
	Pairs []Candidate
	// Superseded are candidates whose B record had already been claimed.
	Superseded []Candidate
	UsedA      []bool
	UsedB      []bool
}

// Assign applies first-claim-wins bookkeeping to candidates in the order
// given, so that every index of either side appears in at most one pair.
func Assign(candidates []Candidate, lenA, lenB int) Assignment {
	as := Assignment{
		UsedA: make([]bool, lenA),
		UsedB: make([]bool, lenB),
	}
	for _, c := range candidates {
		if c.IndexA < 0 || c.IndexA >= lenA || c.IndexB < 0 || c.IndexB >= lenB {
			continue
		}
		if as.UsedA[c.IndexA] || as.UsedB[c.IndexB] {
			as.Superseded = append(as.Superseded, c)
			continue
		}
		as.UsedA[c.IndexA] = true
		as.UsedB[c.IndexB] = true
		as.Pairs = append(as.Pairs, c)
	}
	return as
}
