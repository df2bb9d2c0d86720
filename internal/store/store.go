// Package store persists merge runs to a SQLite database.
//
// Each run gets one row in runs, one row per merged record in records and
// one row per detected conflict in conflicts. Runs are append-only and keyed
// by their run ID.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/agentstation/parkmerge/pkg/errors"
	"github.com/agentstation/parkmerge/pkg/reconciler"
	"github.com/agentstation/parkmerge/pkg/records"
)

// fieldColumns are the canonical record fields, stored as TEXT columns.
var fieldColumns = func() []string {
	cols := make([]string, len(records.Fields))
	for i, f := range records.Fields {
		cols[i] = string(f)
	}
	return cols
}()

// recordColumns follow the field columns in the records table.
var recordColumns = []string{
	"provenance", "confidence", "score", "review_required", "note",
	"summary_a", "summary_b", "index_a", "index_b",
}

// Store is a SQLite-backed run archive.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewIOError("open", path, err)
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	defs := make([]string, 0, len(fieldColumns))
	for _, c := range fieldColumns {
		defs = append(defs, fmt.Sprintf("%q TEXT NOT NULL DEFAULT ''", c))
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			source_a TEXT NOT NULL,
			source_b TEXT NOT NULL,
			strategy TEXT NOT NULL,
			threshold REAL NOT NULL,
			source_a_records INTEGER NOT NULL,
			source_b_records INTEGER NOT NULL,
			matched INTEGER NOT NULL,
			source_a_only INTEGER NOT NULL,
			source_b_only INTEGER NOT NULL,
			review_required INTEGER NOT NULL,
			summary TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			run_id TEXT NOT NULL REFERENCES runs(run_id),
			position INTEGER NOT NULL,
			` + strings.Join(defs, ",\n\t\t\t") + `,
			provenance TEXT NOT NULL,
			confidence TEXT NOT NULL,
			score REAL NOT NULL,
			review_required INTEGER NOT NULL,
			note TEXT NOT NULL,
			summary_a TEXT NOT NULL,
			summary_b TEXT NOT NULL,
			index_a INTEGER,
			index_b INTEGER,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS conflicts (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			ordinal INTEGER NOT NULL,
			kind TEXT NOT NULL,
			field TEXT NOT NULL,
			value_a TEXT NOT NULL,
			value_b TEXT NOT NULL,
			message TEXT NOT NULL,
			PRIMARY KEY (run_id, position, ordinal)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_provenance ON records(run_id, provenance)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.NewIOError("migrate", s.path, err)
		}
	}
	return nil
}

// SaveRun writes a result in one transaction.
func (s *Store) SaveRun(ctx context.Context, result *reconciler.Result) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewIOError("begin", s.path, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	md := result.Metadata
	var srcA, srcB string
	if len(md.Sources) > 0 {
		srcA = md.Sources[0].Name
	}
	if len(md.Sources) > 1 {
		srcB = md.Sources[1].Name
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, source_a, source_b, strategy, threshold,
			source_a_records, source_b_records, matched, source_a_only, source_b_only, review_required, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		md.StartTime.Time.Format(time.RFC3339Nano),
		md.EndTime.Time.Format(time.RFC3339Nano),
		srcA, srcB, md.Strategy.String(), md.Threshold,
		md.Stats.SourceARecords, md.Stats.SourceBRecords,
		md.Stats.Matched, md.Stats.SourceAOnly, md.Stats.SourceBOnly, md.Stats.ReviewRequired,
		result.Summary(),
	); err != nil {
		return errors.NewIOError("insert run", s.path, err)
	}

	cols := append([]string{"run_id", "position"}, fieldColumns...)
	cols = append(cols, recordColumns...)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	recStmt, err := tx.PrepareContext(ctx, `INSERT INTO records (`+strings.Join(quoted, ",")+`) VALUES (`+ph+`)`)
	if err != nil {
		return errors.NewIOError("prepare", s.path, err)
	}
	defer recStmt.Close()

	conflictStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO conflicts (run_id, position, ordinal, kind, field, value_a, value_b, message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.NewIOError("prepare", s.path, err)
	}
	defer conflictStmt.Close()

	for pos, m := range result.Records {
		args := make([]any, 0, len(cols))
		args = append(args, result.RunID, pos)
		for _, f := range records.Fields {
			args = append(args, m.Get(f))
		}
		args = append(args,
			string(m.Provenance), m.Confidence, m.Score, m.ReviewRequired, m.Note,
			m.SummaryA, m.SummaryB, nullIndex(m.IndexA), nullIndex(m.IndexB),
		)
		if _, err = recStmt.ExecContext(ctx, args...); err != nil {
			return errors.NewIOError("insert record", s.path, err)
		}
		for i, c := range m.Conflicts {
			if _, err = conflictStmt.ExecContext(ctx,
				result.RunID, pos, i, string(c.Kind), string(c.Field), c.ValueA, c.ValueB, c.Message,
			); err != nil {
				return errors.NewIOError("insert conflict", s.path, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.NewIOError("commit", s.path, err)
	}
	return nil
}

func nullIndex(i int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(i), Valid: i >= 0}
}

// Run is the stored summary of one merge run.
type Run struct {
	ID             string
	StartedAt      time.Time
	SourceA        string
	SourceB        string
	Matched        int
	SourceAOnly    int
	SourceBOnly    int
	ReviewRequired int
	Summary        string
}

// Runs lists stored runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, source_a, source_b, matched, source_a_only, source_b_only, review_required, summary
		FROM runs ORDER BY started_at, run_id`)
	if err != nil {
		return nil, errors.NewIOError("query runs", s.path, err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &started, &r.SourceA, &r.SourceB,
			&r.Matched, &r.SourceAOnly, &r.SourceBOnly, &r.ReviewRequired, &r.Summary); err != nil {
			return nil, errors.NewIOError("scan run", s.path, err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIOError("query runs", s.path, err)
	}
	return runs, nil
}

// Records loads the merged records of a run in output order.
func (s *Store) Records(ctx context.Context, runID string) ([]records.Merged, error) {
	quoted := make([]string, 0, len(fieldColumns)+len(recordColumns)+1)
	quoted = append(quoted, "position")
	for _, c := range append(append([]string{}, fieldColumns...), recordColumns...) {
		quoted = append(quoted, fmt.Sprintf("%q", c))
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+strings.Join(quoted, ",")+` FROM records WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, errors.NewIOError("query records", s.path, err)
	}
	defer rows.Close()

	var out []records.Merged
	for rows.Next() {
		var (
			m              records.Merged
			pos            int
			prov           string
			indexA, indexB sql.NullInt64
		)
		values := make([]string, len(records.Fields))
		dest := []any{&pos}
		for i := range values {
			dest = append(dest, &values[i])
		}
		dest = append(dest, &prov, &m.Confidence, &m.Score, &m.ReviewRequired, &m.Note,
			&m.SummaryA, &m.SummaryB, &indexA, &indexB)
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.NewIOError("scan record", s.path, err)
		}
		for i, f := range records.Fields {
			m.Set(f, values[i])
		}
		m.Provenance = records.Provenance(prov)
		m.IndexA, m.IndexB = fromNull(indexA), fromNull(indexB)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIOError("query records", s.path, err)
	}
	if len(out) == 0 {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&n); err == nil && n == 0 {
			return nil, errors.NewNotFoundError("run", runID)
		}
		return out, nil
	}

	conflicts, err := s.conflicts(ctx, runID)
	if err != nil {
		return nil, err
	}
	for pos, cs := range conflicts {
		if pos < len(out) {
			out[pos].Conflicts = cs
		}
	}
	return out, nil
}

func (s *Store) conflicts(ctx context.Context, runID string) (map[int][]records.Conflict, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, kind, field, value_a, value_b, message FROM conflicts
		WHERE run_id = ? ORDER BY position, ordinal`, runID)
	if err != nil {
		return nil, errors.NewIOError("query conflicts", s.path, err)
	}
	defer rows.Close()

	out := make(map[int][]records.Conflict)
	for rows.Next() {
		var pos int
		var c records.Conflict
		var kind, field string
		if err := rows.Scan(&pos, &kind, &field, &c.ValueA, &c.ValueB, &c.Message); err != nil {
			return nil, errors.NewIOError("scan conflict", s.path, err)
		}
		c.Kind, c.Field = records.ConflictKind(kind), records.Field(field)
		out[pos] = append(out[pos], c)
	}
	return out, rows.Err()
}

func fromNull(n sql.NullInt64) int {
	if !n.Valid {
		return -1
	}
	return int(n.Int64)
}
