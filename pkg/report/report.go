// Package report renders merge results for downstream consumers.
//
// JSON and YAML carry the full run: metadata, statistics, warnings and the
// merged records. CSV is one row per merged record with a fixed column
// layout, the shape spreadsheet tooling expects.
package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/parkmerge/pkg/constants"
	"github.com/agentstation/parkmerge/pkg/errors"
	"github.com/agentstation/parkmerge/pkg/provenance"
	"github.com/agentstation/parkmerge/pkg/reconciler"
	"github.com/agentstation/parkmerge/pkg/records"
)

// Format is an output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat resolves a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", errors.NewFormatError(s, "")
}

// Document is the JSON and YAML shape of a report.
type Document struct {
	RunID      string                    `json:"run_id" yaml:"run_id"`
	Summary    string                    `json:"summary" yaml:"summary"`
	Metadata   reconciler.ResultMetadata `json:"metadata" yaml:"metadata"`
	Warnings   []string                  `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Records    []records.Merged          `json:"records" yaml:"records"`
	Provenance provenance.Map            `json:"provenance,omitempty" yaml:"provenance,omitempty"`
}

// NewDocument builds a Document from a result. Provenance is included only when withProvenance is set.
func NewDocument(result *reconciler.Result, withProvenance bool) Document {
	doc := Document{
		RunID:    result.RunID,
		Summary:  result.Summary(),
		Metadata: result.Metadata,
		Warnings: result.Warnings,
		Records:  result.Records,
	}
	if withProvenance {
		doc.Provenance = result.Provenance
	}
	return doc
}

// Columns is the CSV header: the canonical fields, then match metadata.
var Columns = func() []string {
	cols := make([]string, 0, len(records.Fields)+9)
	for _, f := range records.Fields {
		cols = append(cols, string(f))
	}
	return append(cols,
		"provenance", "confidence", "conflicts", "review_required", "note",
		"summary_a", "summary_b", "index_a", "index_b",
	)
}()

// Row returns the CSV cells of one merged record in Columns order.
func Row(m records.Merged) []string {
	row := make([]string, 0, len(Columns))
	for _, f := range records.Fields {
		row = append(row, m.Get(f))
	}
	review := ""
	if m.ReviewRequired {
		review = "yes"
	}
	return append(row,
		string(m.Provenance), m.Confidence, m.ConflictText(), review, m.Note,
		m.SummaryA, m.SummaryB, index(m.IndexA), index(m.IndexB),
	)
}

func index(i int) string {
	if i < 0 {
		return ""
	}
	return strconv.Itoa(i)
}

// Write renders result to w in format.
func Write(w io.Writer, result *reconciler.Result, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(NewDocument(result, true))
	case FormatYAML:
		data, err := yaml.Marshal(NewDocument(result, true))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(Columns); err != nil {
			return err
		}
		for _, m := range result.Records {
			if err := cw.Write(Row(m)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}
	return errors.NewFormatError(string(format), "")
}

// WriteFile renders result to path, creating parent directories. An empty
// format is detected from the file extension.
func WriteFile(path string, result *reconciler.Result, format Format) error {
	if format == "" {
		f, err := ParseFormat(filepath.Ext(path))
		if err != nil {
			return errors.NewFormatError(filepath.Ext(path), path)
		}
		format = f
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return errors.NewIOError("create", dir, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions) //nolint:gosec // path comes from the command line
	if err != nil {
		return errors.NewIOError("open", path, err)
	}
	if err := Write(f, result, format); err != nil {
		_ = f.Close()
		if errors.IsUnsupportedFormat(err) {
			return err
		}
		return errors.NewIOError("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.NewIOError("close", path, err)
	}
	return nil
}
