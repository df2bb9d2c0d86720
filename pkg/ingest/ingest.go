// Package ingest loads source listings from files into records.
//
// Supported inputs are a JSON array of objects, a YAML list of mappings and
// CSV with a header row. JSON and YAML may also wrap the list in a
// top-level "records" key. Column names may be canonical field names or the
// scraper's Russian headers; null sentinels such as "nan" become empty.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/parkmerge/pkg/errors"
	"github.com/agentstation/parkmerge/pkg/records"
)

// Format is an input file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// ParseFormat resolves a format name such as "yml" or "JSON".
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

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return "", errors.NewFormatError(filepath.Ext(path), path)
	}
	return f, nil
}

// LoadFile reads path and returns its records in file order.
func LoadFile(path string) ([]records.Record, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, errors.NewIOError("read", path, err)
	}
	return Decode(data, format, path)
}

// Load reads all of r and decodes it as format. name labels errors.
func Load(r io.Reader, format Format, name string) ([]records.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewIOError("read", name, err)
	}
	return Decode(data, format, name)
}

// Decode converts raw file content into records. Rows with no values are skipped.
func Decode(data []byte, format Format, name string) ([]records.Record, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	var rows []map[string]string
	var err error
	switch format {
	case FormatJSON:
		rows, err = decodeJSON(data, name)
	case FormatYAML:
		rows, err = decodeYAML(data, name)
	case FormatCSV:
		rows, err = decodeCSV(data, name)
	default:
		return nil, errors.NewFormatError(string(format), name)
	}
	if err != nil {
		return nil, err
	}

	out := make([]records.Record, 0, len(rows))
	for _, row := range rows {
		rec := records.FromMap(row)
		if rec.IsEmpty() {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// wrapped is the optional top-level object around a record list.
type wrapped[T any] struct {
	Records []T `json:"records" yaml:"records"`
}

func decodeJSON(data []byte, name string) ([]map[string]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var list []map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&list); err != nil {
		var w wrapped[map[string]any]
		dec = json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if werr := dec.Decode(&w); werr != nil || w.Records == nil {
			return nil, errors.NewParseError(FormatJSON.String(), name, "expected an array of objects or {\"records\": [...]}", err)
		}
		list = w.Records
	}
	return stringify(list), nil
}

func decodeYAML(data []byte, name string) ([]map[string]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var list []map[string]any
	if err := yaml.Unmarshal(data, &list); err != nil {
		var w wrapped[map[string]any]
		if werr := yaml.Unmarshal(data, &w); werr != nil || w.Records == nil {
			return nil, errors.NewParseError(FormatYAML.String(), name, "expected a list of mappings or records: [...]", err)
		}
		list = w.Records
	}
	return stringify(list), nil
}

func decodeCSV(data []byte, name string) ([]map[string]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, csvError(name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(name, err)
		}
		row := make(map[string]string, len(header))
		for i, v := range fields {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row[header[i]] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func csvError(name string, err error) error {
	pe := errors.NewParseError(FormatCSV.String(), name, err.Error(), err)
	var cerr *csv.ParseError
	if errors.As(err, &cerr) {
		pe.Line = cerr.Line
		pe.Message = cerr.Err.Error()
	}
	return pe
}

// stringify flattens decoded values to their text form.
func stringify(list []map[string]any) []map[string]string {
	rows := make([]map[string]string, len(list))
	for i, obj := range list {
		row := make(map[string]string, len(obj))
		for k, v := range obj {
			row[k] = text(v)
		}
		rows[i] = row
	}
	return rows
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = text(e)
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}
