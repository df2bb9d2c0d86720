package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/agentstation/parkmerge/pkg/reconciler"
	"github.com/agentstation/parkmerge/pkg/records"
	"github.com/agentstation/parkmerge/pkg/report"
	"github.com/agentstation/parkmerge/pkg/scorer"
)

// maxCell truncates long cells in the narrow table.
const maxCell = 40

// narrowColumns are the merged fields shown by the plain table format.
var narrowColumns = []records.Field{
	records.FieldName,
	records.FieldAddress,
	records.FieldParkingType,
	records.FieldPrices,
}

// ResultToTableData converts the records of a run into table rows. The wide
// form has every report column, the narrow form a readable subset.
func ResultToTableData(result *reconciler.Result, wide bool) Data {
	if wide {
		headers := make([]string, len(report.Columns))
		for i, c := range report.Columns {
			headers[i] = Title(c)
		}
		rows := make([][]string, 0, len(result.Records))
		for _, m := range result.Records {
			rows = append(rows, report.Row(m))
		}
		return Data{Headers: headers, Rows: rows}
	}

	headers := []string{"#", "Provenance", "Confidence"}
	align := []Align{AlignRight, AlignLeft, AlignRight}
	for _, f := range narrowColumns {
		headers = append(headers, Title(string(f)))
		align = append(align, AlignLeft)
	}
	headers = append(headers, "Conflicts")
	align = append(align, AlignLeft)

	rows := make([][]string, 0, len(result.Records))
	for i, m := range result.Records {
		row := []string{strconv.Itoa(i + 1), string(m.Provenance), m.Confidence}
		for _, f := range narrowColumns {
			row = append(row, truncate(m.Get(f)))
		}
		row = append(row, m.ConflictText())
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// BreakdownToTableData converts a score explanation into one row per
// attribute plus a total row.
func BreakdownToTableData(b scorer.Breakdown) Data {
	rows := make([][]string, 0, len(b.Parts)+2)
	for _, p := range b.Parts {
		rows = append(rows, []string{
			Title(string(p.Attribute)),
			fmt.Sprintf("%.3f", p.Score),
			fmt.Sprintf("%.1f", p.Weight),
			fmt.Sprintf("%.3f", p.Score*p.Weight),
		})
	}
	if b.DistanceMetres != nil {
		rows = append(rows, []string{"Distance", fmt.Sprintf("%.0f m", *b.DistanceMetres), "", ""})
	}
	rows = append(rows, []string{"Total", fmt.Sprintf("%.3f", b.Score), "", ""})
	return Data{
		Headers:         []string{"Attribute", "Similarity", "Weight", "Contribution"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignRight},
	}
}

// FormatResult writes a run in format. Tables are followed by the run
// summary and any warnings; the other formats are full reports.
func FormatResult(w io.Writer, result *reconciler.Result, format Format) error {
	switch format {
	case FormatJSON:
		return report.Write(w, result, report.FormatJSON)
	case FormatYAML:
		return report.Write(w, result, report.FormatYAML)
	case FormatCSV:
		return report.Write(w, result, report.FormatCSV)
	}

	if !result.IsEmpty() {
		if err := renderTable(w, ResultToTableData(result, format == FormatWide)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, result.Summary()); err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", warning); err != nil {
			return err
		}
	}
	return nil
}

// FormatBreakdown writes a score explanation in format.
func FormatBreakdown(w io.Writer, b scorer.Breakdown, format Format) error {
	if format.IsTable() || format == "" {
		return renderTable(w, BreakdownToTableData(b))
	}
	if format == FormatCSV {
		return fmt.Errorf("csv output is not available for score breakdowns")
	}
	return NewFormatter(format).Format(w, b)
}

func truncate(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= maxCell {
		return s
	}
	return string(r[:maxCell-1]) + "…"
}
