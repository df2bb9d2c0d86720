package app

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/parkmerge/internal/cmd/output"
	"github.com/agentstation/parkmerge/internal/store"
	"github.com/agentstation/parkmerge/pkg/errors"
	"github.com/agentstation/parkmerge/pkg/ingest"
	"github.com/agentstation/parkmerge/pkg/provenance"
	"github.com/agentstation/parkmerge/pkg/reconciler"
	"github.com/agentstation/parkmerge/pkg/records"
	"github.com/agentstation/parkmerge/pkg/report"
)

// CreateMergeCommand creates the merge command.
func (a *App) CreateMergeCommand() *cobra.Command {
	var fileA, fileB, out, sqlitePath, provenancePath string

	cmd := &cobra.Command{
		Use:     "merge",
		GroupID: "core",
		Short:   "Match and merge the listings of two sources",
		Long: `Merge reads the listings of source A and source B, pairs records that
describe the same parking and writes the canonical list.

When only one of --a and --b is given, or one file holds no records, the
other source's records are written alone.`,
		Example: `  parkmerge merge --a yandex.csv --b 2gis.json
  parkmerge merge --a yandex.csv --b 2gis.json --out merged.csv
  parkmerge merge --a yandex.csv --b 2gis.json --sqlite runs.db -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fileA == "" && fileB == "" {
				return &errors.ValidationError{Field: "a", Message: "at least one of --a and --b is required"}
			}
			a1, err := loadOptional(fileA)
			if err != nil {
				return err
			}
			b1, err := loadOptional(fileB)
			if err != nil {
				return err
			}

			engine, err := a.Engine()
			if err != nil {
				return err
			}
			result := engine.Merge(cmd.Context(), a1, b1)
			if provenancePath != "" {
				if err := provenance.Save(provenancePath, result.Provenance); err != nil {
					return errors.NewIOError("write", provenancePath, err)
				}
				a.logger.Debug().Str("path", provenancePath).Msg("Provenance written")
			}
			if a.config.Verbose && len(result.Provenance) > 0 {
				cmd.PrintErr(provenance.GenerateReport(result.Provenance).String())
			}
			return a.emit(cmd, result, out, sqlitePath)
		},
	}

	cmd.Flags().StringVar(&fileA, "a", "", "listings of source A (json, yaml or csv)")
	cmd.Flags().StringVar(&fileB, "b", "", "listings of source B (json, yaml or csv)")
	cmd.Flags().StringVar(&out, "out", "", "write the report to a file; format from its extension")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "also archive the run in a SQLite database")
	cmd.Flags().StringVar(&provenancePath, "provenance-out", "", "write per-field provenance to a YAML file")
	return cmd
}

// CreateSingleCommand creates the single command.
func (a *App) CreateSingleCommand() *cobra.Command {
	var in, sideName, out, sqlitePath string

	cmd := &cobra.Command{
		Use:     "single",
		GroupID: "core",
		Short:   "Write the listings of one source as unmatched records",
		Example: `  parkmerge single --in 2gis.json --side b --out merged.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			side, ok := records.ParseSide(sideName)
			if !ok {
				return &errors.ValidationError{Field: "side", Value: sideName, Message: "must be a or b"}
			}
			recs, err := ingest.LoadFile(in)
			if err != nil {
				return err
			}

			engine, err := a.Engine()
			if err != nil {
				return err
			}
			result := engine.MergeUnmatchedOnly(cmd.Context(), recs, side)
			return a.emit(cmd, result, out, sqlitePath)
		},
	}

	cmd.Flags().StringVar(&in, "in", "", "listings file (json, yaml or csv)")
	cmd.Flags().StringVar(&sideName, "side", "a", "source the file comes from: a or b")
	cmd.Flags().StringVar(&out, "out", "", "write the report to a file; format from its extension")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "also archive the run in a SQLite database")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

// CreateScoreCommand creates the score command.
func (a *App) CreateScoreCommand() *cobra.Command {
	var fileA, fileB string
	var indexA, indexB int

	cmd := &cobra.Command{
		Use:     "score",
		GroupID: "core",
		Short:   "Explain the match score of one record pair",
		Example: `  parkmerge score --a yandex.csv --b 2gis.json --index-a 0 --index-b 3`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			recsA, err := ingest.LoadFile(fileA)
			if err != nil {
				return err
			}
			recsB, err := ingest.LoadFile(fileB)
			if err != nil {
				return err
			}
			if indexA < 0 || indexA >= len(recsA) {
				return &errors.ValidationError{Field: "index-a", Value: indexA,
					Message: fmt.Sprintf("out of range, %s has %d records", fileA, len(recsA))}
			}
			if indexB < 0 || indexB >= len(recsB) {
				return &errors.ValidationError{Field: "index-b", Value: indexB,
					Message: fmt.Sprintf("out of range, %s has %d records", fileB, len(recsB))}
			}

			engine, err := a.Engine()
			if err != nil {
				return err
			}
			breakdown := engine.Reconciler().Explain(recsA[indexA], recsB[indexB])
			format, err := a.format()
			if err != nil {
				return err
			}
			return output.FormatBreakdown(cmd.OutOrStdout(), breakdown, format)
		},
	}

	cmd.Flags().StringVar(&fileA, "a", "", "listings of source A")
	cmd.Flags().StringVar(&fileB, "b", "", "listings of source B")
	cmd.Flags().IntVar(&indexA, "index-a", 0, "record index in source A")
	cmd.Flags().IntVar(&indexB, "index-b", 0, "record index in source B")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")
	return cmd
}

// CreateVersionCommand creates the version command.
func (a *App) CreateVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("parkmerge %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}

// emit writes a run to its destinations: the report file or stdout, and
// optionally the SQLite archive.
func (a *App) emit(cmd *cobra.Command, result *reconciler.Result, out, sqlitePath string) error {
	logger := a.logger.With().Str("run_id", result.RunID).Logger()

	if sqlitePath != "" {
		db, err := store.Open(cmd.Context(), sqlitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveRun(cmd.Context(), result); err != nil {
			return err
		}
		logger.Info().Str("path", sqlitePath).Msg("Run archived")
	}

	if out != "" {
		if err := report.WriteFile(out, result, ""); err != nil {
			return err
		}
		logger.Info().Str("path", out).Int("records", len(result.Records)).Msg("Report written")
		return printSummary(cmd.OutOrStdout(), result)
	}

	format, err := a.format()
	if err != nil {
		return err
	}
	return output.FormatResult(cmd.OutOrStdout(), result, format)
}

func (a *App) format() (output.Format, error) {
	format, err := output.ParseFormat(a.config.Format)
	if err != nil {
		return "", err
	}
	return output.DetectFormat(string(format)), nil
}

func printSummary(w io.Writer, result *reconciler.Result) error {
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

// loadOptional loads path, or returns no records when path is empty.
func loadOptional(path string) ([]records.Record, error) {
	if path == "" {
		return nil, nil
	}
	return ingest.LoadFile(path)
}
