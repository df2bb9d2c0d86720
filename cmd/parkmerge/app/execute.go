package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the parkmerge CLI application with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	if a.out != nil {
		rootCmd.SetOut(a.out)
	}
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "parkmerge",
		Short:   "Parking listing merge CLI",
		Version: a.version,
		Long: `Parkmerge resolves parking listings scraped from two map providers
into one canonical list.

Records from both sources are scored pairwise on coordinates, name,
address and phone, paired greedily, merged field by field and checked
for contradictions such as paid versus free. Records without a partner
are passed through with their provenance.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.parkmerge.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, wide, json, yaml, csv")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	// Engine knobs
	flags.Float64("tolerance", a.config.Tolerance, "coordinate tolerance in degrees")
	flags.Float64("threshold", a.config.Threshold, "minimum score for accepting a match")
	flags.Int("workers", a.config.Workers, "goroutines scoring the candidate matrix")
	flags.String("source-a", a.config.SourceAName, "display name of source A")
	flags.String("source-b", a.config.SourceBName, "display name of source B")
	flags.Bool("no-provenance", false, "skip per-field provenance tracking")

	rootCmd.SetVersionTemplate("parkmerge {{.Version}}\n")

	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand is called before any command runs. Flags the user set take
// precedence over the config file and environment.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if path := mustGetString(cmd, "config"); path != "" {
		config, err := LoadConfig(path)
		if err != nil {
			return err
		}
		a.config = config
	}

	fs := cmd.Flags()
	c := a.config
	if fs.Changed("verbose") {
		c.Verbose = mustGetBool(cmd, "verbose")
	}
	if fs.Changed("quiet") {
		c.Quiet = mustGetBool(cmd, "quiet")
	}
	if fs.Changed("no-color") {
		c.NoColor = mustGetBool(cmd, "no-color")
	}
	if format := mustGetString(cmd, "format"); format != "" {
		c.Format = format
	}
	if level := mustGetString(cmd, "log-level"); level != "" {
		c.LogLevel = level
	}
	if fs.Changed("tolerance") {
		c.Tolerance = mustGetFloat64(cmd, "tolerance")
	}
	if fs.Changed("threshold") {
		c.Threshold = mustGetFloat64(cmd, "threshold")
	}
	if fs.Changed("workers") {
		c.Workers = mustGetInt(cmd, "workers")
	}
	if fs.Changed("source-a") {
		c.SourceAName = mustGetString(cmd, "source-a")
	}
	if fs.Changed("source-b") {
		c.SourceBName = mustGetString(cmd, "source-b")
	}
	if mustGetBool(cmd, "no-provenance") {
		c.Provenance = false
	}

	logger := NewLogger(c)
	a.logger = &logger
	a.reset()
	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(a.CreateMergeCommand())
	rootCmd.AddCommand(a.CreateSingleCommand())
	rootCmd.AddCommand(a.CreateScoreCommand())
	rootCmd.AddCommand(a.CreateVersionCommand())
}

// ExitOnError prints an error and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetFloat64 retrieves a float flag value or panics if the flag doesn't exist.
func mustGetFloat64(cmd *cobra.Command, name string) float64 {
	val, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetInt retrieves an int flag value or panics if the flag doesn't exist.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
