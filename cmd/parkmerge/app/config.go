package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/parkmerge/pkg/constants"
	"github.com/agentstation/parkmerge/pkg/errors"
	"github.com/agentstation/parkmerge/pkg/reconciler"
	"github.com/agentstation/parkmerge/pkg/records"
	"github.com/agentstation/parkmerge/pkg/scorer"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Engine configuration
	Tolerance   float64
	Threshold   float64
	Weights     scorer.Weights
	Workers     int
	SourceAName string
	SourceBName string
	Provenance  bool

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by the root command)
// 2. Environment variables (PARKMERGE_*)
// 3. .env and .env.local
// 4. Config file (configFile, or ~/.parkmerge.yaml and ./.parkmerge.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "reading "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.DefaultConfigName)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "reading .parkmerge.yaml", err)
			}
		}
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Tolerance: v.GetFloat64("coord_tolerance"),
		Threshold: v.GetFloat64("match_threshold"),
		Weights: scorer.Weights{
			Coordinates: v.GetFloat64("weight_coordinates"),
			Name:        v.GetFloat64("weight_name"),
			Address:     v.GetFloat64("weight_address"),
			Phone:       v.GetFloat64("weight_phone"),
		},
		Workers:     v.GetInt("workers"),
		SourceAName: v.GetString("source_a_name"),
		SourceBName: v.GetString("source_b_name"),
		Provenance:  v.GetBool("provenance"),

		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("coord_tolerance", constants.DefaultCoordTolerance)
	v.SetDefault("match_threshold", constants.DefaultMatchThreshold)
	v.SetDefault("weight_coordinates", constants.WeightCoordinates)
	v.SetDefault("weight_name", constants.WeightName)
	v.SetDefault("weight_address", constants.WeightAddress)
	v.SetDefault("weight_phone", constants.WeightPhone)
	v.SetDefault("workers", constants.DefaultWorkers)
	v.SetDefault("source_a_name", constants.DefaultSourceAName)
	v.SetDefault("source_b_name", constants.DefaultSourceBName)
	v.SetDefault("provenance", true)
}

// ReconcilerOptions translates the engine settings into reconciler options.
// Validation happens when the options are applied.
func (c *Config) ReconcilerOptions() []reconciler.Option {
	return []reconciler.Option{
		reconciler.WithTolerance(c.Tolerance),
		reconciler.WithThreshold(c.Threshold),
		reconciler.WithWeights(c.Weights),
		reconciler.WithWorkers(c.Workers),
		reconciler.WithSources(
			records.Source{ID: constants.SourceAID, Name: c.SourceAName},
			records.Source{ID: constants.SourceBID, Name: c.SourceBName},
		),
		reconciler.WithProvenance(c.Provenance),
	}
}

// loadEnvFiles loads environment variables from .env files.
// .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
