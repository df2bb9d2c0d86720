// Package constants provides shared constants used throughout the parkmerge codebase.
// This includes matching defaults, file permissions, source names and the
// formatting conventions of merged output.
package constants

// Matching defaults
const (
	// DefaultCoordTolerance is the maximum per-axis deviation, in degrees,
	// for two coordinate pairs to be the same spot (roughly 70-110 m).
	DefaultCoordTolerance = 0.001

	// DefaultMatchThreshold is the inclusive minimum score for accepting a candidate pair.
	DefaultMatchThreshold = 0.5

	// DefaultWorkers is the number of goroutines scoring the candidate matrix.
	DefaultWorkers = 1

	// PhoneSuffixDigits is the number of trailing digits compared when full numbers differ.
	PhoneSuffixDigits = 7
)

// Attribute weights used by the match scorer
const (
	WeightCoordinates = 3.0
	WeightName        = 2.0
	WeightPhone       = 2.0
	WeightAddress     = 1.5
)

// Source defaults
const (
	// SourceAID is the identifier of the first listing source.
	SourceAID = "sourceA"

	// SourceBID is the identifier of the second listing source.
	SourceBID = "sourceB"

	// DefaultSourceAName is the display name of the first listing source.
	DefaultSourceAName = "Yandex Maps"

	// DefaultSourceBName is the display name of the second listing source.
	DefaultSourceBName = "2GIS"
)

// Output formatting
const (
	// TariffSeparator joins the per-source tariff strings of a matched record.
	TariffSeparator = " | "

	// ConfidenceFormat renders a match score.
	ConfidenceFormat = "%.2f"

	// RatingMeanFormat renders the mean of two ratings.
	RatingMeanFormat = "%.1f"

	// ReviewRequiredNote is attached to matched records that carry conflicts.
	ReviewRequiredNote = "manual review required"

	// NoOtherSourceNote prefixes the note on unmatched records.
	NoOtherSourceNote = "no data in"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Path constants
const (
	// DefaultConfigName is the base name of the optional config file in $HOME.
	DefaultConfigName = ".parkmerge"

	// EnvPrefix is the prefix of environment variables bound to config keys.
	EnvPrefix = "PARKMERGE"
)
