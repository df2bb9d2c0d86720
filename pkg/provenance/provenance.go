// Package provenance records which source each merged field came from.
package provenance

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"

	"github.com/agentstation/parkmerge/pkg/constants"
	"github.com/agentstation/parkmerge/pkg/records"
)

// Provenance tracks the origin of one merged field value.
type Provenance struct {
	Side      records.Side `json:"side,omitempty" yaml:"side,omitempty"`         // Side that provided the value; empty when combined
	Source    string       `json:"source" yaml:"source"`                         // Display name of the source, or "combined"
	Field     string       `json:"field" yaml:"field"`                           // Canonical field name
	Value     string       `json:"value" yaml:"value"`                           // The merged value
	Timestamp utc.Time     `json:"timestamp" yaml:"timestamp"`                   // When the value was recorded
	Reason    string       `json:"reason" yaml:"reason"`                         // Why this value was chosen
	Rejected  string       `json:"rejected,omitempty" yaml:"rejected,omitempty"` // The other side's value when it lost
}

// Combined is the Source of values built from both sides.
const Combined = "combined"

// Map tracks provenance for merged records.
type Map map[string][]Provenance // key is "<output index>:<field>"

// Tracker manages provenance tracking during a merge run.
type Tracker interface {
	// Track records provenance for a field of the merged record at index
	Track(index int, field records.Field, p Provenance)

	// FindByField retrieves provenance for a specific field
	FindByField(index int, field records.Field) []Provenance

	// FindByRecord retrieves all provenance for one merged record
	FindByRecord(index int) map[string][]Provenance

	// Map returns the complete provenance map
	Map() Map

	// Clear removes all provenance data
	Clear()
}

// tracker is the default implementation.
type tracker struct {
	provenance Map
	enabled    bool
}

// NewTracker creates a new provenance tracker. A disabled tracker records nothing.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
	}
}

// Track records provenance for a field.
func (p *tracker) Track(index int, field records.Field, prov Provenance) {
	if !p.enabled {
		return
	}
	prov.Field = string(field)
	prov.Timestamp = utc.Now()
	key := makeKey(index, string(field))
	p.provenance[key] = append(p.provenance[key], prov)
}

// FindByField retrieves provenance for a specific field.
func (p *tracker) FindByField(index int, field records.Field) []Provenance {
	if !p.enabled {
		return nil
	}
	return p.provenance[makeKey(index, string(field))]
}

// FindByRecord retrieves all provenance for one merged record.
func (p *tracker) FindByRecord(index int) map[string][]Provenance {
	if !p.enabled {
		return nil
	}
	result := make(map[string][]Provenance)
	prefix := strconv.Itoa(index) + ":"
	for key, info := range p.provenance {
		if field, found := strings.CutPrefix(key, prefix); found {
			result[field] = info
		}
	}
	return result
}

// Map returns a copy of the complete provenance map.
func (p *tracker) Map() Map {
	if !p.enabled {
		return nil
	}
	result := make(Map, len(p.provenance))
	for k, v := range p.provenance {
		result[k] = append([]Provenance{}, v...)
	}
	return result
}

// Clear removes all provenance data.
func (p *tracker) Clear() {
	p.provenance = make(Map)
}

func makeKey(index int, field string) string {
	return fmt.Sprintf("%d:%s", index, field)
}

// Report groups provenance by merged record.
type Report struct {
	Records map[int]map[string]Provenance // output index -> field -> latest provenance
}

// GenerateReport creates a provenance report from a Map.
func GenerateReport(provenance Map) *Report {
	report := &Report{Records: make(map[int]map[string]Provenance)}
	for key, infos := range provenance {
		idx, field, ok := strings.Cut(key, ":")
		if !ok || len(infos) == 0 {
			continue
		}
		index, err := strconv.Atoi(idx)
		if err != nil {
			continue
		}
		fields, exists := report.Records[index]
		if !exists {
			fields = make(map[string]Provenance)
			report.Records[index] = fields
		}
		fields[field] = infos[len(infos)-1]
	}
	return report
}

// String renders the report sorted by record index and field name.
func (r *Report) String() string {
	var sb strings.Builder
	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	indexes := make([]int, 0, len(r.Records))
	for idx := range r.Records {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	for _, idx := range indexes {
		fields := r.Records[idx]
		sb.WriteString(fmt.Sprintf("record %d\n", idx))
		sb.WriteString(strings.Repeat("-", 40))
		sb.WriteString("\n")

		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			p := fields[name]
			sb.WriteString(fmt.Sprintf("  %s: %q from %s (%s)\n", name, p.Value, p.Source, p.Reason))
			if p.Rejected != "" {
				sb.WriteString(fmt.Sprintf("    rejected: %q\n", p.Rejected))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// File represents a provenance file stored on disk.
type File struct {
	Provenance Map `yaml:"provenance" json:"provenance"`
}

// Save writes provenance data to a YAML file.
func Save(path string, m Map) error {
	data, err := yaml.Marshal(&File{Provenance: m})
	if err != nil {
		return fmt.Errorf("failed to encode provenance: %w", err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return fmt.Errorf("failed to write provenance file: %w", err)
	}
	return nil
}

// Load reads provenance data from a YAML file.
// Returns nil, nil if the file doesn't exist (not an error).
func Load(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to read provenance file: %w", err)
	}

	var pf File
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse provenance file: %w", err)
	}
	return &pf, nil
}
