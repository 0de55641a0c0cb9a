// CLAUDE:SUMMARY Manifest YAML schema for a roster directory: provenance, data file, CSV layout and name column mapping.
package roster

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Manifest describes a roster: where it came from and how to read its data file.
type Manifest struct {
	ID           string     `yaml:"id" json:"id"`
	Version      string     `yaml:"version" json:"version"`
	Court        string     `yaml:"court" json:"court,omitempty"`
	Jurisdiction string     `yaml:"jurisdiction" json:"jurisdiction"`
	Source       string     `yaml:"source" json:"source"`
	SourceURL    string     `yaml:"source_url" json:"source_url,omitempty"`
	License      string     `yaml:"license" json:"license"`
	DataFile     string     `yaml:"data_file" json:"data_file"`
	Format       FormatSpec `yaml:"format" json:"-"`
}

// FormatSpec describes the CSV layout. Encoding is any WHATWG label; empty means UTF-8.
type FormatSpec struct {
	Delimiter string     `yaml:"delimiter"`
	Encoding  string     `yaml:"encoding"`
	HasHeader bool       `yaml:"has_header"`
	Columns   ColumnSpec `yaml:"columns"`
}

// ColumnSpec maps entry fields to header names, or to zero-based column
// indexes when the file has no header. JSON rows use the same names as keys.
type ColumnSpec struct {
	ID     string `yaml:"id"`
	First  string `yaml:"first"`
	Middle string `yaml:"middle"`
	Last   string `yaml:"last"`
	Suffix string `yaml:"suffix"`
}

// FJCColumns are the headers of the FJC Biographical Directory of Article III judges.
var FJCColumns = ColumnSpec{
	ID:     "nid",
	First:  "First Name",
	Middle: "Middle Name",
	Last:   "Last Name",
	Suffix: "Suffix",
}

var positionalColumns = ColumnSpec{ID: "0", First: "1", Middle: "2", Last: "3", Suffix: "4"}

// LoadManifest reads and parses a manifest.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("manifest %s: missing id", path)
	}
	if m.DataFile == "" {
		m.DataFile = "data.csv"
	}
	if m.Format.Columns == (ColumnSpec{}) {
		if m.Format.HasHeader {
			m.Format.Columns = FJCColumns
		} else {
			m.Format.Columns = positionalColumns
		}
	}
	if !m.Format.HasHeader {
		if err := m.Format.Columns.checkPositional(); err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
	}
	return &m, nil
}

// WriteManifest marshals m to path.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

func (c ColumnSpec) fields() []string {
	return []string{c.ID, c.First, c.Middle, c.Last, c.Suffix}
}

func (c ColumnSpec) checkPositional() error {
	for _, f := range c.fields() {
		if f == "" {
			continue
		}
		if n, err := strconv.Atoi(f); err != nil || n < 0 {
			return fmt.Errorf("column %q must be an index when has_header is false", f)
		}
	}
	return nil
}
