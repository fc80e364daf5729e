package loader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout describes a workbook upload: which folder receives the tables, how
// each sheet maps to protocols and parameters, and where measurements live.
type Layout struct {
	Folder       string            `yaml:"folder"`
	Workbook     string            `yaml:"workbook"`
	Tables       []TableLayout     `yaml:"tables"`
	Measurements *MeasurementsSpec `yaml:"measurements"`
}

type TableLayout struct {
	Title      string           `yaml:"title"`
	Sheet      string           `yaml:"sheet"`
	ItemColumn string           `yaml:"item_column"`
	Protocols  []ProtocolLayout `yaml:"protocols"`
}

const (
	ProtocolTypeProtocol    = "protocol"
	ProtocolTypeFormulation = "formulation"
)

type ProtocolLayout struct {
	Title      string            `yaml:"title"`
	Type       string            `yaml:"type"`
	Unit       string            `yaml:"unit"`
	Sources    []string          `yaml:"sources"` // formulation only: tables whose items are ingredients
	Parameters []ParameterLayout `yaml:"parameters"`
}

type ParameterLayout struct {
	Title  string `yaml:"title"`
	Unit   string `yaml:"unit"`
	Column string `yaml:"column"`
}

type MeasurementsSpec struct {
	Table           string `yaml:"table"`
	Glob            string `yaml:"glob"`
	Title           string `yaml:"title"`
	ParserCode      string `yaml:"parser_code"`
	ParameterColumn string `yaml:"parameter_column"`
	ItemTitle       string `yaml:"item_title"` // fmt pattern applied to the number in the file name
}

// LoadLayout reads and checks an upload layout file.
func LoadLayout(filename string) (*Layout, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading layout file: %w", err)
	}

	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, fmt.Errorf("layout %s: %w", filename, err)
	}
	return &l, nil
}

// Validate checks references between tables, protocols and measurements.
func (l *Layout) Validate() error {
	if l.Folder == "" {
		return fmt.Errorf("folder is required")
	}
	if len(l.Tables) == 0 {
		return fmt.Errorf("at least one table is required")
	}

	seen := map[string]bool{}
	for _, t := range l.Tables {
		if t.Title == "" {
			return fmt.Errorf("table without title")
		}
		if seen[t.Title] {
			return fmt.Errorf("table %q declared twice", t.Title)
		}
		if t.ItemColumn == "" {
			return fmt.Errorf("table %q: item_column is required", t.Title)
		}
		for _, p := range t.Protocols {
			switch p.Type {
			case ProtocolTypeProtocol:
				for _, param := range p.Parameters {
					if param.Column == "" || param.Title == "" {
						return fmt.Errorf("table %q protocol %q: parameters need title and column", t.Title, p.Title)
					}
				}
			case ProtocolTypeFormulation:
				if len(p.Sources) == 0 {
					return fmt.Errorf("table %q formulation %q: sources are required", t.Title, p.Title)
				}
				for _, src := range p.Sources {
					if !seen[src] {
						return fmt.Errorf("table %q formulation %q: source %q must be declared earlier", t.Title, p.Title, src)
					}
				}
			default:
				return fmt.Errorf("table %q protocol %q: unknown type %q", t.Title, p.Title, p.Type)
			}
		}
		seen[t.Title] = true
	}

	if m := l.Measurements; m != nil {
		if !seen[m.Table] {
			return fmt.Errorf("measurements: unknown table %q", m.Table)
		}
		if m.Glob == "" || m.ParserCode == "" || m.ItemTitle == "" {
			return fmt.Errorf("measurements: glob, parser_code and item_title are required")
		}
	}
	return nil
}

// SheetName returns the sheet holding a table's items, defaulting to its title.
func (t TableLayout) SheetName() string {
	if t.Sheet != "" {
		return t.Sheet
	}
	return t.Title
}
