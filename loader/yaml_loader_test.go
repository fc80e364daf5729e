package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quantumDotLayout = `
folder: Quantum Dot Example
workbook: quantum_dots_example.xlsx
tables:
  - title: Materials
    item_column: Name
    protocols:
      - title: Properties
        type: protocol
        parameters:
          - {title: Band Gap, unit: eV, column: Band Gap (eV)}
          - {title: Size, unit: nm, column: Size (nm)}
  - title: Experiments
    item_column: Experiment ID
    protocols:
      - title: Formulation
        type: formulation
        unit: "%"
        sources: [Materials]
      - title: Measured Properties
        type: protocol
        parameters:
          - {title: Peak Wavelength, unit: nm, column: Peak Wavelength (nm)}
measurements:
  table: Experiments
  glob: measurements/experiment_*_measurement.csv
  title: Emission Spectrum
  parser_code: PL-AG-E-CC
  parameter_column: Peak Wavelength (nm)
  item_title: QD_EXP_%02d
`

func TestLoadLayout(t *testing.T) {
	path := writeFile(t, t.TempDir(), "layout.yaml", quantumDotLayout)

	l, err := LoadLayout(path)
	require.NoError(t, err)

	assert.Equal(t, "Quantum Dot Example", l.Folder)
	require.Len(t, l.Tables, 2)
	assert.Equal(t, "Materials", l.Tables[0].SheetName())
	assert.Equal(t, []string{"Materials"}, l.Tables[1].Protocols[0].Sources)
	assert.Equal(t, "Size (nm)", l.Tables[0].Protocols[0].Parameters[1].Column)
	require.NotNil(t, l.Measurements)
	assert.Equal(t, "QD_EXP_%02d", l.Measurements.ItemTitle)
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		errMsg string
	}{
		{"no folder", Layout{Tables: []TableLayout{{Title: "A", ItemColumn: "Name"}}}, "folder is required"},
		{"no tables", Layout{Folder: "F"}, "at least one table"},
		{"duplicate table", Layout{Folder: "F", Tables: []TableLayout{{Title: "A", ItemColumn: "N"}, {Title: "A", ItemColumn: "N"}}}, "declared twice"},
		{"forward formulation source", Layout{Folder: "F", Tables: []TableLayout{
			{Title: "Exp", ItemColumn: "N", Protocols: []ProtocolLayout{{Title: "F", Type: ProtocolTypeFormulation, Sources: []string{"Mat"}}}},
			{Title: "Mat", ItemColumn: "N"},
		}}, "declared earlier"},
		{"unknown protocol type", Layout{Folder: "F", Tables: []TableLayout{{Title: "A", ItemColumn: "N", Protocols: []ProtocolLayout{{Title: "P", Type: "matrix"}}}}}, "unknown type"},
		{"measurement table", Layout{Folder: "F", Tables: []TableLayout{{Title: "A", ItemColumn: "N"}}, Measurements: &MeasurementsSpec{Table: "B"}}, "unknown table"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, tt.layout.Validate(), tt.errMsg)
		})
	}
}
