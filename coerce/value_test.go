package coerce

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ridoystarlord/mzkit/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNA(t *testing.T) {
	for _, cell := range []string{"", "  ", "NaN", "nan", "NULL", "None", "<NA>"} {
		assert.True(t, IsNA(cell), "%q", cell)
	}
	for _, cell := range []string{"0", "false", "n", "Nanometer"} {
		assert.False(t, IsNA(cell), "%q", cell)
	}
}

func TestConverterValue(t *testing.T) {
	id := uuid.New()
	conv := Converter{}

	tests := []struct {
		col  schema.Column
		cell string
		want interface{}
	}{
		{schema.Column{Name: "id", Type: schema.UUID}, id.String(), id.String()},
		{schema.Column{Name: "id", Type: schema.UUID}, "  " + strings.ToUpper(id.String()) + " ", id.String()},
		{schema.Column{Name: "title", Type: schema.Text}, "Band Gap", "Band Gap"},
		{schema.Column{Name: "title", Type: schema.Text}, "  x  ", "  x  "},
		{schema.Column{Name: "description", Type: schema.Text}, "line one\n", "line one\n"},
		{schema.Column{Name: "rank", Type: schema.Integer}, " 4 ", int64(4)},
		{schema.Column{Name: "rank", Type: schema.Integer}, "-9.0", int64(-9)},
		{schema.Column{Name: "rank", Type: schema.Integer}, "3", int64(3)},
		{schema.Column{Name: "rank", Type: schema.Integer}, "3.0", int64(3)},
		{schema.Column{Name: "quantity", Type: schema.Float}, "1.5e-3", 1.5e-3},
		{schema.Column{Name: "boolean", Type: schema.Boolean}, "True", true},
		{schema.Column{Name: "boolean", Type: schema.Boolean}, "False", false},
		{schema.Column{Name: "title", Type: schema.Text}, "NaN", nil},
		{schema.Column{Name: "created_timestamp", Type: schema.Timestamp}, "2024-01-01 10:00:00 GMT+0200 (x)", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
		{schema.Column{Name: "created_timestamp", Type: schema.Timestamp}, "2024-01-01", nil},
	}
	for _, tt := range tests {
		got, err := conv.Value(tt.col, tt.cell)
		require.NoError(t, err, "%s=%q", tt.col.Name, tt.cell)
		assert.Equal(t, tt.want, got, "%s=%q", tt.col.Name, tt.cell)
	}
}

func TestConverterValueErrors(t *testing.T) {
	conv := Converter{}
	bad := []struct {
		col  schema.Column
		cell string
	}{
		{schema.Column{Name: "id", Type: schema.UUID}, "not-a-uuid"},
		{schema.Column{Name: "rank", Type: schema.Integer}, "2.5"},
		{schema.Column{Name: "rank", Type: schema.Integer}, "first"},
		{schema.Column{Name: "rank", Type: schema.Integer}, "1e300"},
		{schema.Column{Name: "rank", Type: schema.Integer}, "-1e19"},
		{schema.Column{Name: "rank", Type: schema.Integer}, "9.3e18"},
		{schema.Column{Name: "rank", Type: schema.Integer}, "Inf"},
		{schema.Column{Name: "quantity", Type: schema.Float}, "12 nm"},
		{schema.Column{Name: "boolean", Type: schema.Boolean}, "yes"},
		{schema.Column{Name: "updated_timestamp", Type: schema.Timestamp}, "soon GMT+0100"},
	}
	for _, tt := range bad {
		_, err := conv.Value(tt.col, tt.cell)
		assert.Error(t, err, "%s=%q", tt.col.Name, tt.cell)
	}
}

func TestConverterStrictTimestamps(t *testing.T) {
	col := schema.Column{Name: "timestamp", Type: schema.Timestamp}

	got, err := Converter{}.Value(col, "2024-01-01 10:00")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = Converter{StrictTimestamps: true}.Value(col, "2024-01-01 10:00")
	assert.True(t, errors.Is(err, ErrNoOffset))
}
