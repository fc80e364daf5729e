package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPeakX(t *testing.T) {
	tests := []struct {
		name   string
		xs, ys []float64
		want   float64
		ok     bool
	}{
		{"single peak", []float64{500, 510, 520, 530}, []float64{1, 5, 3, 2}, 510, true},
		{"highest of two", []float64{1, 2, 3, 4, 5, 6}, []float64{0, 2, 0, 7, 1, 0}, 4, true},
		{"first of equal peaks", []float64{1, 2, 3, 4, 5}, []float64{0, 3, 0, 3, 0}, 2, true},
		{"plateau middle", []float64{1, 2, 3, 4, 5, 6}, []float64{0, 4, 4, 4, 1, 0}, 3, true},
		{"even plateau rounds down", []float64{1, 2, 3, 4, 5}, []float64{0, 4, 4, 1, 0}, 2, true},
		{"rising edge only", []float64{1, 2, 3}, []float64{1, 2, 3}, 0, false},
		{"plateau into edge", []float64{1, 2, 3, 4}, []float64{0, 2, 2, 2}, 0, false},
		{"too short", []float64{1, 2}, []float64{3, 1}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PeakX(tt.xs, tt.ys)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
