// Package coerce turns CSV cell text into typed database arguments.
package coerce

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/ridoystarlord/mzkit/schema"
)

// naTokens are the cell values read as missing, as the platform export
// tooling writes them.
var naTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
	"<NA>": {},
}

// IsNA reports whether a cell is a missing value.
func IsNA(cell string) bool {
	_, ok := naTokens[strings.TrimSpace(cell)]
	return ok
}

// Converter converts cells for one load. With StrictTimestamps, timestamp
// text lacking a GMT offset fails instead of loading as NULL.
type Converter struct {
	StrictTimestamps bool
}

// Value converts one cell for a column. Missing values become nil. Text
// passes through untouched; parsed types ignore surrounding whitespace.
func (c Converter) Value(col schema.Column, cell string) (interface{}, error) {
	if IsNA(cell) {
		return nil, nil
	}
	if col.Type == schema.Text && !strings.Contains(col.Name, "timestamp") {
		return cell, nil
	}
	cell = strings.TrimSpace(cell)

	if strings.Contains(col.Name, "timestamp") {
		t, err := ParseTimestamp(cell)
		if errors.Is(err, ErrNoOffset) && !c.StrictTimestamps {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return t, nil
	}

	switch col.Type {
	case schema.UUID:
		id, err := uuid.Parse(cell)
		if err != nil {
			return nil, fmt.Errorf("column %s: invalid uuid %q: %w", col.Name, cell, err)
		}
		// canonical text binds on every driver
		return id.String(), nil
	case schema.Integer:
		n, err := parseInteger(cell)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		return n, nil
	case schema.Float:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("column %s: invalid number %q", col.Name, cell)
		}
		return f, nil
	case schema.Boolean:
		b, err := strconv.ParseBool(cell)
		if err != nil {
			return nil, fmt.Errorf("column %s: invalid boolean %q", col.Name, cell)
		}
		return b, nil
	case schema.Timestamp:
		t, err := ParseTimestamp(cell)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		return t, nil
	default:
		return cell, nil
	}
}

// parseInteger accepts "3" and the float spelling "3.0" that integer columns
// take on after passing through a float column with missing values.
func parseInteger(cell string) (int64, error) {
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("invalid integer %q", cell)
	}
	return int64(f), nil
}
