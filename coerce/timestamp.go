package coerce

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrNoOffset is returned for timestamp text without a GMT±HHMM marker.
var ErrNoOffset = errors.New("no GMT offset in timestamp")

// Everything up to and including the last GMT±HHMM; the rest (usually a
// parenthesised zone name) is dropped.
var gmtPrefix = regexp.MustCompile(`^(.*GMT[+-]\d{4})`)

// Layouts accepted for the text before the GMT marker. Fractional seconds
// are accepted after the seconds field by time.Parse.
var timestampLayouts = []string{
	"Mon Jan 02 2006 15:04:05",
	"Mon Jan 2 2006 15:04:05",
	"Jan 02 2006 15:04:05",
	"Mon, 02 Jan 2006 15:04:05",
	"02 Jan 2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
}

// ParseTimestamp extracts the `<text>GMT±HHMM` prefix of s and returns the
// instant it denotes, in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	m := gmtPrefix.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNoOffset, s)
	}
	prefix := m[1]
	marker := prefix[len(prefix)-len("GMT+0000"):]
	body := strings.TrimSpace(prefix[:len(prefix)-len(marker)])

	loc, err := offsetZone(marker[len("GMT"):])
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	if body == "" {
		return time.Time{}, fmt.Errorf("parse timestamp %q: no date before %s", s, marker)
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, body, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unrecognised date %q", s, body)
}

// offsetZone turns "+0200" into a fixed zone two hours east of UTC.
func offsetZone(offset string) (*time.Location, error) {
	hours, err := strconv.Atoi(offset[1:3])
	if err != nil {
		return nil, err
	}
	minutes, err := strconv.Atoi(offset[3:5])
	if err != nil {
		return nil, err
	}
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("offset %s out of range", offset)
	}
	secs := hours*3600 + minutes*60
	if offset[0] == '-' {
		secs = -secs
	}
	return time.FixedZone("GMT"+offset, secs), nil
}
