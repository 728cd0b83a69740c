// Package timeline holds the calendar arithmetic behind the scheduling grid:
// bucketed date ranges, the time units drawn as columns, and the mapping
// between instants and horizontal pixel offsets.
package timeline

import (
	"errors"
	"fmt"
	"strings"
)

// Scale is the zoom level of the grid
type Scale string

const (
	ScaleDay   Scale = "Day"
	ScaleWeek  Scale = "Week"
	ScaleMonth Scale = "Month"
	// ScaleHour exists in the shared model but has no bucket arithmetic.
	ScaleHour Scale = "Hour"
)

// UnitKind is the granularity of a single column
type UnitKind string

const (
	KindDay   UnitKind = "day"
	KindWeek  UnitKind = "week"
	KindMonth UnitKind = "month"
)

// ErrUnsupportedScale is returned when a scale has no bucket arithmetic
var ErrUnsupportedScale = errors.New("unsupported timescale")

// ParseScale accepts "day", "Week", "MONTH" etc. Hour and unknown values are rejected.
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day":
		return ScaleDay, nil
	case "week":
		return ScaleWeek, nil
	case "month":
		return ScaleMonth, nil
	case "hour":
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScale, ScaleHour)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScale, s)
	}
}

// IsSupported reports whether the grid can render this scale
func (s Scale) IsSupported() bool {
	return s == ScaleDay || s == ScaleWeek || s == ScaleMonth
}

// Kind returns the column granularity. Unknown scales fall back to months.
func (s Scale) Kind() UnitKind {
	switch s {
	case ScaleDay:
		return KindDay
	case ScaleWeek:
		return KindWeek
	default:
		return KindMonth
	}
}

func (s Scale) String() string {
	return string(s)
}

// SupportedScales lists the scales offered to the user, finest first
func SupportedScales() []Scale {
	return []Scale{ScaleDay, ScaleWeek, ScaleMonth}
}
