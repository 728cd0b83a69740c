package timeline

import (
	"math"
	"sort"
	"time"
)

const (
	DefaultColumnWidth = 113
	DefaultMinBarWidth = 60
)

// Position places an interval on the grid. Columns are 1-based and
// ColumnEnd is exclusive. Insets are pixels trimmed from the first and last column.
type Position struct {
	ColumnStart int `json:"columnStart"`
	ColumnEnd   int `json:"columnEnd"`
	LeftInset   int `json:"leftInset"`
	RightInset  int `json:"rightInset"`
}

// Span returns the number of columns covered
func (p Position) Span() int {
	return p.ColumnEnd - p.ColumnStart
}

// VisibleWidth is the bar width after both insets for the given column width
func (p Position) VisibleWidth(columnWidth int) int {
	return p.Span()*columnWidth - p.LeftInset - p.RightInset
}

// Mapper converts between instants and grid pixels
type Mapper struct {
	ColumnWidth int
	MinBarWidth int
}

// DefaultMapper uses a 113px column and a 60px minimum bar
func DefaultMapper() Mapper {
	return Mapper{ColumnWidth: DefaultColumnWidth, MinBarWidth: DefaultMinBarWidth}
}

// Overlaps is the visual inclusion test: touching endpoints do not overlap.
// Scheduling conflicts use workorder.Conflicts instead.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// fraction returns part/whole, or 0 for an empty whole
func fraction(part, whole time.Duration) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func clampTime(t, lo, hi time.Time) time.Time {
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}

// ComputePosition places [start, end) on units. It returns false when no unit
// overlaps the interval. Units must be contiguous and ascending.
//
// A bar narrower than MinBarWidth after insets gets its right inset reduced
// (never the left) so short orders stay clickable.
func (m Mapper) ComputePosition(start, end time.Time, units []TimeUnit) (Position, bool) {
	n := len(units)
	first := sort.Search(n, func(i int) bool { return units[i].End.After(start) })
	if first >= n || !Overlaps(start, end, units[first].Start, units[first].End) {
		return Position{}, false
	}

	// last unit whose start is not after the interval end
	last := sort.Search(n, func(i int) bool { return units[i].Start.After(end) }) - 1
	if last < first {
		last = first
	}

	firstUnit := units[first]
	lastUnit := units[last]
	width := float64(m.ColumnWidth)

	clampedStart := clampTime(start, firstUnit.Start, firstUnit.End)
	left := int(math.Round(fraction(clampedStart.Sub(firstUnit.Start), firstUnit.Duration()) * width))

	clampedEnd := clampTime(end, lastUnit.Start, lastUnit.End)
	right := int(math.Round(fraction(lastUnit.End.Sub(clampedEnd), lastUnit.Duration()) * width))

	pos := Position{
		ColumnStart: first + 1,
		ColumnEnd:   last + 2,
		LeftInset:   left,
		RightInset:  right,
	}

	if m.MinBarWidth > 0 && pos.VisibleWidth(m.ColumnWidth) < m.MinBarWidth {
		pos.RightInset = max(0, pos.Span()*m.ColumnWidth-pos.LeftInset-m.MinBarWidth)
	}
	return pos, true
}
