package timeline

import (
	"math"
	"sort"
	"time"
)

// ResolveDateAtOffset returns the instant under a horizontal pixel offset for the
// grid generated from (scale, rng). The column boundaries are rebuilt with
// BucketAt, then interpolated by the fractional position inside the column.
func (m Mapper) ResolveDateAtOffset(offset float64, scale Scale, rng DateRange) time.Time {
	width := float64(m.ColumnWidth)
	if width <= 0 {
		return rng.Start
	}

	column := math.Floor(offset / width)
	frac := (offset - column*width) / width

	start, end := BucketAt(scale, rng.Start, int(column))
	return start.Add(time.Duration(frac * float64(end.Sub(start))))
}

// LocateDate finds the unit containing t and how far into it t lies, in [0, 1)
func LocateDate(t time.Time, units []TimeUnit) (index int, frac float64, ok bool) {
	n := len(units)
	i := sort.Search(n, func(i int) bool { return units[i].End.After(t) })
	if i >= n || !units[i].Contains(t) {
		return -1, 0, false
	}
	u := units[i]
	return i, fraction(t.Sub(u.Start), u.Duration()), true
}

// OffsetForDate is the forward direction of ResolveDateAtOffset: the pixel offset
// at which t is drawn. It returns false when t is outside every unit.
func (m Mapper) OffsetForDate(t time.Time, units []TimeUnit) (float64, bool) {
	index, frac, ok := LocateDate(t, units)
	if !ok {
		return 0, false
	}
	return (float64(index) + frac) * float64(m.ColumnWidth), true
}

// ContentWidth is the total pixel width of the unit sequence
func (m Mapper) ContentWidth(units []TimeUnit) float64 {
	return float64(len(units) * m.ColumnWidth)
}

// CurrentUnitColumn returns the 1-based column containing now, or -1
func CurrentUnitColumn(now time.Time, units []TimeUnit) int {
	index, _, ok := LocateDate(now, units)
	if !ok {
		return -1
	}
	return index + 1
}

// CurrentUnitLabel names the marker drawn on the column containing now
func CurrentUnitLabel(now time.Time, units []TimeUnit) string {
	column := CurrentUnitColumn(now, units)
	if column < 0 {
		return ""
	}
	switch units[column-1].Kind {
	case KindMonth:
		return "Current month"
	case KindWeek:
		return "Current week"
	default:
		return "Current day"
	}
}
