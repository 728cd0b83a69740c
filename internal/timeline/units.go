package timeline

import (
	"fmt"
	"time"
)

// TimeUnit is one column of the grid. Units are half-open: [Start, End).
type TimeUnit struct {
	ID    int64     `json:"id"` // Start in unix milliseconds, unique and ascending
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Kind  UnitKind  `json:"kind"`
}

// Duration returns the length of the unit
func (u TimeUnit) Duration() time.Duration {
	return u.End.Sub(u.Start)
}

// Contains reports whether t falls inside [Start, End)
func (u TimeUnit) Contains(t time.Time) bool {
	return !t.Before(u.Start) && t.Before(u.End)
}

// midnight truncates t to the start of its calendar day in t's own location
func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// bucketStart returns the start of the bucket containing t, computed in t's location.
// Weeks start on Sunday.
func bucketStart(kind UnitKind, t time.Time) time.Time {
	switch kind {
	case KindMonth:
		y, m, _ := t.Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	case KindWeek:
		day := midnight(t)
		return day.AddDate(0, 0, -int(day.Weekday()))
	default:
		return midnight(t)
	}
}

// addBuckets moves a bucket-aligned instant by n buckets
func addBuckets(kind UnitKind, start time.Time, n int) time.Time {
	switch kind {
	case KindMonth:
		return start.AddDate(0, n, 0)
	case KindWeek:
		return start.AddDate(0, 0, 7*n)
	default:
		return start.AddDate(0, 0, n)
	}
}

// BucketAt returns the boundaries of the index-th bucket counted from the bucket
// containing origin. GenerateUnits and ResolveDateAtOffset both go through here
// so a column index always maps to the same instants.
func BucketAt(scale Scale, origin time.Time, index int) (start, end time.Time) {
	kind := scale.Kind()
	first := bucketStart(kind, origin)
	start = addBuckets(kind, first, index)
	end = addBuckets(kind, first, index+1)
	return start, end
}

// GenerateUnits emits one unit per bucket from the bucket containing rng.Start
// to the bucket containing rng.End, inclusive. An inverted range yields nil.
func GenerateUnits(scale Scale, rng DateRange) []TimeUnit {
	if rng.End.Before(rng.Start) {
		return nil
	}

	kind := scale.Kind()
	origin := bucketStart(kind, rng.Start)
	end := rng.End.In(origin.Location())

	var units []TimeUnit
	for i := 0; ; i++ {
		start, stop := BucketAt(scale, origin, i)
		if start.After(end) {
			break
		}
		units = append(units, TimeUnit{
			ID:    start.UnixMilli(),
			Label: unitLabel(kind, start, stop),
			Start: start,
			End:   stop,
			Kind:  kind,
		})
	}
	return units
}

func unitLabel(kind UnitKind, start, end time.Time) string {
	switch kind {
	case KindMonth:
		return start.Format("Jan 2006")
	case KindWeek:
		last := end.AddDate(0, 0, -1)
		return fmt.Sprintf("%d/%d-%d/%d", int(start.Month()), start.Day(), int(last.Month()), last.Day())
	default:
		return start.Format("Jan 2")
	}
}
