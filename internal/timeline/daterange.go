package timeline

import "time"

// rangeEndTick is subtracted from the next bucket start to get an inclusive range end
const rangeEndTick = time.Millisecond

// DateRange is the materialised window of the grid. Start is bucket aligned,
// End is the last instant (xx:59:59.999) of the final bucket.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether Start < End
func (r DateRange) Valid() bool {
	return r.Start.Before(r.End)
}

// Contains reports whether t lies within the range, both ends inclusive
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Buffers is how many buckets the policy materialises on each side of the anchor
type Buffers struct {
	Months int
	Weeks  int
	Days   int
}

// Expansion is how many buckets an edge expansion adds
type Expansion struct {
	Months int
	Weeks  int
	Days   int
}

// Policy computes bucket-aligned date ranges in a single explicit location
type Policy struct {
	Location  *time.Location
	Buffers   Buffers
	Expansion Expansion
}

// DefaultPolicy returns the stock UTC policy: 24 months, 26 weeks or 30 days
// around the anchor, expanding by 6 months, 12 weeks or 60 days.
func DefaultPolicy() Policy {
	return Policy{
		Location:  time.UTC,
		Buffers:   Buffers{Months: 24, Weeks: 26, Days: 30},
		Expansion: Expansion{Months: 6, Weeks: 12, Days: 60},
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// bucketEnd returns the inclusive end of the bucket starting at start
func bucketEnd(kind UnitKind, start time.Time) time.Time {
	return addBuckets(kind, start, 1).Add(-rangeEndTick)
}

// ComputeRange returns the range materialised around anchor for the given scale.
// Any anchor is accepted, no bounds are checked.
func (p Policy) ComputeRange(scale Scale, anchor time.Time) DateRange {
	anchor = anchor.In(p.location())
	day := midnight(anchor)

	switch scale.Kind() {
	case KindMonth:
		first := bucketStart(KindMonth, anchor)
		return DateRange{
			Start: first.AddDate(0, -p.Buffers.Months, 0),
			End:   bucketEnd(KindMonth, first.AddDate(0, p.Buffers.Months, 0)),
		}
	case KindWeek:
		before := day.AddDate(0, 0, -7*p.Buffers.Weeks)
		after := day.AddDate(0, 0, 7*p.Buffers.Weeks)
		return DateRange{
			Start: bucketStart(KindWeek, before),
			End:   bucketEnd(KindWeek, bucketStart(KindWeek, after)),
		}
	default:
		return DateRange{
			Start: day.AddDate(0, 0, -p.Buffers.Days),
			End:   bucketEnd(KindDay, day.AddDate(0, 0, p.Buffers.Days)),
		}
	}
}

// ExpansionUnits returns how many buckets one edge expansion adds at this scale
func (p Policy) ExpansionUnits(scale Scale) int {
	switch scale.Kind() {
	case KindDay:
		return p.Expansion.Days
	case KindWeek:
		return p.Expansion.Weeks
	default:
		return p.Expansion.Months
	}
}

// ExtendStart moves the range start n buckets earlier, keeping the end
func (p Policy) ExtendStart(scale Scale, rng DateRange, n int) DateRange {
	kind := scale.Kind()
	first := bucketStart(kind, rng.Start.In(p.location()))
	return DateRange{Start: addBuckets(kind, first, -n), End: rng.End}
}

// ExtendEnd moves the range end n buckets later, keeping the start
func (p Policy) ExtendEnd(scale Scale, rng DateRange, n int) DateRange {
	kind := scale.Kind()
	last := bucketStart(kind, rng.End.In(p.location()))
	return DateRange{Start: rng.Start, End: bucketEnd(kind, addBuckets(kind, last, n))}
}

// GenerateUnits is GenerateUnits with the range pinned to the policy location
func (p Policy) GenerateUnits(scale Scale, rng DateRange) []TimeUnit {
	loc := p.location()
	return GenerateUnits(scale, DateRange{Start: rng.Start.In(loc), End: rng.End.In(loc)})
}
