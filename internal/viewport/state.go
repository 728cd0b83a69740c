// Package viewport drives the scrolling timeline grid. Reduce is a pure
// transition function over State; Controller binds it to a host scroll
// container and frame scheduler.
package viewport

import (
	"time"

	"github.com/belphemur/shop-timeline/internal/timeline"
)

// DefaultEdgeThresholdColumns is how close to an edge, in columns, a scroll must get to expand the range
const DefaultEdgeThresholdColumns = 8

// Settings are the fixed inputs of the reducer
type Settings struct {
	Policy               timeline.Policy
	Mapper               timeline.Mapper
	EdgeThresholdColumns int
}

// DefaultSettings returns the stock policy, mapper and edge threshold
func DefaultSettings() Settings {
	return Settings{
		Policy:               timeline.DefaultPolicy(),
		Mapper:               timeline.DefaultMapper(),
		EdgeThresholdColumns: DefaultEdgeThresholdColumns,
	}
}

func (s Settings) columnWidth() float64 {
	return float64(s.Mapper.ColumnWidth)
}

// RowRange is the half-open [Start, End) window of rows the host has rendered
type RowRange struct {
	Start int
	End   int
}

// Len returns the number of rows in the window
func (r RowRange) Len() int {
	return max(0, r.End-r.Start)
}

// State is everything the controller knows about one mounted grid
type State struct {
	Scale         timeline.Scale
	Range         timeline.DateRange
	PreviousScale timeline.Scale
	PreviousRange timeline.DateRange

	Units []timeline.TimeUnit
	// UnitsVersion increases every time Units is regenerated
	UnitsVersion uint64

	// Anchor is the handoff date across scale switches and focus requests
	Anchor   time.Time
	Now      time.Time
	Rendered RowRange

	Mounted                bool
	Initializing           bool
	InitialScrollScheduled bool
	EdgeCheckPending       bool

	ScrollOffset  float64
	ViewportWidth float64
}

// ContentWidth is the pixel width of all current units
func (s State) ContentWidth(settings Settings) float64 {
	return settings.Mapper.ContentWidth(s.Units)
}

// withRange replaces the range and regenerates the units
func (s State) withRange(settings Settings, rng timeline.DateRange) State {
	s.Range = rng
	s.Units = settings.Policy.GenerateUnits(s.Scale, rng)
	s.UnitsVersion++
	return s
}
