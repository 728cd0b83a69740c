package viewport

import (
	"math"
	"time"

	"github.com/belphemur/shop-timeline/internal/timeline"
)

// Reduce applies one event to state. It never mutates its input and performs
// no I/O: scrolling and frame scheduling are returned as effects.
func Reduce(settings Settings, state State, event Event) (State, []Effect) {
	switch ev := event.(type) {
	case Mounted:
		return mount(settings, ev)
	case RowsRendered:
		return rowsRendered(state, ev)
	case Scrolled:
		return scrolled(state, ev)
	case ScaleChanged:
		return scaleChanged(settings, state, ev)
	case FocusDate:
		return focusDate(settings, state, ev)
	case initialScroll:
		return scrollToToday(settings, state)
	case initDone:
		state.Initializing = false
		return state, nil
	case expandEdges:
		return expand(settings, state)
	case restoreAnchor:
		return restore(settings, state)
	}
	return state, nil
}

func mount(settings Settings, ev Mounted) (State, []Effect) {
	scale := ev.Scale
	if !scale.IsSupported() {
		scale = timeline.ScaleMonth
	}
	state := State{
		Scale:        scale,
		Now:          ev.Now,
		Anchor:       ev.Now,
		Mounted:      true,
		Initializing: true,
	}
	state = state.withRange(settings, settings.Policy.ComputeRange(scale, ev.Now))
	state.PreviousScale = state.Scale
	state.PreviousRange = state.Range
	return state, nil
}

// rowsRendered records the row window. The first report during
// initialisation schedules the scroll to today once the rows are painted.
func rowsRendered(state State, ev RowsRendered) (State, []Effect) {
	state.Rendered = ev.Range
	if !state.Mounted || !state.Initializing || state.InitialScrollScheduled {
		return state, nil
	}
	state.InitialScrollScheduled = true
	return state, []Effect{NextFrame{Event: initialScroll{}}}
}

func scrollToToday(settings Settings, state State) (State, []Effect) {
	effects := []Effect{NextFrame{Event: initDone{}}}

	index, _, ok := timeline.LocateDate(state.Now, state.Units)
	if !ok {
		return state, effects
	}
	// keep one column of context left of today
	offset := math.Max(0, float64(index-1)*settings.columnWidth())
	state.ScrollOffset = offset
	state.Anchor = state.Now
	return state, append([]Effect{ScrollTo{Offset: offset}}, effects...)
}

// scrolled stores the offset and, once per frame, schedules an edge check
func scrolled(state State, ev Scrolled) (State, []Effect) {
	state.ScrollOffset = ev.Offset
	if ev.ViewportWidth > 0 {
		state.ViewportWidth = ev.ViewportWidth
	}
	if !state.Mounted || state.Initializing || state.EdgeCheckPending {
		return state, nil
	}
	state.EdgeCheckPending = true
	return state, []Effect{NextFrame{Event: expandEdges{}}}
}

// NearLeftEdge reports whether the offset is within the edge threshold of the first column
func NearLeftEdge(settings Settings, state State) bool {
	return state.ScrollOffset < float64(settings.EdgeThresholdColumns)*settings.columnWidth()
}

// NearRightEdge reports whether the visible area ends within the edge threshold of the last column
func NearRightEdge(settings Settings, state State) bool {
	limit := state.ContentWidth(settings) - state.ViewportWidth - float64(settings.EdgeThresholdColumns)*settings.columnWidth()
	return state.ScrollOffset > limit
}

// expand runs the throttled edge check against the latest offset
func expand(settings Settings, state State) (State, []Effect) {
	state.EdgeCheckPending = false
	if state.Initializing || len(state.Units) == 0 {
		return state, nil
	}

	n := settings.Policy.ExpansionUnits(state.Scale)
	if n <= 0 {
		return state, nil
	}

	switch {
	case NearLeftEdge(settings, state):
		before := len(state.Units)
		state = state.withRange(settings, settings.Policy.ExtendStart(state.Scale, state.Range, n))
		// the new columns are inserted before the viewport, shift it by their width
		added := len(state.Units) - before
		state.ScrollOffset += float64(added) * settings.columnWidth()
		return state, []Effect{ScrollTo{Offset: state.ScrollOffset}}
	case NearRightEdge(settings, state):
		state = state.withRange(settings, settings.Policy.ExtendEnd(state.Scale, state.Range, n))
		return state, nil
	}
	return state, nil
}

// scaleChanged captures the date at the current offset under the old scale,
// rebuilds the range around it and restores it on the next frame
func scaleChanged(settings Settings, state State, ev ScaleChanged) (State, []Effect) {
	if !ev.Scale.IsSupported() || ev.Scale == state.Scale || !state.Mounted {
		return state, nil
	}

	state.PreviousScale = state.Scale
	state.PreviousRange = state.Range
	state.Scale = ev.Scale

	if state.Initializing {
		// the pending scroll to today runs against the new units
		return state.withRange(settings, settings.Policy.ComputeRange(ev.Scale, state.Now)), nil
	}

	state.Anchor = settings.Mapper.ResolveDateAtOffset(state.ScrollOffset, state.PreviousScale, state.PreviousRange)
	state = state.withRange(settings, settings.Policy.ComputeRange(ev.Scale, state.Anchor))
	return state, []Effect{NextFrame{Event: restoreAnchor{}}}
}

// focusDate scrolls to a date, recentring the range when it is not materialised
func focusDate(settings Settings, state State, ev FocusDate) (State, []Effect) {
	if !state.Mounted {
		return state, nil
	}
	state.Anchor = ev.Date
	if _, _, ok := timeline.LocateDate(ev.Date, state.Units); !ok {
		state = state.withRange(settings, settings.Policy.ComputeRange(state.Scale, ev.Date))
	}
	return state, []Effect{NextFrame{Event: restoreAnchor{}}}
}

// restore puts the anchor back at the same fractional column. A miss leaves the scroll alone.
func restore(settings Settings, state State) (State, []Effect) {
	offset, ok := settings.Mapper.OffsetForDate(state.Anchor, state.Units)
	if !ok {
		return state, nil
	}
	state.ScrollOffset = offset
	return state, []Effect{ScrollTo{Offset: offset}}
}

// DateAtOffset is the date under a horizontal offset in the current state
func DateAtOffset(settings Settings, state State, offset float64) time.Time {
	return settings.Mapper.ResolveDateAtOffset(offset, state.Scale, state.Range)
}
