package viewport

import (
	"time"

	"github.com/belphemur/shop-timeline/internal/timeline"
)

// Event is an input of Reduce
type Event interface {
	frameKey() string
}

// Mounted starts the grid around Now at Scale
type Mounted struct {
	Now   time.Time
	Scale timeline.Scale
}

// RowsRendered reports the row window the host virtualisation has drawn
type RowsRendered struct {
	Range RowRange
}

// Scrolled reports the latest horizontal offset of the container
type Scrolled struct {
	Offset        float64
	ViewportWidth float64
}

// ScaleChanged is a new zoom level picked by the user
type ScaleChanged struct {
	Scale timeline.Scale
}

// FocusDate asks the grid to bring Date to the left edge, e.g. after an order was saved
type FocusDate struct {
	Date time.Time
}

// frame events, delivered by the controller on the next paint
type (
	initialScroll struct{}
	initDone      struct{}
	expandEdges   struct{}
	restoreAnchor struct{}
)

func (Mounted) frameKey() string       { return "mounted" }
func (RowsRendered) frameKey() string  { return "rows-rendered" }
func (Scrolled) frameKey() string      { return "scrolled" }
func (ScaleChanged) frameKey() string  { return "scale-changed" }
func (FocusDate) frameKey() string     { return "focus-date" }
func (initialScroll) frameKey() string { return "initial-scroll" }
func (initDone) frameKey() string      { return "init-done" }
func (expandEdges) frameKey() string   { return "expand-edges" }
func (restoreAnchor) frameKey() string { return "restore-anchor" }

// frameOrder is the delivery order of events queued for the same frame
var frameOrder = []string{"initial-scroll", "init-done", "expand-edges", "restore-anchor"}

// Effect is an instruction for the host produced by Reduce
type Effect interface {
	isEffect()
}

// ScrollTo sets the container's horizontal offset now
type ScrollTo struct {
	Offset float64
}

// NextFrame delivers Event on the next paint. A later NextFrame for the same
// kind of event replaces an earlier one.
type NextFrame struct {
	Event Event
}

func (ScrollTo) isEffect()  {}
func (NextFrame) isEffect() {}
