package viewport

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/belphemur/shop-timeline/internal/board"
	"github.com/belphemur/shop-timeline/internal/logging"
	"github.com/belphemur/shop-timeline/internal/timeline"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

// ScrollContainer is the host element that scrolls horizontally
type ScrollContainer interface {
	ScrollOffset() float64
	SetScrollOffset(offset float64)
	ViewportWidth() float64
}

// FrameScheduler runs fn once on the next paint
type FrameScheduler interface {
	RequestFrame(fn func())
}

// Host receives the user actions the grid cannot handle itself
type Host interface {
	CreateOrderAt(workCenter workorder.WorkCenter, start time.Time)
	EditOrder(workCenter workorder.WorkCenter, order workorder.WorkOrder)
	DeleteOrder(order workorder.WorkOrder)
}

// Controller owns the State of one mounted grid. It is not safe for
// concurrent use: every method must be called from the host's UI loop.
type Controller struct {
	settings Settings
	state    State

	scroll ScrollContainer
	frames FrameScheduler
	host   Host

	pending        map[string]Event
	frameRequested bool

	positions positionsMemo
	logger    zerolog.Logger
}

// NewController binds a controller to its host capabilities. host may be nil.
func NewController(settings Settings, scroll ScrollContainer, frames FrameScheduler, host Host) *Controller {
	return &Controller{
		settings: settings,
		scroll:   scroll,
		frames:   frames,
		host:     host,
		pending:  make(map[string]Event),
		logger:   logging.GetLogger("viewport"),
	}
}

// State returns the current state
func (c *Controller) State() State {
	return c.state
}

// Settings returns the settings the controller was built with
func (c *Controller) Settings() Settings {
	return c.settings
}

// Units is the current header
func (c *Controller) Units() []timeline.TimeUnit {
	return c.state.Units
}

// Dispatch reduces event and applies the resulting effects
func (c *Controller) Dispatch(event Event) {
	before := c.state
	next, effects := Reduce(c.settings, c.state, event)
	c.state = next

	if next.UnitsVersion != before.UnitsVersion {
		c.logger.Debug().
			Str("event", event.frameKey()).
			Str("scale", next.Scale.String()).
			Time("range_start", next.Range.Start).
			Time("range_end", next.Range.End).
			Int("units", len(next.Units)).
			Msg("Time units regenerated")
	}

	for _, effect := range effects {
		switch e := effect.(type) {
		case ScrollTo:
			c.scroll.SetScrollOffset(e.Offset)
		case NextFrame:
			c.pending[e.Event.frameKey()] = e.Event
			c.requestFrame()
		}
	}
}

func (c *Controller) requestFrame() {
	if c.frameRequested {
		return
	}
	c.frameRequested = true
	c.frames.RequestFrame(c.runFrame)
}

// runFrame delivers the events queued for this frame. Events queued while
// delivering wait for the following frame.
func (c *Controller) runFrame() {
	c.frameRequested = false
	queued := c.pending
	c.pending = make(map[string]Event)

	for _, key := range frameOrder {
		if ev, ok := queued[key]; ok {
			c.Dispatch(ev)
		}
	}
}

// Mount initialises the grid around now
func (c *Controller) Mount(now time.Time, scale timeline.Scale) {
	c.logger.Info().Str("scale", scale.String()).Time("now", now).Msg("Mounting timeline")
	c.Dispatch(Mounted{Now: now, Scale: scale})
}

// SetRenderedRange forwards the host's row window
func (c *Controller) SetRenderedRange(start, end int) {
	c.Dispatch(RowsRendered{Range: RowRange{Start: start, End: end}})
}

// OnScroll polls the container after a scroll event
func (c *Controller) OnScroll() {
	c.Dispatch(Scrolled{Offset: c.scroll.ScrollOffset(), ViewportWidth: c.scroll.ViewportWidth()})
}

// SetScale switches the zoom level, keeping the date at the left edge in view
func (c *Controller) SetScale(scale timeline.Scale) error {
	if !scale.IsSupported() {
		return timeline.ErrUnsupportedScale
	}
	if scale != c.state.Scale {
		c.logger.Debug().Str("from", c.state.Scale.String()).Str("to", scale.String()).Msg("Switching scale")
	}
	c.Dispatch(ScaleChanged{Scale: scale})
	return nil
}

// FocusDate scrolls so that date sits at the left edge
func (c *Controller) FocusDate(date time.Time) {
	c.Dispatch(FocusDate{Date: date})
}

// DateAtOffset resolves the date under a pixel offset of the current grid
func (c *Controller) DateAtOffset(offset float64) time.Time {
	return DateAtOffset(c.settings, c.state, offset)
}

// CurrentUnitColumn is the 1-based column containing now, or -1
func (c *Controller) CurrentUnitColumn(now time.Time) int {
	return timeline.CurrentUnitColumn(now, c.state.Units)
}

// CurrentUnitLabel names the current-unit marker, empty when now is off grid
func (c *Controller) CurrentUnitLabel(now time.Time) string {
	return timeline.CurrentUnitLabel(now, c.state.Units)
}

// PositionedOrdersByRow places the orders of the rendered rows, keyed by work
// center id. The result is cached until the units, the rendered window or the
// rows change.
func (c *Controller) PositionedOrdersByRow(rows board.RowSource) map[string][]workorder.PositionedOrder {
	return c.positions.get(c.settings.Mapper, c.state, rows)
}

// ActivateCell handles a click on an empty cell: column is 1-based
func (c *Controller) ActivateCell(rows board.RowSource, rowIndex, column int) bool {
	if c.host == nil || column < 1 || column > len(c.state.Units) {
		return false
	}
	wc, ok := rows.Row(rowIndex)
	if !ok {
		return false
	}
	c.host.CreateOrderAt(wc, c.state.Units[column-1].Start)
	return true
}

// EditOrder forwards an edit request for an order on a row
func (c *Controller) EditOrder(rows board.RowSource, rowIndex int, orderID string) bool {
	wc, order, ok := findOrder(rows, rowIndex, orderID)
	if !ok || c.host == nil {
		return false
	}
	c.host.EditOrder(wc, order)
	return true
}

// DeleteOrder forwards a delete request for an order on a row
func (c *Controller) DeleteOrder(rows board.RowSource, rowIndex int, orderID string) bool {
	_, order, ok := findOrder(rows, rowIndex, orderID)
	if !ok || c.host == nil {
		return false
	}
	c.host.DeleteOrder(order)
	return true
}

func findOrder(rows board.RowSource, rowIndex int, orderID string) (workorder.WorkCenter, workorder.WorkOrder, bool) {
	wc, ok := rows.Row(rowIndex)
	if !ok {
		return wc, workorder.WorkOrder{}, false
	}
	for _, o := range wc.Orders {
		if o.ID == orderID {
			return wc, o, true
		}
	}
	return wc, workorder.WorkOrder{}, false
}
