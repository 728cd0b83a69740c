// Package tui is a terminal host for the timeline grid. One terminal cell
// stands for ColumnWidth/ColumnCells pixels of the grid.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/belphemur/shop-timeline/internal/board"
	"github.com/belphemur/shop-timeline/internal/config"
	"github.com/belphemur/shop-timeline/internal/logging"
	"github.com/belphemur/shop-timeline/internal/timeline"
	"github.com/belphemur/shop-timeline/internal/viewport"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

const (
	// DefaultColumnCells is the width of one time unit in terminal cells
	DefaultColumnCells = 12
	// chromeLines is the title, the timescale header and the footer
	chromeLines = 3
)

// Options configures the terminal host
type Options struct {
	Settings    viewport.Settings
	Scale       timeline.Scale
	Layout      config.TimelineConfig
	ColumnCells int
	Now         func() time.Time
}

type (
	orderSavedMsg    struct{ order workorder.WorkOrder }
	orderDeletedMsg  struct{ orderID string }
	boardReloadedMsg struct{ centers, orders int }
	rowsLoadedMsg    struct{ err error }
)

// Model is the bubbletea model of the grid
type Model struct {
	ctx   context.Context
	opts  Options
	board *board.Board

	ctrl    *viewport.Controller
	scroll  *scrollContainer
	frames  *frameQueue
	actions *boardActions

	width, height int
	mounted       bool

	firstRow   int
	cursorRow  int
	cursorDate time.Time

	status string
	logger zerolog.Logger
}

// New builds the model. The board must already be loaded.
func New(ctx context.Context, b *board.Board, opts Options) *Model {
	if opts.ColumnCells <= 0 {
		opts.ColumnCells = DefaultColumnCells
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if !opts.Scale.IsSupported() {
		opts.Scale = timeline.ScaleMonth
	}

	m := &Model{
		ctx:     ctx,
		opts:    opts,
		board:   b,
		scroll:  &scrollContainer{},
		frames:  &frameQueue{},
		actions: &boardActions{ctx: ctx, board: b},
		logger:  logging.GetLogger("tui"),
	}
	m.ctrl = viewport.NewController(opts.Settings, m.scroll, m.frames, m.actions)
	return m
}

// Controller exposes the viewport controller driven by this host
func (m *Model) Controller() *viewport.Controller {
	return m.ctrl
}

func (m *Model) Init() tea.Cmd {
	return nil
}

// pxPerCell is how many grid pixels one terminal cell covers
func (m *Model) pxPerCell() float64 {
	return float64(m.opts.Settings.Mapper.ColumnWidth) / float64(m.opts.ColumnCells)
}

// leftCells is the width of the work-center column, following the panel toggle
func (m *Model) leftCells() int {
	widthPx := int(float64(m.width) * m.pxPerCell())
	cells := int(float64(m.opts.Layout.LeftPanelWidthFor(widthPx)) / m.pxPerCell())
	return min(max(cells, 8), m.width/2)
}

func (m *Model) gridCells() int {
	return max(0, m.width-m.leftCells())
}

func (m *Model) visibleRows() int {
	return max(1, m.height-chromeLines)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		cmds = append(cmds, m.handleResize(msg))
	case frameMsg:
		m.frames.run()
	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	case actionDoneMsg:
		if msg.err != nil {
			m.status = describeError(msg.err)
			m.logger.Warn().Err(msg.err).Msg("Board action failed")
		} else {
			m.status = msg.status
		}
	case rowsLoadedMsg:
		if msg.err != nil {
			m.status = "Failed to load work centers"
			m.logger.Error().Err(msg.err).Msg("Failed to page in rows")
		}
	case orderSavedMsg:
		cmds = append(cmds, m.focusOrder(msg.order))
	case orderDeletedMsg:
		m.logger.Debug().Str("work_order_id", msg.orderID).Msg("Order removed from grid")
	case boardReloadedMsg:
		m.cursorRow = min(m.cursorRow, max(0, m.board.Len()-1))
		cmds = append(cmds, m.syncRows(true))
		m.status = "Board reloaded"
	}

	cmds = append(cmds, m.actions.drain()...)
	cmds = append(cmds, m.frames.tick())
	return m, tea.Batch(cmds...)
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) tea.Cmd {
	m.width, m.height = msg.Width, msg.Height
	m.scroll.width = float64(m.gridCells()) * m.pxPerCell()

	if !m.mounted {
		m.mounted = true
		now := m.opts.Now()
		m.cursorDate = now
		m.ctrl.Mount(now, m.opts.Scale)
		return m.syncRows(true)
	}
	m.ctrl.OnScroll()
	return m.syncRows(true)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return nil, true
	case "left", "h":
		m.moveCursor(-1)
	case "right", "l":
		m.moveCursor(1)
	case "shift+left", "H":
		m.moveCursor(-max(1, m.gridCells()/m.opts.ColumnCells))
	case "shift+right", "L":
		m.moveCursor(max(1, m.gridCells()/m.opts.ColumnCells))
	case "up", "k":
		m.cursorRow = max(0, m.cursorRow-1)
		return m.syncRows(false), false
	case "down", "j":
		m.cursorRow = min(max(0, m.board.Len()-1), m.cursorRow+1)
		return m.syncRows(false), false
	case "d":
		m.switchScale(timeline.ScaleDay)
	case "w":
		m.switchScale(timeline.ScaleWeek)
	case "m":
		m.switchScale(timeline.ScaleMonth)
	case "t":
		now := m.opts.Now()
		m.cursorDate = now
		m.ctrl.FocusDate(now)
	case "n":
		if _, ok := m.orderUnderCursor(); ok {
			m.status = "Cell is not empty"
			break
		}
		m.ctrl.ActivateCell(m.board, m.cursorRow, m.cursorColumn())
	case "e", "enter":
		if order, ok := m.orderUnderCursor(); ok {
			m.ctrl.EditOrder(m.board, m.cursorRow, order.ID)
		} else if msg.String() == "enter" {
			m.ctrl.ActivateCell(m.board, m.cursorRow, m.cursorColumn())
		}
	case "x", "delete":
		if order, ok := m.orderUnderCursor(); ok {
			m.ctrl.DeleteOrder(m.board, m.cursorRow, order.ID)
		}
	}
	return nil, false
}

// switchScale keeps the date at the left edge in place, with the cursor on it
func (m *Model) switchScale(scale timeline.Scale) {
	if scale == m.ctrl.State().Scale {
		return
	}
	m.cursorDate = m.ctrl.DateAtOffset(m.scroll.offset)
	if err := m.ctrl.SetScale(scale); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
}

// cursorColumn is the 1-based unit column of the cursor date
func (m *Model) cursorColumn() int {
	units := m.ctrl.Units()
	if len(units) == 0 {
		return 0
	}
	if index, _, ok := timeline.LocateDate(m.cursorDate, units); ok {
		return index + 1
	}
	if m.cursorDate.Before(units[0].Start) {
		return 1
	}
	return len(units)
}

func (m *Model) moveCursor(delta int) {
	units := m.ctrl.Units()
	if len(units) == 0 {
		return
	}
	col := min(max(m.cursorColumn()+delta, 1), len(units))
	m.cursorDate = units[col-1].Start

	width := float64(m.opts.Settings.Mapper.ColumnWidth)
	left, right := float64(col-1)*width, float64(col)*width
	offset := m.scroll.offset
	switch {
	case left < offset:
		offset = left
	case right > offset+m.scroll.width:
		offset = right - m.scroll.width
	default:
		return
	}
	m.scroll.SetScrollOffset(offset)
	m.ctrl.OnScroll()
}

// syncRows keeps the cursor row on screen, reports the rendered window and
// pages its rows in
func (m *Model) syncRows(force bool) tea.Cmd {
	visible := m.visibleRows()
	first := m.firstRow
	if m.cursorRow < first {
		first = m.cursorRow
	} else if m.cursorRow >= first+visible {
		first = m.cursorRow - visible + 1
	}
	if first == m.firstRow && !force {
		return nil
	}
	m.firstRow = first
	end := min(first+visible, m.board.Len())
	m.ctrl.SetRenderedRange(first, end)

	b, ctx := m.board, m.ctx
	return func() tea.Msg {
		return rowsLoadedMsg{err: b.EnsureRange(ctx, first, end)}
	}
}

func (m *Model) orderUnderCursor() (workorder.WorkOrder, bool) {
	units := m.ctrl.Units()
	col := m.cursorColumn()
	row, ok := m.board.Row(m.cursorRow)
	if !ok || col < 1 {
		return workorder.WorkOrder{}, false
	}
	unit := units[col-1]
	for _, order := range row.Orders {
		if timeline.Overlaps(order.StartDate, order.EndDate, unit.Start, unit.End) {
			return order, true
		}
	}
	return workorder.WorkOrder{}, false
}

// focusOrder scrolls to a saved order and moves the cursor onto it
func (m *Model) focusOrder(order workorder.WorkOrder) tea.Cmd {
	if !m.mounted {
		return nil
	}
	if i := m.board.IndexOf(order.WorkCenterID); i >= 0 {
		m.cursorRow = i
	}
	m.cursorDate = order.StartDate
	m.ctrl.FocusDate(order.StartDate)
	return m.syncRows(false)
}

func describeError(err error) string {
	switch {
	case errors.Is(err, workorder.ErrOverlap):
		return "Overlaps another order on this work center"
	case errors.Is(err, workorder.ErrNotFound):
		return "Order no longer exists"
	default:
		return err.Error()
	}
}
