package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/belphemur/shop-timeline/internal/board"
	"github.com/belphemur/shop-timeline/internal/constants"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

// frameInterval is one paint of a 60Hz display
const frameInterval = 16 * time.Millisecond

type frameMsg struct{}

// scrollContainer is the horizontal scroll state of the grid, in pixels
type scrollContainer struct {
	offset float64
	width  float64
}

func (s *scrollContainer) ScrollOffset() float64 { return s.offset }

func (s *scrollContainer) SetScrollOffset(offset float64) { s.offset = max(0, offset) }

func (s *scrollContainer) ViewportWidth() float64 { return s.width }

// frameQueue collects next-frame callbacks until the frame tick arrives
type frameQueue struct {
	fns     []func()
	ticking bool
}

func (q *frameQueue) RequestFrame(fn func()) {
	q.fns = append(q.fns, fn)
}

// tick returns the command delivering the next frame, or nil when nothing waits
func (q *frameQueue) tick() tea.Cmd {
	if q.ticking || len(q.fns) == 0 {
		return nil
	}
	q.ticking = true
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return frameMsg{} })
}

// run delivers the queued callbacks. Callbacks queued meanwhile wait for the next tick.
func (q *frameQueue) run() {
	q.ticking = false
	fns := q.fns
	q.fns = nil
	for _, fn := range fns {
		fn()
	}
}

// actionDoneMsg reports the outcome of a board command
type actionDoneMsg struct {
	status string
	err    error
}

// boardActions turns grid activations into board commands run off the UI loop
type boardActions struct {
	ctx   context.Context
	board *board.Board
	cmds  []tea.Cmd
}

func (a *boardActions) CreateOrderAt(wc workorder.WorkCenter, start time.Time) {
	draft := workorder.NewDraft(wc.ID, start)
	draft.Name = fmt.Sprintf("%s #%d", wc.Name, len(wc.Orders)+1)
	a.cmds = append(a.cmds, func() tea.Msg {
		saved, err := a.board.CreateOrder(a.ctx, draft)
		if err != nil {
			return actionDoneMsg{err: fmt.Errorf("create on %s: %w", wc.Name, err)}
		}
		return actionDoneMsg{status: fmt.Sprintf("Created %q", saved.Name)}
	})
}

// EditOrder advances the order to the next status
func (a *boardActions) EditOrder(_ workorder.WorkCenter, order workorder.WorkOrder) {
	order.Status = nextStatus(order.Status)
	a.cmds = append(a.cmds, func() tea.Msg {
		if _, err := a.board.UpdateOrder(a.ctx, order); err != nil {
			return actionDoneMsg{err: fmt.Errorf("edit %q: %w", order.Name, err)}
		}
		return actionDoneMsg{status: fmt.Sprintf("%q is now %s", order.Name, order.Status.Label())}
	})
}

func (a *boardActions) DeleteOrder(order workorder.WorkOrder) {
	a.cmds = append(a.cmds, func() tea.Msg {
		if err := a.board.DeleteOrder(a.ctx, order.ID); err != nil {
			return actionDoneMsg{err: fmt.Errorf("delete %q: %w", order.Name, err)}
		}
		return actionDoneMsg{status: fmt.Sprintf("Deleted %q", order.Name)}
	})
}

// drain hands over the commands queued since the last call
func (a *boardActions) drain() []tea.Cmd {
	cmds := a.cmds
	a.cmds = nil
	return cmds
}

func nextStatus(s constants.WorkOrderStatus) constants.WorkOrderStatus {
	all := constants.GetAllWorkOrderStatuses()
	for i, status := range all {
		if status == s {
			return all[(i+1)%len(all)]
		}
	}
	return constants.StatusOpen
}
