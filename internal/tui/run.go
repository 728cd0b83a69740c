package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/belphemur/shop-timeline/internal/board"
	"github.com/belphemur/shop-timeline/internal/signals"
)

// listenerKey identifies the signal handlers of the terminal host
const listenerKey = "tui"

// Run shows the grid until the user quits or ctx is cancelled
func Run(ctx context.Context, b *board.Board, opts Options) error {
	m := New(ctx, b, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	signals.OnWorkOrderSaved(func(_ context.Context, data signals.WorkOrderSavedData) {
		p.Send(orderSavedMsg{order: data.Order})
	}, listenerKey)
	signals.OnWorkOrderDeleted(func(_ context.Context, data signals.WorkOrderDeletedData) {
		p.Send(orderDeletedMsg{orderID: data.OrderID})
	}, listenerKey)
	signals.OnBoardReloaded(func(_ context.Context, data signals.BoardReloadedData) {
		p.Send(boardReloadedMsg{centers: data.WorkCenters, orders: data.WorkOrders})
	}, listenerKey)
	defer signals.RemoveListeners(listenerKey)

	m.logger.Info().Int("work_centers", b.Len()).Msg("Starting terminal timeline")
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal timeline failed: %w", err)
	}
	return nil
}
