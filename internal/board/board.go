// Package board is the row data provider of the timeline: it pages work centers
// in from the store on demand and applies work-order edits.
package board

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/belphemur/shop-timeline/internal/logging"
	"github.com/belphemur/shop-timeline/internal/signals"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

// DefaultPageSize is how many work centers one page load fetches
const DefaultPageSize = 50

// Store is the persistence the board pages from
type Store interface {
	CountWorkCenters(ctx context.Context) (int, error)
	ListWorkCenters(ctx context.Context, offset, limit int) ([]workorder.WorkCenter, error)
	GetWorkOrder(ctx context.Context, id string) (workorder.WorkOrder, error)
	SaveWorkOrder(ctx context.Context, order workorder.WorkOrder, update bool) error
	DeleteWorkOrder(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, centers []workorder.WorkCenter, orders []workorder.WorkOrder) error
}

// RowSource is the read side consumed by the viewport. Version changes
// whenever any row or order changes.
type RowSource interface {
	Len() int
	Row(index int) (workorder.WorkCenter, bool)
	Version() uint64
}

// Board caches the rows of the grid. Rows that were never paged in are
// reported as not loaded.
type Board struct {
	store    Store
	pageSize int
	logger   zerolog.Logger

	mu     sync.RWMutex
	rows   []workorder.WorkCenter
	loaded map[int]bool // page index -> loaded

	version atomic.Uint64
}

// New creates a board over store. A non-positive pageSize uses DefaultPageSize.
func New(store Store, pageSize int) *Board {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Board{
		store:    store,
		pageSize: pageSize,
		logger:   logging.GetLogger("board"),
		loaded:   make(map[int]bool),
	}
}

// Load drops the cache, counts the rows and fetches the first page
func (b *Board) Load(ctx context.Context) error {
	total, err := b.store.CountWorkCenters(ctx)
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}

	b.mu.Lock()
	b.rows = make([]workorder.WorkCenter, total)
	b.loaded = make(map[int]bool)
	b.mu.Unlock()
	b.version.Inc()

	b.logger.Info().Int("work_centers", total).Int("page_size", b.pageSize).Msg("Board loaded")
	return b.EnsureRange(ctx, 0, b.pageSize)
}

// EnsureRange pages in every row of [start, end) that is not cached yet
func (b *Board) EnsureRange(ctx context.Context, start, end int) error {
	b.mu.RLock()
	total := len(b.rows)
	var missing []int
	if start < 0 {
		start = 0
	}
	end = min(end, total)
	for page := start / b.pageSize; page*b.pageSize < end; page++ {
		if !b.loaded[page] {
			missing = append(missing, page)
		}
	}
	b.mu.RUnlock()

	for _, page := range missing {
		if err := b.loadPage(ctx, page); err != nil {
			return err
		}
	}
	return nil
}

func (b *Board) loadPage(ctx context.Context, page int) error {
	offset := page * b.pageSize
	centers, err := b.store.ListWorkCenters(ctx, offset, b.pageSize)
	if err != nil {
		return fmt.Errorf("failed to load page %d: %w", page, err)
	}

	b.mu.Lock()
	for i, wc := range centers {
		if offset+i < len(b.rows) {
			b.rows[offset+i] = wc
		}
	}
	b.loaded[page] = true
	b.mu.Unlock()
	b.version.Inc()

	b.logger.Debug().Int("page", page).Int("rows", len(centers)).Msg("Page loaded")
	return nil
}

// Len is the total number of rows, loaded or not
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.rows)
}

// Row returns a copy of the row at index and whether it has been paged in
func (b *Board) Row(index int) (workorder.WorkCenter, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if index < 0 || index >= len(b.rows) || b.rows[index].ID == "" {
		return workorder.WorkCenter{}, false
	}
	wc := b.rows[index]
	wc.Orders = append([]workorder.WorkOrder(nil), wc.Orders...)
	return wc, true
}

// Rows returns the loaded rows of [start, end)
func (b *Board) Rows(start, end int) []workorder.WorkCenter {
	var rows []workorder.WorkCenter
	for i := max(start, 0); i < end; i++ {
		if wc, ok := b.Row(i); ok {
			rows = append(rows, wc)
		}
	}
	return rows
}

// IndexOf returns the row index of a loaded work center, or -1
func (b *Board) IndexOf(workCenterID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.indexOfLocked(workCenterID)
}

func (b *Board) indexOfLocked(workCenterID string) int {
	for i, wc := range b.rows {
		if wc.ID == workCenterID {
			return i
		}
	}
	return -1
}

// Version increases on every change of the cached rows
func (b *Board) Version() uint64 {
	return b.version.Load()
}

// CreateOrder validates and stores a new order. An empty ID gets a fresh one.
func (b *Board) CreateOrder(ctx context.Context, order workorder.WorkOrder) (workorder.WorkOrder, error) {
	if order.ID == "" {
		order.ID = workorder.NewID()
	}
	if err := order.Validate(); err != nil {
		return order, err
	}
	if err := b.store.SaveWorkOrder(ctx, order, false); err != nil {
		return order, err
	}

	b.applySaved(order)
	signals.EmitWorkOrderSaved(ctx, order, true)
	return order, nil
}

// UpdateOrder validates and stores an edited order. It may move between centers.
func (b *Board) UpdateOrder(ctx context.Context, order workorder.WorkOrder) (workorder.WorkOrder, error) {
	if err := order.Validate(); err != nil {
		return order, err
	}
	if err := b.store.SaveWorkOrder(ctx, order, true); err != nil {
		return order, err
	}

	b.applySaved(order)
	signals.EmitWorkOrderSaved(ctx, order, false)
	return order, nil
}

// DeleteOrder removes an order from the store and the cache
func (b *Board) DeleteOrder(ctx context.Context, id string) error {
	order, err := b.store.GetWorkOrder(ctx, id)
	if err != nil {
		return err
	}
	if err := b.store.DeleteWorkOrder(ctx, id); err != nil {
		return err
	}

	b.mu.Lock()
	b.removeLocked(id)
	b.mu.Unlock()
	b.version.Inc()

	signals.EmitWorkOrderDeleted(ctx, id, order.WorkCenterID)
	return nil
}

// Replace swaps the whole board and reloads it
func (b *Board) Replace(ctx context.Context, centers []workorder.WorkCenter, orders []workorder.WorkOrder) error {
	if err := b.store.ReplaceAll(ctx, centers, orders); err != nil {
		return err
	}
	if err := b.Load(ctx); err != nil {
		return err
	}
	signals.EmitBoardReloaded(ctx, len(centers), len(orders))
	return nil
}

func (b *Board) applySaved(order workorder.WorkOrder) {
	b.mu.Lock()
	b.removeLocked(order.ID)
	if i := b.indexOfLocked(order.WorkCenterID); i >= 0 {
		orders := append(b.rows[i].Orders, order)
		sort.SliceStable(orders, func(x, y int) bool {
			return orders[x].StartDate.Before(orders[y].StartDate)
		})
		b.rows[i].Orders = orders
	}
	b.mu.Unlock()
	b.version.Inc()
}

func (b *Board) removeLocked(orderID string) {
	for i := range b.rows {
		orders := b.rows[i].Orders
		for j := range orders {
			if orders[j].ID == orderID {
				b.rows[i].Orders = append(orders[:j:j], orders[j+1:]...)
				return
			}
		}
	}
}
