package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/belphemur/shop-timeline/internal/constants"
	"github.com/belphemur/shop-timeline/internal/logging"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

// WorkOrderStore persists work centers and their orders
type WorkOrderStore struct {
	db     *DB
	logger zerolog.Logger
}

// NewWorkOrderStore creates a new work order store
func NewWorkOrderStore(db *DB) *WorkOrderStore {
	return &WorkOrderStore{db: db, logger: logging.GetLogger("work-order-store")}
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// CountWorkCenters returns the total number of rows of the grid
func (s *WorkOrderStore) CountWorkCenters(ctx context.Context) (int, error) {
	var count int
	if err := s.db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM work_centers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count work centers: %w", err)
	}
	return count, nil
}

// ListWorkCenters returns one page of work centers in display order, each
// with its orders sorted by start date.
func (s *WorkOrderStore) ListWorkCenters(ctx context.Context, offset, limit int) ([]workorder.WorkCenter, error) {
	s.logger.Debug().Int("offset", offset).Int("limit", limit).Msg("Listing work centers")

	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, name
		FROM work_centers
		ORDER BY position, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list work centers: %w", err)
	}

	var centers []workorder.WorkCenter
	index := make(map[string]int)
	for rows.Next() {
		var wc workorder.WorkCenter
		if err := rows.Scan(&wc.ID, &wc.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan work center: %w", err)
		}
		index[wc.ID] = len(centers)
		centers = append(centers, wc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate work centers: %w", err)
	}
	rows.Close()

	if len(centers) == 0 {
		return centers, nil
	}

	ids := make([]any, 0, len(centers))
	for _, wc := range centers {
		ids = append(ids, wc.ID)
	}
	orders, err := s.listOrders(ctx, s.db.conn,
		`WHERE work_center_id IN (`+placeholders(len(ids))+`)`, ids...)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		i := index[o.WorkCenterID]
		centers[i].Orders = append(centers[i].Orders, o)
	}

	return centers, nil
}

// GetWorkCenter returns a single work center with its orders
func (s *WorkOrderStore) GetWorkCenter(ctx context.Context, id string) (workorder.WorkCenter, error) {
	wc := workorder.WorkCenter{ID: id}
	err := s.db.conn.QueryRowContext(ctx, `SELECT name FROM work_centers WHERE id = ?`, id).Scan(&wc.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return wc, fmt.Errorf("%w: %s", workorder.ErrUnknownWorkCenter, id)
	}
	if err != nil {
		return wc, fmt.Errorf("failed to get work center %s: %w", id, err)
	}

	wc.Orders, err = s.listOrders(ctx, s.db.conn, `WHERE work_center_id = ?`, id)
	if err != nil {
		return wc, err
	}
	return wc, nil
}

// SaveWorkCenter inserts or renames a work center. New centers are appended
// after the existing ones.
func (s *WorkOrderStore) SaveWorkCenter(ctx context.Context, wc workorder.WorkCenter) error {
	return s.saveWorkCenter(ctx, s.db.conn, wc)
}

func (s *WorkOrderStore) saveWorkCenter(ctx context.Context, q queryer, wc workorder.WorkCenter) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO work_centers (id, name, position)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM work_centers))
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = CURRENT_TIMESTAMP
	`, wc.ID, wc.Name)
	if err != nil {
		return fmt.Errorf("failed to save work center %s: %w", wc.ID, err)
	}
	return nil
}

// GetWorkOrder returns one order by id
func (s *WorkOrderStore) GetWorkOrder(ctx context.Context, id string) (workorder.WorkOrder, error) {
	orders, err := s.listOrders(ctx, s.db.conn, `WHERE id = ?`, id)
	if err != nil {
		return workorder.WorkOrder{}, err
	}
	if len(orders) == 0 {
		return workorder.WorkOrder{}, fmt.Errorf("%w: %s", workorder.ErrNotFound, id)
	}
	return orders[0], nil
}

// SaveWorkOrder inserts the order, or updates it when update is set. The
// center must exist and the order must not conflict with another order on it;
// both checks run in the same transaction as the write.
func (s *WorkOrderStore) SaveWorkOrder(ctx context.Context, order workorder.WorkOrder, update bool) error {
	logger := s.logger.With().Str("work_order_id", order.ID).Str("work_center_id", order.WorkCenterID).Logger()

	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM work_centers WHERE id = ?`, order.WorkCenterID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", workorder.ErrUnknownWorkCenter, order.WorkCenterID)
		}
		if err != nil {
			return fmt.Errorf("failed to check work center: %w", err)
		}

		existing, err := s.listOrders(ctx, tx, `WHERE work_center_id = ?`, order.WorkCenterID)
		if err != nil {
			return err
		}
		if other, found := workorder.FindConflict(order, existing); found {
			logger.Debug().Str("conflicts_with", other.ID).Msg("Rejecting overlapping work order")
			return fmt.Errorf("%w: %q", workorder.ErrOverlap, other.Name)
		}

		if !update {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO work_orders (id, work_center_id, name, status, start_ms, end_ms)
				VALUES (?, ?, ?, ?, ?, ?)
			`, order.ID, order.WorkCenterID, order.Name, string(order.Status), toMillis(order.StartDate), toMillis(order.EndDate))
			if err != nil {
				return fmt.Errorf("failed to insert work order: %w", err)
			}
			logger.Info().Msg("Work order created")
			return nil
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE work_orders
			SET work_center_id = ?, name = ?, status = ?, start_ms = ?, end_ms = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, order.WorkCenterID, order.Name, string(order.Status), toMillis(order.StartDate), toMillis(order.EndDate), order.ID)
		if err != nil {
			return fmt.Errorf("failed to update work order: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", workorder.ErrNotFound, order.ID)
		}
		logger.Info().Msg("Work order updated")
		return nil
	})
}

// DeleteWorkOrder removes an order
func (s *WorkOrderStore) DeleteWorkOrder(ctx context.Context, id string) error {
	res, err := s.db.conn.ExecContext(ctx, `DELETE FROM work_orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete work order %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", workorder.ErrNotFound, id)
	}
	s.logger.Info().Str("work_order_id", id).Msg("Work order deleted")
	return nil
}

// ReplaceAll wipes the board and loads centers and orders in one transaction.
// Centers keep the order of the slice.
func (s *WorkOrderStore) ReplaceAll(ctx context.Context, centers []workorder.WorkCenter, orders []workorder.WorkOrder) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM work_orders`); err != nil {
			return fmt.Errorf("failed to clear work orders: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM work_centers`); err != nil {
			return fmt.Errorf("failed to clear work centers: %w", err)
		}

		for i, wc := range centers {
			if _, err := tx.ExecContext(ctx, `INSERT INTO work_centers (id, name, position) VALUES (?, ?, ?)`, wc.ID, wc.Name, i); err != nil {
				return fmt.Errorf("failed to insert work center %s: %w", wc.ID, err)
			}
		}
		for _, o := range orders {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO work_orders (id, work_center_id, name, status, start_ms, end_ms)
				VALUES (?, ?, ?, ?, ?, ?)
			`, o.ID, o.WorkCenterID, o.Name, string(o.Status), toMillis(o.StartDate), toMillis(o.EndDate))
			if err != nil {
				return fmt.Errorf("failed to insert work order %s: %w", o.ID, err)
			}
		}

		s.logger.Info().Int("work_centers", len(centers)).Int("work_orders", len(orders)).Msg("Board replaced")
		return nil
	})
}

func (s *WorkOrderStore) listOrders(ctx context.Context, q queryer, where string, args ...any) ([]workorder.WorkOrder, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, work_center_id, name, status, start_ms, end_ms
		FROM work_orders
		`+where+`
		ORDER BY start_ms, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work orders: %w", err)
	}
	defer rows.Close()

	var orders []workorder.WorkOrder
	for rows.Next() {
		var (
			o              workorder.WorkOrder
			status         string
			startMs, endMs int64
		)
		if err := rows.Scan(&o.ID, &o.WorkCenterID, &o.Name, &status, &startMs, &endMs); err != nil {
			return nil, fmt.Errorf("failed to scan work order: %w", err)
		}
		o.Status = constants.WorkOrderStatus(status)
		o.StartDate = fromMillis(startMs)
		o.EndDate = fromMillis(endMs)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate work orders: %w", err)
	}
	return orders, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
