package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/belphemur/shop-timeline/internal/constants"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

func at(month time.Month, day int) time.Time {
	return time.Date(2026, month, day, 0, 0, 0, 0, time.UTC)
}

func seedStore(t *testing.T) *WorkOrderStore {
	t.Helper()
	store := NewWorkOrderStore(newTestDB(t))

	centers := []workorder.WorkCenter{
		{ID: "wc-1", Name: "Extrusion Line A"},
		{ID: "wc-2", Name: "CNC Machine 1"},
		{ID: "wc-3", Name: "Assembly Station"},
	}
	orders := []workorder.WorkOrder{
		{ID: "wo-2", WorkCenterID: "wc-1", Name: "Second", Status: constants.StatusOpen, StartDate: at(time.March, 10), EndDate: at(time.March, 20)},
		{ID: "wo-1", WorkCenterID: "wc-1", Name: "First", Status: constants.StatusComplete, StartDate: at(time.March, 1), EndDate: at(time.March, 5)},
		{ID: "wo-3", WorkCenterID: "wc-3", Name: "Third", Status: constants.StatusBlocked, StartDate: at(time.April, 1), EndDate: at(time.April, 3)},
	}
	require.NoError(t, store.ReplaceAll(context.Background(), centers, orders))
	return store
}

func TestWorkOrderStore_ListWorkCenters(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	count, err := store.CountWorkCenters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	page, err := store.ListWorkCenters(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "wc-1", page[0].ID)
	assert.Equal(t, "wc-2", page[1].ID)

	require.Len(t, page[0].Orders, 2)
	assert.Equal(t, "wo-1", page[0].Orders[0].ID, "orders sorted by start date")
	assert.Equal(t, constants.StatusComplete, page[0].Orders[0].Status)
	assert.True(t, at(time.March, 1).Equal(page[0].Orders[0].StartDate))
	assert.Empty(t, page[1].Orders)

	page, err = store.ListWorkCenters(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "wc-3", page[0].ID)
	assert.Len(t, page[0].Orders, 1)

	page, err = store.ListWorkCenters(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestWorkOrderStore_SaveWorkOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("insert", func(t *testing.T) {
		store := seedStore(t)
		order := workorder.WorkOrder{ID: "wo-new", WorkCenterID: "wc-2", Name: "New", Status: constants.StatusOpen, StartDate: at(time.May, 1), EndDate: at(time.May, 8)}
		require.NoError(t, store.SaveWorkOrder(ctx, order, false))

		got, err := store.GetWorkOrder(ctx, "wo-new")
		require.NoError(t, err)
		assert.Equal(t, "New", got.Name)
		assert.True(t, order.EndDate.Equal(got.EndDate))
	})

	t.Run("overlap rejected", func(t *testing.T) {
		store := seedStore(t)
		order := workorder.WorkOrder{ID: "wo-clash", WorkCenterID: "wc-1", Name: "Clash", Status: constants.StatusOpen, StartDate: at(time.March, 5), EndDate: at(time.March, 8)}
		err := store.SaveWorkOrder(ctx, order, false)
		assert.ErrorIs(t, err, workorder.ErrOverlap)

		_, err = store.GetWorkOrder(ctx, "wo-clash")
		assert.ErrorIs(t, err, workorder.ErrNotFound)
	})

	t.Run("unknown center", func(t *testing.T) {
		store := seedStore(t)
		order := workorder.WorkOrder{ID: "wo-x", WorkCenterID: "wc-missing", Name: "X", Status: constants.StatusOpen, StartDate: at(time.May, 1), EndDate: at(time.May, 2)}
		assert.ErrorIs(t, store.SaveWorkOrder(ctx, order, false), workorder.ErrUnknownWorkCenter)
	})

	t.Run("update keeps its own slot", func(t *testing.T) {
		store := seedStore(t)
		order, err := store.GetWorkOrder(ctx, "wo-2")
		require.NoError(t, err)

		order.EndDate = at(time.March, 25)
		order.Status = constants.StatusInProgress
		require.NoError(t, store.SaveWorkOrder(ctx, order, true))

		got, err := store.GetWorkOrder(ctx, "wo-2")
		require.NoError(t, err)
		assert.Equal(t, constants.StatusInProgress, got.Status)
		assert.True(t, at(time.March, 25).Equal(got.EndDate))
	})

	t.Run("update missing order", func(t *testing.T) {
		store := seedStore(t)
		order := workorder.WorkOrder{ID: "wo-ghost", WorkCenterID: "wc-2", Name: "Ghost", Status: constants.StatusOpen, StartDate: at(time.June, 1), EndDate: at(time.June, 2)}
		assert.ErrorIs(t, store.SaveWorkOrder(ctx, order, true), workorder.ErrNotFound)
	})
}

func TestWorkOrderStore_DeleteWorkOrder(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	require.NoError(t, store.DeleteWorkOrder(ctx, "wo-3"))
	assert.ErrorIs(t, store.DeleteWorkOrder(ctx, "wo-3"), workorder.ErrNotFound)

	wc, err := store.GetWorkCenter(ctx, "wc-3")
	require.NoError(t, err)
	assert.Empty(t, wc.Orders)
}

func TestWorkOrderStore_SaveWorkCenter(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveWorkCenter(ctx, workorder.WorkCenter{ID: "wc-4", Name: "Quality Control"}))
	require.NoError(t, store.SaveWorkCenter(ctx, workorder.WorkCenter{ID: "wc-2", Name: "CNC Machine 2"}))

	centers, err := store.ListWorkCenters(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, centers, 4)
	assert.Equal(t, "CNC Machine 2", centers[1].Name)
	assert.Equal(t, "wc-4", centers[3].ID, "new centers are appended")

	_, err = store.GetWorkCenter(ctx, "nope")
	assert.ErrorIs(t, err, workorder.ErrUnknownWorkCenter)
}

func TestWorkOrderStore_ReplaceAllIsAtomic(t *testing.T) {
	store := seedStore(t)
	ctx := context.Background()

	// an order pointing at a missing center violates the foreign key
	err := store.ReplaceAll(ctx,
		[]workorder.WorkCenter{{ID: "wc-a", Name: "A"}},
		[]workorder.WorkOrder{{ID: "wo-a", WorkCenterID: "wc-b", Name: "A", Status: constants.StatusOpen, StartDate: at(time.May, 1), EndDate: at(time.May, 2)}},
	)
	require.Error(t, err)

	count, err := store.CountWorkCenters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "previous board is kept")
}

func TestPlaceholders(t *testing.T) {
	for n, expected := range map[int]string{1: "?", 3: "?,?,?"} {
		assert.Equal(t, expected, placeholders(n), fmt.Sprint(n))
	}
}
