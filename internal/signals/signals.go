// Package signals is the in-process event bus between the board, the HTTP API and the terminal host.
package signals

import (
	"context"

	"github.com/maniartech/signals"

	"github.com/belphemur/shop-timeline/internal/workorder"
)

// WorkOrderSavedData is emitted after an order is created or edited
type WorkOrderSavedData struct {
	Order   workorder.WorkOrder
	Created bool
}

// WorkOrderDeletedData is emitted after an order is removed
type WorkOrderDeletedData struct {
	OrderID      string
	WorkCenterID string
}

// BoardReloadedData is emitted when the whole board is replaced, e.g. by an import
type BoardReloadedData struct {
	WorkCenters int
	WorkOrders  int
}

// Signal definitions using generics
var WorkOrderSaved = signals.New[WorkOrderSavedData]()
var WorkOrderDeleted = signals.New[WorkOrderDeletedData]()
var BoardReloaded = signals.New[BoardReloadedData]()

// EmitWorkOrderSaved emits a signal when an order has been persisted
func EmitWorkOrderSaved(ctx context.Context, order workorder.WorkOrder, created bool) {
	WorkOrderSaved.Emit(ctx, WorkOrderSavedData{
		Order:   order,
		Created: created,
	})
}

// EmitWorkOrderDeleted emits a signal when an order has been removed
func EmitWorkOrderDeleted(ctx context.Context, orderID, workCenterID string) {
	WorkOrderDeleted.Emit(ctx, WorkOrderDeletedData{
		OrderID:      orderID,
		WorkCenterID: workCenterID,
	})
}

// EmitBoardReloaded emits a signal after a bulk replacement of the board
func EmitBoardReloaded(ctx context.Context, centers, orders int) {
	BoardReloaded.Emit(ctx, BoardReloadedData{
		WorkCenters: centers,
		WorkOrders:  orders,
	})
}

// OnWorkOrderSaved registers a handler for saved orders
func OnWorkOrderSaved(handler func(ctx context.Context, data WorkOrderSavedData), key ...string) {
	if len(key) > 0 {
		WorkOrderSaved.AddListener(handler, key[0])
	} else {
		WorkOrderSaved.AddListener(handler)
	}
}

// OnWorkOrderDeleted registers a handler for deleted orders
func OnWorkOrderDeleted(handler func(ctx context.Context, data WorkOrderDeletedData), key ...string) {
	if len(key) > 0 {
		WorkOrderDeleted.AddListener(handler, key[0])
	} else {
		WorkOrderDeleted.AddListener(handler)
	}
}

// OnBoardReloaded registers a handler for board reloads
func OnBoardReloaded(handler func(ctx context.Context, data BoardReloadedData), key ...string) {
	if len(key) > 0 {
		BoardReloaded.AddListener(handler, key[0])
	} else {
		BoardReloaded.AddListener(handler)
	}
}

// RemoveListeners drops the handlers registered under key on every signal
func RemoveListeners(key string) {
	WorkOrderSaved.RemoveListener(key)
	WorkOrderDeleted.RemoveListener(key)
	BoardReloaded.RemoveListener(key)
}
