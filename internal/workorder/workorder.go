// Package workorder holds the rows and bars plotted on the timeline: work
// centers, the work orders scheduled on them, and their grid placement.
package workorder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"github.com/belphemur/shop-timeline/internal/constants"
	"github.com/belphemur/shop-timeline/internal/timeline"
)

// DefaultDuration is the length given to an order created from an empty cell
const DefaultDuration = 7 * 24 * time.Hour

var (
	ErrNotFound          = errors.New("work order not found")
	ErrInvalidInterval   = errors.New("end date must be after start date")
	ErrOverlap           = errors.New("work order overlaps an existing order on the same work center")
	ErrUnknownWorkCenter = errors.New("unknown work center")
	ErrMissingName       = errors.New("name is required")
)

// WorkCenter is one row of the grid
type WorkCenter struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Orders []WorkOrder `json:"orders"`
}

// WorkOrder is a scheduled interval [StartDate, EndDate) on one work center
type WorkOrder struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name"`
	WorkCenterID string                    `json:"workCenterId"`
	Status       constants.WorkOrderStatus `json:"status"`
	StartDate    time.Time                 `json:"startDate"`
	EndDate      time.Time                 `json:"endDate"`
}

// PositionedOrder is an order placed on the current unit sequence. It is derived
// and never stored.
type PositionedOrder struct {
	Order WorkOrder `json:"order"`
	timeline.Position
}

// NewID returns a fresh document id
func NewID() string {
	return uuid.NewString()
}

// NewDraft returns the order proposed when an empty cell is activated: open,
// starting at start and lasting DefaultDuration.
func NewDraft(workCenterID string, start time.Time) WorkOrder {
	return WorkOrder{
		WorkCenterID: workCenterID,
		Status:       constants.StatusOpen,
		StartDate:    start,
		EndDate:      start.Add(DefaultDuration),
	}
}

// Validate checks the fields of a single order. All problems are reported at once.
func (o WorkOrder) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(o.Name) == "" {
		result = multierror.Append(result, ErrMissingName)
	}
	if o.WorkCenterID == "" {
		result = multierror.Append(result, ErrUnknownWorkCenter)
	}
	if !o.Status.IsValid() {
		result = multierror.Append(result, fmt.Errorf("invalid status %q", o.Status))
	}
	if o.StartDate.IsZero() || o.EndDate.IsZero() {
		result = multierror.Append(result, errors.New("start and end dates are required"))
	} else if !o.EndDate.After(o.StartDate) {
		result = multierror.Append(result, ErrInvalidInterval)
	}

	return result.ErrorOrNil()
}

// Conflicts is the scheduling test between two intervals. Unlike
// timeline.Overlaps, touching endpoints count as a conflict.
func Conflicts(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !aStart.After(bEnd)
}

// FindConflict returns the first order on the same work center that conflicts
// with candidate. An order never conflicts with itself (same ID), so edits
// can keep their own slot.
func FindConflict(candidate WorkOrder, existing []WorkOrder) (WorkOrder, bool) {
	for _, other := range existing {
		if other.WorkCenterID != candidate.WorkCenterID {
			continue
		}
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		if Conflicts(candidate.StartDate, candidate.EndDate, other.StartDate, other.EndDate) {
			return other, true
		}
	}
	return WorkOrder{}, false
}

// Place positions every order of a center on units, skipping the ones outside
// the unit span.
func Place(mapper timeline.Mapper, orders []WorkOrder, units []timeline.TimeUnit) []PositionedOrder {
	if len(units) == 0 {
		return nil
	}
	first := units[0].Start
	last := units[len(units)-1].End

	positioned := make([]PositionedOrder, 0, len(orders))
	for _, order := range orders {
		if !timeline.Overlaps(order.StartDate, order.EndDate, first, last) {
			continue
		}
		pos, ok := mapper.ComputePosition(order.StartDate, order.EndDate, units)
		if !ok {
			continue
		}
		positioned = append(positioned, PositionedOrder{Order: order, Position: pos})
	}
	return positioned
}
