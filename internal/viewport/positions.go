package viewport

import (
	"github.com/belphemur/shop-timeline/internal/board"
	"github.com/belphemur/shop-timeline/internal/timeline"
	"github.com/belphemur/shop-timeline/internal/workorder"
)

// positionsKey lists every input of the positioned-orders view
type positionsKey struct {
	unitsVersion uint64
	rendered     RowRange
	rows         board.RowSource
	rowsVersion  uint64
	mapper       timeline.Mapper
}

type positionsMemo struct {
	valid       bool
	key         positionsKey
	value       map[string][]workorder.PositionedOrder
	computation int // number of recomputations, for tests
}

func (m *positionsMemo) get(mapper timeline.Mapper, state State, rows board.RowSource) map[string][]workorder.PositionedOrder {
	key := positionsKey{
		unitsVersion: state.UnitsVersion,
		rendered:     state.Rendered,
		rows:         rows,
		rowsVersion:  rows.Version(),
		mapper:       mapper,
	}
	if m.valid && m.key == key {
		return m.value
	}

	m.value = positionOrders(mapper, state.Units, state.Rendered, rows)
	m.key = key
	m.valid = true
	m.computation++
	return m.value
}

// positionOrders places the orders of rows in [rendered.Start, rendered.End)
func positionOrders(mapper timeline.Mapper, units []timeline.TimeUnit, rendered RowRange, rows board.RowSource) map[string][]workorder.PositionedOrder {
	result := make(map[string][]workorder.PositionedOrder, rendered.Len())
	end := min(rendered.End, rows.Len())
	for i := max(rendered.Start, 0); i < end; i++ {
		wc, ok := rows.Row(i)
		if !ok {
			continue
		}
		result[wc.ID] = workorder.Place(mapper, wc.Orders, units)
	}
	return result
}
