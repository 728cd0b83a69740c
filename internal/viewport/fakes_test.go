package viewport

import (
	"time"

	"github.com/belphemur/shop-timeline/internal/workorder"
)

type fakeScroll struct {
	offset float64
	width  float64
	writes []float64
}

func (f *fakeScroll) ScrollOffset() float64 { return f.offset }
func (f *fakeScroll) ViewportWidth() float64 { return f.width }
func (f *fakeScroll) SetScrollOffset(offset float64) {
	f.offset = offset
	f.writes = append(f.writes, offset)
}

type fakeFrames struct {
	queue []func()
}

func (f *fakeFrames) RequestFrame(fn func()) {
	f.queue = append(f.queue, fn)
}

// flush runs frames until none is left and returns how many ran
func (f *fakeFrames) flush() int {
	ran := 0
	for len(f.queue) > 0 {
		next := f.queue[0]
		f.queue = f.queue[1:]
		next()
		ran++
	}
	return ran
}

type fakeRows struct {
	rows    []workorder.WorkCenter
	version uint64
	reads   int
}

func (f *fakeRows) Len() int        { return len(f.rows) }
func (f *fakeRows) Version() uint64 { return f.version }
func (f *fakeRows) Row(i int) (workorder.WorkCenter, bool) {
	f.reads++
	if i < 0 || i >= len(f.rows) {
		return workorder.WorkCenter{}, false
	}
	return f.rows[i], true
}

type createCall struct {
	center string
	start  time.Time
}

type fakeHost struct {
	created []createCall
	edited  []string
	deleted []string
}

func (h *fakeHost) CreateOrderAt(wc workorder.WorkCenter, start time.Time) {
	h.created = append(h.created, createCall{center: wc.ID, start: start})
}

func (h *fakeHost) EditOrder(wc workorder.WorkCenter, order workorder.WorkOrder) {
	h.edited = append(h.edited, order.ID)
}

func (h *fakeHost) DeleteOrder(order workorder.WorkOrder) {
	h.deleted = append(h.deleted, order.ID)
}
