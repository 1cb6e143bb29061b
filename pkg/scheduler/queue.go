package scheduler

import (
	"container/heap"

	"github.com/teslashibe/go-forager/pkg/geometry"
)

// event is one deferred state change. Events order by deadline, then by
// the sequence number they were scheduled with.
type event struct {
	deadline float64
	seq      uint64
	change   Change
	target   Target
	position geometry.Point2d
}

func (e *event) before(o *event) bool {
	if e.deadline != o.deadline {
		return e.deadline < o.deadline
	}
	return e.seq < o.seq
}

// eventHeap implements heap.Interface as a min-heap on (deadline, seq)
type eventHeap []*event

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].before(h[j]) }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*event))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	*h = old[:n-1]
	return item
}

func (h *eventHeap) push(e *event) {
	heap.Push(h, e)
}

func (h *eventHeap) pop() *event {
	return heap.Pop(h).(*event)
}

func (h eventHeap) peek() *event {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}
