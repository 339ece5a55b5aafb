// Package pqueue implements a binary min-heap priority queue keyed by an
// unsigned integer priority.
//
// Traditional pathfinding priority queues (A*, Dijkstra, greedy best-first)
// provide three operations: add, get-minimum, and decrease-priority.
// Supporting decrease-priority efficiently requires either an index back
// into the heap array for every queued item, or a full linear scan. This
// queue deliberately omits it: callers that discover a better distance for
// an already-queued node simply push it again, and filter the stale entry
// out at pop time by comparing the entry's priority against the node's
// current best-known distance. Benchmarks of this tradeoff (on graphs the
// size of a gossiped Lightning Network channel graph) favor the simpler
// queue, which is why gossipd's own priority_queue.c made the same choice.
package pqueue

import "container/heap"

// Priority is the ordering key. Lower sorts first.
type Priority uint64

// entry couples an opaque item with its priority in the heap array.
type entry struct {
	priority Priority
	item     interface{}
}

// innerHeap is the container/heap.Interface implementation backing Queue.
type innerHeap []entry

func (h innerHeap) Len() int            { return len(h) }
func (h innerHeap) Less(i, j int) bool  { return h[i].priority < h[j].priority }
func (h innerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *innerHeap) Push(x interface{}) { *h = append(*h, x.(entry)) }
func (h *innerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// Queue is a binary min-heap over (priority, item) pairs. It is not safe
// for concurrent use; callers that need concurrent access should guard it
// with their own lock, as the DHC refresher's single-threaded driver does.
type Queue struct {
	h innerHeap
}

// New constructs an empty queue.
func New() *Queue {
	return &Queue{h: make(innerHeap, 0)}
}

// Len returns the number of items currently queued.
func (q *Queue) Len() int {
	return q.h.Len()
}

// Push inserts item with the given priority. O(log n).
func (q *Queue) Push(item interface{}, priority Priority) {
	heap.Push(&q.h, entry{priority: priority, item: item})
}

// PopMin removes and returns the item with the lowest priority. The second
// return value is false if the queue was empty. O(log n).
//
// Ties among equal priorities are broken arbitrarily; the only guarantee is
// that no item with a strictly lower priority remains queued when PopMin
// returns an item with a higher one.
func (q *Queue) PopMin() (interface{}, bool) {
	item, _, ok := q.PopMinWithPriority()
	return item, ok
}

// PopMinWithPriority is PopMin, additionally returning the priority the
// item was pushed with. Callers implementing the stale-entry filter
// described in the package doc (comparing against a node's current
// best-known distance) need this to detect a stale entry.
func (q *Queue) PopMinWithPriority() (interface{}, Priority, bool) {
	if q.h.Len() == 0 {
		return nil, 0, false
	}
	e := heap.Pop(&q.h).(entry)
	return e.item, e.priority, true
}
