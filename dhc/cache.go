// Package dhc implements the differential-heuristic distance cache: a
// double-buffered map of per-node distances from a single landmark (the
// local node), refreshed incrementally by a cooperative Dijkstra driver
// and consumed by pathfinders as an admissible A*/best-first heuristic.
package dhc

import (
	"fmt"
	"sync"

	"github.com/ZmnSCPxj/routingcore/graph"
)

const (
	// MaxDistance is the largest storable distance value.
	MaxDistance = 0x7FFFFFFF

	distanceMask = 0x7FFFFFFF
	visitedMask  = 0x80000000

	// newNodeValue marks a just-discovered node as reachable with the
	// maximum distance, so pathfinders never treat it as unreachable
	// before the first refresh that actually measures it.
	newNodeValue = 0xFFFFFFFF

	// startPreprocessingValue marks a node as unvisited with the
	// maximum distance at the start of a refresh cycle; the Dijkstra
	// driver is responsible for visiting it.
	startPreprocessingValue = 0x7FFFFFFF
)

// slots holds the two double-buffered distance words for one node.
type slots [2]uint32

func newSlots() *slots {
	return &slots{newNodeValue, newNodeValue}
}

// DHC is the differential-heuristic distance cache. Exactly one of its
// two buffer slots is the writer's at any time; the other is the
// reader's. Flip swaps the roles atomically with respect to any new
// Reader/Writer captured afterward.
type DHC struct {
	mu        sync.RWMutex
	values    map[graph.Vertex]*slots
	writerSel int
	available bool
}

// New constructs an empty DHC. available() is false until the first
// successful Flip.
func New() *DHC {
	return &DHC{
		values:    make(map[graph.Vertex]*slots),
		writerSel: 0,
		available: false,
	}
}

// Available reports whether at least one refresh has completed and
// flipped the buffers, making the reader slot meaningful.
func (d *DHC) Available() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.available
}

// Flip swaps the writer and reader roles. Any Reader or Writer captured
// before the call is invalidated: its selector no longer names the role
// it was captured for.
func (d *DHC) Flip() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writerSel = 1 - d.writerSel
	d.available = true
}

// slotsFor returns the slots for v, materializing a fresh entry on a
// miss. Callers must hold the full Lock: it mutates d.values.
func (d *DHC) slotsFor(v graph.Vertex) *slots {
	s, ok := d.values[v]
	if !ok {
		s = newSlots()
		d.values[v] = s
	}
	return s
}

// readSlots returns v's slots without inserting a missing entry into
// d.values, so callers holding only RLock cannot race with each other
// (or with a Lock-holding writer) over the map. A node not yet in the
// map is exactly newSlots()'s zero state: reachable (visited bit set)
// at the max distance.
func (d *DHC) readSlots(v graph.Vertex) slots {
	if s, ok := d.values[v]; ok {
		return *s
	}
	return slots{newNodeValue, newNodeValue}
}

// ErrNotAvailable is returned by NewReader when no refresh has ever
// completed.
var ErrNotAvailable = fmt.Errorf("dhc: no refresh has completed yet")

// Reader is a snapshot view into the cache's current reader slot, bound
// to one goal node. It must be discarded after the next Flip.
type Reader struct {
	dhc          *DHC
	selector     int
	distanceGoal uint32
}

// NewReader captures the current reader slot and the landmark distance
// of goal. Precondition: Available() must be true.
func (d *DHC) NewReader(goal graph.Vertex) (*Reader, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.available {
		return nil, ErrNotAvailable
	}
	readerSel := 1 - d.writerSel
	s := d.slotsFor(goal)
	return &Reader{
		dhc:          d,
		selector:     readerSel,
		distanceGoal: s[readerSel] & distanceMask,
	}, nil
}

// Reachable reports whether node is known reachable from the landmark
// in this reader's snapshot.
func (r *Reader) Reachable(node graph.Vertex) bool {
	r.dhc.mu.RLock()
	defer r.dhc.mu.RUnlock()
	s := r.dhc.readSlots(node)
	return s[r.selector]&visitedMask != 0
}

// Distance returns the heuristic distance between node and this
// reader's goal: |d(node, landmark) - d(goal, landmark)|. Precondition:
// Reachable(node) must be true.
func (r *Reader) Distance(node graph.Vertex) uint32 {
	r.dhc.mu.RLock()
	defer r.dhc.mu.RUnlock()
	s := r.dhc.readSlots(node)
	distNode := s[r.selector] & distanceMask
	if distNode > r.distanceGoal {
		return distNode - r.distanceGoal
	}
	return r.distanceGoal - distNode
}

// Writer is a handle onto the cache's current writer slot, used by the
// refresh driver to lay down a fresh distance map.
type Writer struct {
	dhc      *DHC
	selector int
}

// NewWriter captures the current writer slot.
func (d *DHC) NewWriter() *Writer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return &Writer{dhc: d, selector: d.writerSel}
}

// ClearAllNodes resets every node currently known to g to (unvisited,
// max distance) in the writer slot. Nodes added to g afterward start
// implicitly reachable-and-max per newNodeValue until a subsequent
// refresh visits them.
func (w *Writer) ClearAllNodes(g graph.Graph) error {
	w.dhc.mu.Lock()
	defer w.dhc.mu.Unlock()
	return g.ForEachNode(func(v graph.Vertex) error {
		s := w.dhc.slotsFor(v)
		s[w.selector] = startPreprocessingValue
		return nil
	})
}

// Visited reports whether node has already been visited in this
// writer's slot.
func (w *Writer) Visited(node graph.Vertex) bool {
	w.dhc.mu.RLock()
	defer w.dhc.mu.RUnlock()
	s := w.dhc.readSlots(node)
	return s[w.selector]&visitedMask != 0
}

// MarkVisited marks node as visited in this writer's slot.
func (w *Writer) MarkVisited(node graph.Vertex) {
	w.dhc.mu.Lock()
	defer w.dhc.mu.Unlock()
	s := w.dhc.slotsFor(node)
	s[w.selector] |= visitedMask
}

// Distance returns node's current distance in this writer's slot.
func (w *Writer) Distance(node graph.Vertex) uint32 {
	w.dhc.mu.RLock()
	defer w.dhc.mu.RUnlock()
	s := w.dhc.readSlots(node)
	return s[w.selector] & distanceMask
}

// SetDistance sets node's distance in this writer's slot, preserving
// its visited flag. d must be <= MaxDistance.
func (w *Writer) SetDistance(node graph.Vertex, d uint32) {
	if d > MaxDistance {
		d = MaxDistance
	}
	w.dhc.mu.Lock()
	defer w.dhc.mu.Unlock()
	s := w.dhc.slotsFor(node)
	visited := s[w.selector] & visitedMask
	s[w.selector] = visited | (d & distanceMask)
}
