// Package heap implements the free-list arena of spec.md §4.1: a
// growable flat slice of nodes addressed by stable index, mark-swept for
// collection. Heap nodes are never owned by value.Value (spec.md §9) —
// only addressed by index — so cyclic Object/Array graphs are safe to
// build and safe to collect.
package heap

import (
	"github.com/ChandruSu/nscript/internal/value"
)

// NodeKind tags the variant stored in a slot.
type NodeKind uint8

const (
	KindFree NodeKind = iota
	KindClosure
	KindArray
	KindObject
)

// Node is a tagged slot in the arena (spec.md §3 HeapNode). Exactly one
// of the payload fields is meaningful, selected by Kind; Free nodes
// thread the list via Next.
type Node struct {
	Kind     NodeKind
	Marked   bool
	Captured []value.Value          // Closure
	Elements []value.Value          // Array
	Entries  map[value.Value]value.Value // Object
	Next     int                    // Free
}

// Heap is the free-list arena described in spec.md §4.1. head indexes
// the first free slot (or len(nodes) when none remain, which triggers
// growth on the next Allocate).
type Heap struct {
	nodes       []Node
	head        int
	occupied    int
	gcThreshold int
}

// New builds a heap with the given initial capacity, all slots free,
// gc_threshold at half capacity (spec.md §4.1). Slot 0 is kept off the
// free list, so no allocation returns index 0 — the closure pointer a
// Func uses for "no closure".
func New(capacity int) *Heap {
	if capacity < 2 {
		capacity = 2
	}
	h := &Heap{
		nodes:       make([]Node, capacity),
		head:        1,
		gcThreshold: capacity / 2,
	}
	for i := range h.nodes {
		h.nodes[i] = Node{Kind: KindFree, Next: i + 1}
	}
	return h
}

// Allocate pops the head free slot, writing node into it; if the head
// has run off the end, the arena doubles first (spec.md §4.1).
func (h *Heap) Allocate(node Node) int {
	if node.Kind == KindFree {
		panic("heap: cannot allocate a free node")
	}
	if h.head >= len(h.nodes) {
		h.grow()
	}
	idx := h.head
	h.head = h.nodes[idx].Next
	node.Marked = false
	h.nodes[idx] = node
	h.occupied++
	return idx
}

func (h *Heap) grow() {
	size := len(h.nodes)
	if size == 0 {
		size = 2
	}
	grown := make([]Node, size*2)
	copy(grown, h.nodes)
	for i := size; i < len(grown); i++ {
		grown[i] = Node{Kind: KindFree, Next: i + 1}
	}
	h.nodes = grown
}

// Deallocate pushes idx onto the head of the free list; a no-op if the
// slot is already free.
func (h *Heap) Deallocate(idx int) {
	if h.nodes[idx].Kind == KindFree {
		return
	}
	h.nodes[idx] = Node{Kind: KindFree, Next: h.head}
	h.head = idx
	h.occupied--
}

// Access returns a pointer to the node at idx for in-place mutation
// (ObjIns, array element writes, etc.).
func (h *Heap) Access(idx int) *Node { return &h.nodes[idx] }

// ArrayElements and ObjectEntries implement value.HeapAccessor so that
// Value.ToDisplay/ToRepr can recurse through composite values without
// internal/value importing this package.
func (h *Heap) ArrayElements(ptr int) []value.Value { return h.nodes[ptr].Elements }
func (h *Heap) ObjectEntries(ptr int) map[value.Value]value.Value { return h.nodes[ptr].Entries }

func childPtr(v value.Value) (int, bool) {
	switch v.Kind() {
	case value.Func:
		if v.ClosurePtr() != 0 {
			return v.ClosurePtr(), true
		}
		return 0, false
	case value.Object, value.Array:
		return v.HeapPtr(), true
	default:
		return 0, false
	}
}

// Mark traces from root, breaking cycles on already-marked nodes
// (spec.md §4.1).
func (h *Heap) Mark(root int) {
	n := &h.nodes[root]
	if n.Kind == KindFree || n.Marked {
		return
	}
	n.Marked = true

	switch n.Kind {
	case KindClosure:
		h.markValues(n.Captured)
	case KindArray:
		h.markValues(n.Elements)
	case KindObject:
		for k, v := range n.Entries {
			if p, ok := childPtr(k); ok {
				h.Mark(p)
			}
			if p, ok := childPtr(v); ok {
				h.Mark(p)
			}
		}
	}
}

func (h *Heap) markValues(vs []value.Value) {
	for _, v := range vs {
		if p, ok := childPtr(v); ok {
			h.Mark(p)
		}
	}
}

// Sweep deallocates every unmarked occupied slot and clears marks on the
// survivors, then resets gc_threshold to 2x the post-sweep occupancy
// (spec.md §4.1).
func (h *Heap) Sweep() {
	for i := range h.nodes {
		if h.nodes[i].Kind == KindFree {
			continue
		}
		if h.nodes[i].Marked {
			h.nodes[i].Marked = false
		} else {
			h.Deallocate(i)
		}
	}
	h.gcThreshold = h.occupied * 2
	if h.gcThreshold == 0 {
		h.gcThreshold = len(h.nodes) / 2
	}
}

// ShouldCollect reports whether occupancy has crossed the threshold.
func (h *Heap) ShouldCollect() bool { return h.occupied >= h.gcThreshold }

// Occupied and Len support the test-only heap introspection of spec.md
// §8 scenario E7.
func (h *Heap) Occupied() int { return h.occupied }
func (h *Heap) Len() int      { return len(h.nodes) }
