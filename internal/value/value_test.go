package value_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChandruSu/nscript/internal/heap"
	"github.com/ChandruSu/nscript/internal/value"
)

// TestToReprTruncatesArrayCycle covers spec.md §8.11: an Array that
// contains itself must render as `[...]` on the revisit instead of
// recursing forever.
func TestToReprTruncatesArrayCycle(t *testing.T) {
	h := heap.New(4)
	ptr := h.Allocate(heap.Node{Kind: heap.KindArray})
	self := value.NewArray(ptr)
	h.Access(ptr).Elements = []value.Value{value.NewInt(1), self}

	repr := self.ToRepr(h)
	require.Equal(t, "[1, [...]]", repr)
}

// TestToDisplayTruncatesObjectCycle mirrors the array case for Object,
// where a self-referential value must render as `{ ... }`.
func TestToDisplayTruncatesObjectCycle(t *testing.T) {
	h := heap.New(4)
	ptr := h.Allocate(heap.Node{Kind: heap.KindObject})
	self := value.NewObject(ptr)
	h.Access(ptr).Entries = map[value.Value]value.Value{
		value.NewString("self"): self,
	}

	display := self.ToDisplay(h)
	require.Equal(t, "{ 'self': { ... } }", display)
}

// TestToReprRestoresVisitedAfterRendering confirms render() deletes its
// visited marker on the way out, so the same node can be rendered twice
// in one call (e.g. an array holding the same non-cyclic sub-array at
// two positions) without falsely reporting a cycle.
func TestToReprRestoresVisitedAfterRendering(t *testing.T) {
	h := heap.New(4)
	innerPtr := h.Allocate(heap.Node{Kind: heap.KindArray, Elements: []value.Value{value.NewInt(9)}})
	inner := value.NewArray(innerPtr)

	outerPtr := h.Allocate(heap.Node{Kind: heap.KindArray})
	outer := value.NewArray(outerPtr)
	h.Access(outerPtr).Elements = []value.Value{inner, inner}

	require.Equal(t, "[[9], [9]]", outer.ToRepr(h))
}
