package vm

import (
	"github.com/sirupsen/logrus"

	"github.com/ChandruSu/nscript/internal/value"
)

// maybeCollect implements spec.md §4.6 "Allocation with GC check": ObjNew
// and ArrNew call this before allocating. Because nested calls are
// ordinary Go calls here rather than an explicit trampoline, there is no
// pc to rewind and re-push — the check and the allocation happen as one
// atomic step from the script's point of view, which is the same net
// effect spec.md's "rewind pc, collect, re-execute" describes for an
// explicit dispatch loop.
func (e *Env) maybeCollect() {
	if !e.Heap.ShouldCollect() {
		return
	}
	e.collect()
}

// CollectGarbage runs a collection cycle unconditionally — the host- and
// script-visible hook behind the std module's `gc()` native (spec.md §4.1
// "manual GC trigger"), bypassing the ShouldCollect threshold check
// maybeCollect uses for automatic cycles.
func (e *Env) CollectGarbage() { e.collect() }

// collect marks spec.md §4.6's root set — the occupied prefix of the
// register stack, the declared prefix of globals, and every module
// object — then sweeps.
func (e *Env) collect() {
	before := e.Heap.Occupied()

	for i := 0; i < e.regTop; i++ {
		e.markValue(e.Registers[i])
	}
	n := e.GlobalSegment().GlobalSlotCount()
	if n > len(e.Globals) {
		n = len(e.Globals)
	}
	for i := 0; i < n; i++ {
		e.markValue(e.Globals[i])
	}
	for _, ptr := range e.modules {
		e.Heap.Mark(ptr)
	}

	e.Heap.Sweep()

	e.Log.WithFields(logrus.Fields{
		"before": before,
		"after":  e.Heap.Occupied(),
	}).Debug("gc cycle")
}

func (e *Env) markValue(v value.Value) {
	switch v.Kind() {
	case value.Func:
		if v.ClosurePtr() != 0 {
			e.Heap.Mark(v.ClosurePtr())
		}
	case value.Object, value.Array:
		e.Heap.Mark(v.HeapPtr())
	}
}
