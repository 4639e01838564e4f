// Package vm implements spec.md §4.6 and the Env/CallFrame shapes of
// §3: the register VM that executes compiled segments. Structurally this
// mirrors the teacher's callEngine in internal/engine/interpreter
// (internal/engine/interpreter/interpreter.go): a flat value stack
// (here, a flat register stack) plus an explicit frame stack for
// diagnostics, with nested calls realized as recursive Go calls — the
// same choice wazero's callNativeFunc makes for nested Wasm calls — and
// faults propagated by panic/recover at the outer Call boundary rather
// than threaded through every dispatch step, exactly as
// moduleEngine.Call recovers around callNativeFunc.
package vm

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ChandruSu/nscript/internal/errdefs"
	"github.com/ChandruSu/nscript/internal/heap"
	"github.com/ChandruSu/nscript/internal/module"
	"github.com/ChandruSu/nscript/internal/segment"
	"github.com/ChandruSu/nscript/internal/source"
	"github.com/ChandruSu/nscript/internal/value"
)

// ScratchGlobalName is the reserved global the REPL uses to smuggle out
// the result of the last evaluated expression (spec.md §6 "Set registers
// (for REPL result smuggling via a reserved global `_`)").
const ScratchGlobalName = "_"

// frame is the diagnostic/GC-root record of one active call, pushed by
// callSegment and mutated in place as pc advances (spec.md §3 CallFrame).
// It intentionally omits RetSlot: with nested calls realized as Go
// recursion, the caller writes the callee's result into its own register
// window directly from callSegment's return value, so there is no
// separate "pending write" to track.
type frame struct {
	Segment *segment.Segment
	PC      int
	SP      int
	Closure int
}

// Env is the virtual machine state of spec.md §3.
type Env struct {
	Segments []*segment.Segment
	Registers []value.Value
	regTop    int

	Globals []value.Value

	Heap *heap.Heap

	modules map[string]int // module name -> heap Object index

	Sources *source.Manager
	Args    []string

	// Stdout is where the std module's print/println write (spec.md §6
	// "print/println"). Defaults to io.Discard so a headless Env never
	// touches the process's real stdout unless the embedder opts in.
	Stdout io.Writer

	frames []*frame

	Log *logrus.Entry
}

// New builds an Env with segment 0 (the global program) and segment 1
// (the preinstalled `__import` native shim) already installed, per
// spec.md §4.4/§4.6 ("Segment 0"/"Segment 1" in the GLOSSARY).
func New(args []string, log *logrus.Entry) *Env {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	e := &Env{
		Heap:    heap.New(64),
		modules: map[string]int{},
		Args:    args,
		Stdout:  io.Discard,
		Log:     log,
	}
	global := segment.New("__start", true, -1)
	e.Segments = append(e.Segments, global)
	e.Segments = append(e.Segments, segment.NewNative("__import", 1, e.nativeImport))
	return e
}

// GlobalSegment returns segment 0, the one the compiler emits top-level
// code into.
func (e *Env) GlobalSegment() *segment.Segment { return e.Segments[0] }

// AddSegment appends a newly compiled function or native segment and
// returns its index, used as the Func value's segment id.
func (e *Env) AddSegment(s *segment.Segment) int {
	e.Segments = append(e.Segments, s)
	return len(e.Segments) - 1
}

func (e *Env) ensureRegisters(n int) {
	if n <= len(e.Registers) {
		return
	}
	grown := make([]value.Value, n*2+8)
	copy(grown, e.Registers)
	e.Registers = grown
}

// SetGlobal declares (if new) and writes a named global — the host
// embedding hook of spec.md §6 "Read/write named globals".
func (e *Env) SetGlobal(name string, v value.Value) {
	idx := e.GlobalSegment().DeclareOrGetGlobal(name)
	e.ensureGlobals(idx + 1)
	e.Globals[idx] = v
}

// GetGlobal reads a named global; ok is false if it was never declared.
func (e *Env) GetGlobal(name string) (value.Value, bool) {
	idx, ok := e.GlobalSegment().LookupLocal(name)
	if !ok || idx >= len(e.Globals) {
		return value.NewNull(), false
	}
	return e.Globals[idx], true
}

func (e *Env) ensureGlobals(n int) {
	if n <= len(e.Globals) {
		return
	}
	grown := make([]value.Value, n)
	copy(grown, e.Globals)
	e.Globals = grown
}

// RegisterModule binds a host module (spec.md §6 "register_module"): each
// function entry becomes a freshly appended native segment, and the
// module is exposed to scripts as an Object mapping name -> Func
// (spec.md §4.6 "Import semantics").
func (e *Env) RegisterModule(def module.Def) {
	entries := make(map[value.Value]value.Value, len(def.Functions))
	for _, fn := range def.Functions {
		segIdx := e.AddSegment(segment.NewNative(def.Name+"."+fn.Name, fn.ArgCount, fn.Fn))
		entries[value.NewString(fn.Name)] = value.NewFunc(segIdx, 0)
	}
	ptr := e.Heap.Allocate(heap.Node{Kind: heap.KindObject, Entries: entries})
	e.modules[def.Name] = ptr
	e.Log.WithFields(logrus.Fields{"module": def.Name, "functions": len(def.Functions)}).Debug("registered module")
}

// Arg reads argument i (0-indexed) of a native call whose first argument
// landed at register base — the accessor every native module function
// uses instead of indexing Registers directly.
func (e *Env) Arg(base, i int) value.Value { return e.Registers[base+i] }

// nativeImport is segment 1's implementation: given a string argument,
// return the registered module Object or fail ModuleNotFound.
func (e *Env) nativeImport(envArg interface{}, base, argCount int) (value.Value, error) {
	name := e.Registers[base]
	if name.Kind() != value.String {
		return value.Value{}, errdefs.Type(fmt.Errorf("import expects a string module name, got %s", name.TypeName()))
	}
	ptr, ok := e.modules[name.AsString()]
	if !ok {
		return value.Value{}, errdefs.ModuleNotFound(name.AsString())
	}
	return value.NewObject(ptr), nil
}

// Run executes the global segment (segment 0) from pc 0 to completion —
// the host embedding entry point of spec.md §6 "Evaluate a source file
// or string".
func (e *Env) Run() (result value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = e.recoverToError(r)
		}
	}()
	e.ensureGlobals(e.GlobalSegment().GlobalSlotCount())
	result = e.callSegment(0, 0, 0)
	return
}

// Call invokes an already-compiled function value from the host, e.g. a
// REPL re-evaluating against live globals.
func (e *Env) Call(fn value.Value, args ...value.Value) (result value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = e.recoverToError(r)
		}
	}()
	if fn.Kind() != value.Func {
		return value.Value{}, errdefs.Type(fmt.Errorf("%s is not callable", fn.TypeName()))
	}
	callee := e.Segments[fn.SegmentID()]
	base := e.regTop
	e.ensureRegisters(base + len(args))
	for i, a := range args {
		e.Registers[base+i] = a
	}
	if callee.IsNative() {
		v, nerr := callee.NativePointer(e, base, len(args))
		if nerr != nil {
			panic(nerr)
		}
		return v, nil
	}
	return e.callSegment(fn.SegmentID(), fn.ClosurePtr(), base), nil
}

func (e *Env) recoverToError(r interface{}) error {
	if nerr, ok := r.(*errdefs.Error); ok {
		return nerr
	}
	if err, ok := r.(error); ok {
		return errdefs.Custom(err)
	}
	return errdefs.Custom(fmt.Errorf("%v", r))
}

// StackTrace renders each active frame's current position, newest first
// — the host-facing hook of spec.md §7 ("render a stack trace by walking
// the VM's call stack and asking each frame for its current Pos").
func (e *Env) StackTrace() []string {
	out := make([]string, 0, len(e.frames))
	for i := len(e.frames) - 1; i >= 0; i-- {
		f := e.frames[i]
		pos, ok := f.Segment.LookupPosition(f.PC)
		if ok {
			out = append(out, fmt.Sprintf("%s (%d:%d)", f.Segment.Name, pos.Line, pos.Col))
		} else {
			out = append(out, f.Segment.Name)
		}
	}
	return out
}
