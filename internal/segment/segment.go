// Package segment implements spec.md §4.3: a compiled callable unit —
// either bytecode with its constant pool and symbol tables, or a native
// function stub. Segments are built up by internal/compiler and read
// only by internal/vm at run time, mirroring the teacher's code/function
// split in internal/engine/interpreter (a mutable compile-time shape
// that gets instantiated into the read side the engine executes).
package segment

import (
	"github.com/ChandruSu/nscript/internal/ast"
	"github.com/ChandruSu/nscript/internal/opcode"
	"github.com/ChandruSu/nscript/internal/value"
)

// NativeFunc is the host function pointer a native segment dispatches
// to: given the environment (typed as interface{} here to avoid an
// import cycle with internal/vm, which must import segment), the base
// register of the first argument, and the argument count, it returns a
// result or a typed error.
type NativeFunc func(env interface{}, base, argCount int) (value.Value, error)

// posEntry is one row of the sparse pc -> Pos index (spec.md §4.3
// record_position / lookup_position).
type posEntry struct {
	addr int
	pos  ast.Pos
}

// Segment is a named compiled unit (spec.md §3). ParentSegment is -1 for
// segment 0 (the global segment) and for any segment with no lexical
// parent.
type Segment struct {
	Name         string
	IsGlobal     bool
	ParentSegment int

	Instructions []opcode.Instruction
	Constants    []value.Value
	SlotCount    int

	Locals   map[string]int
	localOrd []string
	UpValues map[string]int
	upOrd    []string

	positions []posEntry

	// ArgCount is the declared arity: for a native shim, the count a
	// module.FuncDef registered; for a user function, len(params). Used
	// to raise Argument arity-mismatch errors on native dispatch.
	ArgCount int

	// NativePointer is set only for native shims; Instructions is then
	// empty and the VM dispatches straight to NativePointer.
	NativePointer NativeFunc
}

// New creates an empty bytecode segment.
func New(name string, isGlobal bool, parent int) *Segment {
	return &Segment{
		Name:          name,
		IsGlobal:      isGlobal,
		ParentSegment: parent,
		Locals:        map[string]int{},
		UpValues:      map[string]int{},
	}
}

// NewNative creates a native shim segment: no instructions, a function
// pointer the VM bridges calls to (spec.md §4.6, §6 "native_fn_ptr").
func NewNative(name string, argCount int, fn NativeFunc) *Segment {
	s := New(name, false, -1)
	s.NativePointer = fn
	s.ArgCount = argCount
	return s
}

func (s *Segment) IsNative() bool { return s.NativePointer != nil }

// InternConstant implements spec.md §4.3: linear search, append if
// absent, preserving first-appearance order. The constant pool is small
// per segment so linear search is the right trade-off over a map keyed
// on value.Value — constants match by value.Value.Equal, which compares
// Floats with IEEE == rather than bit for bit.
func (s *Segment) InternConstant(v value.Value) int {
	for i, c := range s.Constants {
		if c.Equal(v) {
			return i
		}
	}
	s.Constants = append(s.Constants, v)
	return len(s.Constants) - 1
}

// DeclareLocal assigns the next register to name, refusing duplicates
// within this segment (spec.md §4.3).
func (s *Segment) DeclareLocal(name string) (int, bool) {
	if _, exists := s.Locals[name]; exists {
		return 0, false
	}
	reg := s.SlotCount
	if s.IsGlobal {
		// segment 0's names index the globals vector, numbered by
		// declaration order the same way DeclareOrGetGlobal numbers them.
		reg = len(s.localOrd)
	}
	s.Locals[name] = reg
	s.localOrd = append(s.localOrd, name)
	s.SlotCount++
	return reg, true
}

// DeclareOrGetGlobal is the idempotent variant used for host-injected
// globals (Env.SetGlobal) and the REPL's reserved `_` slot; top-level
// `let` bindings go through DeclareLocal, which refuses duplicates
// (spec.md §4.3, §4.4 "Segment zero is the global segment").
func (s *Segment) DeclareOrGetGlobal(name string) int {
	if reg, ok := s.Locals[name]; ok {
		return reg
	}
	reg := len(s.localOrd)
	s.Locals[name] = reg
	s.localOrd = append(s.localOrd, name)
	return reg
}

func (s *Segment) LookupLocal(name string) (int, bool) {
	reg, ok := s.Locals[name]
	return reg, ok
}

// DeclareUpvalue assigns the next up-value index to name; a name already
// captured returns its existing index instead of failing, so ok is
// always true (up-value capture is idempotent per enclosing chain,
// spec.md §4.4).
func (s *Segment) DeclareUpvalue(name string) (int, bool) {
	if idx, ok := s.UpValues[name]; ok {
		return idx, true
	}
	idx := len(s.upOrd)
	s.UpValues[name] = idx
	s.upOrd = append(s.upOrd, name)
	return idx, true
}

func (s *Segment) LookupUpvalue(name string) (int, bool) {
	idx, ok := s.UpValues[name]
	return idx, ok
}

func (s *Segment) UpvalueCount() int { return len(s.upOrd) }

// UpvalueNames returns the names captured by this segment in declaration
// order, the order Close's capture range must be filled in.
func (s *Segment) UpvalueNames() []string { return s.upOrd }

// RecordPosition maps the current instruction count to pos (spec.md
// §4.3). Positions are only emitted at statement boundaries, so the
// index stays sparse; LookupPosition finds the most recent entry at or
// before pc.
func (s *Segment) RecordPosition(pos ast.Pos) {
	addr := len(s.Instructions)
	if n := len(s.positions); n > 0 && s.positions[n-1].addr == addr {
		s.positions[n-1].pos = pos // statement recompiled at same address; keep latest
		return
	}
	s.positions = append(s.positions, posEntry{addr, pos})
}

// LookupPosition returns the most recent recorded Pos at or below pc.
func (s *Segment) LookupPosition(pc int) (ast.Pos, bool) {
	var best ast.Pos
	found := false
	for _, e := range s.positions {
		if e.addr > pc {
			break
		}
		best, found = e.pos, true
	}
	return best, found
}

// SpareRegister returns the first scratch register expression codegen
// should start using: register 0 for the global segment (its locals live
// in the VM's globals vector, not its register window — spec.md §4.4),
// or the first register past the declared locals for a local segment
// (spec.md §4.3).
func (s *Segment) SpareRegister() int {
	if s.IsGlobal {
		return 0
	}
	return len(s.localOrd)
}

// Emit appends an instruction and returns its address.
func (s *Segment) Emit(in opcode.Instruction) int {
	s.Instructions = append(s.Instructions, in)
	return len(s.Instructions) - 1
}

// Patch rewrites the B operand (the jump target) of the instruction at
// addr — used by the compiler's jump-patching passes (spec.md §4.4).
// JumpFalse/JumpTrue carry their target in B.
func (s *Segment) Patch(addr int, target int32) {
	s.Instructions[addr].B = target
}

// PatchA rewrites the A operand — Jump (unconditional) carries its
// target there instead of B, since its only other use of an operand slot
// is none at all.
func (s *Segment) PatchA(addr int, target int32) {
	s.Instructions[addr].A = target
}

func (s *Segment) Len() int { return len(s.Instructions) }

// GlobalSlotCount returns how many names segment 0's symbol table has
// declared — the backing size the VM's globals vector must cover
// (spec.md §3 Env.globals).
func (s *Segment) GlobalSlotCount() int { return len(s.localOrd) }
