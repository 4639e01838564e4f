package vm

import (
	"fmt"

	"github.com/ChandruSu/nscript/internal/errdefs"
	"github.com/ChandruSu/nscript/internal/heap"
	"github.com/ChandruSu/nscript/internal/opcode"
	"github.com/ChandruSu/nscript/internal/value"
)

// callSegment runs segIdx's bytecode to completion starting at pc 0 with
// register window [sp, sp+slotCount) and the given closure pointer
// (spec.md §4.6). It panics with a *errdefs.Error on any fault; callers
// at a Go-recursion boundary (Run, Call, and the Call-instruction case
// below) are responsible for letting that propagate or recovering it.
func (e *Env) callSegment(segIdx, closurePtr, sp int) value.Value {
	seg := e.Segments[segIdx]
	e.ensureRegisters(sp + seg.SlotCount)

	prevTop := e.regTop
	e.regTop = sp + seg.SlotCount

	fr := &frame{Segment: seg, SP: sp, Closure: closurePtr}
	e.frames = append(e.frames, fr)
	defer func() {
		e.frames = e.frames[:len(e.frames)-1]
		e.regTop = prevTop
		if r := recover(); r != nil {
			if nerr, ok := r.(*errdefs.Error); ok {
				if pos, ok := seg.LookupPosition(fr.PC); ok {
					panic(nerr.WithPos(errdefs.Pos{Line: pos.Line, Col: pos.Col}))
				}
				panic(nerr)
			}
			panic(r)
		}
	}()

	r := func(i int32) value.Value { return e.Registers[sp+int(i)] }
	set := func(i int32, v value.Value) { e.Registers[sp+int(i)] = v }

	for {
		in := seg.Instructions[fr.PC]
		e.Log.WithFields(map[string]interface{}{"seg": seg.Name, "pc": fr.PC, "op": in.Code.String()}).Trace("dispatch")

		switch in.Code {
		case opcode.Nop:
			// no-op

		case opcode.Move:
			set(in.A, r(in.B))

		case opcode.LoadN:
			set(in.A, value.NewNull())

		case opcode.LoadB:
			set(in.A, value.NewBool(in.B != 0))

		case opcode.LoadK:
			set(in.A, seg.Constants[in.B])

		case opcode.LoadF:
			set(in.A, value.NewFunc(int(in.B), 0))

		case opcode.LoadG:
			if int(in.B) >= len(e.Globals) {
				set(in.A, value.NewNull())
			} else {
				set(in.A, e.Globals[in.B])
			}

		case opcode.SetG:
			e.ensureGlobals(int(in.A) + 1)
			e.Globals[in.A] = r(in.B)

		case opcode.LoadU:
			node := e.Heap.Access(fr.Closure)
			set(in.A, node.Captured[in.B])

		case opcode.Close:
			fn := r(in.A)
			if fn.Kind() != value.Func {
				panic(errdefs.Type(fmt.Errorf("Close target is not a bare function value")))
			}
			captured := make([]value.Value, 0, int(in.C)-int(in.B))
			for i := in.B; i < in.C; i++ {
				captured = append(captured, r(i))
			}
			ptr := e.Heap.Allocate(heap.Node{Kind: heap.KindClosure, Captured: captured})
			set(in.A, value.NewFunc(fn.SegmentID(), ptr))

		case opcode.Add, opcode.Sub, opcode.Mul, opcode.Div, opcode.Mod,
			opcode.Shl, opcode.Shr, opcode.BitAnd, opcode.BitOr, opcode.BitXor:
			result, err := binaryOp(in.Code, r(in.B), r(in.C))
			if err != nil {
				panic(err)
			}
			set(in.A, result)

		case opcode.Neg:
			result, err := value.Neg(r(in.B))
			if err != nil {
				panic(err)
			}
			set(in.A, result)

		case opcode.Not:
			set(in.A, value.Not(r(in.B)))

		case opcode.BitNot:
			result, err := value.BitNot(r(in.B))
			if err != nil {
				panic(err)
			}
			set(in.A, result)

		case opcode.Eq:
			set(in.A, value.NewBool(r(in.B).Equal(r(in.C))))

		case opcode.Neq:
			set(in.A, value.NewBool(!r(in.B).Equal(r(in.C))))

		case opcode.Le:
			less, equal, ok := value.Compare(r(in.B), r(in.C))
			set(in.A, value.NewBool(ok && (less || equal)))

		case opcode.Lt:
			less, _, ok := value.Compare(r(in.B), r(in.C))
			set(in.A, value.NewBool(ok && less))

		case opcode.Jump:
			fr.PC = int(in.A)
			continue

		case opcode.JumpFalse:
			if !r(in.A).Truthy() {
				fr.PC = int(in.B)
				continue
			}

		case opcode.JumpTrue:
			if r(in.A).Truthy() {
				fr.PC = int(in.B)
				continue
			}

		case opcode.Call:
			callee := r(in.B)
			if callee.Kind() != value.Func {
				panic(errdefs.Type(fmt.Errorf("%s is not callable", callee.TypeName())))
			}
			calleeSeg := e.Segments[callee.SegmentID()]
			calleeSP := sp + int(in.C)
			var result value.Value
			if calleeSeg.IsNative() {
				if int(in.D) != calleeSeg.ArgCount {
					panic(errdefs.Argument(fmt.Errorf("%s expects %d argument(s), got %d", calleeSeg.Name, calleeSeg.ArgCount, in.D)))
				}
				var err error
				result, err = calleeSeg.NativePointer(e, calleeSP, int(in.D))
				if err != nil {
					panic(err)
				}
			} else {
				result = e.callSegment(callee.SegmentID(), callee.ClosurePtr(), calleeSP)
			}
			set(in.A, result)

		case opcode.Ret:
			return r(in.A)

		case opcode.RetNone:
			return value.NewNull()

		case opcode.ObjNew:
			e.maybeCollect()
			ptr := e.Heap.Allocate(heap.Node{Kind: heap.KindObject, Entries: map[value.Value]value.Value{}})
			set(in.A, value.NewObject(ptr))

		case opcode.ArrNew:
			e.maybeCollect()
			ptr := e.Heap.Allocate(heap.Node{Kind: heap.KindArray, Elements: make([]value.Value, in.B)})
			set(in.A, value.NewArray(ptr))

		case opcode.ObjGet:
			result, err := e.objGet(r(in.B), r(in.C))
			if err != nil {
				panic(err)
			}
			set(in.A, result)

		case opcode.ObjIns:
			if err := e.objIns(r(in.A), r(in.B), r(in.C)); err != nil {
				panic(err)
			}

		case opcode.Import:
			result, err := e.nativeImport(e, sp+int(in.A), 1)
			if err != nil {
				panic(err)
			}
			set(in.A, result)

		default:
			panic(errdefs.Compile(fmt.Errorf("unimplemented opcode %s", in.Code.String())))
		}

		fr.PC++
	}
}

func binaryOp(code opcode.Code, a, b value.Value) (value.Value, error) {
	switch code {
	case opcode.Add:
		return value.Add(a, b)
	case opcode.Sub:
		return value.Sub(a, b)
	case opcode.Mul:
		return value.Mul(a, b)
	case opcode.Div:
		return value.Div(a, b)
	case opcode.Mod:
		return value.Mod(a, b)
	case opcode.Shl:
		return value.Shl(a, b)
	case opcode.Shr:
		return value.Shr(a, b)
	case opcode.BitAnd:
		return value.BitAnd(a, b)
	case opcode.BitOr:
		return value.BitOr(a, b)
	case opcode.BitXor:
		return value.BitXor(a, b)
	default:
		panic("vm: not a binary opcode")
	}
}

func (e *Env) objGet(base, idx value.Value) (value.Value, error) {
	switch base.Kind() {
	case value.String:
		if idx.Kind() != value.Int {
			return value.Value{}, errdefs.Type(fmt.Errorf("string index must be Int, got %s", idx.TypeName()))
		}
		runes := []rune(base.AsString())
		i := idx.AsInt()
		if i < 0 || i >= int64(len(runes)) {
			return value.Value{}, errdefs.Index(fmt.Errorf("string index %d out of range (len %d)", i, len(runes)))
		}
		return value.NewString(string(runes[i])), nil
	case value.Array:
		if idx.Kind() != value.Int {
			return value.Value{}, errdefs.Type(fmt.Errorf("array index must be Int, got %s", idx.TypeName()))
		}
		elems := e.Heap.Access(base.HeapPtr()).Elements
		i := idx.AsInt()
		if i < 0 || i >= int64(len(elems)) {
			return value.Value{}, errdefs.Index(fmt.Errorf("array index %d out of range (len %d)", i, len(elems)))
		}
		return elems[i], nil
	case value.Object:
		entries := e.Heap.Access(base.HeapPtr()).Entries
		if v, ok := entries[idx]; ok {
			return v, nil
		}
		return value.NewNull(), nil
	default:
		return value.Value{}, errdefs.Type(fmt.Errorf("cannot index into %s", base.TypeName()))
	}
}

func (e *Env) objIns(base, key, val value.Value) error {
	switch base.Kind() {
	case value.Object:
		node := e.Heap.Access(base.HeapPtr())
		node.Entries[key] = val
		return nil
	case value.Array:
		if key.Kind() != value.Int {
			return errdefs.Type(fmt.Errorf("array index must be Int, got %s", key.TypeName()))
		}
		node := e.Heap.Access(base.HeapPtr())
		i := key.AsInt()
		if i < 0 || i >= int64(len(node.Elements)) {
			return errdefs.Index(fmt.Errorf("array index %d out of range (len %d)", i, len(node.Elements)))
		}
		node.Elements[i] = val
		return nil
	default:
		return errdefs.Type(fmt.Errorf("cannot assign into %s", base.TypeName()))
	}
}
