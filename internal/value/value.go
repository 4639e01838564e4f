// Package value implements the tagged runtime Value of spec.md §3/§4.2:
// a small sum type of scalars plus pointers into the heap arena
// (internal/heap), with the arithmetic, ordering, hashing and display
// semantics the VM and compiler rely on.
//
// Value itself never owns heap memory (spec.md §9 "Cyclic reference
// graphs"): Object, Array and Func-with-closure only ever carry a heap
// index. A Value is a small comparable struct, so it can be copied
// freely and used directly as a Go map key — this is how Object entries
// are stored (internal/heap), satisfying spec.md's "keys must be
// hashable" without a hand-rolled hash table.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ChandruSu/nscript/internal/errdefs"
)

// Kind tags the active variant of a Value.
type Kind uint8

const (
	Null Kind = iota
	Int
	Float
	Bool
	String
	Func
	Object
	Array
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "Null"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Bool:
		return "Boolean"
	case String:
		return "String"
	case Func:
		return "Function"
	case Object:
		return "Object"
	case Array:
		return "Array"
	default:
		return "Unknown"
	}
}

// Value is the tagged union. Which fields are meaningful depends on
// Kind:
//
//	Null:            (no payload)
//	Int, Bool:       i
//	Float:           f
//	String:          s   (Go strings are already immutable & shared —
//	                      copying this Value is the "cheap clone" spec.md
//	                      §9 asks reference counting for)
//	Func:             i  = segment id, ptr = closure heap index (0 = none)
//	Object, Array:    ptr = heap index
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	ptr  int
}

func NewNull() Value              { return Value{kind: Null} }
func NewInt(i int64) Value        { return Value{kind: Int, i: i} }
func NewFloat(f float64) Value    { return Value{kind: Float, f: f} }
func NewBool(b bool) Value {
	v := Value{kind: Bool}
	if b {
		v.i = 1
	}
	return v
}
func NewString(s string) Value       { return Value{kind: String, s: s} }
func NewFunc(segID, closurePtr int) Value {
	return Value{kind: Func, i: int64(segID), ptr: closurePtr}
}
func NewObject(heapPtr int) Value { return Value{kind: Object, ptr: heapPtr} }
func NewArray(heapPtr int) Value  { return Value{kind: Array, ptr: heapPtr} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == Null }

func (v Value) AsInt() int64      { return v.i }
func (v Value) AsFloat() float64  { return v.f }
func (v Value) AsBool() bool      { return v.i != 0 }
func (v Value) AsString() string  { return v.s }
func (v Value) SegmentID() int    { return int(v.i) }
func (v Value) ClosurePtr() int   { return v.ptr }
func (v Value) HeapPtr() int      { return v.ptr }

// Truthy implements spec.md §4.2: Null, zero scalars and empty string are
// falsy; every Object/Array/Func is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case Null:
		return false
	case Int:
		return v.i != 0
	case Float:
		return v.f != 0
	case Bool:
		return v.i != 0
	case String:
		return v.s != ""
	default:
		return true
	}
}

func (v Value) TypeName() string { return v.kind.String() }

// Equal is structural for scalars and pointer-identity for Func and heap
// types, matching spec.md §3 exactly — which native == on the struct
// already gives us, since Func/Object/Array equality only depends on
// the (i, ptr) pair and scalars only depend on their own payload field.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Int, Bool, Func:
		return v.i == o.i && v.ptr == o.ptr
	case Float:
		return v.f == o.f
	case String:
		return v.s == o.s
	case Object, Array:
		return v.ptr == o.ptr
	default:
		return false
	}
}

// Hash implements the tag-prefixed hashing of spec.md §4.2. Not used by
// Object storage (Value is a comparable Go struct and can be a map key
// directly) but kept as a first-class operation since the spec calls it
// out as a contract of its own, and native modules (e.g. a future
// hashmap-backed cache) may want it.
func (v Value) Hash() uint64 {
	const prime = 1099511628211
	h := uint64(v.kind) * prime
	switch v.kind {
	case Int, Bool, Func:
		h ^= uint64(v.i)
		h ^= uint64(v.ptr) * prime
	case Float:
		h ^= math.Float64bits(v.f)
	case String:
		for i := 0; i < len(v.s); i++ {
			h = (h ^ uint64(v.s[i])) * prime
		}
	case Object, Array:
		h ^= uint64(v.ptr)
	}
	return h
}

func isNumeric(v Value) bool { return v.kind == Int || v.kind == Float }

func toFloat(v Value) float64 {
	if v.kind == Int {
		return float64(v.i)
	}
	return v.f
}

func typeMismatch(op string, a, b Value) error {
	return errdefs.Type(fmt.Errorf("operator %s not defined between %s and %s", op, a.TypeName(), b.TypeName()))
}

// Add implements `+`, including string concatenation (spec.md §4.2).
func Add(a, b Value) (Value, error) {
	if a.kind == String && b.kind == String {
		return NewString(a.s + b.s), nil
	}
	if isNumeric(a) && isNumeric(b) {
		if a.kind == Int && b.kind == Int {
			return NewInt(a.i + b.i), nil // wraps per int64 semantics
		}
		return NewFloat(toFloat(a) + toFloat(b)), nil
	}
	return Value{}, typeMismatch("+", a, b)
}

func Sub(a, b Value) (Value, error) {
	if isNumeric(a) && isNumeric(b) {
		if a.kind == Int && b.kind == Int {
			return NewInt(a.i - b.i), nil
		}
		return NewFloat(toFloat(a) - toFloat(b)), nil
	}
	return Value{}, typeMismatch("-", a, b)
}

func Mul(a, b Value) (Value, error) {
	if isNumeric(a) && isNumeric(b) {
		if a.kind == Int && b.kind == Int {
			return NewInt(a.i * b.i), nil
		}
		return NewFloat(toFloat(a) * toFloat(b)), nil
	}
	return Value{}, typeMismatch("*", a, b)
}

// Div implements `/`. MIN / -1 wraps per spec.md §4.2 rather than
// panicking, matching Go's own int64 overflow behavior on division.
func Div(a, b Value) (Value, error) {
	if !isNumeric(a) || !isNumeric(b) {
		return Value{}, typeMismatch("/", a, b)
	}
	if a.kind == Int && b.kind == Int {
		if b.i == 0 {
			return Value{}, errdefs.Arithmetic(fmt.Errorf("division by zero"))
		}
		return NewInt(wrappingDivInt64(a.i, b.i)), nil
	}
	fb := toFloat(b)
	if fb == 0 {
		return Value{}, errdefs.Arithmetic(fmt.Errorf("division by zero"))
	}
	return NewFloat(toFloat(a) / fb), nil
}

func wrappingDivInt64(a, b int64) int64 {
	if a == math.MinInt64 && b == -1 {
		return math.MinInt64 // wraps instead of overflowing
	}
	return a / b
}

func Mod(a, b Value) (Value, error) {
	if !isNumeric(a) || !isNumeric(b) {
		return Value{}, typeMismatch("%", a, b)
	}
	if a.kind == Int && b.kind == Int {
		if b.i == 0 {
			return Value{}, errdefs.Arithmetic(fmt.Errorf("modulo by zero"))
		}
		if a.i == math.MinInt64 && b.i == -1 {
			return NewInt(0), nil
		}
		return NewInt(a.i % b.i), nil
	}
	fb := toFloat(b)
	if fb == 0 {
		return Value{}, errdefs.Arithmetic(fmt.Errorf("modulo by zero"))
	}
	return NewFloat(math.Mod(toFloat(a), fb)), nil
}

func bitwise(op string, a, b Value, f func(x, y int64) int64) (Value, error) {
	if a.kind != Int || b.kind != Int {
		return Value{}, typeMismatch(op, a, b)
	}
	return NewInt(f(a.i, b.i)), nil
}

func BitAnd(a, b Value) (Value, error) { return bitwise("&", a, b, func(x, y int64) int64 { return x & y }) }
func BitOr(a, b Value) (Value, error)  { return bitwise("|", a, b, func(x, y int64) int64 { return x | y }) }
func BitXor(a, b Value) (Value, error) { return bitwise("^", a, b, func(x, y int64) int64 { return x ^ y }) }

// Shl/Shr implement `<<`/`>>`. Per the original_source resolution of the
// spec's Open Question, `>>` is an arithmetic shift on signed int64 (Go's
// native >> on a signed int is already arithmetic).
func Shl(a, b Value) (Value, error) {
	if a.kind != Int || b.kind != Int {
		return Value{}, typeMismatch("<<", a, b)
	}
	if b.i < 0 {
		return Value{}, errdefs.Arithmetic(fmt.Errorf("negative shift amount %d", b.i))
	}
	return NewInt(a.i << uint(b.i)), nil
}

func Shr(a, b Value) (Value, error) {
	if a.kind != Int || b.kind != Int {
		return Value{}, typeMismatch(">>", a, b)
	}
	if b.i < 0 {
		return Value{}, errdefs.Arithmetic(fmt.Errorf("negative shift amount %d", b.i))
	}
	return NewInt(a.i >> uint(b.i)), nil
}

// Neg/Not/BitNot implement unary `-`, `!`, `~` (spec.md §4.2).
func Neg(a Value) (Value, error) {
	switch a.kind {
	case Int:
		return NewInt(-a.i), nil // wraps at MinInt64
	case Float:
		return NewFloat(-a.f), nil
	default:
		return Value{}, errdefs.Type(fmt.Errorf("unary - not defined for %s", a.TypeName()))
	}
}

func Not(a Value) Value { return NewBool(!a.Truthy()) }

func BitNot(a Value) (Value, error) {
	if a.kind != Int {
		return Value{}, errdefs.Type(fmt.Errorf("unary ~ not defined for %s", a.TypeName()))
	}
	return NewInt(^a.i), nil
}

// Compare implements `<`/`<=` (spec.md §4.2: `>`/`>=` compile to these
// with swapped operands). ok is false for incomparable pairs, in which
// case callers must treat the comparison as false per spec.md §8.3.
func Compare(a, b Value) (less, equal, ok bool) {
	if a.kind != b.kind {
		return false, false, false
	}
	switch a.kind {
	case Int:
		return a.i < b.i, a.i == b.i, true
	case Float:
		return a.f < b.f, a.f == b.f, true
	case String:
		return a.s < b.s, a.s == b.s, true
	case Bool:
		return a.i < b.i, a.i == b.i, true
	default:
		return false, false, false
	}
}

// HeapAccessor is the subset of internal/heap.Heap that display/repr
// rendering needs. Declared here (rather than importing internal/heap
// directly) to keep value -> heap a one-way dependency: internal/heap
// already must import internal/value for HeapNode's payload.
type HeapAccessor interface {
	ArrayElements(ptr int) []Value
	ObjectEntries(ptr int) map[Value]Value
}

// ToDisplay and ToRepr implement spec.md §4.2's recursive rendering with
// cycle detection: a revisited Array/Object renders as `[...]`/`{ ... }`
// rather than recursing forever (spec.md §8.11).
func (v Value) ToDisplay(h HeapAccessor) string {
	var sb strings.Builder
	v.render(h, &sb, map[int]bool{}, false)
	return sb.String()
}

func (v Value) ToRepr(h HeapAccessor) string {
	var sb strings.Builder
	v.render(h, &sb, map[int]bool{}, true)
	return sb.String()
}

func (v Value) render(h HeapAccessor, sb *strings.Builder, visited map[int]bool, repr bool) {
	switch v.kind {
	case Null:
		sb.WriteString("null")
	case Int:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case Float:
		sb.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case Bool:
		sb.WriteString(strconv.FormatBool(v.i != 0))
	case String:
		if repr {
			sb.WriteByte('\'')
			sb.WriteString(v.s)
			sb.WriteByte('\'')
		} else {
			sb.WriteString(v.s)
		}
	case Func:
		fmt.Fprintf(sb, "<function %d>", v.i)
	case Array:
		if visited[v.ptr] {
			sb.WriteString("[...]")
			return
		}
		visited[v.ptr] = true
		sb.WriteByte('[')
		elems := h.ArrayElements(v.ptr)
		for i, e := range elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.render(h, sb, visited, true)
		}
		sb.WriteByte(']')
		delete(visited, v.ptr)
	case Object:
		if visited[v.ptr] {
			sb.WriteString("{ ... }")
			return
		}
		visited[v.ptr] = true
		sb.WriteString("{ ")
		entries := h.ObjectEntries(v.ptr)
		i := 0
		for k, val := range entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			k.render(h, sb, visited, true)
			sb.WriteString(": ")
			val.render(h, sb, visited, true)
			i++
		}
		sb.WriteString(" }")
		delete(visited, v.ptr)
	}
}

// Length implements spec.md §4.2 `length`: String (character count),
// Object (entry count), Array (element count).
func Length(v Value, h HeapAccessor) (int, error) {
	switch v.kind {
	case String:
		return len([]rune(v.s)), nil
	case Array:
		return len(h.ArrayElements(v.ptr)), nil
	case Object:
		return len(h.ObjectEntries(v.ptr)), nil
	default:
		return 0, errdefs.Type(fmt.Errorf("length not defined for %s", v.TypeName()))
	}
}
