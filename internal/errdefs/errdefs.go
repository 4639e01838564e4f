// Package errdefs classifies nscript errors the way moby/moby's errdefs
// package classifies daemon errors: a single wrapper type, Error, tagged
// with one Kind per spec.md §7 error kind, satisfying Cause() error and
// participating in errors.Is/As so callers can classify a wrapped error
// without a type switch on the concrete constructor used.
package errdefs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the error taxonomy of spec.md §7. Names are identifiers, not
// Go types — Kind is carried on Error for classification and display.
type Kind int

const (
	KindIO Kind = iota
	KindSyntax
	KindCompile
	KindName
	KindType
	KindArithmetic
	KindArgument
	KindIndex
	KindValue
	KindCustom
	KindModuleNotFound
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IO"
	case KindSyntax:
		return "Syntax"
	case KindCompile:
		return "CompileError"
	case KindName:
		return "Name"
	case KindType:
		return "Type"
	case KindArithmetic:
		return "Arithmetic"
	case KindArgument:
		return "Argument"
	case KindIndex:
		return "Index"
	case KindValue:
		return "Value"
	case KindCustom:
		return "Custom"
	case KindModuleNotFound:
		return "ModuleNotFound"
	default:
		return "Unknown"
	}
}

// Pos mirrors ast.Pos without importing internal/ast, keeping this
// package free of a dependency on the front-end.
type Pos struct {
	Line, Col int
}

// Error is the concrete error value that crosses the VM/compiler
// boundary into host code. It always has a Kind and an underlying cause,
// and usually a Pos once it has unwound through the dispatch loop
// (spec.md §7 "Propagation").
type Error struct {
	kind  Kind
	cause error
	pos   Pos
	posOK bool
}

func newError(k Kind, cause error) *Error {
	return &Error{kind: k, cause: cause}
}

func (e *Error) Error() string {
	if e.posOK {
		return fmt.Sprintf("%s: %v (at %d:%d)", e.kind, e.cause, e.pos.Line, e.pos.Col)
	}
	return fmt.Sprintf("%s: %v", e.kind, e.cause)
}

// Cause returns the wrapped error, the causal interface that
// github.com/pkg/errors.Cause unwraps through.
func (e *Error) Cause() error { return e.cause }

// Unwrap lets errors.Is/errors.As see through Error to its cause.
func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Kind() Kind { return e.kind }

// Pos returns the attached position and whether one has been set.
func (e *Error) Pos() (Pos, bool) { return e.pos, e.posOK }

// WithPos attaches a position if the error does not already carry one —
// spec.md §7: "the loop attaches the current pc's source Pos if none is
// set".
func (e *Error) WithPos(p Pos) *Error {
	if e.posOK {
		return e
	}
	cp := *e
	cp.pos, cp.posOK = p, true
	return &cp
}

func asKind(err error, k Kind) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, e.kind == k
	}
	return nil, false
}

// Constructors, one per Kind, mirroring moby/moby's errdefs.NotFound /
// errdefs.Conflict / ... shape.

func IOError(cause error) *Error     { return newError(KindIO, cause) }
func Syntax(cause error) *Error      { return newError(KindSyntax, cause) }
func Compile(cause error) *Error     { return newError(KindCompile, cause) }
func Name(cause error) *Error        { return newError(KindName, cause) }
func Type(cause error) *Error        { return newError(KindType, cause) }
func Arithmetic(cause error) *Error  { return newError(KindArithmetic, cause) }
func Argument(cause error) *Error    { return newError(KindArgument, cause) }
func Index(cause error) *Error       { return newError(KindIndex, cause) }
func Value(cause error) *Error       { return newError(KindValue, cause) }
func Custom(cause error) *Error      { return newError(KindCustom, cause) }
func ModuleNotFound(name string) *Error {
	return newError(KindModuleNotFound, errors.Errorf("module %q not found", name))
}

// Is<Kind> predicates, the same idiom moby/moby's errdefs.IsNotFound uses.

func IsIO(err error) bool            { _, ok := asKind(err, KindIO); return ok }
func IsSyntax(err error) bool        { _, ok := asKind(err, KindSyntax); return ok }
func IsCompile(err error) bool       { _, ok := asKind(err, KindCompile); return ok }
func IsName(err error) bool          { _, ok := asKind(err, KindName); return ok }
func IsType(err error) bool          { _, ok := asKind(err, KindType); return ok }
func IsArithmetic(err error) bool    { _, ok := asKind(err, KindArithmetic); return ok }
func IsArgument(err error) bool      { _, ok := asKind(err, KindArgument); return ok }
func IsIndex(err error) bool         { _, ok := asKind(err, KindIndex); return ok }
func IsValue(err error) bool         { _, ok := asKind(err, KindValue); return ok }
func IsCustom(err error) bool        { _, ok := asKind(err, KindCustom); return ok }
func IsModuleNotFound(err error) bool { _, ok := asKind(err, KindModuleNotFound); return ok }

// Named errors used as sentinel causes for compile-time failure modes
// (spec.md §4.4 "Failure modes of compilation").
var (
	ErrDuplicateName        = errors.New("duplicate name")
	ErrUnknownName           = errors.New("unknown name")
	ErrMutateClosure         = errors.New("cannot mutate captured up-value")
	ErrInvalidReturnPosition = errors.New("return at global scope")
	ErrInvalidAstNode        = errors.New("invalid ast node in statement position")
)
