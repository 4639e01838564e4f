package api

import "github.com/ChandruSu/nscript/internal/errdefs"

// ErrorKind is the host-visible error taxonomy of spec.md §7, re-exported
// the same way KindNotFound/KindConflict are re-exported by moby/moby's
// public errdefs package from its internal classification.
type ErrorKind = errdefs.Kind

const (
	ErrKindIO             = errdefs.KindIO
	ErrKindSyntax         = errdefs.KindSyntax
	ErrKindCompile        = errdefs.KindCompile
	ErrKindName           = errdefs.KindName
	ErrKindType           = errdefs.KindType
	ErrKindArithmetic     = errdefs.KindArithmetic
	ErrKindArgument       = errdefs.KindArgument
	ErrKindIndex          = errdefs.KindIndex
	ErrKindValue          = errdefs.KindValue
	ErrKindCustom         = errdefs.KindCustom
	ErrKindModuleNotFound = errdefs.KindModuleNotFound
)

// Error is the concrete error type every Runtime method can return.
type Error = errdefs.Error

// Is<Kind> predicates, re-exported for host code that wants to branch on
// failure category without an errdefs import of its own.
var (
	IsSyntaxError = errdefs.IsSyntax
	IsCompileError = errdefs.IsCompile
	IsNameError    = errdefs.IsName
	IsTypeError    = errdefs.IsType
	IsArithmeticError = errdefs.IsArithmetic
	IsArgumentError   = errdefs.IsArgument
	IsIndexError      = errdefs.IsIndex
	IsModuleNotFoundError = errdefs.IsModuleNotFound
)
