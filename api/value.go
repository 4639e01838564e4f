// Package api is the public, stable surface embedders code against —
// mirroring the teacher's own api package (api/wasm.go), which exists so
// host code never has to import internal/wasm directly. Here the split is
// the same: internal/value and internal/vm hold the real implementation,
// this package re-exports just enough of it as type aliases and
// constructors for a host to build and inspect nscript values without
// reaching into internal/.
package api

import (
	"github.com/ChandruSu/nscript/internal/value"
)

// Kind is the runtime type tag of a Value, re-exported from
// internal/value so callers never import internal/ packages directly.
type Kind = value.Kind

const (
	KindNull   = value.Null
	KindInt    = value.Int
	KindFloat  = value.Float
	KindBool   = value.Bool
	KindString = value.String
	KindFunc   = value.Func
	KindObject = value.Object
	KindArray  = value.Array
)

// Value is the host-facing alias for the VM's internal tagged union.
// Host code receives these from Runtime.Eval/Call and GetGlobal, and
// builds them with the New* constructors below to pass as arguments or
// globals.
type Value = value.Value

func NewNull() Value           { return value.NewNull() }
func NewInt(v int64) Value     { return value.NewInt(v) }
func NewFloat(v float64) Value { return value.NewFloat(v) }
func NewBool(v bool) Value     { return value.NewBool(v) }
func NewString(v string) Value { return value.NewString(v) }

// HeapAccessor is the minimal view over the heap arena that Value's
// ToDisplay/ToRepr need to render Array/Object contents — re-exported so
// host code can pass Runtime.Heap() to them without importing
// internal/value or internal/heap directly.
type HeapAccessor = value.HeapAccessor
