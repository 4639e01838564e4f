// Package module defines the pure data shape of a host module
// registration (spec.md §6 "register_module"), kept separate from
// internal/vm so the registration contract — name, arity, function
// pointer — can be described and unit-tested without spinning up an
// Env. internal/vm does the actual wiring: binding each entry to a
// freshly appended native segment and assembling the module Object
// (spec.md §4.6 "Import semantics").
//
// Modeled on the teacher's HostFunctionBuilder (root builder.go):
// wazero collects (name, Go func) pairs and an Exporter binds them into
// callable module entries; here the same shape is flattened to a single
// registration call rather than a fluent builder, since there is no
// wasm-side type signature to negotiate — every nscript native takes
// (env, base register, arg count).
package module

import "github.com/ChandruSu/nscript/internal/segment"

// FuncDef is one native function entry of a module registration: its
// script-visible name, its fixed argument count (spec.md §7 "Argument"
// errors fire on arity mismatch), and its Go implementation.
type FuncDef struct {
	Name     string
	ArgCount int
	Fn       segment.NativeFunc
}

// Def is a full module registration: a name (looked up by `import`) and
// its function table.
type Def struct {
	Name      string
	Functions []FuncDef
}

func New(name string, fns ...FuncDef) Def {
	return Def{Name: name, Functions: fns}
}
