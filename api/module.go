package api

import (
	"github.com/ChandruSu/nscript/internal/module"
	"github.com/ChandruSu/nscript/internal/segment"
)

// NativeFunc is a host-implemented module function: base is the register
// holding the first argument, argCount how many were passed (spec.md §6
// "register_module"). Implementations read args from env.Arg and
// return a Value or a *Error.
type NativeFunc = segment.NativeFunc

// FuncDef names one function a module exports, with the fixed arity the
// VM enforces on every call (spec.md §7 Argument errors).
type FuncDef = module.FuncDef

// ModuleDef is a host module: a name scripts reach via `import("name")`
// and its function table. Build one with NewModule and hand it to
// Runtime.RegisterModule.
type ModuleDef = module.Def

func NewModule(name string, fns ...FuncDef) ModuleDef {
	return module.New(name, fns...)
}
