// Package std implements the `std` native module: the core stdlib
// surface SPEC_FULL §C pins down from spec.md's abstract "print, length,
// typeOf, array/object mutators, parse/time, manual GC trigger" (§1, §6).
// Grounded on the teacher's host-function idiom (builder.go
// HostFunctionBuilder.WithFunc — a host Go func bound to a script-visible
// name) simplified to nscript's flatter (env, base, argCount) native
// calling convention (internal/segment.NativeFunc), since there is no
// wasm-side parameter/result type signature to negotiate here.
package std

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ChandruSu/nscript/internal/errdefs"
	"github.com/ChandruSu/nscript/internal/heap"
	"github.com/ChandruSu/nscript/internal/module"
	"github.com/ChandruSu/nscript/internal/value"
	"github.com/ChandruSu/nscript/internal/vm"
)

func errf(format string, args ...interface{}) error { return fmt.Errorf(format, args...) }

// Module builds the `std` registration handed to Env.RegisterModule.
func Module() module.Def {
	return module.New("std",
		module.FuncDef{Name: "print", ArgCount: 1, Fn: print_},
		module.FuncDef{Name: "println", ArgCount: 1, Fn: println_},
		module.FuncDef{Name: "len", ArgCount: 1, Fn: length},
		module.FuncDef{Name: "typeOf", ArgCount: 1, Fn: typeOf},
		module.FuncDef{Name: "push", ArgCount: 2, Fn: push},
		module.FuncDef{Name: "pop", ArgCount: 1, Fn: pop},
		module.FuncDef{Name: "keys", ArgCount: 1, Fn: keys},
		module.FuncDef{Name: "values", ArgCount: 1, Fn: values},
		module.FuncDef{Name: "has", ArgCount: 2, Fn: has},
		module.FuncDef{Name: "remove", ArgCount: 2, Fn: remove},
		module.FuncDef{Name: "parseInt", ArgCount: 1, Fn: parseInt},
		module.FuncDef{Name: "parseFloat", ArgCount: 1, Fn: parseFloat},
		module.FuncDef{Name: "toString", ArgCount: 1, Fn: toString},
		module.FuncDef{Name: "gc", ArgCount: 0, Fn: gc},
		module.FuncDef{Name: "time", ArgCount: 0, Fn: nowSeconds},
		module.FuncDef{Name: "args", ArgCount: 0, Fn: args},
	)
}

func env(e interface{}) *vm.Env { return e.(*vm.Env) }

func print_(e interface{}, base, _ int) (value.Value, error) {
	v := env(e).Arg(base, 0)
	env(e).Stdout.Write([]byte(v.ToDisplay(env(e).Heap)))
	return value.NewNull(), nil
}

func println_(e interface{}, base, _ int) (value.Value, error) {
	v := env(e).Arg(base, 0)
	env(e).Stdout.Write([]byte(v.ToDisplay(env(e).Heap) + "\n"))
	return value.NewNull(), nil
}

func length(e interface{}, base, _ int) (value.Value, error) {
	n, err := value.Length(env(e).Arg(base, 0), env(e).Heap)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewInt(int64(n)), nil
}

func typeOf(e interface{}, base, _ int) (value.Value, error) {
	return value.NewString(env(e).Arg(base, 0).TypeName()), nil
}

func push(e interface{}, base, _ int) (value.Value, error) {
	arr := env(e).Arg(base, 0)
	if arr.Kind() != value.Array {
		return value.Value{}, errdefs.Type(errf("push expects an Array, got %s", arr.TypeName()))
	}
	elem := env(e).Arg(base, 1)
	node := env(e).Heap.Access(arr.HeapPtr())
	node.Elements = append(node.Elements, elem)
	return value.NewNull(), nil
}

func pop(e interface{}, base, _ int) (value.Value, error) {
	arr := env(e).Arg(base, 0)
	if arr.Kind() != value.Array {
		return value.Value{}, errdefs.Type(errf("pop expects an Array, got %s", arr.TypeName()))
	}
	node := env(e).Heap.Access(arr.HeapPtr())
	n := len(node.Elements)
	if n == 0 {
		return value.Value{}, errdefs.Index(errf("pop on empty array"))
	}
	last := node.Elements[n-1]
	node.Elements = node.Elements[:n-1]
	return last, nil
}

func keys(e interface{}, base, _ int) (value.Value, error) {
	obj := env(e).Arg(base, 0)
	if obj.Kind() != value.Object {
		return value.Value{}, errdefs.Type(errf("keys expects an Object, got %s", obj.TypeName()))
	}
	entries := env(e).Heap.Access(obj.HeapPtr()).Entries
	elems := make([]value.Value, 0, len(entries))
	for k := range entries {
		elems = append(elems, k)
	}
	ptr := env(e).Heap.Allocate(heap.Node{Kind: heap.KindArray, Elements: elems})
	return value.NewArray(ptr), nil
}

func values(e interface{}, base, _ int) (value.Value, error) {
	obj := env(e).Arg(base, 0)
	if obj.Kind() != value.Object {
		return value.Value{}, errdefs.Type(errf("values expects an Object, got %s", obj.TypeName()))
	}
	entries := env(e).Heap.Access(obj.HeapPtr()).Entries
	elems := make([]value.Value, 0, len(entries))
	for _, v := range entries {
		elems = append(elems, v)
	}
	ptr := env(e).Heap.Allocate(heap.Node{Kind: heap.KindArray, Elements: elems})
	return value.NewArray(ptr), nil
}

func has(e interface{}, base, _ int) (value.Value, error) {
	obj := env(e).Arg(base, 0)
	if obj.Kind() != value.Object {
		return value.Value{}, errdefs.Type(errf("has expects an Object, got %s", obj.TypeName()))
	}
	entries := env(e).Heap.Access(obj.HeapPtr()).Entries
	_, ok := entries[env(e).Arg(base, 1)]
	return value.NewBool(ok), nil
}

func remove(e interface{}, base, _ int) (value.Value, error) {
	obj := env(e).Arg(base, 0)
	if obj.Kind() != value.Object {
		return value.Value{}, errdefs.Type(errf("remove expects an Object, got %s", obj.TypeName()))
	}
	node := env(e).Heap.Access(obj.HeapPtr())
	delete(node.Entries, env(e).Arg(base, 1))
	return value.NewNull(), nil
}

func parseInt(e interface{}, base, _ int) (value.Value, error) {
	s := env(e).Arg(base, 0)
	if s.Kind() != value.String {
		return value.Value{}, errdefs.Type(errf("parseInt expects a String, got %s", s.TypeName()))
	}
	n, err := strconv.ParseInt(s.AsString(), 10, 64)
	if err != nil {
		return value.Value{}, errdefs.Value(errf("cannot parse %q as Int", s.AsString()))
	}
	return value.NewInt(n), nil
}

func parseFloat(e interface{}, base, _ int) (value.Value, error) {
	s := env(e).Arg(base, 0)
	if s.Kind() != value.String {
		return value.Value{}, errdefs.Type(errf("parseFloat expects a String, got %s", s.TypeName()))
	}
	f, err := strconv.ParseFloat(s.AsString(), 64)
	if err != nil {
		return value.Value{}, errdefs.Value(errf("cannot parse %q as Float", s.AsString()))
	}
	return value.NewFloat(f), nil
}

func toString(e interface{}, base, _ int) (value.Value, error) {
	v := env(e).Arg(base, 0)
	return value.NewString(v.ToDisplay(env(e).Heap)), nil
}

func gc(e interface{}, _, _ int) (value.Value, error) {
	env(e).CollectGarbage()
	return value.NewNull(), nil
}

func nowSeconds(_ interface{}, _, _ int) (value.Value, error) {
	return value.NewFloat(float64(time.Now().UnixNano()) / 1e9), nil
}

func args(e interface{}, _, _ int) (value.Value, error) {
	raw := env(e).Args
	elems := make([]value.Value, len(raw))
	for i, s := range raw {
		elems[i] = value.NewString(s)
	}
	ptr := env(e).Heap.Allocate(heap.Node{Kind: heap.KindArray, Elements: elems})
	return value.NewArray(ptr), nil
}
