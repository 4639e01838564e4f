// Package mathmod implements the `math` native module used by scenario
// E1/§8.12: numeric helpers on top of the scalar Value operations
// internal/value already defines, following the same native-module shape
// as stdlib/std.
package mathmod

import (
	"fmt"
	"math"

	"github.com/ChandruSu/nscript/internal/errdefs"
	"github.com/ChandruSu/nscript/internal/module"
	"github.com/ChandruSu/nscript/internal/value"
	"github.com/ChandruSu/nscript/internal/vm"
)

func Module() module.Def {
	return module.New("math",
		module.FuncDef{Name: "square", ArgCount: 1, Fn: square},
		module.FuncDef{Name: "abs", ArgCount: 1, Fn: abs},
		module.FuncDef{Name: "max", ArgCount: 2, Fn: max_},
		module.FuncDef{Name: "min", ArgCount: 2, Fn: min_},
		module.FuncDef{Name: "pow", ArgCount: 2, Fn: pow},
		module.FuncDef{Name: "sqrt", ArgCount: 1, Fn: sqrt},
	)
}

func env(e interface{}) *vm.Env { return e.(*vm.Env) }

func asFloat(v value.Value) (float64, bool) {
	switch v.Kind() {
	case value.Int:
		return float64(v.AsInt()), true
	case value.Float:
		return v.AsFloat(), true
	default:
		return 0, false
	}
}

func numeric(name string, v value.Value) (float64, error) {
	f, ok := asFloat(v)
	if !ok {
		return 0, errdefs.Type(fmt.Errorf("%s expects a number, got %s", name, v.TypeName()))
	}
	return f, nil
}

func square(e interface{}, base, _ int) (value.Value, error) {
	v := env(e).Arg(base, 0)
	if v.Kind() == value.Int {
		return value.NewInt(v.AsInt() * v.AsInt()), nil
	}
	f, err := numeric("square", v)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(f * f), nil
}

func abs(e interface{}, base, _ int) (value.Value, error) {
	v := env(e).Arg(base, 0)
	switch v.Kind() {
	case value.Int:
		n := v.AsInt()
		if n < 0 {
			n = -n
		}
		return value.NewInt(n), nil
	case value.Float:
		return value.NewFloat(math.Abs(v.AsFloat())), nil
	default:
		return value.Value{}, errdefs.Type(fmt.Errorf("abs expects a number, got %s", v.TypeName()))
	}
}

func max_(e interface{}, base, _ int) (value.Value, error) {
	a, b := env(e).Arg(base, 0), env(e).Arg(base, 1)
	if a.Kind() == value.Int && b.Kind() == value.Int {
		if a.AsInt() >= b.AsInt() {
			return a, nil
		}
		return b, nil
	}
	fa, err := numeric("max", a)
	if err != nil {
		return value.Value{}, err
	}
	fb, err := numeric("max", b)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Max(fa, fb)), nil
}

func min_(e interface{}, base, _ int) (value.Value, error) {
	a, b := env(e).Arg(base, 0), env(e).Arg(base, 1)
	if a.Kind() == value.Int && b.Kind() == value.Int {
		if a.AsInt() <= b.AsInt() {
			return a, nil
		}
		return b, nil
	}
	fa, err := numeric("min", a)
	if err != nil {
		return value.Value{}, err
	}
	fb, err := numeric("min", b)
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Min(fa, fb)), nil
}

func pow(e interface{}, base, _ int) (value.Value, error) {
	a, err := numeric("pow", env(e).Arg(base, 0))
	if err != nil {
		return value.Value{}, err
	}
	b, err := numeric("pow", env(e).Arg(base, 1))
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Pow(a, b)), nil
}

func sqrt(e interface{}, base, _ int) (value.Value, error) {
	a, err := numeric("sqrt", env(e).Arg(base, 0))
	if err != nil {
		return value.Value{}, err
	}
	return value.NewFloat(math.Sqrt(a)), nil
}
