package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChandruSu/nscript/internal/compiler"
	"github.com/ChandruSu/nscript/internal/parser"
	"github.com/ChandruSu/nscript/internal/value"
	"github.com/ChandruSu/nscript/internal/vm"
)

func run(t *testing.T, src string) *vm.Env {
	t.Helper()
	block, err := parser.Parse(src)
	require.NoError(t, err)
	env := vm.New(nil, nil)
	require.NoError(t, compiler.Compile(env, block))
	_, err = env.Run()
	require.NoError(t, err)
	return env
}

func global(t *testing.T, env *vm.Env, name string) value.Value {
	t.Helper()
	v, ok := env.GetGlobal(name)
	require.True(t, ok, "global %q was never declared", name)
	return v
}

func TestArithmeticAndGlobals(t *testing.T) {
	env := run(t, `let x = 1 + 2 * 3; let y = x - 1;`)
	require.Equal(t, int64(7), global(t, env, "x").AsInt())
	require.Equal(t, int64(6), global(t, env, "y").AsInt())
}

func TestIfElseBranching(t *testing.T) {
	env := run(t, `let x = 0; if (1 < 2) { x = 10; } else { x = 20; }`)
	require.Equal(t, int64(10), global(t, env, "x").AsInt())

	env2 := run(t, `let x = 0; if (2 < 1) { x = 10; } else { x = 20; }`)
	require.Equal(t, int64(20), global(t, env2, "x").AsInt())
}

func TestWhileLoopAccumulates(t *testing.T) {
	env := run(t, `
		let i = 0;
		let sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
	`)
	require.Equal(t, int64(10), global(t, env, "sum").AsInt())
}

func TestClosureCapturesEnclosingParameter(t *testing.T) {
	env := run(t, `
		fun makeAdder(n) {
			return fun(x) { return x + n; };
		}
		let add5 = makeAdder(5);
		let result = add5(10);
	`)
	require.Equal(t, int64(15), global(t, env, "result").AsInt())
}

func TestRecursiveNamedFunction(t *testing.T) {
	env := run(t, `
		fun fact(n) {
			if (n <= 1) { return 1; }
			return n * fact(n - 1);
		}
		let r = fact(5);
	`)
	require.Equal(t, int64(120), global(t, env, "r").AsInt())
}

func TestArrayAndObjectIndexing(t *testing.T) {
	env := run(t, `
		let arr = [1, 2, 3];
		let o = { a: 1 };
		let v = arr[1] + o.a;
	`)
	require.Equal(t, int64(3), global(t, env, "v").AsInt())
}

func TestCompoundAssignOnArrayElement(t *testing.T) {
	env := run(t, `
		let arr = [1, 2, 3];
		arr[0] += 10;
	`)
	arr := global(t, env, "arr")
	node := env.Heap.Access(arr.HeapPtr())
	require.Equal(t, int64(11), node.Elements[0].AsInt())
}

func TestTernaryAndStringIndex(t *testing.T) {
	env := run(t, `
		let s = "hi";
		let c = s[0];
		let t = (1 < 2) ? 1 : 2;
	`)
	require.Equal(t, "h", global(t, env, "c").AsString())
	require.Equal(t, int64(1), global(t, env, "t").AsInt())
}

func TestShortCircuitSkipsRHS(t *testing.T) {
	env := run(t, `
		let calls = 0;
		fun bump() { calls = calls + 1; return true; }
		let r1 = false && bump();
		let r2 = true || bump();
	`)
	require.Equal(t, int64(0), global(t, env, "calls").AsInt())
	require.False(t, global(t, env, "r1").AsBool())
	require.True(t, global(t, env, "r2").AsBool())
}

func TestMutatingCapturedVariableIsCompileError(t *testing.T) {
	block, err := parser.Parse(`
		fun outer() {
			let n = 1;
			fun inner() {
				n = 2;
			}
			return inner;
		}
	`)
	require.NoError(t, err)
	env := vm.New(nil, nil)
	err = compiler.Compile(env, block)
	require.Error(t, err)
}

func TestUnknownNameIsCompileError(t *testing.T) {
	block, err := parser.Parse(`let x = y + 1;`)
	require.NoError(t, err)
	env := vm.New(nil, nil)
	err = compiler.Compile(env, block)
	require.Error(t, err)
}

func TestDuplicateNameIsCompileError(t *testing.T) {
	block, err := parser.Parse(`let x = 1; let x = 2;`)
	require.NoError(t, err)
	env := vm.New(nil, nil)
	err = compiler.Compile(env, block)
	require.Error(t, err)
}

func TestReturnAtGlobalScopeIsCompileError(t *testing.T) {
	block, err := parser.Parse(`return 1;`)
	require.NoError(t, err)
	env := vm.New(nil, nil)
	err = compiler.Compile(env, block)
	require.Error(t, err)
}
