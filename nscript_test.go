package nscript_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChandruSu/nscript"
	"github.com/ChandruSu/nscript/api"
)

func TestEvalLeavesGlobalStateReadable(t *testing.T) {
	rt := nscript.NewRuntime(nil)
	_, err := rt.Eval("t", `let x = 1; let y = 2; x + y;`)
	require.NoError(t, err)
	x, ok := rt.GetGlobal("x")
	require.True(t, ok)
	require.Equal(t, int64(1), x.AsInt())
}

func TestEvalLineSeesPreviouslyDeclaredGlobals(t *testing.T) {
	rt := nscript.NewRuntime(nil)
	_, err := rt.Eval("t", `let counter = 10;`)
	require.NoError(t, err)

	_, err = rt.EvalLine("t", `counter + 5;`)
	require.NoError(t, err)

	result, ok := rt.GetGlobal(nscript.ScratchResultName)
	require.True(t, ok)
	require.Equal(t, int64(15), result.AsInt())
}

func TestEvalLineCanAssignToAnExistingGlobal(t *testing.T) {
	rt := nscript.NewRuntime(nil)
	_, err := rt.Eval("t", `let counter = 0;`)
	require.NoError(t, err)

	_, err = rt.EvalLine("t", `counter = counter + 1;`)
	require.NoError(t, err)

	counter, ok := rt.GetGlobal("counter")
	require.True(t, ok)
	require.Equal(t, int64(1), counter.AsInt())
}

func TestEvalLineLocalsDoNotLeakAcrossLines(t *testing.T) {
	rt := nscript.NewRuntime(nil)
	_, err := rt.EvalLine("t", `let tmp = 99;`)
	require.NoError(t, err)

	_, err = rt.EvalLine("t", `tmp;`)
	require.Error(t, err)
}

func TestSetGlobalIsVisibleToEval(t *testing.T) {
	rt := nscript.NewRuntime(nil)
	rt.SetGlobal("seed", api.NewInt(7))
	_, err := rt.Eval("t", `let doubled = seed * 2;`)
	require.NoError(t, err)
	doubled, ok := rt.GetGlobal("doubled")
	require.True(t, ok)
	require.Equal(t, int64(14), doubled.AsInt())
}

func TestConfigWithArgsIsImmutablePerCall(t *testing.T) {
	base := nscript.NewConfig()
	withArgs := base.WithArgs("a", "b")
	require.NotSame(t, base, withArgs)
}
