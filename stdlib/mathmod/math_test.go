package mathmod_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChandruSu/nscript"
	"github.com/ChandruSu/nscript/stdlib/mathmod"
)

func newRuntime() *nscript.Runtime {
	rt := nscript.NewRuntime(nscript.NewConfig())
	rt.RegisterModule(mathmod.Module())
	return rt
}

func TestSquareAbsMaxMin(t *testing.T) {
	rt := newRuntime()
	_, err := rt.Eval("t", `
		let m = import("math");
		let sq = m.square(5);
		let a = m.abs(-3);
		let mx = m.max(2, 9);
		let mn = m.min(2, 9);
	`)
	require.NoError(t, err)
	sq, _ := rt.GetGlobal("sq")
	require.Equal(t, int64(25), sq.AsInt())
	a, _ := rt.GetGlobal("a")
	require.Equal(t, int64(3), a.AsInt())
	mx, _ := rt.GetGlobal("mx")
	require.Equal(t, int64(9), mx.AsInt())
	mn, _ := rt.GetGlobal("mn")
	require.Equal(t, int64(2), mn.AsInt())
}

func TestPowAndSqrtReturnFloat(t *testing.T) {
	rt := newRuntime()
	_, err := rt.Eval("t", `
		let m = import("math");
		let p = m.pow(2, 10);
		let r = m.sqrt(16);
	`)
	require.NoError(t, err)
	p, _ := rt.GetGlobal("p")
	require.Equal(t, float64(1024), p.AsFloat())
	r, _ := rt.GetGlobal("r")
	require.Equal(t, float64(4), r.AsFloat())
}

func TestAbsRejectsNonNumeric(t *testing.T) {
	rt := newRuntime()
	_, err := rt.Eval("t", `import("math").abs("x");`)
	require.Error(t, err)
}
