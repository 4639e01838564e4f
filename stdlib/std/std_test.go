package std_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChandruSu/nscript"
	"github.com/ChandruSu/nscript/stdlib/std"
)

func newRuntime(stdout *bytes.Buffer) *nscript.Runtime {
	cfg := nscript.NewConfig()
	if stdout != nil {
		cfg = cfg.WithStdout(stdout)
	}
	rt := nscript.NewRuntime(cfg)
	rt.RegisterModule(std.Module())
	return rt
}

func TestPrintWritesToStdout(t *testing.T) {
	var buf bytes.Buffer
	rt := newRuntime(&buf)
	_, err := rt.Eval("t", `import("std").print("hi");`)
	require.NoError(t, err)
	require.Equal(t, "hi", buf.String())
}

func TestPushPopLenOnArray(t *testing.T) {
	rt := newRuntime(nil)
	_, err := rt.Eval("t", `
		let s = import("std");
		let arr = [1, 2];
		s.push(arr, 3);
		let n = s.len(arr);
		let last = s.pop(arr);
	`)
	require.NoError(t, err)
	n, ok := rt.GetGlobal("n")
	require.True(t, ok)
	require.Equal(t, int64(3), n.AsInt())
	last, ok := rt.GetGlobal("last")
	require.True(t, ok)
	require.Equal(t, int64(3), last.AsInt())
}

func TestPopOnEmptyArrayIsIndexError(t *testing.T) {
	rt := newRuntime(nil)
	_, err := rt.Eval("t", `import("std").pop([]);`)
	require.Error(t, err)
}

func TestObjectMutators(t *testing.T) {
	rt := newRuntime(nil)
	_, err := rt.Eval("t", `
		let s = import("std");
		let o = { a: 1 };
		let hadA = s.has(o, "a");
		s.remove(o, "a");
		let hasA = s.has(o, "a");
	`)
	require.NoError(t, err)
	hadA, _ := rt.GetGlobal("hadA")
	require.True(t, hadA.AsBool())
	hasA, _ := rt.GetGlobal("hasA")
	require.False(t, hasA.AsBool())
}

func TestTypeOfAndParse(t *testing.T) {
	rt := newRuntime(nil)
	_, err := rt.Eval("t", `
		let s = import("std");
		let t1 = s.typeOf(1.5);
		let n = s.parseInt("42");
		let f = s.parseFloat("3.5");
	`)
	require.NoError(t, err)
	t1, _ := rt.GetGlobal("t1")
	require.Equal(t, "Float", t1.AsString())
	n, _ := rt.GetGlobal("n")
	require.Equal(t, int64(42), n.AsInt())
	f, _ := rt.GetGlobal("f")
	require.Equal(t, 3.5, f.AsFloat())
}

func TestGcSweepsUnreachableObjects(t *testing.T) {
	rt := newRuntime(nil)
	_, err := rt.Eval("t", `
		let s = import("std");
		let i = 0;
		while (i < 50) {
			let tmp = { x: i };
			i = i + 1;
		}
		s.gc();
	`)
	require.NoError(t, err)
	require.LessOrEqual(t, rt.Occupied(), 2)
}

// TestGcPreservesReachableCycle covers the other half of spec.md §8.11's
// GC correctness requirement: Mark must not drop a cycle that is still
// reachable from a global, only an unreachable one. a and b reference
// each other, but a itself is a global, so both nodes must survive gc().
func TestGcPreservesReachableCycle(t *testing.T) {
	rt := newRuntime(nil)
	_, err := rt.Eval("t", `
		let s = import("std");
		let a = { name: "a" };
		let b = { name: "b" };
		a.next = b;
		b.next = a;
		s.gc();
		let roundTrip = a.next.next.name;
	`)
	require.NoError(t, err)
	roundTrip, ok := rt.GetGlobal("roundTrip")
	require.True(t, ok)
	require.Equal(t, "a", roundTrip.AsString())
}
