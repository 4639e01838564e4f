package compiler

import (
	"github.com/ChandruSu/nscript/internal/ast"
	"github.com/ChandruSu/nscript/internal/opcode"
	"github.com/ChandruSu/nscript/internal/segment"
	"github.com/ChandruSu/nscript/internal/value"
	"github.com/ChandruSu/nscript/internal/vm"
)

// CompileSnippet compiles program into a fresh segment nested directly
// under the global segment (segment 0) and returns it as a callable Func
// value, without touching segment 0 itself. Previously declared globals
// stay visible (LoadG/SetG always reach segment 0 regardless of depth)
// while the snippet's own `let`s are scoped to just this call, matching a
// REPL line's lifetime rather than polluting the persistent global
// segment spec.md §6 describes. A trailing bare-expression statement's
// value is the snippet's return value and is additionally copied to
// vm.ScratchGlobalName, the reserved global a REPL reads back as "the
// value of what I just typed."
func CompileSnippet(env *vm.Env, program *ast.Block) (value.Value, error) {
	sub := segment.New("<snippet>", false, 0)
	idx := env.AddSegment(sub)

	// Wrap segment 0 as a parent Compiler so resolveRead/resolveForAssign's
	// existing "c.parent.seg.IsGlobal" checks reach previously declared
	// globals the same way a nested function segment would, instead of
	// bottoming out at "c.parent == nil" and reporting UnknownName for
	// every name the snippet didn't declare itself.
	globals := &Compiler{seg: env.GlobalSegment(), env: env, idx: 0}
	c := &Compiler{seg: sub, parent: globals, env: env, idx: idx}
	c.frontier = int32(sub.SpareRegister())
	c.peak = c.frontier

	for i, stmt := range program.Children {
		if i == len(program.Children)-1 && isBareExpr(stmt) {
			if err := c.compileTrailingExpr(stmt); err != nil {
				return value.Value{}, err
			}
			continue
		}
		if err := c.compileStmt(stmt); err != nil {
			return value.Value{}, err
		}
	}
	c.terminate()

	sub.ArgCount = 0
	if int(c.peak) > sub.SlotCount {
		sub.SlotCount = int(c.peak)
	}
	return value.NewFunc(idx, 0), nil
}

// isBareExpr reports whether node would otherwise fall through
// compileStmt's default (discard) case — i.e. it is a plain expression,
// not a statement form with its own meaning.
func isBareExpr(node ast.Node) bool {
	switch node.(type) {
	case *ast.Block, *ast.Let, *ast.Assign, *ast.If, *ast.While, *ast.Return, *ast.FuncDef:
		return false
	default:
		return true
	}
}

// compileTrailingExpr compiles node's value, mirrors it into the global
// `_` slot and returns it as the snippet's result.
func (c *Compiler) compileTrailingExpr(node ast.Node) error {
	c.seg.RecordPosition(node.At())
	mark := c.mark()
	reg, err := c.compileExpr(node)
	if err != nil {
		return err
	}
	gidx := c.env.GlobalSegment().DeclareOrGetGlobal(vm.ScratchGlobalName)
	c.emit(opcode.SetG, int32(gidx), reg)
	c.emit(opcode.Ret, reg)
	c.release(mark)
	return nil
}
