// Package compiler lowers internal/ast trees into internal/segment
// bytecode (spec.md §4.3/§4.4): one Segment per function (segment 0 is
// the top-level program), symbol resolution across nested function
// scopes, and the closure capture-by-copy scheme described in spec.md
// §4.4. Structurally this plays the role the teacher's wazeroir
// compilation pass plays for internal/engine/interpreter — a tree/graph
// walk that emits into a flat instruction slice, one compiler instance
// per function being lowered, closing over its enclosing compiler for
// free-variable resolution.
package compiler

import (
	"github.com/ChandruSu/nscript/internal/ast"
	"github.com/ChandruSu/nscript/internal/errdefs"
	"github.com/ChandruSu/nscript/internal/opcode"
	"github.com/ChandruSu/nscript/internal/segment"
	"github.com/ChandruSu/nscript/internal/vm"
)

// Compiler lowers one function body (or the top-level program) into its
// own Segment, closing over the Compiler for its lexically enclosing
// function for up-value resolution (spec.md §4.4 "Closure capture").
type Compiler struct {
	seg    *segment.Segment
	parent *Compiler
	env    *vm.Env
	idx    int

	frontier int32 // next free scratch register
	peak     int32 // high-water mark, becomes seg.SlotCount
}

// Compile lowers a whole program into env's segment 0 (spec.md §6
// "source text -> AST -> bytecode").
func Compile(env *vm.Env, program *ast.Block) error {
	c := &Compiler{seg: env.GlobalSegment(), env: env, idx: 0}
	c.frontier = int32(c.seg.SpareRegister())
	c.peak = c.frontier
	for _, stmt := range program.Children {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	c.terminate()
	if int(c.peak) > c.seg.SlotCount {
		c.seg.SlotCount = int(c.peak)
	}
	return nil
}

func (c *Compiler) terminate() {
	n := c.seg.Len()
	if n == 0 || !isReturnOp(c.seg.Instructions[n-1].Code) {
		c.seg.Emit(opcode.New(opcode.RetNone))
	}
}

func isReturnOp(code opcode.Code) bool { return code == opcode.Ret || code == opcode.RetNone }

// --- register bookkeeping -------------------------------------------------

func (c *Compiler) alloc() int32 {
	r := c.frontier
	c.frontier++
	if c.frontier > c.peak {
		c.peak = c.frontier
	}
	return r
}

func (c *Compiler) mark() int32 { return c.frontier }

func (c *Compiler) release(m int32) {
	if m < c.frontier {
		c.frontier = m
	}
}

// touch raises the scratch frontier (and peak) to at least n, used right
// after DeclareLocal reserves a persistent register so scratch
// allocation never lands on top of a declared local.
func (c *Compiler) touch(n int32) {
	if n > c.frontier {
		c.frontier = n
	}
	if c.frontier > c.peak {
		c.peak = c.frontier
	}
}

func (c *Compiler) emit(code opcode.Code, operands ...int32) int {
	return c.seg.Emit(opcode.New(code, operands...))
}

func errAt(pos ast.Pos, e *errdefs.Error) error {
	return e.WithPos(errdefs.Pos{Line: pos.Line, Col: pos.Col})
}

// --- name resolution -------------------------------------------------------

// resolveRead returns a register in c's own segment holding name's
// current value, emitting whatever LoadG/LoadU/Move instructions are
// needed. Globals are always reached directly via LoadG regardless of
// nesting depth (spec.md §4.4: Env.globals is VM-wide state, not
// captured); only an ancestor FUNCTION's local becomes a true up-value,
// threaded through every intermediate segment on demand.
func (c *Compiler) resolveRead(name string, pos ast.Pos) (int32, error) {
	if c.seg.IsGlobal {
		idx, ok := c.seg.LookupLocal(name)
		if !ok {
			return 0, errAt(pos, errdefs.Name(errdefs.ErrUnknownName))
		}
		dst := c.alloc()
		c.emit(opcode.LoadG, dst, int32(idx))
		return dst, nil
	}
	if reg, ok := c.seg.LookupLocal(name); ok {
		return reg, nil
	}
	if idx, ok := c.seg.LookupUpvalue(name); ok {
		dst := c.alloc()
		c.emit(opcode.LoadU, dst, int32(idx))
		return dst, nil
	}
	if c.parent == nil {
		return 0, errAt(pos, errdefs.Name(errdefs.ErrUnknownName))
	}
	for anc := c.parent; anc != nil; anc = anc.parent {
		if anc.seg.IsGlobal {
			idx, ok := anc.seg.LookupLocal(name)
			if !ok {
				return 0, errAt(pos, errdefs.Name(errdefs.ErrUnknownName))
			}
			dst := c.alloc()
			c.emit(opcode.LoadG, dst, int32(idx))
			return dst, nil
		}
		if _, ok := anc.seg.LookupLocal(name); ok {
			break
		}
		if _, ok := anc.seg.LookupUpvalue(name); ok {
			break
		}
	}
	// An ancestor function's local: becomes an up-value of this segment.
	// Where its value actually comes from is resolved later, when
	// compileFuncDefInto wires the capture by calling resolveRead again on
	// the enclosing Compiler — which recurses the same way, one hop per
	// nesting level, until it reaches the function that declares the name.
	idx, _ := c.seg.DeclareUpvalue(name)
	dst := c.alloc()
	c.emit(opcode.LoadU, dst, int32(idx))
	return dst, nil
}

// resolveForAssign locates name's storage location for a plain (non-
// compound) or compound assignment. isGlobal distinguishes a SetG target
// (idx = global slot) from a local register target (idx = register).
// A name that only exists as an ancestor function's local (i.e. would
// have to be captured as an up-value to read) cannot be assigned through
// — spec.md §4.4's up-values are copies taken at closure-creation time,
// so writing through one would silently not mutate the original binding;
// MutateClosure makes that a compile error instead.
func (c *Compiler) resolveForAssign(name string, pos ast.Pos) (isGlobal bool, idx int32, err error) {
	cur := c
	depth := 0
	for cur != nil {
		if cur.seg.IsGlobal {
			gidx, ok := cur.seg.LookupLocal(name)
			if !ok {
				return false, 0, errAt(pos, errdefs.Name(errdefs.ErrUnknownName))
			}
			return true, int32(gidx), nil
		}
		if reg, ok := cur.seg.LookupLocal(name); ok {
			if depth == 0 {
				return false, reg, nil
			}
			return false, 0, errAt(pos, errdefs.Compile(errdefs.ErrMutateClosure))
		}
		cur = cur.parent
		depth++
	}
	return false, 0, errAt(pos, errdefs.Name(errdefs.ErrUnknownName))
}

// --- statements --------------------------------------------------------

func (c *Compiler) compileStmt(node ast.Node) error {
	c.seg.RecordPosition(node.At())
	switch n := node.(type) {
	case *ast.Block:
		for _, s := range n.Children {
			if err := c.compileStmt(s); err != nil {
				return err
			}
		}
		return nil

	case *ast.Let:
		return c.compileLet(n)

	case *ast.Assign:
		return c.compileAssign(n)

	case *ast.If:
		return c.compileIf(n)

	case *ast.While:
		return c.compileWhile(n)

	case *ast.Return:
		return c.compileReturn(n)

	case *ast.FuncDef:
		return c.compileFuncDefStmt(n)

	default:
		// any other node in statement position is a bare expression whose
		// value is discarded (e.g. a Call used for its side effects).
		mark := c.mark()
		if _, err := c.compileExpr(node); err != nil {
			return err
		}
		c.release(mark)
		return nil
	}
}

func (c *Compiler) compileLet(n *ast.Let) error {
	if c.seg.IsGlobal {
		idx, ok := c.seg.DeclareLocal(n.Name)
		if !ok {
			return errAt(n.At(), errdefs.Compile(errdefs.ErrDuplicateName))
		}
		mark := c.mark()
		valReg, err := c.compileExpr(n.Expr)
		if err != nil {
			return err
		}
		c.emit(opcode.SetG, int32(idx), valReg)
		c.release(mark)
		return nil
	}
	reg, ok := c.seg.DeclareLocal(n.Name)
	if !ok {
		return errAt(n.At(), errdefs.Compile(errdefs.ErrDuplicateName))
	}
	c.touch(int32(c.seg.SlotCount))
	return c.compileExprInto(n.Expr, int32(reg))
}

func (c *Compiler) compileIf(n *ast.If) error {
	mark := c.mark()
	condReg, err := c.compileExpr(n.Cond)
	if err != nil {
		return err
	}
	jf := c.emit(opcode.JumpFalse, condReg, 0)
	c.release(mark)

	if err := c.compileStmt(n.Then); err != nil {
		return err
	}

	if n.Else == nil {
		c.seg.Patch(jf, int32(c.seg.Len()))
		return nil
	}

	jEnd := c.emit(opcode.Jump, 0)
	c.seg.Patch(jf, int32(c.seg.Len()))
	if err := c.compileStmt(n.Else); err != nil {
		return err
	}
	c.seg.PatchA(jEnd, int32(c.seg.Len()))
	return nil
}

func (c *Compiler) compileWhile(n *ast.While) error {
	start := int32(c.seg.Len())
	mark := c.mark()
	condReg, err := c.compileExpr(n.Cond)
	if err != nil {
		return err
	}
	jf := c.emit(opcode.JumpFalse, condReg, 0)
	c.release(mark)

	if err := c.compileStmt(n.Body); err != nil {
		return err
	}
	c.emit(opcode.Jump, start)
	c.seg.Patch(jf, int32(c.seg.Len()))
	return nil
}

func (c *Compiler) compileReturn(n *ast.Return) error {
	if c.seg.IsGlobal {
		return errAt(n.At(), errdefs.Compile(errdefs.ErrInvalidReturnPosition))
	}
	if n.Expr == nil {
		c.emit(opcode.RetNone)
		return nil
	}
	mark := c.mark()
	reg, err := c.compileExpr(n.Expr)
	if err != nil {
		return err
	}
	c.emit(opcode.Ret, reg)
	c.release(mark)
	return nil
}

func (c *Compiler) compileFuncDefStmt(n *ast.FuncDef) error {
	if n.Name == "" {
		mark := c.mark()
		_, err := c.compileExpr(n)
		c.release(mark)
		return err
	}
	if c.seg.IsGlobal {
		idx, ok := c.seg.DeclareLocal(n.Name)
		if !ok {
			return errAt(n.At(), errdefs.Compile(errdefs.ErrDuplicateName))
		}
		mark := c.mark()
		scratch := c.alloc()
		if err := c.compileFuncDefInto(n, scratch); err != nil {
			return err
		}
		c.emit(opcode.SetG, int32(idx), scratch)
		c.release(mark)
		return nil
	}
	reg, ok := c.seg.DeclareLocal(n.Name)
	if !ok {
		return errAt(n.At(), errdefs.Compile(errdefs.ErrDuplicateName))
	}
	c.touch(int32(c.seg.SlotCount))
	return c.compileFuncDefInto(n, int32(reg))
}

// compileFuncDefInto lowers a function literal into a fresh segment and
// leaves its value (a bare function, or a closure if it captured any
// up-values) in dst. This is where spec.md §4.4's capture-by-copy is
// realized: after the nested body is fully compiled, its UpValues table
// names exactly the free variables it needs, resolved here in the
// enclosing scope and copied into one contiguous register range right
// before Close.
func (c *Compiler) compileFuncDefInto(n *ast.FuncDef, dst int32) error {
	name := n.Name
	if name == "" {
		name = "<anonymous>"
	}
	sub := segment.New(name, false, c.idx)
	childIdx := c.env.AddSegment(sub)

	child := &Compiler{seg: sub, parent: c, env: c.env, idx: childIdx}
	child.frontier = int32(sub.SpareRegister())
	child.peak = child.frontier

	for _, p := range n.Params {
		if _, ok := sub.DeclareLocal(p); !ok {
			return errAt(n.At(), errdefs.Compile(errdefs.ErrDuplicateName))
		}
	}
	child.touch(int32(sub.SlotCount))

	body, ok := n.Body.(*ast.Block)
	if !ok {
		return errAt(n.At(), errdefs.Compile(errdefs.ErrInvalidAstNode))
	}
	for _, s := range body.Children {
		if err := child.compileStmt(s); err != nil {
			return err
		}
	}
	child.terminate()

	sub.ArgCount = len(n.Params)
	if int(child.peak) > sub.SlotCount {
		sub.SlotCount = int(child.peak)
	}

	c.emit(opcode.LoadF, dst, int32(childIdx))
	if len(sub.UpvalueNames()) == 0 {
		return nil
	}

	names := sub.UpvalueNames()
	rangeStart := c.frontier
	for range names {
		c.alloc()
	}
	for i, upName := range names {
		srcReg, err := c.resolveRead(upName, n.At())
		if err != nil {
			return err
		}
		target := rangeStart + int32(i)
		if target != srcReg {
			c.emit(opcode.Move, target, srcReg)
		}
	}
	c.emit(opcode.Close, dst, rangeStart, rangeStart+int32(len(names)))
	c.release(rangeStart)
	return nil
}
