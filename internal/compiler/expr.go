package compiler

import (
	"errors"

	"github.com/ChandruSu/nscript/internal/ast"
	"github.com/ChandruSu/nscript/internal/errdefs"
	"github.com/ChandruSu/nscript/internal/opcode"
	"github.com/ChandruSu/nscript/internal/value"
)

var errInvalidImportArity = errors.New("import expects exactly one argument")

// compileExprInto compiles node so its value ends up in the
// already-reserved register dst (used for let bindings, parameters and
// assignment targets), discarding whatever scratch the expression itself
// needed along the way.
func (c *Compiler) compileExprInto(node ast.Node, dst int32) error {
	mark := c.mark()
	reg, err := c.compileExpr(node)
	if err != nil {
		return err
	}
	if reg != dst {
		c.emit(opcode.Move, dst, reg)
	}
	c.release(mark)
	return nil
}

// compileExpr lowers node and returns the register holding its value.
// Composite nodes follow a reserve-then-release discipline: allocate the
// result register first (so nested sub-expressions never land on top of
// it), recurse into children, emit, then release everything above the
// result register back to the pre-call frontier.
func (c *Compiler) compileExpr(node ast.Node) (int32, error) {
	switch n := node.(type) {
	case *ast.Null:
		dst := c.alloc()
		c.emit(opcode.LoadN, dst)
		return dst, nil

	case *ast.Bool:
		dst := c.alloc()
		b := int32(0)
		if n.Value {
			b = 1
		}
		c.emit(opcode.LoadB, dst, b)
		return dst, nil

	case *ast.Int:
		dst := c.alloc()
		k := c.seg.InternConstant(value.NewInt(n.Value))
		c.emit(opcode.LoadK, dst, int32(k))
		return dst, nil

	case *ast.Float:
		dst := c.alloc()
		k := c.seg.InternConstant(value.NewFloat(n.Value))
		c.emit(opcode.LoadK, dst, int32(k))
		return dst, nil

	case *ast.String:
		dst := c.alloc()
		k := c.seg.InternConstant(value.NewString(n.Value))
		c.emit(opcode.LoadK, dst, int32(k))
		return dst, nil

	case *ast.Reference:
		return c.resolveRead(n.Name, n.At())

	case *ast.Subscript:
		dst := c.alloc()
		baseReg, err := c.compileExpr(n.Base)
		if err != nil {
			return 0, err
		}
		idxReg, err := c.compileExpr(n.Index)
		if err != nil {
			return 0, err
		}
		c.emit(opcode.ObjGet, dst, baseReg, idxReg)
		c.release(dst + 1)
		return dst, nil

	case *ast.Deref:
		dst := c.alloc()
		baseReg, err := c.compileExpr(n.Base)
		if err != nil {
			return 0, err
		}
		keyReg := c.alloc()
		k := c.seg.InternConstant(value.NewString(n.Field))
		c.emit(opcode.LoadK, keyReg, int32(k))
		c.emit(opcode.ObjGet, dst, baseReg, keyReg)
		c.release(dst + 1)
		return dst, nil

	case *ast.UnaryExp:
		return c.compileUnary(n)

	case *ast.BinaryExp:
		return c.compileBinary(n)

	case *ast.TernaryExp:
		return c.compileTernary(n)

	case *ast.Call:
		return c.compileCall(n)

	case *ast.FuncDef:
		dst := c.alloc()
		if err := c.compileFuncDefInto(n, dst); err != nil {
			return 0, err
		}
		return dst, nil

	case *ast.Array:
		return c.compileArray(n)

	case *ast.Object:
		return c.compileObject(n)

	default:
		return 0, errAt(node.At(), errdefs.Compile(errdefs.ErrInvalidAstNode))
	}
}

func (c *Compiler) compileUnary(n *ast.UnaryExp) (int32, error) {
	dst := c.alloc()
	operand, err := c.compileExpr(n.Expr)
	if err != nil {
		return 0, err
	}
	switch n.Op {
	case ast.UnaryNeg:
		c.emit(opcode.Neg, dst, operand)
	case ast.UnaryNot:
		c.emit(opcode.Not, dst, operand)
	case ast.UnaryBitNot:
		c.emit(opcode.BitNot, dst, operand)
	}
	c.release(dst + 1)
	return dst, nil
}

var binaryOpcodes = map[ast.BinaryOp]opcode.Code{
	ast.BinAdd:    opcode.Add,
	ast.BinSub:    opcode.Sub,
	ast.BinMul:    opcode.Mul,
	ast.BinDiv:    opcode.Div,
	ast.BinMod:    opcode.Mod,
	ast.BinShl:    opcode.Shl,
	ast.BinShr:    opcode.Shr,
	ast.BinBitAnd: opcode.BitAnd,
	ast.BinBitOr:  opcode.BitOr,
	ast.BinBitXor: opcode.BitXor,
	ast.BinEq:     opcode.Eq,
	ast.BinNeq:    opcode.Neq,
	ast.BinLt:     opcode.Lt,
	ast.BinLe:     opcode.Le,
}

// compileBinary implements spec.md §4.4's arithmetic/comparison/bitwise
// operators directly, and short-circuit &&/|| via jumps: `>`/`>=`
// compile to `<`/`<=` with swapped operands (spec.md §4.2), matching
// value.Compare's own documented contract.
func (c *Compiler) compileBinary(n *ast.BinaryExp) (int32, error) {
	switch n.Op {
	case ast.BinAnd:
		return c.compileShortCircuit(n, opcode.JumpFalse)
	case ast.BinOr:
		return c.compileShortCircuit(n, opcode.JumpTrue)
	case ast.BinGt:
		return c.compileCompareSwapped(n, opcode.Lt)
	case ast.BinGe:
		return c.compileCompareSwapped(n, opcode.Le)
	}

	code, ok := binaryOpcodes[n.Op]
	if !ok {
		return 0, errAt(n.At(), errdefs.Compile(errdefs.ErrInvalidAstNode))
	}
	dst := c.alloc()
	lhs, err := c.compileExpr(n.LHS)
	if err != nil {
		return 0, err
	}
	rhs, err := c.compileExpr(n.RHS)
	if err != nil {
		return 0, err
	}
	c.emit(code, dst, lhs, rhs)
	c.release(dst + 1)
	return dst, nil
}

func (c *Compiler) compileCompareSwapped(n *ast.BinaryExp, code opcode.Code) (int32, error) {
	dst := c.alloc()
	lhs, err := c.compileExpr(n.LHS)
	if err != nil {
		return 0, err
	}
	rhs, err := c.compileExpr(n.RHS)
	if err != nil {
		return 0, err
	}
	c.emit(code, dst, rhs, lhs)
	c.release(dst + 1)
	return dst, nil
}

// compileShortCircuit implements `&&` (jump := JumpFalse) and `||`
// (jump := JumpTrue): evaluate the left side into dst, branch past the
// right side if it already decides the result, otherwise overwrite dst
// with the right side's value.
func (c *Compiler) compileShortCircuit(n *ast.BinaryExp, jump opcode.Code) (int32, error) {
	dst := c.alloc()
	lhs, err := c.compileExpr(n.LHS)
	if err != nil {
		return 0, err
	}
	if lhs != dst {
		c.emit(opcode.Move, dst, lhs)
	}
	j := c.emit(jump, dst, 0)

	mark := c.mark()
	rhs, err := c.compileExpr(n.RHS)
	if err != nil {
		return 0, err
	}
	if rhs != dst {
		c.emit(opcode.Move, dst, rhs)
	}
	c.release(mark)

	c.seg.Patch(j, int32(c.seg.Len()))
	return dst, nil
}

func (c *Compiler) compileTernary(n *ast.TernaryExp) (int32, error) {
	dst := c.alloc()
	mark := c.mark()
	condReg, err := c.compileExpr(n.Cond)
	if err != nil {
		return 0, err
	}
	jf := c.emit(opcode.JumpFalse, condReg, 0)
	c.release(mark)

	if err := c.compileExprInto(n.Then, dst); err != nil {
		return 0, err
	}
	j := c.emit(opcode.Jump, 0)
	c.seg.Patch(jf, int32(c.seg.Len()))

	if err := c.compileExprInto(n.Else, dst); err != nil {
		return 0, err
	}
	c.seg.PatchA(j, int32(c.seg.Len()))
	return dst, nil
}

// compileCall lowers both ordinary calls and the `import("name")` form,
// which bypasses normal name resolution (spec.md §4.6 "Import semantics"
// compiles straight to the Import opcode rather than resolving `import`
// as a bound name).
func (c *Compiler) compileCall(n *ast.Call) (int32, error) {
	if ref, ok := n.Callee.(*ast.Reference); ok && ref.Name == "import" {
		if len(n.Args) != 1 {
			return 0, errAt(n.At(), errdefs.Argument(errInvalidImportArity))
		}
		dst := c.alloc()
		if err := c.compileExprInto(n.Args[0], dst); err != nil {
			return 0, err
		}
		c.emit(opcode.Import, dst)
		return dst, nil
	}

	dst := c.alloc()
	calleeSrc, err := c.compileExpr(n.Callee)
	if err != nil {
		return 0, err
	}
	calleeReg := c.alloc()
	if calleeReg != calleeSrc {
		c.emit(opcode.Move, calleeReg, calleeSrc)
	}
	argBase := c.frontier
	for _, a := range n.Args {
		argReg := c.alloc()
		if err := c.compileExprInto(a, argReg); err != nil {
			return 0, err
		}
	}
	c.emit(opcode.Call, dst, calleeReg, argBase, int32(len(n.Args)))
	c.release(dst + 1)
	return dst, nil
}

func (c *Compiler) compileArray(n *ast.Array) (int32, error) {
	dst := c.alloc()
	c.emit(opcode.ArrNew, dst, int32(len(n.Elements)))
	for i, el := range n.Elements {
		mark := c.mark()
		elReg, err := c.compileExpr(el)
		if err != nil {
			return 0, err
		}
		keyReg := c.alloc()
		k := c.seg.InternConstant(value.NewInt(int64(i)))
		c.emit(opcode.LoadK, keyReg, int32(k))
		c.emit(opcode.ObjIns, dst, keyReg, elReg)
		c.release(mark)
	}
	return dst, nil
}

func (c *Compiler) compileObject(n *ast.Object) (int32, error) {
	dst := c.alloc()
	c.emit(opcode.ObjNew, dst)
	for _, pair := range n.Pairs {
		mark := c.mark()
		valReg, err := c.compileExpr(pair.Value)
		if err != nil {
			return 0, err
		}
		keyReg := c.alloc()
		k := c.seg.InternConstant(value.NewString(pair.Key))
		c.emit(opcode.LoadK, keyReg, int32(k))
		c.emit(opcode.ObjIns, dst, keyReg, valReg)
		c.release(mark)
	}
	return dst, nil
}

// --- assignment ------------------------------------------------------------

var compoundOpcodes = map[ast.AssignOp]opcode.Code{
	ast.AssignAdd: opcode.Add,
	ast.AssignSub: opcode.Sub,
	ast.AssignMul: opcode.Mul,
	ast.AssignDiv: opcode.Div,
	ast.AssignMod: opcode.Mod,
}

func (c *Compiler) compileAssign(n *ast.Assign) error {
	switch lhs := n.LHS.(type) {
	case *ast.Reference:
		return c.compileAssignReference(n, lhs)
	case *ast.Subscript:
		return c.compileAssignIndexed(n, lhs.Base, lhs.Index)
	case *ast.Deref:
		mark := c.mark()
		baseReg, err := c.compileExpr(lhs.Base)
		if err != nil {
			return err
		}
		keyReg := c.alloc()
		k := c.seg.InternConstant(value.NewString(lhs.Field))
		c.emit(opcode.LoadK, keyReg, int32(k))
		if err := c.compileAssignSlot(n, baseReg, keyReg); err != nil {
			return err
		}
		c.release(mark)
		return nil
	default:
		return errAt(n.At(), errdefs.Compile(errdefs.ErrInvalidAstNode))
	}
}

func (c *Compiler) compileAssignReference(n *ast.Assign, ref *ast.Reference) error {
	isGlobal, idx, err := c.resolveForAssign(ref.Name, ref.At())
	if err != nil {
		return err
	}
	if isGlobal {
		mark := c.mark()
		var valReg int32
		if n.Op == ast.AssignSet {
			valReg, err = c.compileExpr(n.Expr)
			if err != nil {
				return err
			}
		} else {
			cur := c.alloc()
			c.emit(opcode.LoadG, cur, idx)
			rhs, err := c.compileExpr(n.Expr)
			if err != nil {
				return err
			}
			valReg = c.alloc()
			c.emit(compoundOpcodes[n.Op], valReg, cur, rhs)
		}
		c.emit(opcode.SetG, idx, valReg)
		c.release(mark)
		return nil
	}

	if n.Op == ast.AssignSet {
		return c.compileExprInto(n.Expr, idx)
	}
	mark := c.mark()
	rhs, err := c.compileExpr(n.Expr)
	if err != nil {
		return err
	}
	c.emit(compoundOpcodes[n.Op], idx, idx, rhs)
	c.release(mark)
	return nil
}

func (c *Compiler) compileAssignIndexed(n *ast.Assign, base, index ast.Node) error {
	mark := c.mark()
	baseReg, err := c.compileExpr(base)
	if err != nil {
		return err
	}
	idxReg, err := c.compileExpr(index)
	if err != nil {
		return err
	}
	if err := c.compileAssignSlot(n, baseReg, idxReg); err != nil {
		return err
	}
	c.release(mark)
	return nil
}

// compileAssignSlot finishes an ObjIns-based assignment once base and key
// are already sitting in registers, handling both `=` and the compound
// `+=`/`-=`/... forms (which read the slot via ObjGet before combining).
func (c *Compiler) compileAssignSlot(n *ast.Assign, baseReg, keyReg int32) error {
	if n.Op == ast.AssignSet {
		valReg, err := c.compileExpr(n.Expr)
		if err != nil {
			return err
		}
		c.emit(opcode.ObjIns, baseReg, keyReg, valReg)
		return nil
	}
	cur := c.alloc()
	c.emit(opcode.ObjGet, cur, baseReg, keyReg)
	rhs, err := c.compileExpr(n.Expr)
	if err != nil {
		return err
	}
	result := c.alloc()
	c.emit(compoundOpcodes[n.Op], result, cur, rhs)
	c.emit(opcode.ObjIns, baseReg, keyReg, result)
	return nil
}
