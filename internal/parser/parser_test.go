package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ChandruSu/nscript/internal/ast"
)

func TestParseLetAndReturn(t *testing.T) {
	block, err := Parse(`let x = 1 + 2 * 3; return x;`)
	require.NoError(t, err)
	require.Len(t, block.Children, 2)

	let, ok := block.Children[0].(*ast.Let)
	require.True(t, ok)
	require.Equal(t, "x", let.Name)

	add, ok := let.Expr.(*ast.BinaryExp)
	require.True(t, ok)
	require.Equal(t, ast.BinAdd, add.Op)
	mul, ok := add.RHS.(*ast.BinaryExp)
	require.True(t, ok)
	require.Equal(t, ast.BinMul, mul.Op)

	ret, ok := block.Children[1].(*ast.Return)
	require.True(t, ok)
	require.NotNil(t, ret.Expr)
}

func TestParseIfElseIf(t *testing.T) {
	block, err := Parse(`if (a) { let x = 1; } else if (b) { let x = 2; } else { let x = 3; }`)
	require.NoError(t, err)
	require.Len(t, block.Children, 1)

	top, ok := block.Children[0].(*ast.If)
	require.True(t, ok)
	elseIf, ok := top.Else.(*ast.If)
	require.True(t, ok)
	_, ok = elseIf.Else.(*ast.Block)
	require.True(t, ok)
}

func TestParseWhileAndAssign(t *testing.T) {
	block, err := Parse(`let i = 0; while (i < 10) { i += 1; }`)
	require.NoError(t, err)
	require.Len(t, block.Children, 2)

	wh, ok := block.Children[1].(*ast.While)
	require.True(t, ok)
	body, ok := wh.Body.(*ast.Block)
	require.True(t, ok)
	require.Len(t, body.Children, 1)
	assign, ok := body.Children[0].(*ast.Assign)
	require.True(t, ok)
	require.Equal(t, ast.AssignAdd, assign.Op)
	_, ok = assign.LHS.(*ast.Reference)
	require.True(t, ok)
}

func TestParseFuncDefAndCall(t *testing.T) {
	block, err := Parse(`fun add(a, b) { return a + b; } let r = add(1, 2);`)
	require.NoError(t, err)
	require.Len(t, block.Children, 2)

	fn, ok := block.Children[0].(*ast.FuncDef)
	require.True(t, ok)
	require.Equal(t, "add", fn.Name)
	require.Equal(t, []string{"a", "b"}, fn.Params)

	let, ok := block.Children[1].(*ast.Let)
	require.True(t, ok)
	call, ok := let.Expr.(*ast.Call)
	require.True(t, ok)
	require.Len(t, call.Args, 2)
	ref, ok := call.Callee.(*ast.Reference)
	require.True(t, ok)
	require.Equal(t, "add", ref.Name)
}

func TestParseSubscriptDerefAndTernary(t *testing.T) {
	block, err := Parse(`let v = arr[0].field ? 1 : 2;`)
	require.NoError(t, err)
	let := block.Children[0].(*ast.Let)
	tern, ok := let.Expr.(*ast.TernaryExp)
	require.True(t, ok)
	deref, ok := tern.Cond.(*ast.Deref)
	require.True(t, ok)
	require.Equal(t, "field", deref.Field)
	_, ok = deref.Base.(*ast.Subscript)
	require.True(t, ok)
}

func TestParseObjectAndArrayLiterals(t *testing.T) {
	block, err := Parse(`let o = { a: 1, b: [1, 2, 3] };`)
	require.NoError(t, err)
	let := block.Children[0].(*ast.Let)
	obj, ok := let.Expr.(*ast.Object)
	require.True(t, ok)
	require.Len(t, obj.Pairs, 2)
	require.Equal(t, "a", obj.Pairs[0].Key)
	arr, ok := obj.Pairs[1].Value.(*ast.Array)
	require.True(t, ok)
	require.Len(t, arr.Elements, 3)
}

func TestOperatorPrecedenceLadder(t *testing.T) {
	block, err := Parse(`let x = 1 || 2 && 3 | 4 ^ 5 & 6 == 7 < 8 << 9 + 10 * 11;`)
	require.NoError(t, err)
	let := block.Children[0].(*ast.Let)
	or, ok := let.Expr.(*ast.BinaryExp)
	require.True(t, ok)
	require.Equal(t, ast.BinOr, or.Op)
}

func TestInvalidAssignmentTargetIsSyntaxError(t *testing.T) {
	_, err := Parse(`1 + 1 = 2;`)
	require.Error(t, err)
}

func TestAnonymousFuncLiteral(t *testing.T) {
	block, err := Parse(`let f = fun(x) { return x; };`)
	require.NoError(t, err)
	let := block.Children[0].(*ast.Let)
	fn, ok := let.Expr.(*ast.FuncDef)
	require.True(t, ok)
	require.Equal(t, "", fn.Name)
}
