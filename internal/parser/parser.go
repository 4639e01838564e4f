// Package parser builds the internal/ast tree from internal/lexer tokens
// via recursive descent with precedence climbing, grounded on
// original_source/src/parser.rs for statement grammar and
// original_source/src/frontend/operator.rs for the operator precedence
// table (Or=10 down to Mul/Div/Mod=1, unary=0 — parseBinary below walks
// the same ten levels loosest-to-tightest before bottoming out at unary
// and primary expressions).
package parser

import (
	"fmt"

	"github.com/ChandruSu/nscript/internal/ast"
	"github.com/ChandruSu/nscript/internal/errdefs"
	"github.com/ChandruSu/nscript/internal/lexer"
)

// Parser turns one token stream into an *ast.Block program.
type Parser struct {
	lex  *lexer.Lexer
	cur  lexer.Token
	peek lexer.Token
}

// Parse lexes and parses src in one call — the entry point spec.md §6
// assumes front of the compiler ("source text -> AST").
func Parse(src string) (*ast.Block, error) {
	p := &Parser{lex: lexer.New(src)}
	if err := p.prime(); err != nil {
		return nil, err
	}
	return p.parseProgram()
}

func (p *Parser) prime() error {
	var err error
	p.cur, err = p.lex.Next()
	if err != nil {
		return err
	}
	p.peek, err = p.lex.Next()
	return err
}

func (p *Parser) advance() error {
	p.cur = p.peek
	var err error
	p.peek, err = p.lex.Next()
	return err
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur.Kind == k }

func (p *Parser) atOp(texts ...string) bool {
	if p.cur.Kind != lexer.Op {
		return false
	}
	for _, t := range texts {
		if p.cur.Text == t {
			return true
		}
	}
	return false
}

func (p *Parser) expect(k lexer.Kind, what string) (lexer.Token, error) {
	if !p.at(k) {
		return lexer.Token{}, p.errf("expected %s", what)
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return lexer.Token{}, err
	}
	return tok, nil
}

func (p *Parser) errf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return errdefs.Syntax(fmt.Errorf("%s at %d:%d (got %q)", msg, p.cur.Pos.Line, p.cur.Pos.Col, p.cur.Text))
}

func (p *Parser) parseProgram() (*ast.Block, error) {
	pos := p.cur.Pos
	var stmts []ast.Node
	for !p.at(lexer.EOF) {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return ast.NewBlock(pos, stmts), nil
}

func (p *Parser) parseStatement() (ast.Node, error) {
	switch {
	case p.at(lexer.LBrace):
		return p.parseBlock()
	case p.at(lexer.KwLet):
		return p.parseLet()
	case p.at(lexer.KwIf):
		return p.parseIf()
	case p.at(lexer.KwWhile):
		return p.parseWhile()
	case p.at(lexer.KwReturn):
		return p.parseReturn()
	case p.at(lexer.KwFun):
		return p.parseFuncDefStatement()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	pos := p.cur.Pos
	if _, err := p.expect(lexer.LBrace, "'{'"); err != nil {
		return nil, err
	}
	var stmts []ast.Node
	for !p.at(lexer.RBrace) {
		if p.at(lexer.EOF) {
			return nil, p.errf("unterminated block")
		}
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(lexer.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return ast.NewBlock(pos, stmts), nil
}

func (p *Parser) parseLet() (ast.Node, error) {
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.Ident, "identifier")
	if err != nil {
		return nil, err
	}
	if !p.atOp("=") {
		return nil, p.errf("expected '=' in let binding")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.semi(); err != nil {
		return nil, err
	}
	return ast.NewLet(pos, name.Text, expr), nil
}

func (p *Parser) semi() error {
	if !p.at(lexer.Semi) {
		return p.errf("expected ';'")
	}
	return p.advance()
}

func (p *Parser) parseIf() (ast.Node, error) {
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen, "')'"); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var els ast.Node
	if p.at(lexer.KwElse) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.at(lexer.KwIf) {
			els, err = p.parseIf()
		} else {
			els, err = p.parseBlock()
		}
		if err != nil {
			return nil, err
		}
	}
	return ast.NewIf(pos, cond, then, els), nil
}

func (p *Parser) parseWhile() (ast.Node, error) {
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RParen, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewWhile(pos, cond, body), nil
}

func (p *Parser) parseReturn() (ast.Node, error) {
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.at(lexer.Semi) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewReturn(pos, nil), nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.semi(); err != nil {
		return nil, err
	}
	return ast.NewReturn(pos, expr), nil
}

func (p *Parser) parseFuncDefStatement() (ast.Node, error) {
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.Ident, "function name")
	if err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewFuncDef(pos, name.Text, params, body), nil
}

func (p *Parser) parseParams() ([]string, error) {
	if _, err := p.expect(lexer.LParen, "'('"); err != nil {
		return nil, err
	}
	var params []string
	for !p.at(lexer.RParen) {
		name, err := p.expect(lexer.Ident, "parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, name.Text)
		if p.at(lexer.Comma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RParen, "')'"); err != nil {
		return nil, err
	}
	return params, nil
}

var assignOps = map[string]ast.AssignOp{
	"=":  ast.AssignSet,
	"+=": ast.AssignAdd,
	"-=": ast.AssignSub,
	"*=": ast.AssignMul,
	"/=": ast.AssignDiv,
	"%=": ast.AssignMod,
}

func (p *Parser) parseExprStatement() (ast.Node, error) {
	pos := p.cur.Pos
	lhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind == lexer.Op {
		if op, ok := assignOps[p.cur.Text]; ok {
			if !isLvalue(lhs) {
				return nil, p.errf("invalid assignment target")
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			rhs, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.semi(); err != nil {
				return nil, err
			}
			return ast.NewAssign(pos, op, lhs, rhs), nil
		}
	}
	if err := p.semi(); err != nil {
		return nil, err
	}
	return lhs, nil
}

func isLvalue(n ast.Node) bool {
	switch n.(type) {
	case *ast.Reference, *ast.Subscript, *ast.Deref:
		return true
	default:
		return false
	}
}

// parseExpr parses a full expression: ternary over the binary-operator
// precedence ladder.
func (p *Parser) parseExpr() (ast.Node, error) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (ast.Node, error) {
	pos := p.cur.Pos
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.Question) {
		return cond, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Colon, "':'"); err != nil {
		return nil, err
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return ast.NewTernaryExp(pos, cond, then, els), nil
}

// levels walks original_source/src/frontend/operator.rs's precedence
// table loosest to tightest: Or, And, bitwise-or, bitwise-xor,
// bitwise-and, equality, relational, shifts, additive, multiplicative.
var levels = [][]struct {
	text string
	op   ast.BinaryOp
}{
	{{"||", ast.BinOr}},
	{{"&&", ast.BinAnd}},
	{{"|", ast.BinBitOr}},
	{{"^", ast.BinBitXor}},
	{{"&", ast.BinBitAnd}},
	{{"==", ast.BinEq}, {"!=", ast.BinNeq}},
	{{"<", ast.BinLt}, {"<=", ast.BinLe}, {">", ast.BinGt}, {">=", ast.BinGe}},
	{{"<<", ast.BinShl}, {">>", ast.BinShr}},
	{{"+", ast.BinAdd}, {"-", ast.BinSub}},
	{{"*", ast.BinMul}, {"/", ast.BinDiv}, {"%", ast.BinMod}},
}

func (p *Parser) parseBinary(level int) (ast.Node, error) {
	if level >= len(levels) {
		return p.parseUnary()
	}
	lhs, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		matched := false
		for _, cand := range levels[level] {
			if p.atOp(cand.text) {
				pos := p.cur.Pos
				if err := p.advance(); err != nil {
					return nil, err
				}
				rhs, err := p.parseBinary(level + 1)
				if err != nil {
					return nil, err
				}
				lhs = ast.NewBinaryExp(pos, cand.op, lhs, rhs)
				matched = true
				break
			}
		}
		if !matched {
			return lhs, nil
		}
	}
}

func (p *Parser) parseUnary() (ast.Node, error) {
	pos := p.cur.Pos
	switch {
	case p.atOp("-"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExp(pos, ast.UnaryNeg, expr), nil
	case p.atOp("!"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExp(pos, ast.UnaryNot, expr), nil
	case p.atOp("~"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExp(pos, ast.UnaryBitNot, expr), nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (ast.Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(lexer.LParen):
			pos := p.cur.Pos
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			expr = ast.NewCall(pos, expr, args)
		case p.at(lexer.LBracket):
			pos := p.cur.Pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RBracket, "']'"); err != nil {
				return nil, err
			}
			expr = ast.NewSubscript(pos, expr, idx)
		case p.at(lexer.Dot):
			pos := p.cur.Pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			field, err := p.expect(lexer.Ident, "field name")
			if err != nil {
				return nil, err
			}
			expr = ast.NewDeref(pos, expr, field.Text)
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseArgs() ([]ast.Node, error) {
	if _, err := p.expect(lexer.LParen, "'('"); err != nil {
		return nil, err
	}
	var args []ast.Node
	for !p.at(lexer.RParen) {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.at(lexer.Comma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RParen, "')'"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	pos := p.cur.Pos
	switch p.cur.Kind {
	case lexer.IntLit:
		v := p.cur.Int
		return p.single(ast.NewInt(pos, v))
	case lexer.FloatLit:
		v := p.cur.Float
		return p.single(ast.NewFloat(pos, v))
	case lexer.StringLit:
		v := p.cur.Text
		return p.single(ast.NewString(pos, v))
	case lexer.BoolLit:
		v := p.cur.Bool
		return p.single(ast.NewBool(pos, v))
	case lexer.NullLit:
		return p.single(ast.NewNull(pos))
	case lexer.Ident:
		name := p.cur.Text
		return p.single(ast.NewReference(pos, name))
	case lexer.KwImport:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewReference(pos, "import"), nil
	case lexer.KwFun:
		return p.parseFuncLiteral()
	case lexer.LParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen, "')'"); err != nil {
			return nil, err
		}
		return expr, nil
	case lexer.LBracket:
		return p.parseArrayLiteral()
	case lexer.LBrace:
		return p.parseObjectLiteral()
	default:
		return nil, p.errf("unexpected token in expression")
	}
}

// single advances past the current (already-captured) token and returns
// the already-built leaf node — a small helper to avoid repeating the
// advance-then-return pair at every scalar literal case above.
func (p *Parser) single(n ast.Node) (ast.Node, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	return n, nil
}

func (p *Parser) parseFuncLiteral() (ast.Node, error) {
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewFuncDef(pos, "", params, body), nil
}

func (p *Parser) parseArrayLiteral() (ast.Node, error) {
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	var elems []ast.Node
	for !p.at(lexer.RBracket) {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.at(lexer.Comma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBracket, "']'"); err != nil {
		return nil, err
	}
	return ast.NewArray(pos, elems), nil
}

func (p *Parser) parseObjectLiteral() (ast.Node, error) {
	pos := p.cur.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	var pairs []ast.ObjectPair
	for !p.at(lexer.RBrace) {
		var key string
		switch p.cur.Kind {
		case lexer.Ident:
			key = p.cur.Text
		case lexer.StringLit:
			key = p.cur.Text
		default:
			return nil, p.errf("expected object key")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Colon, "':'"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, ast.ObjectPair{Key: key, Value: val})
		if p.at(lexer.Comma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBrace, "'}'"); err != nil {
		return nil, err
	}
	return ast.NewObject(pos, pairs), nil
}
