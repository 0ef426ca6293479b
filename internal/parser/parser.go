// Package parser implements a recursive-descent, precedence-climbing parser
// that turns a Zirc token stream into an *ast.Program.
package parser

import (
	"github.com/mna/zirc/internal/ast"
	"github.com/mna/zirc/internal/suggest"
	"github.com/mna/zirc/internal/token"
	"github.com/mna/zirc/internal/zerr"
)

// Parser consumes a fixed token slice (as produced by the lexer) and builds
// an AST. It never backtracks past a single token of lookahead.
type Parser struct {
	toks []token.Token
	pos  int
}

// New creates a Parser over toks, which must end with an EOF token.
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse parses toks as a full Zirc program.
func Parse(toks []token.Token) (*ast.Program, error) {
	return New(toks).ParseProgram()
}

func (p *Parser) cur() token.Token { return p.toks[p.pos] }

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) expect(k token.Kind) (token.Token, error) {
	if !p.at(k) {
		return token.Token{}, zerr.At(p.cur().Pos, "Expected %s, found %s", k.GoString(), p.cur().Kind.GoString())
	}
	return p.advance(), nil
}

// ParseProgram parses the whole token stream into a Program.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.at(token.EOF) {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		prog.Items = append(prog.Items, item)
	}
	return prog, nil
}

func (p *Parser) parseItem() (ast.Item, error) {
	if p.at(token.FUN) {
		return p.parseFunction()
	}
	return p.parseStmt()
}

func (p *Parser) parseType() (ast.Type, error) {
	tok, err := p.expect(token.IDENT)
	if err != nil {
		return ast.TypeNone, err
	}
	if ty, ok := ast.TypeNames[tok.Text]; ok {
		return ty, nil
	}
	names := make([]string, 0, len(ast.TypeNames))
	for n := range ast.TypeNames {
		names = append(names, n)
	}
	msg := "Unknown type '" + tok.Text + "'"
	if hint, ok := suggest.Closest(tok.Text, names); ok {
		msg += " (did you mean '" + hint + "'?)"
	}
	return ast.TypeNone, zerr.At(tok.Pos, "%s", msg)
}

func (p *Parser) parseFunction() (*ast.Function, error) {
	kw, err := p.expect(token.FUN)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []ast.Param
	for !p.at(token.RPAREN) {
		if len(params) > 0 {
			if _, err := p.expect(token.COMMA); err != nil {
				return nil, err
			}
		}
		pname, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		param := ast.Param{Name: pname.Text}
		if p.at(token.COLON) {
			p.advance()
			ty, err := p.parseType()
			if err != nil {
				return nil, err
			}
			param.Ty = ty
		}
		params = append(params, param)
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	var retTy ast.Type
	if p.at(token.LPAREN) {
		p.advance()
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		retTy = ty
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	body, err := p.parseBlock(token.END)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END); err != nil {
		return nil, err
	}
	return &ast.Function{NamePos: kw.Pos, Name: name.Text, Params: params, ReturnTy: retTy, Body: body}, nil
}

// parseBlock parses statements until the current token is one of until
// (which is left unconsumed).
func (p *Parser) parseBlock(until ...token.Kind) ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for {
		for _, u := range until {
			if p.at(u) {
				return stmts, nil
			}
		}
		if p.at(token.EOF) {
			return stmts, nil
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
}

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.cur().Kind {
	case token.LET:
		return p.parseLet()
	case token.RETURN:
		return p.parseReturn()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.BREAK:
		kw := p.advance()
		return &ast.BreakStmt{KwPos: kw.Pos}, nil
	case token.CONTINUE:
		kw := p.advance()
		return &ast.ContinueStmt{KwPos: kw.Pos}, nil
	case token.IDENT:
		if p.toks[p.pos+1].Kind == token.EQ {
			return p.parseAssign()
		}
		return p.parseExprStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseLet() (*ast.LetStmt, error) {
	kw, err := p.expect(token.LET)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	var ty ast.Type
	if p.at(token.COLON) {
		p.advance()
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ty = t
	}
	if _, err := p.expect(token.EQ); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LetStmt{KwPos: kw.Pos, Name: name.Text, Ty: ty, Expr: expr}, nil
}

func (p *Parser) parseAssign() (*ast.AssignStmt, error) {
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.EQ); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.AssignStmt{NamePos: name.Pos, Name: name.Text, Expr: expr}, nil
}

func (p *Parser) parseReturn() (*ast.ReturnStmt, error) {
	kw, err := p.expect(token.RETURN)
	if err != nil {
		return nil, err
	}
	if p.blockEnds() {
		return &ast.ReturnStmt{KwPos: kw.Pos}, nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{KwPos: kw.Pos, Expr: expr}, nil
}

// blockEnds reports whether the current token can only terminate a
// statement sequence (used to detect a bare `return`).
func (p *Parser) blockEnds() bool {
	switch p.cur().Kind {
	case token.END, token.ELSE, token.EOF:
		return true
	default:
		return false
	}
}

func (p *Parser) parseIf() (*ast.IfStmt, error) {
	kw, err := p.expect(token.IF)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	then, err := p.parseBlock(token.ELSE, token.END)
	if err != nil {
		return nil, err
	}
	var els []ast.Stmt
	if p.at(token.ELSE) {
		p.advance()
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		els, err = p.parseBlock(token.END)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.END); err != nil {
		return nil, err
	}
	return &ast.IfStmt{KwPos: kw.Pos, Cond: cond, Then: then, Else: els}, nil
}

func (p *Parser) parseWhile() (*ast.WhileStmt, error) {
	kw, err := p.expect(token.WHILE)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	body, err := p.parseBlock(token.END)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END); err != nil {
		return nil, err
	}
	return &ast.WhileStmt{KwPos: kw.Pos, Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (*ast.ForStmt, error) {
	kw, err := p.expect(token.FOR)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IN); err != nil {
		return nil, err
	}
	start, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DOTDOT); err != nil {
		return nil, err
	}
	end, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	body, err := p.parseBlock(token.END)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END); err != nil {
		return nil, err
	}
	return &ast.ForStmt{KwPos: kw.Pos, Var: name.Text, Start: start, End: end, Body: body}, nil
}

func (p *Parser) parseExprStmt() (*ast.ExprStmt, error) {
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: e}, nil
}

// ====================
// EXPRESSIONS: precedence climbing, low to high:
// || && == != < <= > >= + - * / unary! primary
// ====================

func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (ast.Expr, error) {
	x, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.at(token.OR_OR) {
		opPos := p.advance().Pos
		y, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		x = &ast.BinaryExpr{Op: ast.Or, OpPos: opPos, X: x, Y: y}
	}
	return x, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	x, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.at(token.AND_AND) {
		opPos := p.advance().Pos
		y, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		x = &ast.BinaryExpr{Op: ast.And, OpPos: opPos, X: x, Y: y}
	}
	return x, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	x, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.at(token.EQEQ) || p.at(token.BANG_EQ) {
		op := ast.Eq
		if p.cur().Kind == token.BANG_EQ {
			op = ast.Ne
		}
		opPos := p.advance().Pos
		y, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		x = &ast.BinaryExpr{Op: op, OpPos: opPos, X: x, Y: y}
	}
	return x, nil
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	x, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOp
		switch p.cur().Kind {
		case token.LT:
			op = ast.Lt
		case token.LE:
			op = ast.Le
		case token.GT:
			op = ast.Gt
		case token.GE:
			op = ast.Ge
		default:
			return x, nil
		}
		opPos := p.advance().Pos
		y, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		x = &ast.BinaryExpr{Op: op, OpPos: opPos, X: x, Y: y}
	}
}

func (p *Parser) parseAdd() (ast.Expr, error) {
	x, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op := ast.Add
		if p.cur().Kind == token.MINUS {
			op = ast.Sub
		}
		opPos := p.advance().Pos
		y, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		x = &ast.BinaryExpr{Op: op, OpPos: opPos, X: x, Y: y}
	}
	return x, nil
}

func (p *Parser) parseMul() (ast.Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(token.STAR) || p.at(token.SLASH) {
		op := ast.Mul
		if p.cur().Kind == token.SLASH {
			op = ast.Div
		}
		opPos := p.advance().Pos
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		x = &ast.BinaryExpr{Op: op, OpPos: opPos, X: x, Y: y}
	}
	return x, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.at(token.BANG) {
		bang := p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.NotExpr{BangPos: bang.Pos, X: x}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.at(token.LBRACK) {
		p.advance()
		idx, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACK); err != nil {
			return nil, err
		}
		x = &ast.IndexExpr{Base: x, Index: idx}
	}
	return x, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case token.INT:
		p.advance()
		return &ast.IntLit{LitPos: tok.Pos, Value: tok.Int}, nil
	case token.STRING:
		p.advance()
		return &ast.StringLit{LitPos: tok.Pos, Value: tok.Text}, nil
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{LitPos: tok.Pos, Value: true}, nil
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{LitPos: tok.Pos, Value: false}, nil
	case token.LPAREN:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case token.LBRACK:
		p.advance()
		var elems []ast.Expr
		for !p.at(token.RBRACK) {
			if len(elems) > 0 {
				if _, err := p.expect(token.COMMA); err != nil {
					return nil, err
				}
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		if _, err := p.expect(token.RBRACK); err != nil {
			return nil, err
		}
		return &ast.ListExpr{LbrackPos: tok.Pos, Elems: elems}, nil
	case token.IDENT:
		p.advance()
		if !p.at(token.LPAREN) {
			return &ast.Ident{NamePos: tok.Pos, Name: tok.Text}, nil
		}
		p.advance() // LPAREN
		var args []ast.Expr
		for !p.at(token.RPAREN) {
			if len(args) > 0 {
				if _, err := p.expect(token.COMMA); err != nil {
					return nil, err
				}
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, e)
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return &ast.CallExpr{NamePos: tok.Pos, Name: tok.Text, Args: args}, nil
	default:
		return nil, zerr.At(tok.Pos, "Unexpected token %s at %s", tok.Kind.GoString(), tok.Pos)
	}
}
