// Package lexer turns Zirc source text into a stream of tokens.
package lexer

import (
	"strconv"
	"strings"

	"github.com/mna/zirc/internal/token"
	"github.com/mna/zirc/internal/zerr"
)

// Lexer scans a fixed source buffer and produces tokens on demand.
type Lexer struct {
	src      []rune
	pos      int
	line     int
	col      int
}

// New creates a Lexer over src.
func New(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1, col: 1}
}

func (lx *Lexer) peek() (rune, bool) {
	if lx.pos >= len(lx.src) {
		return 0, false
	}
	return lx.src[lx.pos], true
}

func (lx *Lexer) peekNext() (rune, bool) {
	if lx.pos+1 >= len(lx.src) {
		return 0, false
	}
	return lx.src[lx.pos+1], true
}

func (lx *Lexer) advance() (rune, bool) {
	c, ok := lx.peek()
	if !ok {
		return 0, false
	}
	lx.pos++
	if c == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return c, true
}

func (lx *Lexer) here() token.Position { return token.Position{Line: lx.line, Col: lx.col} }

func (lx *Lexer) skipWhitespace() {
	for {
		c, ok := lx.peek()
		if !ok {
			return
		}
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			lx.advance()
		case c == '~':
			for {
				c2, ok := lx.peek()
				if !ok {
					return
				}
				lx.advance()
				if c2 == '\n' {
					break
				}
			}
		default:
			return
		}
	}
}

func isDigit(c rune) bool { return c >= '0' && c <= '9' }
func isAlpha(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isAlnum(c rune) bool { return isAlpha(c) || isDigit(c) }

func (lx *Lexer) readNumber() (token.Token, error) {
	pos := lx.here()
	var sb strings.Builder
	for {
		c, ok := lx.peek()
		if !ok || !isDigit(c) {
			break
		}
		sb.WriteRune(c)
		lx.advance()
	}
	n, err := strconv.ParseInt(sb.String(), 10, 64)
	if err != nil {
		return token.Token{}, zerr.At(pos, "Invalid number")
	}
	return token.Token{Kind: token.INT, Int: n, Pos: pos}, nil
}

func (lx *Lexer) readIdentOrKeyword() token.Token {
	pos := lx.here()
	var sb strings.Builder
	for {
		c, ok := lx.peek()
		if !ok || !isAlnum(c) {
			break
		}
		sb.WriteRune(c)
		lx.advance()
	}
	s := sb.String()
	k := token.Lookup(s)
	if k == token.IDENT {
		return token.Token{Kind: token.IDENT, Text: s, Pos: pos}
	}
	return token.Token{Kind: k, Pos: pos}
}

func (lx *Lexer) readString(pos token.Position) (token.Token, error) {
	var sb strings.Builder
	for {
		c, ok := lx.advance()
		if !ok {
			return token.Token{}, zerr.At(pos, "Unterminated string")
		}
		switch c {
		case '"':
			return token.Token{Kind: token.STRING, Text: sb.String(), Pos: pos}, nil
		case '\\':
			n, ok := lx.advance()
			if !ok {
				return token.Token{}, zerr.At(pos, "Unterminated string")
			}
			switch n {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			default:
				sb.WriteRune(n)
			}
		default:
			sb.WriteRune(c)
		}
	}
}

// Tokenize scans the entire source and returns the token stream, ending with
// an EOF token, or the first lex error encountered.
func (lx *Lexer) Tokenize() ([]token.Token, error) {
	var toks []token.Token
	for {
		lx.skipWhitespace()
		pos := lx.here()
		c, ok := lx.peek()
		if !ok {
			toks = append(toks, token.Token{Kind: token.EOF, Pos: pos})
			return toks, nil
		}

		var tok token.Token
		switch {
		case c == '(':
			lx.advance()
			tok = token.Token{Kind: token.LPAREN, Pos: pos}
		case c == ')':
			lx.advance()
			tok = token.Token{Kind: token.RPAREN, Pos: pos}
		case c == ',':
			lx.advance()
			tok = token.Token{Kind: token.COMMA, Pos: pos}
		case c == ':':
			lx.advance()
			tok = token.Token{Kind: token.COLON, Pos: pos}
		case c == '[':
			lx.advance()
			tok = token.Token{Kind: token.LBRACK, Pos: pos}
		case c == ']':
			lx.advance()
			tok = token.Token{Kind: token.RBRACK, Pos: pos}
		case c == '=':
			lx.advance()
			if n, ok := lx.peek(); ok && n == '=' {
				lx.advance()
				tok = token.Token{Kind: token.EQEQ, Pos: pos}
			} else {
				tok = token.Token{Kind: token.EQ, Pos: pos}
			}
		case c == '!':
			lx.advance()
			if n, ok := lx.peek(); ok && n == '=' {
				lx.advance()
				tok = token.Token{Kind: token.BANG_EQ, Pos: pos}
			} else {
				tok = token.Token{Kind: token.BANG, Pos: pos}
			}
		case c == '<':
			lx.advance()
			if n, ok := lx.peek(); ok && n == '=' {
				lx.advance()
				tok = token.Token{Kind: token.LE, Pos: pos}
			} else {
				tok = token.Token{Kind: token.LT, Pos: pos}
			}
		case c == '>':
			lx.advance()
			if n, ok := lx.peek(); ok && n == '=' {
				lx.advance()
				tok = token.Token{Kind: token.GE, Pos: pos}
			} else {
				tok = token.Token{Kind: token.GT, Pos: pos}
			}
		case c == '+':
			lx.advance()
			tok = token.Token{Kind: token.PLUS, Pos: pos}
		case c == '-':
			lx.advance()
			tok = token.Token{Kind: token.MINUS, Pos: pos}
		case c == '*':
			lx.advance()
			tok = token.Token{Kind: token.STAR, Pos: pos}
		case c == '/':
			lx.advance()
			tok = token.Token{Kind: token.SLASH, Pos: pos}
		case c == '&':
			if n, ok := lx.peekNext(); ok && n == '&' {
				lx.advance()
				lx.advance()
				tok = token.Token{Kind: token.AND_AND, Pos: pos}
			} else {
				return nil, zerr.At(pos, "Unexpected '&' (did you mean '&&'?)")
			}
		case c == '|':
			if n, ok := lx.peekNext(); ok && n == '|' {
				lx.advance()
				lx.advance()
				tok = token.Token{Kind: token.OR_OR, Pos: pos}
			} else {
				return nil, zerr.At(pos, "Unexpected '|' (did you mean '||'?)")
			}
		case c == '.':
			if n, ok := lx.peekNext(); ok && n == '.' {
				lx.advance()
				lx.advance()
				tok = token.Token{Kind: token.DOTDOT, Pos: pos}
			} else {
				return nil, zerr.At(pos, "Unexpected '.' (did you mean '..'?)")
			}
		case c == '"':
			lx.advance()
			t, err := lx.readString(pos)
			if err != nil {
				return nil, err
			}
			tok = t
		case isDigit(c):
			t, err := lx.readNumber()
			if err != nil {
				return nil, err
			}
			tok = t
		case isAlpha(c):
			tok = lx.readIdentOrKeyword()
		default:
			return nil, zerr.At(pos, "Unexpected character '%c'", c)
		}
		toks = append(toks, tok)
	}
}
