package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/zirc/internal/lexer"
	"github.com/mna/zirc/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, t := range toks {
		ks[i] = t.Kind
	}
	return ks
}

func TestTokenizeBasic(t *testing.T) {
	toks, err := lexer.New(`let x = 1 + 2`).Tokenize()
	require.NoError(t, err)
	require.Equal(t, []token.Kind{
		token.LET, token.IDENT, token.EQ, token.INT, token.PLUS, token.INT, token.EOF,
	}, kinds(toks))
	require.Equal(t, "x", toks[1].Text)
	require.EqualValues(t, 1, toks[3].Int)
}

func TestTokenizeTwoCharOperators(t *testing.T) {
	toks, err := lexer.New(`== != <= >= && || ..`).Tokenize()
	require.NoError(t, err)
	require.Equal(t, []token.Kind{
		token.EQEQ, token.BANG_EQ, token.LE, token.GE, token.AND_AND, token.OR_OR, token.DOTDOT, token.EOF,
	}, kinds(toks))
}

func TestTokenizeComment(t *testing.T) {
	toks, err := lexer.New("let x = 1 ~ trailing comment\nlet y = 2").Tokenize()
	require.NoError(t, err)
	require.Equal(t, []token.Kind{
		token.LET, token.IDENT, token.EQ, token.INT,
		token.LET, token.IDENT, token.EQ, token.INT, token.EOF,
	}, kinds(toks))
}

func TestTokenizeString(t *testing.T) {
	toks, err := lexer.New(`"hello\nworld\""`).Tokenize()
	require.NoError(t, err)
	require.Len(t, toks, 2)
	require.Equal(t, "hello\nworld\"", toks[0].Text)
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, err := lexer.New(`"hello`).Tokenize()
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unterminated string")
}

func TestTokenizeLoneAmpersand(t *testing.T) {
	_, err := lexer.New(`a & b`).Tokenize()
	require.Error(t, err)
	require.Contains(t, err.Error(), "did you mean '&&'?")
}

func TestTokenizeLonePipe(t *testing.T) {
	_, err := lexer.New(`a | b`).Tokenize()
	require.Error(t, err)
	require.Contains(t, err.Error(), "did you mean '||'?")
}

func TestTokenizeLoneDot(t *testing.T) {
	_, err := lexer.New(`a.b`).Tokenize()
	require.Error(t, err)
	require.Contains(t, err.Error(), "did you mean '..'?")
}

func TestTokenizeInvalidNumber(t *testing.T) {
	huge := "99999999999999999999999999"
	_, err := lexer.New(huge).Tokenize()
	require.Error(t, err)
	require.Contains(t, err.Error(), "Invalid number")
}

func TestTokenizeUnexpectedCharacter(t *testing.T) {
	_, err := lexer.New("let x = @").Tokenize()
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unexpected character '@'")
}

func TestPositionsAreOneBased(t *testing.T) {
	toks, err := lexer.New("let\nx").Tokenize()
	require.NoError(t, err)
	require.Equal(t, token.Position{Line: 1, Col: 1}, toks[0].Pos)
	require.Equal(t, token.Position{Line: 2, Col: 1}, toks[1].Pos)
}
