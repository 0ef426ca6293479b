package compiler_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/zirc/internal/builtins"
	"github.com/mna/zirc/internal/bytecode"
	"github.com/mna/zirc/internal/compiler"
	"github.com/mna/zirc/internal/lexer"
	"github.com/mna/zirc/internal/parser"
	"github.com/mna/zirc/internal/vm"
)

func compileLine(t *testing.T, sess *compiler.Session, src string) *bytecode.Function {
	t.Helper()
	toks, err := lexer.New(src).Tokenize()
	require.NoError(t, err)
	prog, err := parser.Parse(toks)
	require.NoError(t, err)
	fn, err := sess.CompileLine(prog)
	require.NoError(t, err)
	return fn
}

func TestSessionPersistsGlobalsAcrossLines(t *testing.T) {
	sess := compiler.NewSession()
	var out bytes.Buffer
	io_ := builtins.IO{Out: &out, In: bufio.NewReader(strings.NewReader(""))}
	m := vm.New(sess.Program(), io_)

	fn1 := compileLine(t, sess, `let x: int = 40`)
	_, _, err := m.RunFunction(fn1)
	require.NoError(t, err)

	fn2 := compileLine(t, sess, `x = x + 2`)
	_, _, err = m.RunFunction(fn2)
	require.NoError(t, err)

	fn3 := compileLine(t, sess, `show(x)`)
	_, _, err = m.RunFunction(fn3)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out.String())
}

func TestSessionPersistsFunctionsAcrossLines(t *testing.T) {
	sess := compiler.NewSession()
	var out bytes.Buffer
	io_ := builtins.IO{Out: &out, In: bufio.NewReader(strings.NewReader(""))}
	m := vm.New(sess.Program(), io_)

	fn1 := compileLine(t, sess, "fun sq(n: int) (int):\n    return n * n\nend")
	_, _, err := m.RunFunction(fn1)
	require.NoError(t, err)

	fn2 := compileLine(t, sess, `show(sq(6))`)
	_, _, err = m.RunFunction(fn2)
	require.NoError(t, err)
	assert.Equal(t, "36\n", out.String())
}
