package builtins_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/zirc/internal/builtins"
	"github.com/mna/zirc/internal/value"
)

func newIO(in string) (builtins.IO, *bytes.Buffer) {
	var out bytes.Buffer
	return builtins.IO{Out: &out, In: bufio.NewReader(strings.NewReader(in))}, &out
}

func TestShow(t *testing.T) {
	io_, out := newIO("")
	_, err := builtins.Call(io_, "show", []value.Value{value.MkInt(42)})
	require.NoError(t, err)
	assert.Equal(t, "42\n", out.String())
}

func TestShowSilent(t *testing.T) {
	io_, out := newIO("")
	io_.Silent = true
	_, err := builtins.Call(io_, "show", []value.Value{value.MkInt(42)})
	require.NoError(t, err)
	assert.Empty(t, out.String())
}

func TestShowf(t *testing.T) {
	io_, out := newIO("")
	_, err := builtins.Call(io_, "showf", []value.Value{value.MkStr("x=%d y=%s %%"), value.MkInt(7), value.MkStr("ok")})
	require.NoError(t, err)
	assert.Equal(t, "x=7 y=ok %\n", out.String())
}

func TestShowfMistypedArg(t *testing.T) {
	io_, _ := newIO("")
	_, err := builtins.Call(io_, "showf", []value.Value{value.MkStr("%d"), value.MkStr("nope")})
	require.Error(t, err)
}

func TestPromptReadsLine(t *testing.T) {
	io_, out := newIO("bob\n")
	v, err := builtins.Call(io_, "prompt", []value.Value{value.MkStr("name? ")})
	require.NoError(t, err)
	assert.Equal(t, "bob", v.S)
	assert.Equal(t, "name? ", out.String())
}

func TestPromptSilentReturnsConfiguredReply(t *testing.T) {
	io_, _ := newIO("")
	io_.Silent = true
	io_.PromptReply = "canned"
	v, err := builtins.Call(io_, "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "canned", v.S)
}

func TestLen(t *testing.T) {
	io_, _ := newIO("")
	v, err := builtins.Call(io_, "len", []value.Value{value.MkStr("hello")})
	require.NoError(t, err)
	assert.EqualValues(t, 5, v.I)

	v, err = builtins.Call(io_, "len", []value.Value{value.MkList([]value.Value{value.MkInt(1), value.MkInt(2)})})
	require.NoError(t, err)
	assert.EqualValues(t, 2, v.I)
}

func TestPushPopRejectedByBuiltinsTable(t *testing.T) {
	io_, _ := newIO("")
	_, err := builtins.Call(io_, "push", []value.Value{value.MkStr("xs"), value.MkInt(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported in VM mode")
}

func TestSlice(t *testing.T) {
	io_, _ := newIO("")
	v, err := builtins.Call(io_, "slice", []value.Value{
		value.MkList([]value.Value{value.MkInt(1), value.MkInt(2), value.MkInt(3), value.MkInt(4)}),
		value.MkInt(1), value.MkInt(3),
	})
	require.NoError(t, err)
	assert.True(t, value.Equal(value.MkList([]value.Value{value.MkInt(2), value.MkInt(3)}), v))
}

func TestAbsMinMax(t *testing.T) {
	io_, _ := newIO("")
	v, _ := builtins.Call(io_, "abs", []value.Value{value.MkInt(-5)})
	assert.EqualValues(t, 5, v.I)
	v, _ = builtins.Call(io_, "min", []value.Value{value.MkInt(3), value.MkInt(7)})
	assert.EqualValues(t, 3, v.I)
	v, _ = builtins.Call(io_, "max", []value.Value{value.MkInt(3), value.MkInt(7)})
	assert.EqualValues(t, 7, v.I)
}

func TestPowSqrt(t *testing.T) {
	io_, _ := newIO("")
	v, err := builtins.Call(io_, "pow", []value.Value{value.MkInt(2), value.MkInt(10)})
	require.NoError(t, err)
	assert.EqualValues(t, 1024, v.I)

	v, err = builtins.Call(io_, "sqrt", []value.Value{value.MkInt(17)})
	require.NoError(t, err)
	assert.EqualValues(t, 4, v.I)
}

func TestHexBin(t *testing.T) {
	io_, _ := newIO("")
	v, _ := builtins.Call(io_, "hex", []value.Value{value.MkInt(255)})
	assert.Equal(t, "0xff", v.S)
	v, _ = builtins.Call(io_, "bin", []value.Value{value.MkInt(5)})
	assert.Equal(t, "0b101", v.S)
}

func TestStringTransforms(t *testing.T) {
	io_, _ := newIO("")
	v, _ := builtins.Call(io_, "upper", []value.Value{value.MkStr("abc")})
	assert.Equal(t, "ABC", v.S)
	v, _ = builtins.Call(io_, "lower", []value.Value{value.MkStr("ABC")})
	assert.Equal(t, "abc", v.S)
	v, _ = builtins.Call(io_, "trim", []value.Value{value.MkStr("  hi  ")})
	assert.Equal(t, "hi", v.S)
}

func TestSplitJoin(t *testing.T) {
	io_, _ := newIO("")
	v, err := builtins.Call(io_, "split", []value.Value{value.MkStr("a,b,c"), value.MkStr(",")})
	require.NoError(t, err)
	require.Len(t, v.Elems, 3)

	joined, err := builtins.Call(io_, "join", []value.Value{v, value.MkStr("-")})
	require.NoError(t, err)
	assert.Equal(t, "a-b-c", joined.S)
}

func TestJoinRejectsNonStringElements(t *testing.T) {
	io_, _ := newIO("")
	_, err := builtins.Call(io_, "join", []value.Value{
		value.MkList([]value.Value{value.MkInt(1)}), value.MkStr(","),
	})
	require.Error(t, err)
}

func TestIntStrType(t *testing.T) {
	io_, _ := newIO("")
	v, err := builtins.Call(io_, "int", []value.Value{value.MkStr("42")})
	require.NoError(t, err)
	assert.EqualValues(t, 42, v.I)

	v, _ = builtins.Call(io_, "int", []value.Value{value.MkBool(true)})
	assert.EqualValues(t, 1, v.I)

	v, _ = builtins.Call(io_, "str", []value.Value{value.MkInt(7)})
	assert.Equal(t, "7", v.S)

	v, _ = builtins.Call(io_, "type", []value.Value{value.MkList(nil)})
	assert.Equal(t, "list", v.S)
}

func TestArityMismatch(t *testing.T) {
	io_, _ := newIO("")
	_, err := builtins.Call(io_, "abs", []value.Value{value.MkInt(1), value.MkInt(2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 1 args, got 2")
}

func TestUndefinedBuiltin(t *testing.T) {
	io_, _ := newIO("")
	_, err := builtins.Call(io_, "nope", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined function 'nope'")
}
