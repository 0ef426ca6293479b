package interp_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/zirc/internal/builtins"
	"github.com/mna/zirc/internal/interp"
	"github.com/mna/zirc/internal/lexer"
	"github.com/mna/zirc/internal/parser"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	toks, err := lexer.New(src).Tokenize()
	require.NoError(t, err)
	prog, err := parser.Parse(toks)
	require.NoError(t, err)

	var out bytes.Buffer
	io_ := builtins.IO{Out: &out, In: bufio.NewReader(strings.NewReader(""))}
	it := interp.New(io_)
	_, _, err = it.Run(prog)
	return out.String(), err
}

func TestFactorial(t *testing.T) {
	out, err := run(t, `
fun fact(n: int) (int):
    if n <= 1:
        return 1
    end
    return n * fact(n - 1)
end

show(fact(5))
`)
	require.NoError(t, err)
	assert.Equal(t, "120\n", out)
}

func TestFibonacci(t *testing.T) {
	out, err := run(t, `
fun fib(n: int) (int):
    if n < 2:
        return n
    end
    return fib(n - 1) + fib(n - 2)
end

show(fib(10))
`)
	require.NoError(t, err)
	assert.Equal(t, "55\n", out)
}

func TestListSumViaFor(t *testing.T) {
	out, err := run(t, `
let xs: list = [1, 2, 3, 4, 5]
let total: int = 0
for i in 0..len(xs):
    total = total + xs[i]
end
show(total)
`)
	require.NoError(t, err)
	assert.Equal(t, "15\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, err := run(t, `
let greeting: string = "hello" + " " + "world"
show(greeting)
`)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out)
}

func TestShowf(t *testing.T) {
	out, err := run(t, `showf("%s scored %d%%", "ada", 99)`)
	require.NoError(t, err)
	assert.Equal(t, "ada scored 99%\n", out)
}

func TestPush(t *testing.T) {
	out, err := run(t, `
let xs: list = []
push(xs, 1)
push(xs, 2)
push(xs, 3)
show(xs)
`)
	require.NoError(t, err)
	assert.Equal(t, "[1, 2, 3]\n", out)
}

func TestPop(t *testing.T) {
	out, err := run(t, `
let xs: list = [1, 2, 3]
let last: int = pop(xs)
show(last)
show(xs)
`)
	require.NoError(t, err)
	assert.Equal(t, "3\n[1, 2]\n", out)
}

func TestForLoopVariableIsAlwaysShadowed(t *testing.T) {
	out, err := run(t, `
let i: int = 100
for i in 0..3:
end
show(i)
`)
	require.NoError(t, err)
	assert.Equal(t, "100\n", out)
}

func TestWhileBreakContinue(t *testing.T) {
	out, err := run(t, `
let i: int = 0
let sum: int = 0
while i < 10:
    i = i + 1
    if i == 5:
        continue
    end
    if i == 8:
        break
    end
    sum = sum + i
end
show(sum)
`)
	require.NoError(t, err)
	assert.Equal(t, "23\n", out)
}

func TestDivisionByZero(t *testing.T) {
	_, err := run(t, `show(1 / 0)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
}

func TestAssignMutatesEnclosingScope(t *testing.T) {
	out, err := run(t, `
let total: int = 0
let i: int = 0
while i < 3:
    total = total + 1
    i = i + 1
end
show(total)
`)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestFunctionCallHasNoAccessToCallerLocals(t *testing.T) {
	_, err := run(t, `
fun useOuter() (int):
    return outer
end

let outer: int = 1
useOuter()
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable 'outer'")
}

func TestUndefinedVariable(t *testing.T) {
	_, err := run(t, `show(nope)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable 'nope'")
}

func TestTypeMismatchOnLet(t *testing.T) {
	_, err := run(t, `let x: int = "nope"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Type mismatch")
}

func TestStatsAccumulatesStringAllocations(t *testing.T) {
	toks, err := lexer.New(`let greeting: string = "hello" + " " + "world"`).Tokenize()
	require.NoError(t, err)
	prog, err := parser.Parse(toks)
	require.NoError(t, err)

	var out bytes.Buffer
	io_ := builtins.IO{Out: &out, In: bufio.NewReader(strings.NewReader(""))}
	it := interp.New(io_)
	_, _, err = it.Run(prog)
	require.NoError(t, err)

	stats := it.Stats()
	assert.Positive(t, stats.StringsAllocated)
	assert.Positive(t, stats.BytesAllocated)
}
