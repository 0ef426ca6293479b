package vm_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/zirc/internal/builtins"
	"github.com/mna/zirc/internal/compiler"
	"github.com/mna/zirc/internal/lexer"
	"github.com/mna/zirc/internal/parser"
	"github.com/mna/zirc/internal/vm"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	toks, err := lexer.New(src).Tokenize()
	require.NoError(t, err)
	prog, err := parser.Parse(toks)
	require.NoError(t, err)
	bc, err := compiler.Compile(prog)
	require.NoError(t, err)

	var out bytes.Buffer
	io_ := builtins.IO{Out: &out, In: bufio.NewReader(strings.NewReader(""))}
	_, _, err = vm.New(bc, io_).Run()
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

func TestPushRejectedInVMMode(t *testing.T) {
	_, err := run(t, `
let xs: list = []
push(xs, 1)
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push()/pop() is not supported in VM mode")
}

func TestPopRejectedInVMMode(t *testing.T) {
	_, err := run(t, `
let xs: list = [1, 2, 3]
pop(xs)
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push()/pop() is not supported in VM mode")
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

func TestUndefinedVariable(t *testing.T) {
	_, err := run(t, `show(nope)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined")
}

func TestLastTopLevelExpressionValueIsRecorded(t *testing.T) {
	toks, err := lexer.New("1 + 1\n2 + 2").Tokenize()
	require.NoError(t, err)
	prog, err := parser.Parse(toks)
	require.NoError(t, err)
	bc, err := compiler.Compile(prog)
	require.NoError(t, err)

	var out bytes.Buffer
	io_ := builtins.IO{Out: &out, In: bufio.NewReader(strings.NewReader(""))}
	last, ok, err := vm.New(bc, io_).Run()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(4), last.I)
}

func TestCallWithWrongArgCountErrors(t *testing.T) {
	_, err := run(t, `
fun add(a: int, b: int) (int):
    return a + b
end

show(add(1))
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Function 'add' expected 2 args, got 1")
}

func TestListIndexOutOfBounds(t *testing.T) {
	_, err := run(t, `
let xs: list = [1, 2, 3]
show(xs[10])
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index out of bounds")
}
