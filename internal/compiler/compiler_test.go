package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/zirc/internal/bytecode"
	"github.com/mna/zirc/internal/compiler"
	"github.com/mna/zirc/internal/lexer"
	"github.com/mna/zirc/internal/parser"
)

func compile(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	toks, err := lexer.New(src).Tokenize()
	require.NoError(t, err)
	prog, err := parser.Parse(toks)
	require.NoError(t, err)
	bc, err := compiler.Compile(prog)
	require.NoError(t, err)
	return bc
}

func countOps(code []bytecode.Instruction, op bytecode.Opcode) int {
	n := 0
	for _, ins := range code {
		if ins.Op == op {
			n++
		}
	}
	return n
}

func TestCompileArithmeticExpr(t *testing.T) {
	bc := compile(t, `show(1 + 2 * 3)`)
	assert.Equal(t, 1, countOps(bc.Main.Code, bytecode.Add))
	assert.Equal(t, 1, countOps(bc.Main.Code, bytecode.Mul))
	assert.Equal(t, 1, countOps(bc.Main.Code, bytecode.BuiltinCall))
}

func TestCompileFunctionAndCall(t *testing.T) {
	bc := compile(t, `
fun double(n: int) (int):
    return n * 2
end

show(double(21))
`)
	require.Len(t, bc.Functions, 1)
	assert.Equal(t, "double", bc.Functions[0].Name)
	assert.Equal(t, 1, countOps(bc.Main.Code, bytecode.Call))
}

func TestCompileIfElseJumpsBalance(t *testing.T) {
	bc := compile(t, `
let x: int = 1
if x == 1:
    x = 2
else:
    x = 3
end
`)
	assert.Equal(t, 1, countOps(bc.Main.Code, bytecode.JumpIfFalse))
	assert.Equal(t, 1, countOps(bc.Main.Code, bytecode.Jump))
}

func TestCompileWhileLoopPatchesBreakAndContinue(t *testing.T) {
	bc := compile(t, `
let i: int = 0
while i < 10:
    i = i + 1
    if i == 5:
        continue
    end
    if i == 8:
        break
    end
end
`)
	// every Jump target must be a valid index into the function's code
	for _, ins := range bc.Main.Code {
		switch ins.Op {
		case bytecode.Jump, bytecode.JumpIfFalse, bytecode.JumpIfTrue:
			assert.GreaterOrEqual(t, ins.IntArg, int64(0))
			assert.LessOrEqual(t, int(ins.IntArg), len(bc.Main.Code))
		}
	}
}

func TestCompileForLoopSharesVariableShadowing(t *testing.T) {
	bc := compile(t, `
let i: int = 100
for i in 0..3:
end
show(i)
`)
	// two distinct StoreLocal slots are used for the outer `i` and the loop
	// variable `i`, never the same one.
	slots := map[int64]bool{}
	for _, ins := range bc.Main.Code {
		if ins.Op == bytecode.StoreLocal {
			slots[ins.IntArg] = true
		}
	}
	assert.GreaterOrEqual(t, len(slots), 2)
}

func TestCompileUndefinedFunctionErrors(t *testing.T) {
	toks, err := lexer.New(`nope()`).Tokenize()
	require.NoError(t, err)
	prog, err := parser.Parse(toks)
	require.NoError(t, err)
	_, err = compiler.Compile(prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined function 'nope'")
}

func TestCompileBreakOutsideLoopErrors(t *testing.T) {
	toks, err := lexer.New(`break`).Tokenize()
	require.NoError(t, err)
	prog, err := parser.Parse(toks)
	require.NoError(t, err)
	_, err = compiler.Compile(prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'break' outside of loop")
}

func TestCompileSameScopeRedefinitionErrors(t *testing.T) {
	toks, err := lexer.New(`
let x: int = 1
let x: int = 2
`).Tokenize()
	require.NoError(t, err)
	prog, err := parser.Parse(toks)
	require.NoError(t, err)
	_, err = compiler.Compile(prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Variable 'x' already defined in scope")
}

func TestCompileShadowingInNestedScopeStillCompiles(t *testing.T) {
	// a let inside a nested if/while/for scope shadowing an outer let of the
	// same name is not a same-scope redefinition, so it must still compile.
	bc := compile(t, `
let x: int = 1
if true:
    let x: int = 2
    show(x)
end
show(x)
`)
	assert.Equal(t, 2, countOps(bc.Main.Code, bytecode.StoreLocal))
}

func TestCompileDuplicateParamNameErrors(t *testing.T) {
	toks, err := lexer.New(`
fun f(x: int, x: int) (int):
    return x
end
`).Tokenize()
	require.NoError(t, err)
	prog, err := parser.Parse(toks)
	require.NoError(t, err)
	_, err = compiler.Compile(prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Variable 'x' already defined in scope")
}
