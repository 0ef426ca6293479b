package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/zirc/internal/bytecode"
	"github.com/mna/zirc/internal/compiler"
	"github.com/mna/zirc/internal/lexer"
	"github.com/mna/zirc/internal/parser"
)

// Disasm compiles a source file and prints its bytecode in the
// pseudo-assembly form internal/bytecode.Disassemble renders (§4.4, §10.2).
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	toks, err := lexer.New(string(src)).Tokenize()
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	bc, err := compiler.Compile(prog)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := bytecode.Disassemble(stdio.Stdout, bc); err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return nil
}
