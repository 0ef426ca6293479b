package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/mna/mainer"

	"github.com/mna/zirc/internal/builtins"
	"github.com/mna/zirc/internal/compiler"
	"github.com/mna/zirc/internal/lexer"
	"github.com/mna/zirc/internal/parser"
	"github.com/mna/zirc/internal/value"
	"github.com/mna/zirc/internal/vm"
)

// Repl runs an interactive read-eval-print loop over a single persistent VM
// instance: each accepted line is lexed, parsed, incrementally compiled
// against the session's growing function table, and executed with bindings
// surviving across lines via the VM's named-globals map (§9, §10.4).
func (c *Cmd) Repl(ctx context.Context, stdio mainer.Stdio, args []string) error {
	sess := compiler.NewSession()
	io_ := builtins.IO{
		Out:         stdio.Stdout,
		In:          bufio.NewReader(stdio.Stdin),
		Silent:      c.cfg.Silent,
		PromptReply: c.cfg.PromptReply,
	}
	m := vm.New(sess.Program(), io_)

	scanner := bufio.NewScanner(stdio.Stdin)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(stdio.Stdout, "zirc> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && err != io.EOF {
				fmt.Fprintln(stdio.Stderr, err)
				return err
			}
			return nil
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		toks, err := lexer.New(line).Tokenize()
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			continue
		}
		prog, err := parser.Parse(toks)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			continue
		}
		fn, err := sess.CompileLine(prog)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			continue
		}
		last, ok, err := m.RunFunction(fn)
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			continue
		}
		if ok {
			fmt.Fprintln(stdio.Stdout, value.Display(last))
		}
	}
}
