package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/zirc/internal/builtins"
	"github.com/mna/zirc/internal/bytecode"
	"github.com/mna/zirc/internal/compiler"
	"github.com/mna/zirc/internal/config"
	"github.com/mna/zirc/internal/interp"
	"github.com/mna/zirc/internal/lexer"
	"github.com/mna/zirc/internal/parser"
	"github.com/mna/zirc/internal/vm"
)

// Run loads a Zirc source file and executes it with the configured backend
// (tree-walker or VM, §4.3/§4.5). The process context is checked once,
// before execution starts; a run already in progress is not interrupted
// by its cancellation (§5).
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	src, err := os.ReadFile(path)
	if err != nil {
		c.logger.Error("failed to read source file", "path", path, "err", err)
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

	io_ := builtins.IO{
		Out:         stdio.Stdout,
		In:          bufio.NewReader(stdio.Stdin),
		Silent:      c.cfg.Silent,
		PromptReply: c.cfg.PromptReply,
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if c.cfg.Backend == config.BackendInterp {
		in := interp.New(io_)
		_, _, err = in.Run(prog)
		stats := in.Stats()
		c.logger.Debug("interpreter run finished", "strings_allocated", stats.StringsAllocated, "bytes_allocated", stats.BytesAllocated)
	} else {
		var bc *bytecode.Program
		if c.cfg.CacheEnabled {
			if cached, ok, cerr := bytecode.LoadCached(c.cfg.CacheDir, string(src)); cerr != nil {
				c.logger.Warn("bytecode cache read failed, recompiling", "err", cerr)
			} else if ok {
				bc = cached
			}
		}
		if bc == nil {
			bc, err = compiler.Compile(prog)
			if err != nil {
				fmt.Fprintln(stdio.Stderr, err)
				return err
			}
			if c.cfg.CacheEnabled {
				if cerr := bytecode.StoreCached(c.cfg.CacheDir, string(src), bc); cerr != nil {
					c.logger.Warn("bytecode cache write failed", "err", cerr)
				}
			}
		}
		_, _, err = vm.New(bc, io_).Run()
	}
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return nil
}
