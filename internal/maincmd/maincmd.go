// Package maincmd implements the zirc CLI's subcommand dispatch, the thin
// collaborator layer wrapping the core language pipeline (lexer, parser,
// compiler, VM, tree-walker) with configuration, logging, and I/O.
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/mna/mainer"

	"github.com/mna/zirc/internal/config"
)

const binName = "zirc"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <command> [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and runtime for the Zirc programming language.

The <command> can be one of:
       run                       Run the given source file.
       repl                      Start an interactive read-eval-print loop.
       disasm                    Compile the given source file and print its
                                 disassembled bytecode.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --backend <vm|interp>     Execution backend for 'run' (overrides
                                 ZIRC_BACKEND, default interp).
       --silent                  Suppress show/showf/prompt output and make
                                 prompt consume a configured reply (overrides
                                 ZIRC_SILENT).
       --no-cache                Disable the bytecode cache for 'run'
                                 (overrides ZIRC_CACHE).

More information on the Zirc repository:
       https://github.com/mna/zirc
`, binName)
)

// Cmd holds the parsed CLI flags and arguments and dispatches to the
// matching subcommand method by reflection, exactly as the teacher's CLI
// wrapper does for its own commands.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Backend string `flag:"backend"`
	Silent  bool   `flag:"silent"`
	NoCache bool   `flag:"no-cache"`

	args   []string
	flags  map[string]bool
	cmdFn  func(context.Context, mainer.Stdio, []string) error
	cfg    *config.Config
	logger *slog.Logger
}

func (c *Cmd) SetArgs(args []string) {
	c.args = args
}

func (c *Cmd) SetFlags(flags map[string]bool) {
	c.flags = flags
}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}

	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	cmdName := c.args[0]

	commands := buildCmds(c)
	c.cmdFn = commands[cmdName]
	if c.cmdFn == nil {
		return fmt.Errorf("unknown command: %s", cmdName)
	}

	switch cmdName {
	case "run", "disasm":
		if len(c.args[1:]) != 1 {
			return fmt.Errorf("%s: exactly one file must be provided", cmdName)
		}
	case "repl":
		if len(c.args[1:]) != 0 {
			return fmt.Errorf("repl: no file arguments expected")
		}
		if c.flags["no-cache"] {
			return errors.New("repl: invalid flag '--no-cache'")
		}
	}

	if (c.flags["backend"] || c.flags["no-cache"]) && cmdName != "run" {
		return fmt.Errorf("%s: invalid flag for this command", cmdName)
	}

	if c.flags["backend"] && c.Backend != string(config.BackendVM) && c.Backend != string(config.BackendInterp) {
		return fmt.Errorf("invalid --backend value: %s", c.Backend)
	}

	return nil
}

// Main resolves configuration (environment, then CLI flag overrides), wires
// up a structured logger and a process context cancelled on SIGINT
// (os.Interrupt; SIGTERM is not handled), and dispatches to the matching
// subcommand.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: strings.ToUpper(binName) + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success

	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid configuration: %s\n", err)
		return mainer.InvalidArgs
	}
	if c.flags["backend"] {
		cfg.Backend = config.Backend(c.Backend)
	}
	if c.flags["silent"] {
		cfg.Silent = c.Silent
	}
	if c.flags["no-cache"] && c.NoCache {
		cfg.CacheEnabled = false
	}
	c.cfg = cfg
	c.logger = config.NewLogger(cfg.LogLevel)

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		// each command takes care of printing its own errors
		return mainer.Failure
	}
	return mainer.Success
}

// valid commands are those that take a context.Context, mainer.Stdio and a
// slice of strings as input, and return an error as output.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type

		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p0 := mt.In(0); p0.Kind() != reflect.Ptr || p0.Elem().Name() != "Cmd" {
			continue
		}
		if p1 := mt.In(1); p1.Kind() != reflect.Interface || p1.Name() != "Context" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
