// Package builtins implements the built-in function library shared by the
// tree-walker and the VM (spec §4.6). Every built-in except push/pop is a
// pure function of its argument values plus the IO it's given; push/pop
// require lvalue access to a named variable and are therefore implemented
// directly by the tree-walker (see internal/interp) rather than here. The
// VM rejects them through this package's Call, which always returns the
// same dedicated error for those two names.
package builtins

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mna/zirc/internal/value"
	"github.com/mna/zirc/internal/zerr"
)

// silentEnvVar, when set to a non-empty value, suppresses show/showf/prompt
// output and makes prompt return promptReplyEnvVar's value instead of
// reading stdin. Used by the benchmark harness collaborator.
const (
	silentEnvVar      = "ZIRC_BENCH_SILENT"
	promptReplyEnvVar = "ZIRC_BENCH_PROMPT_REPLY"
)

// IO bundles the side-effecting dependencies show/showf/prompt/rf/wf need,
// so tests can supply buffers instead of the real stdio.
type IO struct {
	Out         io.Writer
	In          *bufio.Reader
	Silent      bool
	PromptReply string
}

// DefaultIO builds an IO from the process environment and real stdio,
// honoring the silent/benchmark environment variables.
func DefaultIO() IO {
	silent := os.Getenv(silentEnvVar) != ""
	return IO{
		Out:         os.Stdout,
		In:          bufio.NewReader(os.Stdin),
		Silent:      silent,
		PromptReply: os.Getenv(promptReplyEnvVar),
	}
}

// Names lists every built-in name, in a stable order. BuiltinCall
// instructions carry the built-in's name, not its index in this list.
var Names = []string{
	"show", "showf", "prompt", "rf", "wf", "len",
	"push", "pop",
	"slice", "abs", "min", "max", "pow", "sqrt",
	"hex", "bin", "upper", "lower", "trim", "split", "join",
	"int", "str", "type",
}

var ids = func() map[string]int {
	m := make(map[string]int, len(Names))
	for i, n := range Names {
		m[n] = i
	}
	return m
}()

// ID returns the index of name in Names, and true if name is a built-in.
func ID(name string) (int, bool) {
	id, ok := ids[name]
	return id, ok
}

// IsBuiltin reports whether name names a built-in function.
func IsBuiltin(name string) bool {
	_, ok := ids[name]
	return ok
}

// Call dispatches a built-in by name against already-evaluated args.
func Call(io_ IO, name string, args []value.Value) (value.Value, error) {
	switch name {
	case "show":
		return callShow(io_, args)
	case "showf":
		return callShowf(io_, args)
	case "prompt":
		return callPrompt(io_, args)
	case "rf":
		return callRf(args)
	case "wf":
		return callWf(args)
	case "len":
		return callLen(args)
	case "push", "pop":
		return value.MkUnit(), zerr.New("push()/pop() is not supported in VM mode - use the interpreter backend")
	case "slice":
		return callSlice(args)
	case "abs":
		return callAbs(args)
	case "min":
		return callMin(args)
	case "max":
		return callMax(args)
	case "pow":
		return callPow(args)
	case "sqrt":
		return callSqrt(args)
	case "hex":
		return callHex(args)
	case "bin":
		return callBin(args)
	case "upper":
		return callUpper(args)
	case "lower":
		return callLower(args)
	case "trim":
		return callTrim(args)
	case "split":
		return callSplit(args)
	case "join":
		return callJoin(args)
	case "int":
		return callInt(args)
	case "str":
		return callStr(args)
	case "type":
		return callType(args)
	default:
		return value.MkUnit(), zerr.New("Undefined function '%s'", name)
	}
}

func arity(name string, args []value.Value, n int) error {
	if len(args) != n {
		return zerr.New("Function '%s' expected %d args, got %d", name, n, len(args))
	}
	return nil
}

func callShow(io_ IO, args []value.Value) (value.Value, error) {
	if err := arity("show", args, 1); err != nil {
		return value.MkUnit(), err
	}
	if !io_.Silent {
		fmt.Fprintln(io_.Out, value.Display(args[0]))
	}
	return value.MkUnit(), nil
}

func callShowf(io_ IO, args []value.Value) (value.Value, error) {
	if len(args) < 1 {
		return value.MkUnit(), zerr.New("Function 'showf' expected at least 1 arg, got %d", len(args))
	}
	format, ok := strVal(args[0])
	if !ok {
		return value.MkUnit(), zerr.New("Type mismatch: showf expects a string format")
	}
	rest := args[1:]
	var sb strings.Builder
	ai := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		if i+1 >= len(format) {
			return value.MkUnit(), zerr.New("Type mismatch: dangling '%%' in format string")
		}
		i++
		switch format[i] {
		case 'd':
			if ai >= len(rest) || rest[ai].Kind != value.Int {
				return value.MkUnit(), zerr.New("Type mismatch: %%d expects an int argument")
			}
			sb.WriteString(value.Display(rest[ai]))
			ai++
		case 's':
			if ai >= len(rest) {
				return value.MkUnit(), zerr.New("Type mismatch: %%s missing argument")
			}
			sb.WriteString(value.Display(rest[ai]))
			ai++
		case '%':
			sb.WriteByte('%')
		default:
			return value.MkUnit(), zerr.New("Type mismatch: unknown format specifier '%%%c'", format[i])
		}
	}
	if !io_.Silent {
		fmt.Fprintln(io_.Out, sb.String())
	}
	return value.MkUnit(), nil
}

func callPrompt(io_ IO, args []value.Value) (value.Value, error) {
	if len(args) > 1 {
		return value.MkUnit(), zerr.New("Function 'prompt' expected 0 or 1 args, got %d", len(args))
	}
	if len(args) == 1 {
		msg, ok := strVal(args[0])
		if !ok {
			return value.MkUnit(), zerr.New("Type mismatch: prompt message must be a string")
		}
		if !io_.Silent {
			fmt.Fprint(io_.Out, msg)
		}
	}
	if io_.Silent {
		return value.MkStr(io_.PromptReply), nil
	}
	line, err := io_.In.ReadString('\n')
	if err != nil && line == "" {
		return value.MkUnit(), zerr.New("I/O error reading prompt: %v", err)
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return value.MkStr(line), nil
}

func callRf(args []value.Value) (value.Value, error) {
	if err := arity("rf", args, 1); err != nil {
		return value.MkUnit(), err
	}
	path, ok := strVal(args[0])
	if !ok {
		return value.MkUnit(), zerr.New("Type mismatch: rf expects a string path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return value.MkUnit(), zerr.New("I/O error reading '%s': %v", path, err)
	}
	return value.MkStr(string(data)), nil
}

func callWf(args []value.Value) (value.Value, error) {
	if err := arity("wf", args, 2); err != nil {
		return value.MkUnit(), err
	}
	path, ok := strVal(args[0])
	if !ok {
		return value.MkUnit(), zerr.New("Type mismatch: wf expects a string path")
	}
	content, ok := strVal(args[1])
	if !ok {
		return value.MkUnit(), zerr.New("Type mismatch: wf expects string content")
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return value.MkUnit(), zerr.New("I/O error writing '%s': %v", path, err)
	}
	return value.MkUnit(), nil
}

func callLen(args []value.Value) (value.Value, error) {
	if err := arity("len", args, 1); err != nil {
		return value.MkUnit(), err
	}
	switch args[0].Kind {
	case value.Str:
		return value.MkInt(int64(len([]rune(args[0].S)))), nil
	case value.List:
		return value.MkInt(int64(len(args[0].Elems))), nil
	default:
		return value.MkUnit(), zerr.New("Type mismatch: len expects a string or list")
	}
}

func callSlice(args []value.Value) (value.Value, error) {
	if err := arity("slice", args, 3); err != nil {
		return value.MkUnit(), err
	}
	s, ok1 := intVal(args[1])
	e, ok2 := intVal(args[2])
	if !ok1 || !ok2 {
		return value.MkUnit(), zerr.New("Type mismatch: slice bounds must be ints")
	}
	if s < 0 {
		return value.MkUnit(), zerr.New("index out of bounds")
	}
	if e < s {
		return value.MkUnit(), zerr.New("index out of bounds")
	}
	switch args[0].Kind {
	case value.Str:
		runes := []rune(args[0].S)
		end := e
		if end > int64(len(runes)) {
			end = int64(len(runes))
		}
		if s > end {
			s = end
		}
		return value.MkStr(string(runes[s:end])), nil
	case value.List:
		elems := args[0].Elems
		end := e
		if end > int64(len(elems)) {
			end = int64(len(elems))
		}
		if s > end {
			s = end
		}
		out := make([]value.Value, end-s)
		for i := range out {
			out[i] = value.Clone(elems[int64(i)+s])
		}
		return value.MkList(out), nil
	default:
		return value.MkUnit(), zerr.New("Type mismatch: slice expects a string or list")
	}
}

func callAbs(args []value.Value) (value.Value, error) {
	if err := arity("abs", args, 1); err != nil {
		return value.MkUnit(), err
	}
	n, ok := intVal(args[0])
	if !ok {
		return value.MkUnit(), zerr.New("Type mismatch: abs expects an int")
	}
	if n < 0 {
		n = -n
	}
	return value.MkInt(n), nil
}

func callMin(args []value.Value) (value.Value, error) {
	if err := arity("min", args, 2); err != nil {
		return value.MkUnit(), err
	}
	a, ok1 := intVal(args[0])
	b, ok2 := intVal(args[1])
	if !ok1 || !ok2 {
		return value.MkUnit(), zerr.New("Type mismatch: min expects two ints")
	}
	if a < b {
		return value.MkInt(a), nil
	}
	return value.MkInt(b), nil
}

func callMax(args []value.Value) (value.Value, error) {
	if err := arity("max", args, 2); err != nil {
		return value.MkUnit(), err
	}
	a, ok1 := intVal(args[0])
	b, ok2 := intVal(args[1])
	if !ok1 || !ok2 {
		return value.MkUnit(), zerr.New("Type mismatch: max expects two ints")
	}
	if a > b {
		return value.MkInt(a), nil
	}
	return value.MkInt(b), nil
}

func callPow(args []value.Value) (value.Value, error) {
	if err := arity("pow", args, 2); err != nil {
		return value.MkUnit(), err
	}
	b, ok1 := intVal(args[0])
	e, ok2 := intVal(args[1])
	if !ok1 || !ok2 {
		return value.MkUnit(), zerr.New("Type mismatch: pow expects two ints")
	}
	if e < 0 {
		return value.MkUnit(), zerr.New("pow: exponent must be non-negative")
	}
	return value.MkInt(int64(math.Trunc(math.Pow(float64(b), float64(e))))), nil
}

func callSqrt(args []value.Value) (value.Value, error) {
	if err := arity("sqrt", args, 1); err != nil {
		return value.MkUnit(), err
	}
	n, ok := intVal(args[0])
	if !ok {
		return value.MkUnit(), zerr.New("Type mismatch: sqrt expects an int")
	}
	if n < 0 {
		return value.MkUnit(), zerr.New("sqrt: argument must be non-negative")
	}
	return value.MkInt(int64(math.Trunc(math.Sqrt(float64(n))))), nil
}

func callHex(args []value.Value) (value.Value, error) {
	if err := arity("hex", args, 1); err != nil {
		return value.MkUnit(), err
	}
	n, ok := intVal(args[0])
	if !ok {
		return value.MkUnit(), zerr.New("Type mismatch: hex expects an int")
	}
	return value.MkStr("0x" + strconv.FormatInt(n, 16)), nil
}

func callBin(args []value.Value) (value.Value, error) {
	if err := arity("bin", args, 1); err != nil {
		return value.MkUnit(), err
	}
	n, ok := intVal(args[0])
	if !ok {
		return value.MkUnit(), zerr.New("Type mismatch: bin expects an int")
	}
	return value.MkStr("0b" + strconv.FormatInt(n, 2)), nil
}

func callUpper(args []value.Value) (value.Value, error) {
	if err := arity("upper", args, 1); err != nil {
		return value.MkUnit(), err
	}
	s, ok := strVal(args[0])
	if !ok {
		return value.MkUnit(), zerr.New("Type mismatch: upper expects a string")
	}
	return value.MkStr(strings.ToUpper(s)), nil
}

func callLower(args []value.Value) (value.Value, error) {
	if err := arity("lower", args, 1); err != nil {
		return value.MkUnit(), err
	}
	s, ok := strVal(args[0])
	if !ok {
		return value.MkUnit(), zerr.New("Type mismatch: lower expects a string")
	}
	return value.MkStr(strings.ToLower(s)), nil
}

func callTrim(args []value.Value) (value.Value, error) {
	if err := arity("trim", args, 1); err != nil {
		return value.MkUnit(), err
	}
	s, ok := strVal(args[0])
	if !ok {
		return value.MkUnit(), zerr.New("Type mismatch: trim expects a string")
	}
	return value.MkStr(strings.TrimSpace(s)), nil
}

func callSplit(args []value.Value) (value.Value, error) {
	if err := arity("split", args, 2); err != nil {
		return value.MkUnit(), err
	}
	s, ok1 := strVal(args[0])
	d, ok2 := strVal(args[1])
	if !ok1 || !ok2 {
		return value.MkUnit(), zerr.New("Type mismatch: split expects two strings")
	}
	parts := strings.Split(s, d)
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.MkStr(p)
	}
	return value.MkList(out), nil
}

func callJoin(args []value.Value) (value.Value, error) {
	if err := arity("join", args, 2); err != nil {
		return value.MkUnit(), err
	}
	if args[0].Kind != value.List {
		return value.MkUnit(), zerr.New("Type mismatch: join expects a list")
	}
	sep, ok := strVal(args[1])
	if !ok {
		return value.MkUnit(), zerr.New("Type mismatch: join expects a string separator")
	}
	parts := make([]string, len(args[0].Elems))
	for i, e := range args[0].Elems {
		if e.Kind != value.Str {
			return value.MkUnit(), zerr.New("Type mismatch: join expects a list of strings")
		}
		parts[i] = e.S
	}
	return value.MkStr(strings.Join(parts, sep)), nil
}

func callInt(args []value.Value) (value.Value, error) {
	if err := arity("int", args, 1); err != nil {
		return value.MkUnit(), err
	}
	switch args[0].Kind {
	case value.Int:
		return args[0], nil
	case value.Bool:
		if args[0].B {
			return value.MkInt(1), nil
		}
		return value.MkInt(0), nil
	case value.Str:
		n, err := strconv.ParseInt(strings.TrimSpace(args[0].S), 10, 64)
		if err != nil {
			return value.MkUnit(), zerr.New("Type mismatch: cannot parse '%s' as int", args[0].S)
		}
		return value.MkInt(n), nil
	default:
		return value.MkUnit(), zerr.New("Type mismatch: int expects int, bool or string")
	}
}

func callStr(args []value.Value) (value.Value, error) {
	if err := arity("str", args, 1); err != nil {
		return value.MkUnit(), err
	}
	return value.MkStr(value.Display(args[0])), nil
}

func callType(args []value.Value) (value.Value, error) {
	if err := arity("type", args, 1); err != nil {
		return value.MkUnit(), err
	}
	return value.MkStr(args[0].Kind.String()), nil
}

func strVal(v value.Value) (string, bool) {
	if v.Kind != value.Str {
		return "", false
	}
	return v.S, true
}

func intVal(v value.Value) (int64, bool) {
	if v.Kind != value.Int {
		return 0, false
	}
	return v.I, true
}
