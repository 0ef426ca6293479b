// Package vm executes a compiled bytecode.Program with an operand stack and
// a Go-native call stack (Zirc has no coroutines, so nested Call/BuiltinCall
// instructions dispatch through a recursive Go function call rather than an
// explicit frame stack, unlike the teacher's Thread/Frame machine).
package vm

import (
	"github.com/dolthub/swiss"

	"github.com/mna/zirc/internal/builtins"
	"github.com/mna/zirc/internal/bytecode"
	"github.com/mna/zirc/internal/value"
	"github.com/mna/zirc/internal/zerr"
)

// VM holds the state that outlives any one function call: the compiled
// program, the built-in I/O bundle, and (for a REPL session) a persistent
// named-globals table that LoadGlobal/StoreGlobal read and write directly.
type VM struct {
	Program *bytecode.Program
	IO      builtins.IO
	Globals *swiss.Map[string, value.Value]

	last    value.Value
	hasLast bool
	// entry is the function Run or RunFunction started; only its Pops are
	// recorded as the last value, not those of the functions it calls.
	entry *bytecode.Function
}

// New creates a VM ready to run prog.
func New(prog *bytecode.Program, io builtins.IO) *VM {
	return &VM{Program: prog, IO: io, Globals: swiss.NewMap[string, value.Value](0)}
}

// Run executes the program's main function and returns the value of the
// last top-level expression statement, if any.
func (m *VM) Run() (value.Value, bool, error) {
	m.last = value.Value{}
	m.hasLast = false
	m.entry = m.Program.Main
	if _, err := m.call(m.Program.Main, nil); err != nil {
		return value.Value{}, false, err
	}
	return m.last, m.hasLast, nil
}

// RunFunction executes fn (typically one REPL line's compiled main, built by
// compiler.Session) against m's persistent Program/Globals and returns the
// last value it recorded via Pop, if any. Unlike Run, it doesn't require fn
// to be m.Program.Main, so a REPL driver can swap in a freshly compiled line
// each time while keeping the same VM, function table, and globals map.
func (m *VM) RunFunction(fn *bytecode.Function) (value.Value, bool, error) {
	m.last = value.Value{}
	m.hasLast = false
	m.entry = fn
	if _, err := m.call(fn, nil); err != nil {
		return value.Value{}, false, err
	}
	return m.last, m.hasLast, nil
}

// call executes fn with the given already-evaluated arguments and returns
// its result (Unit if fn falls off the end without an explicit Return, or
// if fn is main and simply Halts).
func (m *VM) call(fn *bytecode.Function, args []value.Value) (value.Value, error) {
	locals := make([]value.Value, fn.LocalCount)
	copy(locals, args)
	stack := make([]value.Value, 0, 16)

	push := func(v value.Value) { stack = append(stack, v) }
	pop := func() value.Value {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v
	}
	need := func(op bytecode.Opcode, n int) error {
		if len(stack) < n {
			return zerr.New("stack underflow in %s", op)
		}
		return nil
	}

	pc := 0
	for pc < len(fn.Code) {
		ins := fn.Code[pc]
		pc++

		switch ins.Op {
		case bytecode.NOP:
			// nothing

		case bytecode.PushInt:
			push(value.MkInt(ins.IntArg))
		case bytecode.PushStr:
			push(value.MkStr(ins.StrArg))
		case bytecode.PushBool:
			push(value.MkBool(ins.BoolArg))
		case bytecode.PushUnit:
			push(value.MkUnit())

		case bytecode.MakeList:
			n := int(ins.IntArg)
			if err := need(ins.Op, n); err != nil {
				return value.Value{}, err
			}
			elems := make([]value.Value, n)
			copy(elems, stack[len(stack)-n:])
			stack = stack[:len(stack)-n]
			push(value.MkList(elems))

		case bytecode.Index:
			if err := need(ins.Op, 2); err != nil {
				return value.Value{}, err
			}
			idx := pop()
			base := pop()
			v, err := indexValue(base, idx)
			if err != nil {
				return value.Value{}, err
			}
			push(v)

		case bytecode.LoadLocal:
			slot := int(ins.IntArg)
			if slot < 0 || slot >= len(locals) {
				return value.Value{}, zerr.New("internal error: local slot %d out of range", slot)
			}
			push(locals[slot])

		case bytecode.StoreLocal:
			if err := need(ins.Op, 1); err != nil {
				return value.Value{}, err
			}
			slot := int(ins.IntArg)
			locals[slot] = pop()

		case bytecode.LoadGlobal:
			v, ok := m.Globals.Get(ins.StrArg)
			if !ok {
				return value.Value{}, zerr.New("Undefined variable '%s'", ins.StrArg)
			}
			push(v)

		case bytecode.StoreGlobal:
			if err := need(ins.Op, 1); err != nil {
				return value.Value{}, err
			}
			m.Globals.Put(ins.StrArg, pop())

		case bytecode.Pop:
			if err := need(ins.Op, 1); err != nil {
				return value.Value{}, err
			}
			v := pop()
			if fn == m.entry {
				m.last = v
				m.hasLast = true
			}

		case bytecode.Add, bytecode.Sub, bytecode.Mul, bytecode.Div,
			bytecode.Eq, bytecode.Ne, bytecode.Lt, bytecode.Le, bytecode.Gt, bytecode.Ge:
			if err := need(ins.Op, 2); err != nil {
				return value.Value{}, err
			}
			y := pop()
			x := pop()
			v, err := binaryOp(ins.Op, x, y)
			if err != nil {
				return value.Value{}, err
			}
			push(v)

		case bytecode.Not:
			if err := need(ins.Op, 1); err != nil {
				return value.Value{}, err
			}
			x := pop()
			if x.Kind != value.Bool {
				return value.Value{}, zerr.New("! expects bool, got %s", x.Kind)
			}
			push(value.MkBool(!x.B))

		case bytecode.Jump:
			pc = int(ins.IntArg)

		case bytecode.JumpIfFalse:
			if err := need(ins.Op, 1); err != nil {
				return value.Value{}, err
			}
			x := pop()
			if x.Kind != value.Bool {
				return value.Value{}, zerr.New("condition must be bool, got %s", x.Kind)
			}
			if !x.B {
				pc = int(ins.IntArg)
			}

		case bytecode.JumpIfTrue:
			if err := need(ins.Op, 1); err != nil {
				return value.Value{}, err
			}
			x := pop()
			if x.Kind != value.Bool {
				return value.Value{}, zerr.New("condition must be bool, got %s", x.Kind)
			}
			if x.B {
				pc = int(ins.IntArg)
			}

		case bytecode.Call:
			argc := int(ins.IntArg2)
			if err := need(ins.Op, argc); err != nil {
				return value.Value{}, err
			}
			callArgs := append([]value.Value(nil), stack[len(stack)-argc:]...)
			stack = stack[:len(stack)-argc]
			fi := int(ins.IntArg)
			if fi < 0 || fi >= len(m.Program.Functions) {
				return value.Value{}, zerr.New("internal error: function index %d out of range", fi)
			}
			callee := m.Program.Functions[fi]
			if callee.Arity != len(callArgs) {
				return value.Value{}, zerr.New("Function '%s' expected %d args, got %d", callee.Name, callee.Arity, len(callArgs))
			}
			result, err := m.call(callee, callArgs)
			if err != nil {
				return value.Value{}, err
			}
			push(result)

		case bytecode.BuiltinCall:
			argc := int(ins.IntArg2)
			if err := need(ins.Op, argc); err != nil {
				return value.Value{}, err
			}
			callArgs := append([]value.Value(nil), stack[len(stack)-argc:]...)
			stack = stack[:len(stack)-argc]
			result, err := builtins.Call(m.IO, ins.StrArg, callArgs)
			if err != nil {
				return value.Value{}, err
			}
			push(result)

		case bytecode.Return:
			if err := need(ins.Op, 1); err != nil {
				return value.Value{}, err
			}
			return pop(), nil

		case bytecode.Halt:
			if len(stack) > 0 {
				m.last = stack[len(stack)-1]
				m.hasLast = true
			}
			return value.MkUnit(), nil

		default:
			return value.Value{}, zerr.New("internal error: unimplemented opcode %s", ins.Op)
		}
	}
	return value.MkUnit(), nil
}

func indexValue(base, idx value.Value) (value.Value, error) {
	if idx.Kind != value.Int {
		return value.Value{}, zerr.New("index expects int, got %s", idx.Kind)
	}
	switch base.Kind {
	case value.List:
		if idx.I < 0 || idx.I >= int64(len(base.Elems)) {
			return value.Value{}, zerr.New("index out of bounds")
		}
		return value.Clone(base.Elems[idx.I]), nil
	case value.Str:
		runes := []rune(base.S)
		if idx.I < 0 || idx.I >= int64(len(runes)) {
			return value.Value{}, zerr.New("index out of bounds")
		}
		return value.MkStr(string(runes[idx.I])), nil
	default:
		return value.Value{}, zerr.New("indexing not supported for %s", base.Kind)
	}
}

func binaryOp(op bytecode.Opcode, x, y value.Value) (value.Value, error) {
	switch op {
	case bytecode.Add:
		switch {
		case x.Kind == value.Int && y.Kind == value.Int:
			return value.MkInt(x.I + y.I), nil
		case x.Kind == value.Str && y.Kind == value.Str:
			return value.MkStr(x.S + y.S), nil
		case x.Kind == value.List && y.Kind == value.List:
			out := make([]value.Value, 0, len(x.Elems)+len(y.Elems))
			for _, e := range x.Elems {
				out = append(out, value.Clone(e))
			}
			for _, e := range y.Elems {
				out = append(out, value.Clone(e))
			}
			return value.MkList(out), nil
		default:
			return value.Value{}, zerr.New("Cannot add %s and %s", x.Kind, y.Kind)
		}
	case bytecode.Sub:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New("Cannot subtract %s and %s", x.Kind, y.Kind)
		}
		return value.MkInt(x.I - y.I), nil
	case bytecode.Mul:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New("Cannot multiply %s and %s", x.Kind, y.Kind)
		}
		return value.MkInt(x.I * y.I), nil
	case bytecode.Div:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New("Cannot divide %s and %s", x.Kind, y.Kind)
		}
		if y.I == 0 {
			return value.Value{}, zerr.New("division by zero")
		}
		return value.MkInt(x.I / y.I), nil
	case bytecode.Eq:
		return value.MkBool(value.Equal(x, y)), nil
	case bytecode.Ne:
		return value.MkBool(!value.Equal(x, y)), nil
	case bytecode.Lt:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New("< expects ints")
		}
		return value.MkBool(x.I < y.I), nil
	case bytecode.Le:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New("<= expects ints")
		}
		return value.MkBool(x.I <= y.I), nil
	case bytecode.Gt:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New("> expects ints")
		}
		return value.MkBool(x.I > y.I), nil
	case bytecode.Ge:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New(">= expects ints")
		}
		return value.MkBool(x.I >= y.I), nil
	default:
		return value.Value{}, zerr.New("internal error: unhandled operator %s", op)
	}
}
