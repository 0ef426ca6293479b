// Package bytecode defines the stack-based instruction set the compiler
// lowers a Zirc program into and the VM executes, plus a disassembler and a
// content-hash-keyed on-disk cache for compiled programs.
package bytecode

import "fmt"

// Opcode identifies one bytecode instruction.
type Opcode uint8

const ( //nolint:revive
	NOP Opcode = iota

	// constants
	PushInt
	PushStr
	PushBool
	PushUnit

	// data structures
	MakeList // n MakeList<n>   -> pops n items, pushes List (original order)
	Index    // a i Index       -> pushes a[i]

	// locals
	LoadLocal  // - LoadLocal<slot>   -> value
	StoreLocal // value StoreLocal<slot> -> -

	// REPL-only: named globals, keyed by StrArg. Never emitted by Compile;
	// the REPL driver's own incremental compiler uses these so bindings
	// persist across separately-compiled input lines.
	LoadGlobal  // - LoadGlobal<name>   -> value
	StoreGlobal // value StoreGlobal<name> -> -

	// stack
	Pop // x Pop -

	// arithmetic
	Add
	Sub
	Mul
	Div

	// comparisons
	Eq
	Ne
	Lt
	Le
	Gt
	Ge

	// logical
	Not

	// control flow: A holds an absolute instruction index
	Jump
	JumpIfFalse
	JumpIfTrue

	// calls
	Call        // args... Call<funcIndex, argCount> -> result
	BuiltinCall // args... BuiltinCall<builtinID, argCount> -> result
	Return      // value Return -> -

	Halt

	maxOpcode
)

var opcodeNames = [...]string{
	NOP:         "nop",
	PushInt:     "push_int",
	PushStr:     "push_str",
	PushBool:    "push_bool",
	PushUnit:    "push_unit",
	MakeList:    "make_list",
	Index:       "index",
	LoadLocal:   "load_local",
	StoreLocal:  "store_local",
	LoadGlobal:  "load_global",
	StoreGlobal: "store_global",
	Pop:         "pop",
	Add:         "add",
	Sub:         "sub",
	Mul:         "mul",
	Div:         "div",
	Eq:          "eq",
	Ne:          "ne",
	Lt:          "lt",
	Le:          "le",
	Gt:          "gt",
	Ge:          "ge",
	Not:         "not",
	Jump:        "jump",
	JumpIfFalse: "jump_if_false",
	JumpIfTrue:  "jump_if_true",
	Call:        "call",
	BuiltinCall: "builtin_call",
	Return:      "return",
	Halt:        "halt",
}

func (op Opcode) String() string {
	if op < maxOpcode {
		if n := opcodeNames[op]; n != "" {
			return n
		}
	}
	return fmt.Sprintf("illegal op (%d)", op)
}

// Instruction is one bytecode instruction. Only the fields relevant to Op
// are meaningful: IntArg for PushInt/slots/targets/counts, StrArg for
// PushStr, BoolArg for PushBool, IntArg2 for Call/BuiltinCall's arg count.
type Instruction struct {
	Op      Opcode `cbor:"0,keyasint"`
	IntArg  int64  `cbor:"1,keyasint"`
	IntArg2 int64  `cbor:"2,keyasint"`
	StrArg  string `cbor:"3,keyasint"`
	BoolArg bool   `cbor:"4,keyasint"`
}

// Function is one compiled function body: its name, parameter count, total
// local slot count (parameters plus lets plus loop temporaries), and code.
type Function struct {
	Name       string        `cbor:"0,keyasint"`
	Arity      int           `cbor:"1,keyasint"`
	LocalCount int           `cbor:"2,keyasint"`
	Code       []Instruction `cbor:"3,keyasint"`
}

// Program is a whole compiled unit: user-defined functions plus the
// top-level statements, compiled as an implicit "main" function.
type Program struct {
	Functions []*Function `cbor:"0,keyasint"`
	Main      *Function   `cbor:"1,keyasint"`
}

// FuncIndex returns the index of the function named name in p.Functions,
// and whether it exists.
func (p *Program) FuncIndex(name string) (int, bool) {
	for i, f := range p.Functions {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}
