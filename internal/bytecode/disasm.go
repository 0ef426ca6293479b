package bytecode

import (
	"fmt"
	"io"
	"strconv"
)

// Disassemble writes a human-readable listing of p to w, one function per
// section under a "fun <name> (arity=N locals=M):" header, one instruction
// per line as "<index>\t<op> <operands>" with the index right-aligned in
// four columns.
func Disassemble(w io.Writer, p *Program) error {
	if err := disassembleFunc(w, "main", p.Main); err != nil {
		return err
	}
	for _, fn := range p.Functions {
		if err := disassembleFunc(w, fn.Name, fn); err != nil {
			return err
		}
	}
	return nil
}

func disassembleFunc(w io.Writer, label string, fn *Function) error {
	if _, err := fmt.Fprintf(w, "fun %s (arity=%d locals=%d):\n", label, fn.Arity, fn.LocalCount); err != nil {
		return err
	}
	for i, ins := range fn.Code {
		if _, err := fmt.Fprintf(w, "%4d\t%s\n", i, formatInstruction(ins)); err != nil {
			return err
		}
	}
	return nil
}

func formatInstruction(ins Instruction) string {
	switch ins.Op {
	case PushInt:
		return ins.Op.String() + " " + strconv.FormatInt(ins.IntArg, 10)
	case PushStr:
		return ins.Op.String() + " " + strconv.Quote(ins.StrArg)
	case PushBool:
		return ins.Op.String() + " " + strconv.FormatBool(ins.BoolArg)
	case MakeList, LoadLocal, StoreLocal, Jump, JumpIfFalse, JumpIfTrue:
		return ins.Op.String() + " " + strconv.FormatInt(ins.IntArg, 10)
	case LoadGlobal, StoreGlobal:
		return ins.Op.String() + " " + ins.StrArg
	case Call:
		return fmt.Sprintf("%s func#%d argc=%d", ins.Op, ins.IntArg, ins.IntArg2)
	case BuiltinCall:
		return fmt.Sprintf("%s %s argc=%d", ins.Op, ins.StrArg, ins.IntArg2)
	default:
		return ins.Op.String()
	}
}
