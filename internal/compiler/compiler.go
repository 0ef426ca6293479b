// Package compiler lowers a Zirc AST into the bytecode instruction set
// (internal/bytecode) executed by the stack VM (internal/vm). It mirrors
// the tree-walker (internal/interp) closely enough that the two backends
// agree on every documented program behavior.
package compiler

import (
	"github.com/mna/zirc/internal/ast"
	"github.com/mna/zirc/internal/bytecode"
	"github.com/mna/zirc/internal/zerr"
)

// Compiler lowers one ast.Program into a bytecode.Program.
type Compiler struct {
	prog *bytecode.Program
}

// Compile lowers prog into a bytecode.Program, or returns the first error
// encountered (undefined function/variable references, break/continue
// outside a loop).
func Compile(prog *ast.Program) (*bytecode.Program, error) {
	c := &Compiler{prog: &bytecode.Program{}}

	// Reserve a function slot per declaration first, in source order, so
	// forward references and recursion resolve during the emission pass
	// below regardless of declaration order.
	var fnDecls []*ast.Function
	for _, item := range prog.Items {
		if fn, ok := item.(*ast.Function); ok {
			if _, dup := c.prog.FuncIndex(fn.Name); dup {
				return nil, zerr.New("Duplicate function '%s'", fn.Name)
			}
			c.prog.Functions = append(c.prog.Functions, &bytecode.Function{Name: fn.Name, Arity: len(fn.Params)})
			fnDecls = append(fnDecls, fn)
		}
	}

	for i, fn := range fnDecls {
		compiled, err := c.compileFunction(fn)
		if err != nil {
			return nil, err
		}
		c.prog.Functions[i] = compiled
	}

	main, err := c.compileMain(prog)
	if err != nil {
		return nil, err
	}
	c.prog.Main = main
	return c.prog, nil
}

func (c *Compiler) compileFunction(fn *ast.Function) (*bytecode.Function, error) {
	b := newFuncBuilder(c, fn.Name, len(fn.Params))
	for _, p := range fn.Params {
		if err := b.declareParam(p.Name); err != nil {
			return nil, err
		}
	}
	if err := b.emitBlock(fn.Body); err != nil {
		return nil, err
	}
	// A function whose body doesn't end in an explicit return falls off the
	// end and returns Unit, matching the tree-walker.
	b.emit(bytecode.Instruction{Op: bytecode.PushUnit})
	b.emit(bytecode.Instruction{Op: bytecode.Return})
	return b.finish(), nil
}

func (c *Compiler) compileMain(prog *ast.Program) (*bytecode.Function, error) {
	b := newFuncBuilder(c, "main", 0)
	for _, item := range prog.Items {
		stmt, ok := item.(ast.Stmt)
		if !ok {
			continue // a *ast.Function, already compiled above
		}
		// emitStmt's ExprStmt case always ends in a Pop; the VM records
		// every value popped by main (not by the functions it calls) as the
		// run's "last value" (see internal/vm), so
		// the last top-level expression statement's value naturally survives
		// as the program's result without any special-casing here.
		if err := b.emitStmt(stmt); err != nil {
			return nil, err
		}
	}
	b.emit(bytecode.Instruction{Op: bytecode.Halt})
	return b.finish(), nil
}
