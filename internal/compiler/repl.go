package compiler

import (
	"github.com/mna/zirc/internal/ast"
	"github.com/mna/zirc/internal/bytecode"
	"github.com/mna/zirc/internal/zerr"
)

// Session compiles successive REPL input lines against one accumulating
// bytecode.Program: user functions declared on any line persist in
// Program.Functions (so a later line can call an earlier line's function,
// and a function can recurse or call a sibling declared after it on the
// same line), and each line's own top-level statements compile to a fresh
// "main" whose outermost bindings route through LoadGlobal/StoreGlobal so
// they survive to the next line via the VM's globals map (internal/vm).
type Session struct {
	prog *bytecode.Program
}

// NewSession starts a REPL compilation session with an empty function table.
func NewSession() *Session {
	return &Session{prog: &bytecode.Program{}}
}

// Program returns the session's accumulated function table, which the VM
// consults to resolve a Call to a function declared on an earlier line.
func (s *Session) Program() *bytecode.Program { return s.prog }

// CompileLine compiles one REPL input into a "main" function to run against
// s.Program(). Function declarations in line are appended to the session's
// function table; everything else becomes the returned main body.
func (s *Session) CompileLine(line *ast.Program) (*bytecode.Function, error) {
	c := &Compiler{prog: s.prog}

	var newFns []*ast.Function
	for _, item := range line.Items {
		fn, ok := item.(*ast.Function)
		if !ok {
			continue
		}
		if _, dup := s.prog.FuncIndex(fn.Name); dup {
			return nil, zerr.New("Duplicate function '%s'", fn.Name)
		}
		s.prog.Functions = append(s.prog.Functions, &bytecode.Function{Name: fn.Name, Arity: len(fn.Params)})
		newFns = append(newFns, fn)
	}

	base := len(s.prog.Functions) - len(newFns)
	for i, fn := range newFns {
		compiled, err := c.compileFunction(fn)
		if err != nil {
			return nil, err
		}
		s.prog.Functions[base+i] = compiled
	}

	return c.compileReplMain(line)
}

func (c *Compiler) compileReplMain(line *ast.Program) (*bytecode.Function, error) {
	b := newFuncBuilder(c, "main", 0)
	b.isReplMain = true
	for _, item := range line.Items {
		stmt, ok := item.(ast.Stmt)
		if !ok {
			continue // a *ast.Function, already compiled above
		}
		if err := b.emitStmt(stmt); err != nil {
			return nil, err
		}
	}
	b.emit(bytecode.Instruction{Op: bytecode.Halt})
	return b.finish(), nil
}
