package compiler

import (
	"github.com/mna/zirc/internal/ast"
	"github.com/mna/zirc/internal/builtins"
	"github.com/mna/zirc/internal/bytecode"
	"github.com/mna/zirc/internal/zerr"
)

// loopCtx collects the jump sites that still need their targets patched once
// a loop's start/end addresses are known: break jumps go to the end, continue
// jumps go to the continue target (the increment step for a for-loop, the
// condition re-check for a while-loop).
type loopCtx struct {
	breaks         []int
	continues      []int
	continueTarget int // -1 until set
}

func newLoopCtx() *loopCtx { return &loopCtx{continueTarget: -1} }

// funcBuilder emits bytecode for one function body (or the implicit main
// function), tracking local slots and enclosing loops so break/continue/
// shadowing can be resolved without a second pass over the AST.
type funcBuilder struct {
	c         *Compiler
	name      string
	arity     int
	code      []bytecode.Instruction
	locals    *locals
	loopStack []*loopCtx

	// isReplMain marks the implicit main function of one REPL input line:
	// its outermost-scope let/assign and any otherwise-unresolved identifier
	// route through LoadGlobal/StoreGlobal instead of erroring, so bindings
	// persist across separately-compiled lines in the session's globals map
	// (internal/vm). Nested if/while/for bodies within the same line still
	// use genuine locals, same as a batch-compiled program.
	isReplMain bool
}

func newFuncBuilder(c *Compiler, name string, arity int) *funcBuilder {
	return &funcBuilder{c: c, name: name, arity: arity, locals: newLocals()}
}

func (b *funcBuilder) finish() *bytecode.Function {
	return &bytecode.Function{Name: b.name, Arity: b.arity, LocalCount: b.locals.maxAlloc, Code: b.code}
}

func (b *funcBuilder) emit(ins bytecode.Instruction) int {
	b.code = append(b.code, ins)
	return len(b.code) - 1
}

func (b *funcBuilder) here() int { return len(b.code) }

// patchJumpTo rewrites the jump instruction at index at to target tgt.
func (b *funcBuilder) patchJumpTo(at, tgt int) {
	b.code[at].IntArg = int64(tgt)
}

func (b *funcBuilder) patchToHere(at int) { b.patchJumpTo(at, b.here()) }

func (b *funcBuilder) declareParam(name string) error {
	_, err := b.locals.declare(name)
	return err
}

func (b *funcBuilder) emitBlock(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := b.emitStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (b *funcBuilder) emitStmt(s ast.Stmt) error {
	switch st := s.(type) {
	case *ast.LetStmt:
		if err := b.emitExpr(st.Expr); err != nil {
			return err
		}
		if b.isReplMain && len(b.locals.scopes) == 1 {
			b.emit(bytecode.Instruction{Op: bytecode.StoreGlobal, StrArg: st.Name})
			return nil
		}
		slot, err := b.locals.declare(st.Name)
		if err != nil {
			return err
		}
		b.emit(bytecode.Instruction{Op: bytecode.StoreLocal, IntArg: int64(slot)})
		return nil

	case *ast.AssignStmt:
		slot, isLocal := b.locals.resolve(st.Name)
		if !isLocal && !b.isReplMain {
			return zerr.New("Undefined variable '%s'", st.Name)
		}
		if err := b.emitExpr(st.Expr); err != nil {
			return err
		}
		if isLocal {
			b.emit(bytecode.Instruction{Op: bytecode.StoreLocal, IntArg: int64(slot)})
		} else {
			b.emit(bytecode.Instruction{Op: bytecode.StoreGlobal, StrArg: st.Name})
		}
		return nil

	case *ast.ReturnStmt:
		if st.Expr != nil {
			if err := b.emitExpr(st.Expr); err != nil {
				return err
			}
		} else {
			b.emit(bytecode.Instruction{Op: bytecode.PushUnit})
		}
		b.emit(bytecode.Instruction{Op: bytecode.Return})
		return nil

	case *ast.IfStmt:
		if err := b.emitExpr(st.Cond); err != nil {
			return err
		}
		jf := b.emit(bytecode.Instruction{Op: bytecode.JumpIfFalse})
		b.locals.pushScope()
		if err := b.emitBlock(st.Then); err != nil {
			return err
		}
		b.locals.popScope()
		jend := b.emit(bytecode.Instruction{Op: bytecode.Jump})
		b.patchToHere(jf)
		b.locals.pushScope()
		if err := b.emitBlock(st.Else); err != nil {
			return err
		}
		b.locals.popScope()
		b.patchToHere(jend)
		return nil

	case *ast.WhileStmt:
		loopStart := b.here()
		if err := b.emitExpr(st.Cond); err != nil {
			return err
		}
		jf := b.emit(bytecode.Instruction{Op: bytecode.JumpIfFalse})
		ctx := newLoopCtx()
		b.loopStack = append(b.loopStack, ctx)
		b.locals.pushScope()
		if err := b.emitBlock(st.Body); err != nil {
			return err
		}
		b.locals.popScope()
		b.loopStack = b.loopStack[:len(b.loopStack)-1]
		for _, at := range ctx.continues {
			b.patchJumpTo(at, loopStart)
		}
		b.emit(bytecode.Instruction{Op: bytecode.Jump, IntArg: int64(loopStart)})
		b.patchToHere(jf)
		end := b.here()
		for _, at := range ctx.breaks {
			b.patchJumpTo(at, end)
		}
		return nil

	case *ast.ForStmt:
		return b.emitFor(st)

	case *ast.BreakStmt:
		if len(b.loopStack) == 0 {
			return zerr.New("'break' outside of loop")
		}
		at := b.emit(bytecode.Instruction{Op: bytecode.Jump})
		ctx := b.loopStack[len(b.loopStack)-1]
		ctx.breaks = append(ctx.breaks, at)
		return nil

	case *ast.ContinueStmt:
		if len(b.loopStack) == 0 {
			return zerr.New("'continue' outside of loop")
		}
		at := b.emit(bytecode.Instruction{Op: bytecode.Jump})
		ctx := b.loopStack[len(b.loopStack)-1]
		ctx.continues = append(ctx.continues, at)
		return nil

	case *ast.ExprStmt:
		if err := b.emitExpr(st.X); err != nil {
			return err
		}
		b.emit(bytecode.Instruction{Op: bytecode.Pop})
		return nil

	default:
		return zerr.New("internal error: unhandled statement %T", s)
	}
}

func (b *funcBuilder) emitFor(st *ast.ForStmt) error {
	b.locals.pushScope()
	defer b.locals.popScope()

	iSlot, err := b.locals.declare(st.Var)
	if err != nil {
		return err
	}
	if err := b.emitExpr(st.Start); err != nil {
		return err
	}
	b.emit(bytecode.Instruction{Op: bytecode.StoreLocal, IntArg: int64(iSlot)})

	endSlot := b.locals.allocTemp()
	if err := b.emitExpr(st.End); err != nil {
		return err
	}
	b.emit(bytecode.Instruction{Op: bytecode.StoreLocal, IntArg: int64(endSlot)})

	loopStart := b.here()
	b.emit(bytecode.Instruction{Op: bytecode.LoadLocal, IntArg: int64(iSlot)})
	b.emit(bytecode.Instruction{Op: bytecode.LoadLocal, IntArg: int64(endSlot)})
	b.emit(bytecode.Instruction{Op: bytecode.Lt})
	jf := b.emit(bytecode.Instruction{Op: bytecode.JumpIfFalse})

	ctx := newLoopCtx()
	b.loopStack = append(b.loopStack, ctx)
	b.locals.pushScope()
	if err := b.emitBlock(st.Body); err != nil {
		return err
	}
	b.locals.popScope()
	b.loopStack = b.loopStack[:len(b.loopStack)-1]

	incrIP := b.here()
	ctx.continueTarget = incrIP
	b.emit(bytecode.Instruction{Op: bytecode.LoadLocal, IntArg: int64(iSlot)})
	b.emit(bytecode.Instruction{Op: bytecode.PushInt, IntArg: 1})
	b.emit(bytecode.Instruction{Op: bytecode.Add})
	b.emit(bytecode.Instruction{Op: bytecode.StoreLocal, IntArg: int64(iSlot)})
	b.emit(bytecode.Instruction{Op: bytecode.Jump, IntArg: int64(loopStart)})

	b.patchToHere(jf)
	end := b.here()
	for _, at := range ctx.breaks {
		b.patchJumpTo(at, end)
	}
	contTarget := ctx.continueTarget
	if contTarget < 0 {
		contTarget = loopStart
	}
	for _, at := range ctx.continues {
		b.patchJumpTo(at, contTarget)
	}
	return nil
}

func (b *funcBuilder) emitExpr(e ast.Expr) error {
	switch x := e.(type) {
	case *ast.IntLit:
		b.emit(bytecode.Instruction{Op: bytecode.PushInt, IntArg: x.Value})
		return nil
	case *ast.StringLit:
		b.emit(bytecode.Instruction{Op: bytecode.PushStr, StrArg: x.Value})
		return nil
	case *ast.BoolLit:
		b.emit(bytecode.Instruction{Op: bytecode.PushBool, BoolArg: x.Value})
		return nil
	case *ast.Ident:
		if slot, ok := b.locals.resolve(x.Name); ok {
			b.emit(bytecode.Instruction{Op: bytecode.LoadLocal, IntArg: int64(slot)})
			return nil
		}
		if b.isReplMain {
			b.emit(bytecode.Instruction{Op: bytecode.LoadGlobal, StrArg: x.Name})
			return nil
		}
		return zerr.New("Undefined variable '%s'", x.Name)
	case *ast.NotExpr:
		if err := b.emitExpr(x.X); err != nil {
			return err
		}
		b.emit(bytecode.Instruction{Op: bytecode.Not})
		return nil
	case *ast.BinaryExpr:
		return b.emitBinary(x)
	case *ast.ListExpr:
		for _, el := range x.Elems {
			if err := b.emitExpr(el); err != nil {
				return err
			}
		}
		b.emit(bytecode.Instruction{Op: bytecode.MakeList, IntArg: int64(len(x.Elems))})
		return nil
	case *ast.IndexExpr:
		if err := b.emitExpr(x.Base); err != nil {
			return err
		}
		if err := b.emitExpr(x.Index); err != nil {
			return err
		}
		b.emit(bytecode.Instruction{Op: bytecode.Index})
		return nil
	case *ast.CallExpr:
		return b.emitCall(x)
	default:
		return zerr.New("internal error: unhandled expression %T", e)
	}
}

func (b *funcBuilder) emitBinary(x *ast.BinaryExpr) error {
	switch x.Op {
	case ast.And:
		// short-circuit: if X is false, skip Y and the result is false.
		if err := b.emitExpr(x.X); err != nil {
			return err
		}
		jf := b.emit(bytecode.Instruction{Op: bytecode.JumpIfFalse})
		if err := b.emitExpr(x.Y); err != nil {
			return err
		}
		jend := b.emit(bytecode.Instruction{Op: bytecode.Jump})
		b.patchToHere(jf)
		b.emit(bytecode.Instruction{Op: bytecode.PushBool, BoolArg: false})
		b.patchToHere(jend)
		return nil
	case ast.Or:
		if err := b.emitExpr(x.X); err != nil {
			return err
		}
		jt := b.emit(bytecode.Instruction{Op: bytecode.JumpIfTrue})
		if err := b.emitExpr(x.Y); err != nil {
			return err
		}
		jend := b.emit(bytecode.Instruction{Op: bytecode.Jump})
		b.patchToHere(jt)
		b.emit(bytecode.Instruction{Op: bytecode.PushBool, BoolArg: true})
		b.patchToHere(jend)
		return nil
	}

	if err := b.emitExpr(x.X); err != nil {
		return err
	}
	if err := b.emitExpr(x.Y); err != nil {
		return err
	}
	var op bytecode.Opcode
	switch x.Op {
	case ast.Add:
		op = bytecode.Add
	case ast.Sub:
		op = bytecode.Sub
	case ast.Mul:
		op = bytecode.Mul
	case ast.Div:
		op = bytecode.Div
	case ast.Eq:
		op = bytecode.Eq
	case ast.Ne:
		op = bytecode.Ne
	case ast.Lt:
		op = bytecode.Lt
	case ast.Le:
		op = bytecode.Le
	case ast.Gt:
		op = bytecode.Gt
	case ast.Ge:
		op = bytecode.Ge
	default:
		return zerr.New("internal error: unhandled operator %d", x.Op)
	}
	b.emit(bytecode.Instruction{Op: op})
	return nil
}

func (b *funcBuilder) emitCall(x *ast.CallExpr) error {
	if builtins.IsBuiltin(x.Name) {
		for _, a := range x.Args {
			if err := b.emitExpr(a); err != nil {
				return err
			}
		}
		b.emit(bytecode.Instruction{Op: bytecode.BuiltinCall, StrArg: x.Name, IntArg2: int64(len(x.Args))})
		return nil
	}
	fi, ok := b.c.prog.FuncIndex(x.Name)
	if !ok {
		return zerr.New("Undefined function '%s'", x.Name)
	}
	for _, a := range x.Args {
		if err := b.emitExpr(a); err != nil {
			return err
		}
	}
	b.emit(bytecode.Instruction{Op: bytecode.Call, IntArg: int64(fi), IntArg2: int64(len(x.Args))})
	return nil
}
