// Package interp implements the tree-walking evaluator: it executes an
// *ast.Program directly against a chain of lexical scopes (see env.go),
// using the flow sentinel (flow.go) to propagate return/break/continue out
// of nested blocks.
package interp

import (
	"github.com/mna/zirc/internal/ast"
	"github.com/mna/zirc/internal/builtins"
	"github.com/mna/zirc/internal/value"
	"github.com/mna/zirc/internal/zerr"
)

// MemoryStats accumulates string-allocation counters purely for
// observability; they never affect program results (spec §5).
type MemoryStats struct {
	StringsAllocated int
	BytesAllocated   int
}

// Interpreter holds the process-wide function table and runs programs
// against it. It is not safe for concurrent use — Zirc has no concurrency.
type Interpreter struct {
	functions map[string]*ast.Function
	mem       MemoryStats
	io        builtins.IO
}

// New creates an Interpreter that performs built-in I/O through io.
func New(io builtins.IO) *Interpreter {
	return &Interpreter{functions: make(map[string]*ast.Function), io: io}
}

// Stats returns a snapshot of the accumulated memory statistics.
func (in *Interpreter) Stats() MemoryStats { return in.mem }

// Run executes prog's top-level statements after hoisting its function
// declarations, and returns the value of the last top-level expression
// statement (ok is false if the program had none).
func (in *Interpreter) Run(prog *ast.Program) (result value.Value, ok bool, err error) {
	return in.RunWithEnv(prog, NewRootEnv())
}

// RunWithEnv is like Run but executes against a caller-supplied root
// environment, so a REPL can keep bindings alive across separate calls.
func (in *Interpreter) RunWithEnv(prog *ast.Program, env *Env) (value.Value, bool, error) {
	for _, item := range prog.Items {
		if fn, isFn := item.(*ast.Function); isFn {
			if _, dup := in.functions[fn.Name]; dup {
				return value.Value{}, false, zerr.New("Duplicate function '%s'", fn.Name)
			}
			in.functions[fn.Name] = fn
		}
	}

	var last value.Value
	var ok bool
	for _, item := range prog.Items {
		stmt, isStmt := item.(ast.Stmt)
		if !isStmt {
			continue
		}
		f, err := in.execStmt(env, stmt)
		if err != nil {
			return value.Value{}, false, err
		}
		switch f.kind {
		case flowContinue:
			if _, isExpr := stmt.(*ast.ExprStmt); isExpr {
				last, ok = f.val, true
			}
		case flowReturn:
			return value.Value{}, false, zerr.New("'return' outside of function")
		case flowBreak:
			return value.Value{}, false, zerr.New("'break' outside of loop")
		case flowContinueLoop:
			return value.Value{}, false, zerr.New("'continue' outside of loop")
		}
	}
	return last, ok, nil
}

func (in *Interpreter) execBlock(env *Env, body []ast.Stmt) (flow, error) {
	last := value.MkUnit()
	for _, s := range body {
		f, err := in.execStmt(env, s)
		if err != nil {
			return flow{}, err
		}
		switch f.kind {
		case flowContinue:
			last = f.val
		default:
			return f, nil
		}
	}
	return continueFlow(last), nil
}

func (in *Interpreter) execStmt(env *Env, stmt ast.Stmt) (flow, error) {
	switch s := stmt.(type) {
	case *ast.LetStmt:
		v, err := in.evalExpr(env, s.Expr)
		if err != nil {
			return flow{}, err
		}
		if err := checkType(v, s.Ty); err != nil {
			return flow{}, err
		}
		env.Define(s.Name, v, s.Ty)
		return continueFlow(value.MkUnit()), nil

	case *ast.AssignStmt:
		v, err := in.evalExpr(env, s.Expr)
		if err != nil {
			return flow{}, err
		}
		if err := env.Assign(s.Name, v); err != nil {
			return flow{}, err
		}
		return continueFlow(value.MkUnit()), nil

	case *ast.ReturnStmt:
		if s.Expr == nil {
			return returnFlow(value.MkUnit()), nil
		}
		v, err := in.evalExpr(env, s.Expr)
		if err != nil {
			return flow{}, err
		}
		return returnFlow(v), nil

	case *ast.IfStmt:
		c, err := in.evalExpr(env, s.Cond)
		if err != nil {
			return flow{}, err
		}
		if c.Kind != value.Bool {
			return flow{}, zerr.New("if condition must be bool, got %s", c.Kind)
		}
		if c.B {
			return in.execBlock(env.Child(), s.Then)
		}
		return in.execBlock(env.Child(), s.Else)

	case *ast.WhileStmt:
		for {
			c, err := in.evalExpr(env, s.Cond)
			if err != nil {
				return flow{}, err
			}
			if c.Kind != value.Bool {
				return flow{}, zerr.New("while condition must be bool, got %s", c.Kind)
			}
			if !c.B {
				break
			}
			f, err := in.execBlock(env.Child(), s.Body)
			if err != nil {
				return flow{}, err
			}
			switch f.kind {
			case flowContinue:
			case flowReturn:
				return f, nil
			case flowBreak:
				goto whileDone
			case flowContinueLoop:
				continue
			}
		}
	whileDone:
		return continueFlow(value.MkUnit()), nil

	case *ast.ForStmt:
		return in.execFor(env, s)

	case *ast.BreakStmt:
		return breakFlow, nil

	case *ast.ContinueStmt:
		return continueLoopFlow, nil

	case *ast.ExprStmt:
		v, err := in.evalExpr(env, s.X)
		if err != nil {
			return flow{}, err
		}
		return continueFlow(v), nil

	default:
		return flow{}, zerr.New("internal error: unhandled statement %T", stmt)
	}
}

func (in *Interpreter) execFor(env *Env, s *ast.ForStmt) (flow, error) {
	sv, err := in.evalExpr(env, s.Start)
	if err != nil {
		return flow{}, err
	}
	ev, err := in.evalExpr(env, s.End)
	if err != nil {
		return flow{}, err
	}
	if sv.Kind != value.Int || ev.Kind != value.Int {
		return flow{}, zerr.New("for bounds must be ints, got %s and %s", sv.Kind, ev.Kind)
	}
	i, end := sv.I, ev.I
	for i < end {
		// A fresh child scope every iteration: the loop variable always
		// shadows any outer binding of the same name, never mutates it.
		loopEnv := env.Child()
		loopEnv.Define(s.Var, value.MkInt(i), ast.TypeInt)
		f, err := in.execBlock(loopEnv, s.Body)
		if err != nil {
			return flow{}, err
		}
		switch f.kind {
		case flowContinue:
		case flowReturn:
			return f, nil
		case flowBreak:
			return continueFlow(value.MkUnit()), nil
		case flowContinueLoop:
			i++
			continue
		}
		i++
	}
	return continueFlow(value.MkUnit()), nil
}

func (in *Interpreter) evalExpr(env *Env, expr ast.Expr) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.IntLit:
		return value.MkInt(e.Value), nil

	case *ast.StringLit:
		in.mem.StringsAllocated++
		in.mem.BytesAllocated += len(e.Value)
		return value.MkStr(e.Value), nil

	case *ast.BoolLit:
		return value.MkBool(e.Value), nil

	case *ast.Ident:
		v, ok := env.Get(e.Name)
		if !ok {
			return value.Value{}, zerr.New("Undefined variable '%s'", e.Name)
		}
		return v, nil

	case *ast.NotExpr:
		x, err := in.evalExpr(env, e.X)
		if err != nil {
			return value.Value{}, err
		}
		if x.Kind != value.Bool {
			return value.Value{}, zerr.New("! expects bool, got %s", x.Kind)
		}
		return value.MkBool(!x.B), nil

	case *ast.BinaryExpr:
		return in.evalBinary(env, e)

	case *ast.ListExpr:
		elems := make([]value.Value, len(e.Elems))
		for i, el := range e.Elems {
			v, err := in.evalExpr(env, el)
			if err != nil {
				return value.Value{}, err
			}
			elems[i] = v
		}
		return value.MkList(elems), nil

	case *ast.IndexExpr:
		return in.evalIndex(env, e)

	case *ast.CallExpr:
		return in.evalCall(env, e)

	default:
		return value.Value{}, zerr.New("internal error: unhandled expression %T", expr)
	}
}

func (in *Interpreter) evalBinary(env *Env, e *ast.BinaryExpr) (value.Value, error) {
	// Short-circuit operators evaluate Y conditionally.
	switch e.Op {
	case ast.And:
		x, err := in.evalExpr(env, e.X)
		if err != nil {
			return value.Value{}, err
		}
		if x.Kind != value.Bool {
			return value.Value{}, zerr.New("&& expects bool, got %s", x.Kind)
		}
		if !x.B {
			return value.MkBool(false), nil
		}
		y, err := in.evalExpr(env, e.Y)
		if err != nil {
			return value.Value{}, err
		}
		if y.Kind != value.Bool {
			return value.Value{}, zerr.New("&& expects bool, got %s", y.Kind)
		}
		return y, nil

	case ast.Or:
		x, err := in.evalExpr(env, e.X)
		if err != nil {
			return value.Value{}, err
		}
		if x.Kind != value.Bool {
			return value.Value{}, zerr.New("|| expects bool, got %s", x.Kind)
		}
		if x.B {
			return value.MkBool(true), nil
		}
		y, err := in.evalExpr(env, e.Y)
		if err != nil {
			return value.Value{}, err
		}
		if y.Kind != value.Bool {
			return value.Value{}, zerr.New("|| expects bool, got %s", y.Kind)
		}
		return y, nil
	}

	x, err := in.evalExpr(env, e.X)
	if err != nil {
		return value.Value{}, err
	}
	y, err := in.evalExpr(env, e.Y)
	if err != nil {
		return value.Value{}, err
	}

	switch e.Op {
	case ast.Add:
		switch {
		case x.Kind == value.Int && y.Kind == value.Int:
			return value.MkInt(x.I + y.I), nil
		case x.Kind == value.Str && y.Kind == value.Str:
			r := x.S + y.S
			in.mem.StringsAllocated++
			in.mem.BytesAllocated += len(r)
			return value.MkStr(r), nil
		case x.Kind == value.List && y.Kind == value.List:
			out := make([]value.Value, 0, len(x.Elems)+len(y.Elems))
			for _, el := range x.Elems {
				out = append(out, value.Clone(el))
			}
			for _, el := range y.Elems {
				out = append(out, value.Clone(el))
			}
			return value.MkList(out), nil
		default:
			return value.Value{}, zerr.New("Cannot add %s and %s", x.Kind, y.Kind)
		}
	case ast.Sub:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New("Cannot subtract %s and %s", x.Kind, y.Kind)
		}
		return value.MkInt(x.I - y.I), nil
	case ast.Mul:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New("Cannot multiply %s and %s", x.Kind, y.Kind)
		}
		return value.MkInt(x.I * y.I), nil
	case ast.Div:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New("Cannot divide %s and %s", x.Kind, y.Kind)
		}
		if y.I == 0 {
			return value.Value{}, zerr.New("division by zero")
		}
		return value.MkInt(x.I / y.I), nil
	case ast.Eq:
		return value.MkBool(value.Equal(x, y)), nil
	case ast.Ne:
		return value.MkBool(!value.Equal(x, y)), nil
	case ast.Lt:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New("< expects ints")
		}
		return value.MkBool(x.I < y.I), nil
	case ast.Le:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New("<= expects ints")
		}
		return value.MkBool(x.I <= y.I), nil
	case ast.Gt:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New("> expects ints")
		}
		return value.MkBool(x.I > y.I), nil
	case ast.Ge:
		if x.Kind != value.Int || y.Kind != value.Int {
			return value.Value{}, zerr.New(">= expects ints")
		}
		return value.MkBool(x.I >= y.I), nil
	default:
		return value.Value{}, zerr.New("internal error: unhandled operator %d", e.Op)
	}
}

func (in *Interpreter) evalIndex(env *Env, e *ast.IndexExpr) (value.Value, error) {
	base, err := in.evalExpr(env, e.Base)
	if err != nil {
		return value.Value{}, err
	}
	idx, err := in.evalExpr(env, e.Index)
	if err != nil {
		return value.Value{}, err
	}
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
		ss := string(runes[idx.I])
		in.mem.StringsAllocated++
		in.mem.BytesAllocated += len(ss)
		return value.MkStr(ss), nil
	default:
		return value.Value{}, zerr.New("indexing not supported for %s", base.Kind)
	}
}

func (in *Interpreter) evalCall(env *Env, e *ast.CallExpr) (value.Value, error) {
	switch e.Name {
	case "push":
		return in.callPush(env, e.Args)
	case "pop":
		return in.callPop(env, e.Args)
	}

	if builtins.IsBuiltin(e.Name) {
		args, err := in.evalArgs(env, e.Args)
		if err != nil {
			return value.Value{}, err
		}
		v, err := builtins.Call(in.io, e.Name, args)
		if err != nil {
			return value.Value{}, err
		}
		in.accountStringResult(v)
		return v, nil
	}

	fn, ok := in.functions[e.Name]
	if !ok {
		return value.Value{}, zerr.New("Undefined function '%s'", e.Name)
	}
	if len(fn.Params) != len(e.Args) {
		return value.Value{}, zerr.New("Function '%s' expected %d args, got %d", e.Name, len(fn.Params), len(e.Args))
	}
	args, err := in.evalArgs(env, e.Args)
	if err != nil {
		return value.Value{}, err
	}

	// Zirc has no closures: a function body starts in a scope with no
	// parent, so it can never observe its caller's locals.
	callEnv := NewRootEnv()
	for i, p := range fn.Params {
		if err := checkType(args[i], p.Ty); err != nil {
			return value.Value{}, err
		}
		callEnv.Define(p.Name, args[i], p.Ty)
	}

	f, err := in.execBlock(callEnv, fn.Body)
	if err != nil {
		return value.Value{}, err
	}
	var result value.Value
	switch f.kind {
	case flowContinue, flowReturn:
		result = f.val
	case flowBreak:
		return value.Value{}, zerr.New("'break' outside of loop")
	case flowContinueLoop:
		return value.Value{}, zerr.New("'continue' outside of loop")
	}
	if fn.ReturnTy != ast.TypeNone {
		if err := checkType(result, fn.ReturnTy); err != nil {
			return value.Value{}, err
		}
	}
	return result, nil
}

func (in *Interpreter) evalArgs(env *Env, exprs []ast.Expr) ([]value.Value, error) {
	args := make([]value.Value, len(exprs))
	for i, a := range exprs {
		v, err := in.evalExpr(env, a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// accountStringResult keeps the observability counters (spec §5) roughly in
// sync for builtins that mint new strings, without threading *Interpreter
// through the stateless builtins package.
func (in *Interpreter) accountStringResult(v value.Value) {
	if v.Kind == value.Str {
		in.mem.StringsAllocated++
		in.mem.BytesAllocated += len(v.S)
	}
}

// callPush implements push(varname, v): the tree-walker takes the first
// argument literally as an identifier (not an evaluated expression) so it
// can mutate the named list binding in place.
func (in *Interpreter) callPush(env *Env, args []ast.Expr) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, zerr.New("Function 'push' expected 2 args, got %d", len(args))
	}
	name, ok := args[0].(*ast.Ident)
	if !ok {
		return value.Value{}, zerr.New("push() first argument must be a variable name")
	}
	b, ok := env.lookup(name.Name)
	if !ok {
		return value.Value{}, zerr.New("Undefined variable '%s'", name.Name)
	}
	if b.value.Kind != value.List {
		return value.Value{}, zerr.New("Type mismatch: push() expects a list, got %s", b.value.Kind)
	}
	v, err := in.evalExpr(env, args[1])
	if err != nil {
		return value.Value{}, err
	}
	elems := make([]value.Value, len(b.value.Elems), len(b.value.Elems)+1)
	copy(elems, b.value.Elems)
	b.value.Elems = append(elems, value.Clone(v))
	return value.MkUnit(), nil
}

// callPop implements pop(varname): same lvalue-by-identifier convention as push.
func (in *Interpreter) callPop(env *Env, args []ast.Expr) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, zerr.New("Function 'pop' expected 1 args, got %d", len(args))
	}
	name, ok := args[0].(*ast.Ident)
	if !ok {
		return value.Value{}, zerr.New("pop() argument must be a variable name")
	}
	b, ok := env.lookup(name.Name)
	if !ok {
		return value.Value{}, zerr.New("Undefined variable '%s'", name.Name)
	}
	if b.value.Kind != value.List {
		return value.Value{}, zerr.New("Type mismatch: pop() expects a list, got %s", b.value.Kind)
	}
	n := len(b.value.Elems)
	if n == 0 {
		return value.Value{}, zerr.New("pop() on empty list")
	}
	last := b.value.Elems[n-1]
	b.value.Elems = b.value.Elems[:n-1]
	return last, nil
}
