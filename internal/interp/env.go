package interp

import (
	"github.com/mna/zirc/internal/ast"
	"github.com/mna/zirc/internal/value"
	"github.com/mna/zirc/internal/zerr"
)

// binding is a named value plus its optional declared type, shared between
// the scope that defines it and any inner scope that reads it — mutating
// the binding in place (via Assign) is what lets assignment reach an outer
// scope without copying the whole chain.
type binding struct {
	value value.Value
	ty    ast.Type
}

// Env is a lexical scope: a flat name table plus a read-only link to its
// parent. Functions are called with a fresh, parentless Env — Zirc has no
// closures, so a function body never sees its caller's locals.
type Env struct {
	vars   map[string]*binding
	parent *Env
}

// NewRootEnv creates a parentless top-level scope.
func NewRootEnv() *Env {
	return &Env{vars: make(map[string]*binding)}
}

// Child creates a new scope nested inside e.
func (e *Env) Child() *Env {
	return &Env{vars: make(map[string]*binding), parent: e}
}

func (e *Env) lookup(name string) (*binding, bool) {
	for s := e; s != nil; s = s.parent {
		if b, ok := s.vars[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// Get returns name's current value.
func (e *Env) Get(name string) (value.Value, bool) {
	b, ok := e.lookup(name)
	if !ok {
		return value.Value{}, false
	}
	return b.value, true
}

// Define creates name as a new binding in e's own scope, shadowing any
// binding of the same name visible in an outer scope.
func (e *Env) Define(name string, v value.Value, ty ast.Type) {
	e.vars[name] = &binding{value: v, ty: ty}
}

// Assign mutates the nearest enclosing binding of name, re-checking its
// declared type if any. It errors if name is not bound anywhere in scope.
func (e *Env) Assign(name string, v value.Value) error {
	b, ok := e.lookup(name)
	if !ok {
		return zerr.New("Undefined variable '%s'", name)
	}
	if err := checkType(v, b.ty); err != nil {
		return err
	}
	b.value = v
	return nil
}

func checkType(v value.Value, ty ast.Type) error {
	if ty == ast.TypeNone {
		return nil
	}
	ok := false
	switch ty {
	case ast.TypeInt:
		ok = v.Kind == value.Int
	case ast.TypeString:
		ok = v.Kind == value.Str
	case ast.TypeBool:
		ok = v.Kind == value.Bool
	case ast.TypeList:
		ok = v.Kind == value.List
	case ast.TypeUnit:
		ok = v.Kind == value.Unit
	}
	if !ok {
		return zerr.New("Type mismatch: value of type %s does not match declared type %s", v.Kind, ty)
	}
	return nil
}
