package compiler

import "github.com/mna/zirc/internal/zerr"

// locals tracks the local-variable slot assigned to each name visible in the
// function currently being compiled. Unlike a single flat table, scopes
// nest: entering an if/while/for body pushes a new scope, so a `let` or
// for-loop variable declared inside it gets its own slot and shadows an
// outer binding of the same name without disturbing it — resolving in
// favor of a fresh slot is what makes the loop-variable-always-shadows
// property (see SPEC_FULL.md) hold at the bytecode level too.
type locals struct {
	scopes   []map[string]int
	next     int
	maxAlloc int
}

func newLocals() *locals {
	return &locals{scopes: []map[string]int{{}}}
}

func (l *locals) pushScope() { l.scopes = append(l.scopes, map[string]int{}) }

func (l *locals) popScope() { l.scopes = l.scopes[:len(l.scopes)-1] }

// maxLocals mirrors the u16 slot width the original bytecode's local-index
// operand uses: a function cannot declare more locals than a slot can index.
const maxLocals = 1<<16 - 1

// declare allocates a fresh slot for name in the innermost scope, even if an
// outer scope already has a binding of the same name (that's the shadow). It
// errors if name is already bound in that same innermost scope, or if the
// function has exhausted its slot space.
func (l *locals) declare(name string) (int, error) {
	if _, ok := l.scopes[len(l.scopes)-1][name]; ok {
		return 0, zerr.New("Variable '%s' already defined in scope", name)
	}
	if l.next >= maxLocals {
		return 0, zerr.New("too many locals")
	}
	slot := l.next
	l.next++
	if l.next > l.maxAlloc {
		l.maxAlloc = l.next
	}
	l.scopes[len(l.scopes)-1][name] = slot
	return slot, nil
}

// allocTemp reserves a slot with no name, used for loop-bound temporaries.
func (l *locals) allocTemp() int {
	slot := l.next
	l.next++
	if l.next > l.maxAlloc {
		l.maxAlloc = l.next
	}
	return slot
}

func (l *locals) resolve(name string) (int, bool) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if slot, ok := l.scopes[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

func (l *locals) resolveOrError(name string) (int, error) {
	slot, ok := l.resolve(name)
	if !ok {
		return 0, zerr.New("Undefined variable '%s'", name)
	}
	return slot, nil
}
