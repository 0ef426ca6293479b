package compiler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalsDeclareRejectsSameScopeRedefinition(t *testing.T) {
	l := newLocals()
	_, err := l.declare("x")
	require.NoError(t, err)
	_, err = l.declare("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Variable 'x' already defined in scope")
}

func TestLocalsDeclareAllowsRedefinitionInNestedScope(t *testing.T) {
	l := newLocals()
	_, err := l.declare("x")
	require.NoError(t, err)
	l.pushScope()
	_, err = l.declare("x")
	assert.NoError(t, err)
}

func TestLocalsDeclareRejectsTooManyLocals(t *testing.T) {
	l := newLocals()
	for i := 0; i < maxLocals; i++ {
		_, err := l.declare(fmt.Sprintf("v%d", i))
		require.NoError(t, err)
	}
	_, err := l.declare("one_too_many")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many locals")
}
