package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mna/zirc/internal/value"
)

func TestDisplay(t *testing.T) {
	assert.Equal(t, "42", value.Display(value.MkInt(42)))
	assert.Equal(t, "-7", value.Display(value.MkInt(-7)))
	assert.Equal(t, "true", value.Display(value.MkBool(true)))
	assert.Equal(t, "false", value.Display(value.MkBool(false)))
	assert.Equal(t, "hello", value.Display(value.MkStr("hello")))
	assert.Equal(t, "<unit>", value.Display(value.MkUnit()))
	assert.Equal(t, "[1, 2, 3]", value.Display(value.MkList([]value.Value{
		value.MkInt(1), value.MkInt(2), value.MkInt(3),
	})))
	assert.Equal(t, "[1, [2, 3]]", value.Display(value.MkList([]value.Value{
		value.MkInt(1),
		value.MkList([]value.Value{value.MkInt(2), value.MkInt(3)}),
	})))
}

func TestEqualStructural(t *testing.T) {
	a := value.MkList([]value.Value{value.MkInt(1), value.MkList([]value.Value{value.MkInt(2), value.MkInt(3)})})
	b := value.MkList([]value.Value{value.MkInt(1), value.MkList([]value.Value{value.MkInt(2), value.MkInt(3)})})
	assert.True(t, value.Equal(a, b))

	c := value.MkList([]value.Value{value.MkInt(2), value.MkInt(1)})
	d := value.MkList([]value.Value{value.MkInt(1), value.MkInt(2)})
	assert.False(t, value.Equal(c, d))
}

func TestEqualUnlikeVariantsNeverEqual(t *testing.T) {
	assert.False(t, value.Equal(value.MkInt(0), value.MkBool(false)))
	assert.False(t, value.Equal(value.MkStr(""), value.MkUnit()))
}

func TestCloneIsDeepAndIndependent(t *testing.T) {
	orig := value.MkList([]value.Value{value.MkInt(1), value.MkInt(2)})
	clone := value.Clone(orig)
	clone.Elems[0] = value.MkInt(99)
	assert.EqualValues(t, 1, orig.Elems[0].I)
	assert.EqualValues(t, 99, clone.Elems[0].I)
}

func TestTruth(t *testing.T) {
	assert.True(t, value.Truth(value.MkBool(true)))
	assert.False(t, value.Truth(value.MkBool(false)))
	assert.False(t, value.Truth(value.MkInt(1)))
}
