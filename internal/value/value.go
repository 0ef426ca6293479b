// Package value defines the shared Zirc runtime value, consulted by both
// the tree-walker and the VM so the two backends can never drift on typing,
// equality, or display rules.
package value

import (
	"strconv"
	"strings"
)

// Kind identifies a Value's variant.
type Kind int8

const (
	Int Kind = iota
	Str
	Bool
	List
	Unit
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Str:
		return "string"
	case Bool:
		return "bool"
	case List:
		return "list"
	case Unit:
		return "unit"
	default:
		return "unknown"
	}
}

// Value is the tagged variant every Zirc runtime datum is represented as.
// Only the field matching Kind is meaningful. Values form a tree: a List's
// Elems are owned by it alone, never aliased, so a "copy" is always a deep
// clone (see Clone).
type Value struct {
	Kind  Kind
	I     int64
	S     string
	B     bool
	Elems []Value
}

func MkInt(n int64) Value     { return Value{Kind: Int, I: n} }
func MkStr(s string) Value    { return Value{Kind: Str, S: s} }
func MkBool(b bool) Value     { return Value{Kind: Bool, B: b} }
func MkUnit() Value           { return Value{Kind: Unit} }
func MkList(es []Value) Value { return Value{Kind: List, Elems: es} }

// Clone returns a deep copy of v, so that mutating the result (e.g. via
// push/pop) never affects v or any value v was copied from.
func Clone(v Value) Value {
	if v.Kind != List {
		return v
	}
	elems := make([]Value, len(v.Elems))
	for i, e := range v.Elems {
		elems[i] = Clone(e)
	}
	return Value{Kind: List, Elems: elems}
}

// Truth reports v's truthiness for contexts (logical operators) that
// require a bool; callers must check v.Kind == Bool themselves, as Zirc
// never coerces non-bool values to bool.
func Truth(v Value) bool { return v.Kind == Bool && v.B }

// Equal implements Zirc's structural equality: values of unlike variants
// are never equal; List equality is element-wise and order-sensitive.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Int:
		return a.I == b.I
	case Str:
		return a.S == b.S
	case Bool:
		return a.B == b.B
	case Unit:
		return true
	case List:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !Equal(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Display renders v using Zirc's canonical display form, used by show,
// str and showf's %s specifier.
func Display(v Value) string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.I, 10)
	case Str:
		return v.S
	case Bool:
		if v.B {
			return "true"
		}
		return "false"
	case List:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range v.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(Display(e))
		}
		sb.WriteByte(']')
		return sb.String()
	case Unit:
		return "<unit>"
	default:
		return "<?>"
	}
}
