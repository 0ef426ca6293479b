// Package zerr defines the single structured error type that flows through
// the entire pipeline, from the lexer down to the VM.
package zerr

import (
	"fmt"

	"github.com/mna/zirc/internal/token"
)

// Error is the only error shape the core produces. Lex and parse errors
// carry a Pos; compile and runtime errors carry Msg alone.
type Error struct {
	Msg string
	Pos token.Position // zero value (Line==0) means "no position"
}

func (e *Error) Error() string {
	if e.Pos.Line == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s at %s", e.Msg, e.Pos)
}

// At builds a spanned error at pos.
func At(pos token.Position, format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// New builds an unspanned error (compile-time or runtime).
func New(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// Wrap turns any error into a *Error, preserving it unchanged if it already
// is one, so boundary code can always run errors.As after wrapping.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	if ze, ok := err.(*Error); ok {
		return ze
	}
	return &Error{Msg: err.Error()}
}
