package interp

import "github.com/mna/zirc/internal/value"

// flowKind tags how a statement's execution wants to unwind its enclosing
// block, mirroring the tagged-variant control-flow sentinel the rest of
// this corpus uses instead of panics for expected, structured control flow.
type flowKind int8

const (
	flowContinue flowKind = iota
	flowReturn
	flowBreak
	flowContinueLoop
)

// flow is the result of executing one statement or block.
type flow struct {
	kind flowKind
	val  value.Value // meaningful for flowContinue and flowReturn
}

func continueFlow(v value.Value) flow { return flow{kind: flowContinue, val: v} }
func returnFlow(v value.Value) flow   { return flow{kind: flowReturn, val: v} }

var breakFlow = flow{kind: flowBreak}
var continueLoopFlow = flow{kind: flowContinueLoop}
