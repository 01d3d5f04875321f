package propagation

import (
	"github.com/ethereum/go-ethereum/core/vm"

	"github.com/sofl-go/sofl/inspector"
	"github.com/sofl-go/sofl/taint"
)

// NestedCallPolicy seeds the about-to-happen child call's TaintableCall from
// the current frame's operands when a CALL-like or CREATE-like opcode is
// about to dispatch, grounded on spec.md §4.6's nested-call policy
// description (propagation/nested_call.rs was not present in the reference
// sources; the operand layout below follows each opcode's documented stack
// order). The analyzer (see ../analyzer.go) is responsible for the
// mechanical frame push/pop and for writing the callee's exit status/return
// data back onto the parent once the call returns — that part isn't
// per-opcode and doesn't belong in a policy.
type NestedCallPolicy struct{}

func (NestedCallPolicy) BeforeStep(tracker *taint.TaintTracker, step *inspector.StepData) []taint.StackEffect {
	switch vm.OpCode(step.Op) {
	case vm.CALL, vm.CALLCODE:
		// stack (top-first): gas, addr, value, argsOffset, argsLength, retOffset, retLength
		value := taint.StackTop(step, 2)
		argsOffset := taint.AsInt(taint.StackTop(step, 3))
		argsLength := taint.AsInt(taint.StackTop(step, 4))
		seedChild(tracker, value != nil && tracker.Stack.IsTainted(2), argsOffset, argsLength)
	case vm.DELEGATECALL, vm.STATICCALL:
		// stack (top-first): gas, addr, argsOffset, argsLength, retOffset, retLength — no value arg
		argsOffset := taint.AsInt(taint.StackTop(step, 2))
		argsLength := taint.AsInt(taint.StackTop(step, 3))
		valueTainted := tracker.Call.Value // DELEGATECALL forwards the parent's own call value
		seedChild(tracker, valueTainted, argsOffset, argsLength)
	case vm.CREATE:
		// stack (top-first): value, offset, length
		seedChild(tracker, tracker.Stack.IsTainted(0), taint.AsInt(taint.StackTop(step, 1)), taint.AsInt(taint.StackTop(step, 2)))
	case vm.CREATE2:
		// stack (top-first): value, offset, length, salt
		seedChild(tracker, tracker.Stack.IsTainted(0), taint.AsInt(taint.StackTop(step, 1)), taint.AsInt(taint.StackTop(step, 2)))
	case vm.RETURN, vm.REVERT:
		// callee's return data ← callee's stack/memory operands (spec.md §4.6).
		offset := taint.AsInt(taint.StackTop(step, 0))
		length := taint.AsInt(taint.StackTop(step, 1))
		tracker.Call.ReturnData = taint.NewTaintableMemory(32)
		if tracker.Stack.AnyTainted(2) || tracker.Memory.IsTainted(offset, length) {
			tracker.Call.ReturnData.Taint(0, length)
		}
	}
	return nil
}

func seedChild(tracker *taint.TaintTracker, valueTainted bool, argsOffset, argsLength int) {
	if tracker.ChildCall == nil {
		return
	}
	tracker.ChildCall.Caller = false
	tracker.ChildCall.Value = valueTainted
	tracker.ChildCall.Calldata = taint.NewTaintableMemory(32)
	if tracker.Memory.IsTainted(argsOffset, argsLength) {
		tracker.ChildCall.Calldata.Taint(0, argsLength)
	}
}

func (NestedCallPolicy) AfterStep(*taint.TaintTracker, *inspector.StepData) {}
