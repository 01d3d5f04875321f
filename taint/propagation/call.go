package propagation

import (
	"github.com/ethereum/go-ethereum/core/vm"

	"github.com/sofl-go/sofl/inspector"
	"github.com/sofl-go/sofl/taint"
)

// CallPolicy covers the current frame's own call context (caller, value,
// calldata), grounded on propagation/call.rs.
type CallPolicy struct{}

func (CallPolicy) BeforeStep(tracker *taint.TaintTracker, step *inspector.StepData) []taint.StackEffect {
	switch vm.OpCode(step.Op) {
	case vm.CALLER:
		return []taint.StackEffect{taint.Effect(tracker.Call.Caller)}
	case vm.CALLVALUE:
		return []taint.StackEffect{taint.Effect(tracker.Call.Value)}
	case vm.CALLDATALOAD:
		if tracker.Stack.AnyTainted(1) {
			return []taint.StackEffect{taint.Effect(true)}
		}
		offset := taint.AsInt(taint.StackTop(step, 0))
		return []taint.StackEffect{taint.Effect(tracker.Call.Calldata.IsTainted(offset, 32))}
	case vm.CALLDATASIZE:
		return []taint.StackEffect{taint.Effect(false)}
	case vm.CALLDATACOPY:
		dest := taint.AsInt(taint.StackTop(step, 0))
		offset := taint.AsInt(taint.StackTop(step, 1))
		length := taint.AsInt(taint.StackTop(step, 2))
		if tracker.Stack.AnyTainted(3) {
			tracker.Memory.Taint(dest, length)
		} else if tracker.Call.Calldata.IsTainted(offset, length) {
			tracker.Memory.Taint(dest, length)
		}
		return nil
	default:
		return nil
	}
}

func (CallPolicy) AfterStep(*taint.TaintTracker, *inspector.StepData) {}
