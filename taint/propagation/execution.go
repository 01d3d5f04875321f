package propagation

import (
	"github.com/ethereum/go-ethereum/core/vm"

	"github.com/sofl-go/sofl/inspector"
	"github.com/sofl-go/sofl/taint"
)

// ExecutionPolicy covers memory/storage/transient-storage/control-flow
// opcodes, grounded on propagation/execution.rs.
type ExecutionPolicy struct{}

func (ExecutionPolicy) BeforeStep(tracker *taint.TaintTracker, step *inspector.StepData) []taint.StackEffect {
	switch vm.OpCode(step.Op) {
	case vm.MLOAD:
		if tracker.Stack.AnyTainted(1) {
			return []taint.StackEffect{taint.Effect(true)}
		}
		offset := taint.AsInt(taint.StackTop(step, 0))
		return []taint.StackEffect{taint.Effect(tracker.Memory.IsTainted(offset, 32))}
	case vm.MSTORE:
		if tracker.Stack.AnyTainted(2) {
			offset := taint.AsInt(taint.StackTop(step, 0))
			tracker.Memory.Taint(offset, 32)
		}
		return nil
	case vm.MSTORE8:
		if tracker.Stack.AnyTainted(2) {
			offset := taint.AsInt(taint.StackTop(step, 0))
			tracker.Memory.Taint(offset, 1)
		}
		return nil
	case vm.SLOAD:
		if tracker.Stack.AnyTainted(1) {
			return []taint.StackEffect{taint.Effect(true)}
		}
		key := taint.StackTop(step, 0)
		return []taint.StackEffect{taint.Effect(tracker.Storage.IsTainted(key.Bytes32()))}
	case vm.SSTORE:
		if tracker.Stack.AnyTainted(2) {
			key := taint.StackTop(step, 0)
			tracker.Storage.Taint(key.Bytes32())
		}
		return nil
	case vm.TLOAD:
		if tracker.Stack.AnyTainted(1) {
			return []taint.StackEffect{taint.Effect(true)}
		}
		key := taint.StackTop(step, 0)
		return []taint.StackEffect{taint.Effect(tracker.Storage.IsTainted(key.Bytes32()))}
	case vm.TSTORE:
		if tracker.Stack.AnyTainted(2) {
			key := taint.StackTop(step, 0)
			tracker.Storage.Taint(key.Bytes32())
		}
		return nil
	case vm.PC, vm.MSIZE, vm.GAS:
		return []taint.StackEffect{taint.Effect(false)}
	case vm.MCOPY:
		dest := taint.AsInt(taint.StackTop(step, 0))
		src := taint.AsInt(taint.StackTop(step, 1))
		length := taint.AsInt(taint.StackTop(step, 2))
		if tracker.Stack.AnyTainted(3) {
			tracker.Memory.Taint(dest, length)
		} else if tracker.Memory.IsTainted(src, length) {
			tracker.Memory.Taint(dest, length)
		}
		return nil
	default:
		return nil
	}
}

func (ExecutionPolicy) AfterStep(*taint.TaintTracker, *inspector.StepData) {}
