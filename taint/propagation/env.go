package propagation

import (
	"github.com/ethereum/go-ethereum/core/vm"

	"github.com/sofl-go/sofl/inspector"
	"github.com/sofl-go/sofl/taint"
)

// EnvPolicy covers block/account environment opcodes, grounded on
// propagation/env.rs: most are constant-clean, a handful inherit taint from
// their address/offset operand.
type EnvPolicy struct{}

func (EnvPolicy) BeforeStep(tracker *taint.TaintTracker, step *inspector.StepData) []taint.StackEffect {
	switch vm.OpCode(step.Op) {
	case vm.ADDRESS, vm.ORIGIN, vm.CODESIZE, vm.GASPRICE,
		vm.BLOCKHASH, vm.COINBASE, vm.TIMESTAMP, vm.NUMBER, vm.DIFFICULTY,
		vm.GASLIMIT, vm.CHAINID, vm.SELFBALANCE, vm.BASEFEE, vm.BLOBHASH, vm.BLOBBASEFEE:
		return []taint.StackEffect{taint.Effect(false)}
	case vm.BALANCE, vm.EXTCODESIZE, vm.EXTCODEHASH:
		return []taint.StackEffect{taint.Effect(tracker.Stack.AnyTainted(1))}
	case vm.CODECOPY:
		dest := taint.AsInt(taint.StackTop(step, 0))
		offset := taint.AsInt(taint.StackTop(step, 1))
		length := taint.AsInt(taint.StackTop(step, 2))
		if tracker.Stack.AnyTainted(3) {
			tracker.Memory.Taint(dest, length)
		} else if tracker.Call.Code.IsTainted(offset, length) {
			tracker.Memory.Taint(dest, length)
		}
		return nil
	case vm.EXTCODECOPY:
		dest := taint.AsInt(taint.StackTop(step, 1))
		length := taint.AsInt(taint.StackTop(step, 3))
		if tracker.Stack.AnyTainted(4) {
			tracker.Memory.Taint(dest, length)
		}
		return nil
	default:
		return nil
	}
}

func (EnvPolicy) AfterStep(*taint.TaintTracker, *inspector.StepData) {}
