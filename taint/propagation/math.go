// Package propagation holds the concrete PropagationPolicy implementations
// shipped with the core, grounded on
// original_source/crates/analysis/src/taint/propagation/*.rs.
package propagation

import (
	"github.com/ethereum/go-ethereum/core/vm"

	"github.com/sofl-go/sofl/inspector"
	"github.com/sofl-go/sofl/taint"
)

// MathPolicy taints the result of arithmetic, comparison, bitwise and
// KECCAK256 opcodes whenever any operand is tainted, grounded on
// propagation/math.rs.
type MathPolicy struct{}

func (MathPolicy) BeforeStep(tracker *taint.TaintTracker, step *inspector.StepData) []taint.StackEffect {
	switch vm.OpCode(step.Op) {
	case vm.ADD, vm.MUL, vm.SUB, vm.DIV, vm.SDIV, vm.MOD, vm.SMOD, vm.ADDMOD, vm.MULMOD, vm.EXP, vm.SIGNEXTEND,
		vm.LT, vm.GT, vm.SLT, vm.SGT, vm.EQ, vm.ISZERO, vm.AND, vm.OR, vm.XOR, vm.NOT, vm.BYTE, vm.SHL, vm.SHR, vm.SAR:
		n := taint.StackDeltaPop(step.Op)
		return []taint.StackEffect{taint.Effect(tracker.Stack.AnyTainted(n))}
	case vm.KECCAK256:
		if tracker.Stack.AnyTainted(2) {
			return []taint.StackEffect{taint.Effect(true)}
		}
		from := taint.AsInt(taint.StackTop(step, 0))
		length := taint.AsInt(taint.StackTop(step, 1))
		return []taint.StackEffect{taint.Effect(tracker.Memory.IsTainted(from, length))}
	default:
		return nil
	}
}

func (MathPolicy) AfterStep(*taint.TaintTracker, *inspector.StepData) {}
