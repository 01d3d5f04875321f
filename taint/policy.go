package taint

import (
	"github.com/holiman/uint256"

	"github.com/sofl-go/sofl/inspector"
)

// StackEffect is the Option<bool> of spec.md §4.6's returned vector: nil
// means "leave the shadow-stack slot unchanged", a non-nil value force-sets
// it.
type StackEffect *bool

func taintEffect(v bool) StackEffect { return &v }

// Effect wraps a bool as a force-set StackEffect, for use by propagation
// policies outside this package.
func Effect(v bool) StackEffect { return taintEffect(v) }

// PropagationPolicy mirrors original_source/crates/analysis/src/taint/
// policy.rs's TaintPolicy trait. BeforeStep returns a vector right-aligned
// against the post-execution stack top (the last element is the top); AfterStep
// observes the step once the shadow stack has already absorbed those
// effects.
type PropagationPolicy interface {
	BeforeStep(tracker *TaintTracker, step *inspector.StepData) []StackEffect
	AfterStep(tracker *TaintTracker, step *inspector.StepData)
}

// unitPolicy is the identity element of policy composition, mirroring the
// Rust impl of TaintPolicy for the unit type `()`.
type unitPolicy struct{}

func (unitPolicy) BeforeStep(*TaintTracker, *inspector.StepData) []StackEffect { return nil }
func (unitPolicy) AfterStep(*TaintTracker, *inspector.StepData)                {}

// Unit is the empty propagation policy.
var Unit PropagationPolicy = unitPolicy{}

// pairPolicy composes two policies, combining their stack-effect vectors by
// right-aligned disjunction per spec.md §4.6.
type pairPolicy struct{ a, b PropagationPolicy }

// Compose chains two or more propagation policies left to right, mirroring
// the nested-tuple composition built by the Rust `policies!` macro.
func Compose(policies ...PropagationPolicy) PropagationPolicy {
	switch len(policies) {
	case 0:
		return Unit
	case 1:
		return policies[0]
	}
	result := policies[len(policies)-1]
	for i := len(policies) - 2; i >= 0; i-- {
		result = pairPolicy{a: policies[i], b: result}
	}
	return result
}

func (p pairPolicy) BeforeStep(tracker *TaintTracker, step *inspector.StepData) []StackEffect {
	ea := p.a.BeforeStep(tracker, step)
	eb := p.b.BeforeStep(tracker, step)
	n := len(ea)
	if len(eb) > n {
		n = len(eb)
	}
	ea = padLeft(ea, n)
	eb = padLeft(eb, n)
	out := make([]StackEffect, n)
	for i := 0; i < n; i++ {
		out[i] = disjoin(ea[i], eb[i])
	}
	return out
}

func (p pairPolicy) AfterStep(tracker *TaintTracker, step *inspector.StepData) {
	p.a.AfterStep(tracker, step)
	p.b.AfterStep(tracker, step)
}

func padLeft(v []StackEffect, n int) []StackEffect {
	if len(v) >= n {
		return v
	}
	out := make([]StackEffect, n)
	copy(out[n-len(v):], v)
	return out
}

func disjoin(a, b StackEffect) StackEffect {
	switch {
	case a == nil && b == nil:
		return nil
	case a != nil && b == nil:
		return a
	case a == nil && b != nil:
		return b
	default:
		return taintEffect(*a || *b)
	}
}

// stackTop returns the value at depth i from the top of step's real stack
// (0 is the top), or nil if out of range. go-ethereum's tracing hooks only
// ever hand us the pre-execution stack (there is no separate post-step
// snapshot), so every policy below reads operands from here rather than
// from the shadow TaintableStack, which tracks taint bits only.
func stackTop(step *inspector.StepData, i int) *uint256.Int {
	idx := len(step.Stack) - 1 - i
	if idx < 0 || idx >= len(step.Stack) {
		return nil
	}
	return &step.Stack[idx]
}

func asInt(v *uint256.Int) int {
	if v == nil {
		return 0
	}
	return int(v.Uint64())
}

// StackTop, AsInt and StackDeltaPop re-export the package's internal
// operand-reading helpers for use by the propagation subpackage, which
// needs them to interpret stack_borrow!-style operand access from
// the original Rust policies.
func StackTop(step *inspector.StepData, i int) *uint256.Int { return stackTop(step, i) }
func AsInt(v *uint256.Int) int                               { return asInt(v) }
func StackDeltaPop(op byte) int                              { return opcodeStackDelta[op].pop }
func StackDeltaPush(op byte) int                              { return opcodeStackDelta[op].push }
