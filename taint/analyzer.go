package taint

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"

	"github.com/sofl-go/sofl/inspector"
	"github.com/sofl-go/sofl/internal/metrics"
	"github.com/sofl-go/sofl/spec"
	"github.com/sofl-go/sofl/state"
)

// TaintAnalyzer is an Inspector (C4) that drives a composed
// PropagationPolicy over a shadow call-frame stack, grounded on
// original_source/crates/analysis/src/taint/{inspector,mod}.rs. It owns the
// frame-stack and per-address storage map mechanics spec.md §4.6 describes;
// all opcode-specific taint logic lives in the composed policy.
type TaintAnalyzer struct {
	policy   PropagationPolicy
	storages map[common.Address]*TaintableStorage
	frames   []*TaintTracker
	effects  []StackEffect
}

// NewTaintAnalyzer builds an analyzer driving the given policy (build one
// with Compose for multiple policies; pass Unit for none).
func NewTaintAnalyzer(policy PropagationPolicy) *TaintAnalyzer {
	if policy == nil {
		policy = Unit
	}
	return &TaintAnalyzer{policy: policy, storages: make(map[common.Address]*TaintableStorage)}
}

func (a *TaintAnalyzer) storageFor(addr common.Address) *TaintableStorage {
	s, ok := a.storages[addr]
	if !ok {
		s = NewTaintableStorage()
		a.storages[addr] = s
	}
	return s
}

func (a *TaintAnalyzer) current() *TaintTracker {
	if len(a.frames) == 0 {
		return nil
	}
	return a.frames[len(a.frames)-1]
}

// Transaction pushes the root call frame for the new transaction, bound to
// the callee's (or, for a create, a zero-address placeholder) storage.
func (a *TaintAnalyzer) Transaction(tx *spec.TxEnv, st *state.CachedState) bool {
	addr := tx.TransactTo.Addr
	root := NewTaintTracker(a.storageFor(addr))
	a.frames = []*TaintTracker{root}
	return true
}

func (a *TaintAnalyzer) TransactionEnd(tx *spec.TxEnv, st *state.CachedState, result any) {
	a.frames = nil
}

func isPush(op vm.OpCode) bool { return op >= vm.PUSH0 && op <= vm.PUSH32 }
func isDup(op vm.OpCode) bool  { return op >= vm.DUP1 && op <= vm.DUP16 }
func isSwap(op vm.OpCode) bool { return op >= vm.SWAP1 && op <= vm.SWAP16 }
func isCallFamily(op vm.OpCode) bool {
	switch op {
	case vm.CALL, vm.CALLCODE, vm.DELEGATECALL, vm.STATICCALL:
		return true
	}
	return false
}
func isCreateFamily(op vm.OpCode) bool { return op == vm.CREATE || op == vm.CREATE2 }

func (a *TaintAnalyzer) Step(data *inspector.StepData) {
	cur := a.current()
	if cur == nil {
		return
	}
	metrics.TaintStepsTotal.Inc(1)
	op := vm.OpCode(data.Op)
	if isCallFamily(op) || isCreateFamily(op) {
		// Stashed before the policy runs so a nested-call policy can seed it.
		cur.ChildCall = NewTaintableCall()
	}
	a.effects = a.policy.BeforeStep(cur, data)

	switch {
	case isPush(op), isDup(op), isSwap(op):
		// handled entirely in StepEnd; no real pop for any of these.
	case isCallFamily(op) || isCreateFamily(op):
		if isCallFamily(op) {
			retOffsetIdx, retLengthIdx := 5, 6
			if op == vm.DELEGATECALL || op == vm.STATICCALL {
				retOffsetIdx, retLengthIdx = 4, 5
			}
			cur.pendingRetOffset = AsInt(StackTop(data, retOffsetIdx))
			cur.pendingRetLength = AsInt(StackTop(data, retLengthIdx))
		}
		cur.Stack.Pop(StackDeltaPop(data.Op))
	default:
		cur.Stack.Pop(StackDeltaPop(data.Op))
	}
}

func (a *TaintAnalyzer) StepEnd(data *inspector.StepData) {
	cur := a.current()
	if cur == nil {
		return
	}
	op := vm.OpCode(data.Op)
	switch {
	case isPush(op):
		cur.Stack.Push(1, false)
	case isDup(op):
		n := int(op - vm.DUP1)
		cur.Stack.Push(1, cur.Stack.IsTainted(n))
	case isSwap(op):
		n := int(op-vm.SWAP1) + 1
		topTainted := cur.Stack.IsTainted(0)
		nthTainted := cur.Stack.IsTainted(n)
		if nthTainted {
			cur.Stack.Taint(0)
		} else {
			cur.Stack.Clean(0)
		}
		if topTainted {
			cur.Stack.Taint(n)
		} else {
			cur.Stack.Clean(n)
		}
	default:
		cur.Stack.Push(StackDeltaPush(data.Op), false)
	}

	for depth := 0; depth < len(a.effects); depth++ {
		eff := a.effects[len(a.effects)-1-depth]
		if eff == nil {
			continue
		}
		if *eff {
			cur.Stack.Taint(depth)
		} else {
			cur.Stack.Clean(depth)
		}
	}

	a.policy.AfterStep(cur, data)
}

// Call pushes a fresh frame for the callee, bound to the callee's
// (CodeAddress's) per-process storage map and seeded by the parent's
// ChildCall, per spec.md §4.6's "Frame stack" paragraph.
func (a *TaintAnalyzer) Call(inputs *inspector.CallInputs) *inspector.CallOutcome {
	parent := a.current()
	if parent == nil {
		return nil
	}
	child := parent.ChildCall
	if child == nil {
		child = NewTaintableCall()
	}
	frame := NewTaintTracker(a.storageFor(inputs.CodeAddress))
	frame.Call = child
	a.frames = append(a.frames, frame)
	return nil
}

// CallEnd pops the callee's frame, derives the call-success taint solely
// from the callee's return-data taint (spec.md §9 Open Question (b),
// resolved in DESIGN.md: a revert reason is just more return data under
// this model, so no separate signal is needed), and writes it onto the
// parent's stack top and output-copy memory region.
func (a *TaintAnalyzer) CallEnd(inputs *inspector.CallInputs, outcome inspector.CallOutcome) inspector.CallOutcome {
	if len(a.frames) == 0 {
		return outcome
	}
	child := a.frames[len(a.frames)-1]
	a.frames = a.frames[:len(a.frames)-1]

	parent := a.current()
	if parent == nil {
		return outcome
	}
	returnTainted := child.Call.ReturnData.IsTainted(0, len(outcome.Output))
	child.Call.Status = returnTainted
	parent.ChildCall = child.Call

	if returnTainted {
		parent.Stack.Taint(0)
		if parent.pendingRetLength > 0 {
			parent.Memory.Taint(parent.pendingRetOffset, parent.pendingRetLength)
		}
	} else {
		parent.Stack.Clean(0)
	}
	return outcome
}

// Create mirrors Call for CREATE/CREATE2, except that the child frame gets a
// fresh storage taint map that is not registered under any address: taint
// analysis doesn't depend on the created address, and the map is dropped
// once the frame is popped.
func (a *TaintAnalyzer) Create(inputs *inspector.CreateInputs) *inspector.CreateOutcome {
	parent := a.current()
	if parent == nil {
		return nil
	}
	child := parent.ChildCall
	if child == nil {
		child = NewTaintableCall()
	}
	frame := NewTaintTracker(NewTaintableStorage())
	frame.Call = child
	a.frames = append(a.frames, frame)
	return nil
}

func (a *TaintAnalyzer) CreateEnd(inputs *inspector.CreateInputs, outcome inspector.CreateOutcome) inspector.CreateOutcome {
	if len(a.frames) == 0 {
		return outcome
	}
	child := a.frames[len(a.frames)-1]
	a.frames = a.frames[:len(a.frames)-1]

	parent := a.current()
	if parent == nil {
		return outcome
	}
	// CREATE*'s single result slot is the created address (or zero on
	// failure), never tainted by this analysis: address generation is
	// deterministic from the sender/nonce or sender/salt/init-code-hash,
	// none of which this model treats as a taint source.
	parent.Stack.Clean(0)
	parent.ChildCall = child.Call
	return outcome
}

func (a *TaintAnalyzer) SelfDestruct(contract, beneficiary common.Address, value *uint256.Int) {}
