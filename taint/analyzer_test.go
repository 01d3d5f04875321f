package taint

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/sofl-go/sofl/inspector"
	"github.com/sofl-go/sofl/spec"
	"github.com/sofl-go/sofl/state"
	"github.com/sofl-go/sofl/taint/propagation"
)

func stepData(op vm.OpCode, stack ...uint64) *inspector.StepData {
	s := make([]uint256.Int, len(stack))
	for i, v := range stack {
		s[i].SetUint64(v)
	}
	return &inspector.StepData{Op: byte(op), Stack: s}
}

// runStep pushes pre-execution operands via stack (bottom-to-top order, the
// same convention as StepData.Stack).
func runStep(a *TaintAnalyzer, op vm.OpCode, stack ...uint64) {
	d := stepData(op, stack...)
	a.Step(d)
	a.StepEnd(d)
}

func newTestAnalyzer(policy PropagationPolicy) *TaintAnalyzer {
	a := NewTaintAnalyzer(policy)
	tx := &spec.TxEnv{TransactTo: spec.Call(common.HexToAddress("0xc0ffee"))}
	a.Transaction(tx, state.NewCachedState(state.NewMemoryReadOnlyRef()))
	return a
}

// test_arith from propagation/math.rs: CALLDATALOAD x; ADD x,1; result tainted.
func TestMathPolicyTaintsArithmeticResult(t *testing.T) {
	a := newTestAnalyzer(Compose(propagation.CallPolicy{}, propagation.MathPolicy{}))
	a.current().Call.Calldata.Taint(0, 32)

	runStep(a, vm.CALLDATALOAD, 0) // taints top-of-stack via CallPolicy
	require.True(t, a.current().Stack.IsTainted(0))

	runStep(a, vm.PUSH1, 1) // push clean literal "1"; stack: [1(clean), x(tainted)] top-first
	require.False(t, a.current().Stack.IsTainted(0))
	require.True(t, a.current().Stack.IsTainted(1))

	runStep(a, vm.ADD, 1, 0) // pops both, pushes tainted sum
	require.True(t, a.current().Stack.IsTainted(0))
}

// test_logic from propagation/math.rs: CALLDATALOAD x; XOR x,1; taints result.
func TestMathPolicyTaintsBitwiseResult(t *testing.T) {
	a := newTestAnalyzer(Compose(propagation.CallPolicy{}, propagation.MathPolicy{}))
	a.current().Call.Calldata.Taint(0, 32)

	runStep(a, vm.CALLDATALOAD, 0)
	runStep(a, vm.PUSH1, 1)
	runStep(a, vm.XOR, 1, 0)
	require.True(t, a.current().Stack.IsTainted(0))
}

// DUP/SWAP discipline: a tainted slot duplicated or swapped keeps its taint.
func TestStackDisciplineDupAndSwap(t *testing.T) {
	a := newTestAnalyzer(Unit)
	cur := a.current()
	cur.Stack.Push(1, false) // bottom: clean
	cur.Stack.Push(1, true)  // top: tainted -> stack (top-first): [tainted, clean]

	runStep(a, vm.DUP2) // duplicate the clean bottom slot onto the top
	require.False(t, a.current().Stack.IsTainted(0))
	require.True(t, a.current().Stack.IsTainted(1))

	runStep(a, vm.SWAP1)
	require.True(t, a.current().Stack.IsTainted(0))
	require.False(t, a.current().Stack.IsTainted(1))
}

// MSTORE/MLOAD round trip through tainted memory, grounded on
// propagation/execution.rs.
func TestExecutionPolicyMemoryRoundTrip(t *testing.T) {
	a := newTestAnalyzer(Compose(propagation.CallPolicy{}, propagation.ExecutionPolicy{}))
	a.current().Call.Calldata.Taint(0, 32)

	runStep(a, vm.CALLDATALOAD, 0) // taints stack top with calldata taint
	runStep(a, vm.PUSH1, 0)        // offset
	// stack before MSTORE (top-first): [offset(clean), value(tainted)];
	// StepData.Stack is bottom-to-top, so offset (the real top) goes last.
	runStep(a, vm.MSTORE, 1, 0)
	require.True(t, a.current().Memory.IsTainted(0, 32))

	runStep(a, vm.PUSH1, 0) // offset for MLOAD
	runStep(a, vm.MLOAD, 0)
	require.True(t, a.current().Stack.IsTainted(0))
}

// SLOAD/SSTORE round trip through per-address tainted storage.
func TestExecutionPolicyStorageRoundTrip(t *testing.T) {
	a := newTestAnalyzer(Compose(propagation.CallPolicy{}, propagation.ExecutionPolicy{}))
	a.current().Call.Calldata.Taint(0, 32)

	runStep(a, vm.CALLDATALOAD, 0)
	runStep(a, vm.PUSH1, 7) // key
	// StepData.Stack is bottom-to-top: key (the real top) goes last.
	runStep(a, vm.SSTORE, 1, 7)
	require.True(t, a.current().Storage.IsTainted(common.BigToHash(big.NewInt(7))))
}
