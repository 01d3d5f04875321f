package taint

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/sofl-go/sofl/inspector"
	"github.com/sofl-go/sofl/taint/propagation"
)

func u256Stack(values ...uint64) []uint256.Int {
	out := make([]uint256.Int, len(values))
	for i, v := range values {
		out[i].SetUint64(v)
	}
	return out
}

// TestCallFrameReturnDataTaintsParent exercises spec.md §4.6's "Frame stack"
// paragraph end to end: a CALL whose calldata argument is tainted, a callee
// that copies its tainted calldata straight into its return data, and a
// caller whose post-call stack top and output-copy memory region both end
// up tainted as a result.
func TestCallFrameReturnDataTaintsParent(t *testing.T) {
	policy := Compose(propagation.CallPolicy{}, propagation.ExecutionPolicy{}, propagation.NestedCallPolicy{})
	a := newTestAnalyzer(policy)
	root := a.current()

	root.Memory.Taint(0, 32) // caller staged tainted call args at memory[0:32)

	// CALL(gas=0, addr=0, value=0, argsOffset=0, argsLength=32, retOffset=64,
	// retLength=32); StepData.Stack is bottom-to-top, so gas (the real top)
	// goes last and retLength (the real bottom of this group) goes first.
	callStep := &inspector.StepData{Op: byte(vm.CALL), Stack: u256Stack(32, 64, 32, 0, 0, 0, 0)}
	a.Step(callStep)
	require.NotNil(t, root.ChildCall)
	require.True(t, root.ChildCall.Calldata.IsTainted(0, 32), "calldata taint should seed from tainted caller memory")
	a.StepEnd(callStep)

	a.Call(&inspector.CallInputs{Callee: common.HexToAddress("0xbeef"), CodeAddress: common.HexToAddress("0xbeef")})
	child := a.current()
	require.Same(t, root.ChildCall, child.Call)

	// child: CALLDATACOPY(dest=0, offset=0, length=32) pulls the tainted
	// calldata into its own memory.
	copyStep := &inspector.StepData{Op: byte(vm.CALLDATACOPY), Stack: u256Stack(32, 0, 0)}
	a.Step(copyStep)
	a.StepEnd(copyStep)
	require.True(t, child.Memory.IsTainted(0, 32))

	// child: RETURN(offset=0, length=32).
	returnStep := &inspector.StepData{Op: byte(vm.RETURN), Stack: u256Stack(32, 0)}
	a.Step(returnStep)
	a.StepEnd(returnStep)
	require.True(t, child.Call.ReturnData.IsTainted(0, 32))

	a.CallEnd(nil, inspector.CallOutcome{Success: true, Output: make([]byte, 32)})

	require.Same(t, root, a.current())
	require.True(t, root.Stack.IsTainted(0), "call-success slot should inherit tainted return-data status")
	require.True(t, root.Memory.IsTainted(64, 32), "retOffset/retLength copy should land tainted data in the caller's memory")
}
