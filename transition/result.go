package transition

import (
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
)

// ExecutionResult is spec.md §3's three-variant result: exactly one of the
// Success/Revert/Halt accessors is meaningful, discriminated by Kind.
type ExecutionResult struct {
	Kind ResultKind

	GasUsed     uint64
	GasRefunded uint64 // Success only
	Logs        []*types.Log // Success only
	Output      []byte       // Success and Revert
	HaltReason  string       // Halt only
}

type ResultKind int

const (
	KindSuccess ResultKind = iota
	KindRevert
	KindHalt
)

func (r ExecutionResult) IsSuccess() bool { return r.Kind == KindSuccess }
func (r ExecutionResult) IsRevert() bool  { return r.Kind == KindRevert }
func (r ExecutionResult) IsHalt() bool    { return r.Kind == KindHalt }

// fromVMResult classifies a go-ethereum core.ExecutionResult (err + return
// data + gas accounting) into spec.md §3's three-variant result.
func fromVMResult(gasUsed, gasRefunded uint64, returnData []byte, vmErr error, logs []*types.Log) ExecutionResult {
	if vmErr == nil {
		return ExecutionResult{Kind: KindSuccess, GasUsed: gasUsed, GasRefunded: gasRefunded, Logs: logs, Output: returnData}
	}
	if vmErr == vm.ErrExecutionReverted {
		return ExecutionResult{Kind: KindRevert, GasUsed: gasUsed, Output: returnData}
	}
	if vmErr == vm.ErrDepth {
		return ExecutionResult{Kind: KindHalt, GasUsed: gasUsed, HaltReason: CallStackOverflow}
	}
	return ExecutionResult{Kind: KindHalt, GasUsed: gasUsed, HaltReason: vmErr.Error()}
}

// NotActivated is the Halt reason pushed when an Inspector's Transaction
// hook returns false (spec.md §4.3 step 1).
const NotActivated = "not_activated"

// CallStackOverflow is the Halt reason for go-ethereum's native
// vm.ErrDepth, renamed to match spec.md §4.7's "the 1025th push halts with
// an Exec failure reporting CallStackOverflow" — both the oracle driver and
// the resumable engine hit the same go-ethereum depth check (params.
// CallCreateDepth == 1024), so no separate limit needs reimplementing here.
const CallStackOverflow = "call_stack_overflow"
