package collateral

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/sofl-go/sofl/inspector"
)

// CodeLookup is the minimal capability ExtractInvocation needs from a
// state: "does this address currently have code". *state.CachedState
// satisfies this via its GetCodeSize method (spec.md §4.1).
type CodeLookup interface {
	GetCodeSize(addr common.Address) int
}

// ExtractInvocation collects the set of code addresses invoked by message
// calls during a transaction, filtering out calls to addresses with no code
// (plain EOA/native-asset transfers) — spec.md §4.8, end-to-end test 5.
//
// A CallInputs carries no state access of its own, so ExtractInvocation is
// constructed with a CodeLookup bound to the state the transaction runs
// against. Addresses created earlier in the same transaction are tracked
// locally from CreateEnd, since they would not yet appear in a CodeLookup
// snapshot taken before the transaction started.
type ExtractInvocation struct {
	inspector.Noop

	code          CodeLookup
	createdThisTx map[common.Address]struct{}
	invoked       map[common.Address]struct{}
	order         []common.Address
}

func NewExtractInvocation(code CodeLookup) *ExtractInvocation {
	return &ExtractInvocation{
		code:          code,
		createdThisTx: make(map[common.Address]struct{}),
		invoked:       make(map[common.Address]struct{}),
	}
}

func (e *ExtractInvocation) CreateEnd(_ *inspector.CreateInputs, outcome inspector.CreateOutcome) inspector.CreateOutcome {
	if outcome.Success && outcome.Address != nil {
		e.createdThisTx[*outcome.Address] = struct{}{}
	}
	return outcome
}

func (e *ExtractInvocation) Call(inputs *inspector.CallInputs) *inspector.CallOutcome {
	addr := inputs.CodeAddress
	if _, ok := e.invoked[addr]; ok {
		return nil
	}
	_, justCreated := e.createdThisTx[addr]
	hasCode := justCreated || (e.code != nil && e.code.GetCodeSize(addr) > 0)
	if hasCode {
		e.invoked[addr] = struct{}{}
		e.order = append(e.order, addr)
	}
	return nil
}

// Addresses returns every invoked code address, in first-seen order.
func (e *ExtractInvocation) Addresses() []common.Address {
	out := make([]common.Address, len(e.order))
	copy(out, e.order)
	return out
}

var _ inspector.Inspector = (*ExtractInvocation)(nil)
