package collateral

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/sofl-go/sofl/inspector"
)

// ResultClass classifies how a call/create frame finished, the
// classification CallExtract records per spec.md §4.8's "result
// classification".
type ResultClass int

const (
	ResultSuccess ResultClass = iota
	ResultFailure
)

// CallRecord is the full per-call metadata spec.md §4.8 names: context
// (caller/callee/code address/static-ness), value, input, output, gas, and
// a result classification. IsCreate distinguishes a CREATE/CREATE2 frame
// (Callee is the resulting contract address when successful) from a
// message call.
type CallRecord struct {
	Caller      common.Address
	Callee      common.Address
	CodeAddress common.Address
	IsStatic    bool
	IsCreate    bool

	Value    *uint256.Int
	Input    []byte
	Output   []byte
	GasLimit uint64

	Result ResultClass
}

// CallExtract collects one CallRecord per call/create frame observed
// during a transaction, optionally filtered to frames whose Callee (for
// calls) or resulting contract (for creates) matches Target (spec.md
// §4.8). A nil Target records every frame.
//
// Frames are correlated LIFO: Call/Create pushes a record, CallEnd/
// CreateEnd pops and completes the most recently pushed one still open —
// sound because a nested call's End always fires before its parent's,
// mirroring ordinary call/return nesting.
type CallExtract struct {
	inspector.Noop

	Target *common.Address

	open    []*CallRecord
	records []*CallRecord
}

func NewCallExtract(target *common.Address) *CallExtract {
	return &CallExtract{Target: target}
}

func (e *CallExtract) matches(addr common.Address) bool {
	return e.Target == nil || *e.Target == addr
}

func (e *CallExtract) Call(inputs *inspector.CallInputs) *inspector.CallOutcome {
	rec := &CallRecord{
		Caller:      inputs.Caller,
		Callee:      inputs.Callee,
		CodeAddress: inputs.CodeAddress,
		IsStatic:    inputs.IsStatic,
		Value:       inputs.ApparentValue,
		Input:       inputs.Input,
		GasLimit:    inputs.GasLimit,
	}
	e.open = append(e.open, rec)
	return nil
}

func (e *CallExtract) CallEnd(_ *inspector.CallInputs, outcome inspector.CallOutcome) inspector.CallOutcome {
	e.closeTop(outcome.Success, outcome.Output, e.matchesCallTarget)
	return outcome
}

func (e *CallExtract) matchesCallTarget(rec *CallRecord) bool { return e.matches(rec.Callee) }

func (e *CallExtract) Create(inputs *inspector.CreateInputs) *inspector.CreateOutcome {
	rec := &CallRecord{
		Caller:   inputs.Caller,
		IsCreate: true,
		Value:    inputs.Value,
		Input:    inputs.InitCode,
		GasLimit: inputs.GasLimit,
	}
	e.open = append(e.open, rec)
	return nil
}

func (e *CallExtract) CreateEnd(_ *inspector.CreateInputs, outcome inspector.CreateOutcome) inspector.CreateOutcome {
	e.closeTop(outcome.Success, outcome.Output, func(rec *CallRecord) bool {
		if outcome.Address != nil {
			rec.Callee = *outcome.Address
			rec.CodeAddress = *outcome.Address
		}
		return e.matches(rec.Callee)
	})
	return outcome
}

// closeTop pops the innermost open frame, fills in its outcome, evaluates
// match against the (possibly now address-completed) record, and appends
// it to records iff it matches the target filter.
func (e *CallExtract) closeTop(success bool, output []byte, match func(*CallRecord) bool) {
	n := len(e.open)
	if n == 0 {
		return
	}
	rec := e.open[n-1]
	e.open = e.open[:n-1]

	rec.Output = output
	if success {
		rec.Result = ResultSuccess
	} else {
		rec.Result = ResultFailure
	}

	if match(rec) {
		e.records = append(e.records, rec)
	}
}

// Records returns every matched CallRecord, in completion order (innermost
// frames first, since a frame is recorded when it closes).
func (e *CallExtract) Records() []CallRecord {
	out := make([]CallRecord, len(e.records))
	for i, r := range e.records {
		out[i] = *r
	}
	return out
}

var _ inspector.Inspector = (*CallExtract)(nil)
