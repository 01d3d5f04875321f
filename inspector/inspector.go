// Package inspector implements the per-step/per-call/per-tx observation
// protocol of spec.md §4.4 as a Go capability set: every hook has a no-op
// default, composition is by wrapping two Inspectors in a Pair rather than
// by an inheritance chain (spec.md §9 "deep/virtual inheritance analog").
package inspector

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/sofl-go/sofl/spec"
	"github.com/sofl-go/sofl/state"
)

// StepData is the information available to Step/StepEnd: the current
// program counter, opcode, gas remaining, and the pre-dispatch stack/memory
// contents, mirroring what go-ethereum's tracing.Hooks.OnOpcode exposes.
type StepData struct {
	PC       uint64
	Op       byte
	Gas      uint64
	Cost     uint64
	Stack    []uint256.Int // bottom to top
	Memory   []byte
	Depth    int
	Err      error
}

// CallInputs is spec.md §3's CallInputs.
type CallInputs struct {
	Caller           common.Address
	Callee           common.Address
	CodeAddress      common.Address
	ApparentValue    *uint256.Int
	TransferredValue *uint256.Int
	Input            []byte
	GasLimit         uint64
	IsStatic         bool
}

// CreateInputs is spec.md §3's CreateInputs.
type CreateInputs struct {
	Caller   common.Address
	Scheme   spec.CreateScheme
	Value    *uint256.Int
	InitCode []byte
	GasLimit uint64
}

// CallOutcome is the result of a message call, in the vocabulary an
// Inspector.Call hook may short-circuit with and Inspector.CallEnd may
// rewrite.
type CallOutcome struct {
	Success      bool
	GasRemaining uint64
	Output       []byte
}

// CreateOutcome mirrors CallOutcome for CREATE/CREATE2, additionally
// carrying the resulting contract address on success.
type CreateOutcome struct {
	Success      bool
	GasRemaining uint64
	Output       []byte
	Address      *common.Address
}

// Inspector is the full capability set from spec.md §4.4. Embed Noop to get
// no-op defaults for hooks you don't need.
type Inspector interface {
	Step(data *StepData)
	StepEnd(data *StepData)

	// Call is consulted before entering a message call. Inside a Pair, a
	// non-nil returned outcome is returned without consulting the second
	// inspector; the transition driver's EVM bridge ignores the returned
	// outcome, so the call itself always runs.
	Call(inputs *CallInputs) *CallOutcome
	// CallEnd may rewrite the outcome produced by the call (or by a prior
	// inspector in a composition); later inspectors in a Pair see the
	// rewritten outcome, but it is not fed back into the EVM.
	CallEnd(inputs *CallInputs, outcome CallOutcome) CallOutcome

	Create(inputs *CreateInputs) *CreateOutcome
	CreateEnd(inputs *CreateInputs, outcome CreateOutcome) CreateOutcome

	SelfDestruct(contract, beneficiary common.Address, value *uint256.Int)

	// Transaction is the multi-tx pre-hook; returning false skips the tx
	// with a Halt{NotActivated} result and no state mutation.
	Transaction(tx *spec.TxEnv, st *state.CachedState) bool
	TransactionEnd(tx *spec.TxEnv, st *state.CachedState, result any)
}

// Noop is an Inspector whose every hook is a no-op. The zero value is ready
// to use; Shared below is a process-wide instance safe to hand out by
// reference since no hook mutates anything (spec.md §4.4, §5).
type Noop struct{}

func (Noop) Step(*StepData)    {}
func (Noop) StepEnd(*StepData) {}
func (Noop) Call(*CallInputs) *CallOutcome { return nil }
func (Noop) CallEnd(_ *CallInputs, outcome CallOutcome) CallOutcome { return outcome }
func (Noop) Create(*CreateInputs) *CreateOutcome { return nil }
func (Noop) CreateEnd(_ *CreateInputs, outcome CreateOutcome) CreateOutcome { return outcome }
func (Noop) SelfDestruct(common.Address, common.Address, *uint256.Int) {}
func (Noop) Transaction(*spec.TxEnv, *state.CachedState) bool { return true }
func (Noop) TransactionEnd(*spec.TxEnv, *state.CachedState, any) {}

// Shared is the process-wide no-op inspector singleton sanctioned by
// spec.md §5 — safe to share because Noop carries no state.
var Shared Inspector = Noop{}

// Pair composes two Inspectors left-to-right: I1's hook fires, then I2's,
// with call/create outcomes threaded so I2 observes whatever I1 produced
// (spec.md §4.4 "Composition").
type Pair struct {
	I1, I2 Inspector
}

func Compose(i1, i2 Inspector) Inspector { return Pair{I1: i1, I2: i2} }

func (p Pair) Step(data *StepData) {
	p.I1.Step(data)
	p.I2.Step(data)
}

func (p Pair) StepEnd(data *StepData) {
	p.I1.StepEnd(data)
	p.I2.StepEnd(data)
}

func (p Pair) Call(inputs *CallInputs) *CallOutcome {
	if out := p.I1.Call(inputs); out != nil {
		return out
	}
	return p.I2.Call(inputs)
}

func (p Pair) CallEnd(inputs *CallInputs, outcome CallOutcome) CallOutcome {
	outcome = p.I1.CallEnd(inputs, outcome)
	return p.I2.CallEnd(inputs, outcome)
}

func (p Pair) Create(inputs *CreateInputs) *CreateOutcome {
	if out := p.I1.Create(inputs); out != nil {
		return out
	}
	return p.I2.Create(inputs)
}

func (p Pair) CreateEnd(inputs *CreateInputs, outcome CreateOutcome) CreateOutcome {
	outcome = p.I1.CreateEnd(inputs, outcome)
	return p.I2.CreateEnd(inputs, outcome)
}

func (p Pair) SelfDestruct(contract, beneficiary common.Address, value *uint256.Int) {
	p.I1.SelfDestruct(contract, beneficiary, value)
	p.I2.SelfDestruct(contract, beneficiary, value)
}

func (p Pair) Transaction(tx *spec.TxEnv, st *state.CachedState) bool {
	ok1 := p.I1.Transaction(tx, st)
	ok2 := p.I2.Transaction(tx, st)
	return ok1 && ok2
}

func (p Pair) TransactionEnd(tx *spec.TxEnv, st *state.CachedState, result any) {
	p.I1.TransactionEnd(tx, st, result)
	p.I2.TransactionEnd(tx, st, result)
}

// Compose3 is a small convenience for the common three-inspector tuple
// (e.g. a taint tracker plus two collateral extractors); it is just nested
// Pair composition.
func Compose3(i1, i2, i3 Inspector) Inspector {
	return Compose(Compose(i1, i2), i3)
}
