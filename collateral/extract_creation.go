// Package collateral implements the three reference inspectors of
// spec.md §4.8: straightforward overlays on the Inspector capability set
// (C4) that extract the "collateral knowledge" a caller typically wants out
// of a transaction's execution — which contracts it created, which code
// addresses it invoked, and per-call metadata — grounded on
// original_source/crates/knowledge/index/src/inspectors/{extract_creation,
// extract_invocation}.rs.
package collateral

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/sofl-go/sofl/inspector"
)

// CreationRecord is one entry ExtractCreation collects: an address that was
// created during the transaction, and whether it was later self-destructed
// within the same transaction.
type CreationRecord struct {
	Address   common.Address
	Destroyed bool
}

// ExtractCreation collects (address, destroyed) pairs for every successful
// CREATE/CREATE2 and every self-destruct observed during a transaction
// (spec.md §4.8). Embedding inspector.Noop gives every hook but
// CreateEnd/SelfDestruct a no-op default.
type ExtractCreation struct {
	inspector.Noop

	records []CreationRecord
	index   map[common.Address]int
}

func NewExtractCreation() *ExtractCreation {
	return &ExtractCreation{index: make(map[common.Address]int)}
}

// CreateEnd records a successful creation's address. "Successful" here
// means Success is set and the outcome carries a non-nil Address —
// CreateOutcome.Success with
// a nil Address (possible for some Halt/Revert classifications) is not a
// creation.
func (e *ExtractCreation) CreateEnd(_ *inspector.CreateInputs, outcome inspector.CreateOutcome) inspector.CreateOutcome {
	if outcome.Success && outcome.Address != nil {
		e.index[*outcome.Address] = len(e.records)
		e.records = append(e.records, CreationRecord{Address: *outcome.Address})
	}
	return outcome
}

// SelfDestruct marks contract as destroyed if it was created earlier in
// this transaction, and otherwise records a fresh destroyed-only entry —
// the contract may have been created in a prior transaction and only
// destroyed in this one, which is still collateral knowledge worth
// reporting.
func (e *ExtractCreation) SelfDestruct(contract, _ common.Address, _ *uint256.Int) {
	if i, ok := e.index[contract]; ok {
		e.records[i].Destroyed = true
		return
	}
	e.index[contract] = len(e.records)
	e.records = append(e.records, CreationRecord{Address: contract, Destroyed: true})
}

// Records returns every (address, destroyed) pair collected so far, in
// observation order.
func (e *ExtractCreation) Records() []CreationRecord {
	out := make([]CreationRecord, len(e.records))
	copy(out, e.records)
	return out
}

var _ inspector.Inspector = (*ExtractCreation)(nil)
