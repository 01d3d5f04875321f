package taint

import "github.com/ethereum/go-ethereum/common"

// TaintableStorage is a per-address slot-taint map, mirroring
// original_source/crates/analysis/src/taint/storage.rs. One instance lives
// per contract address for the lifetime of the TaintAnalyzer (it is not
// reset between transactions), shared by every call frame that re-enters
// that address (see the frame stack in analyzer.go).
type TaintableStorage struct {
	slots map[common.Hash]bool
}

// NewTaintableStorage constructs an empty slot-taint map.
func NewTaintableStorage() *TaintableStorage {
	return &TaintableStorage{slots: make(map[common.Hash]bool)}
}

// Taint marks a slot as tainted.
func (s *TaintableStorage) Taint(slot common.Hash) {
	if s.slots == nil {
		s.slots = make(map[common.Hash]bool)
	}
	s.slots[slot] = true
}

// Clean marks a slot as clean.
func (s *TaintableStorage) Clean(slot common.Hash) {
	if s.slots == nil {
		s.slots = make(map[common.Hash]bool)
	}
	s.slots[slot] = false
}

// IsTainted reports a slot's taint, defaulting to clean when never touched.
func (s *TaintableStorage) IsTainted(slot common.Hash) bool {
	return s.slots[slot]
}
