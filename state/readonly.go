package state

import (
	"github.com/ethereum/go-ethereum/common"
)

// ReadOnlyRef is the bottom layer of the state stack (spec.md §4.1): a
// read-only source of basic account info, code, storage and block hashes. Implementations are sourced from an external BcProvider — an
// archival database adapter or a JSON-RPC adapter, both out of scope for
// this module (spec.md §1) — or, for tests, MemoryReadOnlyRef below.
//
// "Absent" and "failed" are distinct outcomes: a missing account or storage
// slot is a normal, successful answer (nil / zero value, nil error); only a
// genuine data-source failure (a DB error, a dropped RPC connection) is
// reported as an error.
type ReadOnlyRef interface {
	// BasicAccount returns the account's info, or nil if the account does
	// not exist.
	BasicAccount(addr common.Address) (*AccountInfo, error)
	// CodeByHash returns the code for a given hash, or nil if unknown. The
	// empty-code hash always answers with an empty, non-nil slice.
	CodeByHash(hash common.Hash) ([]byte, error)
	// StorageAt returns the value at (addr, slot), or the zero hash if the
	// slot was never written.
	StorageAt(addr common.Address, slot common.Hash) (common.Hash, error)
	// BlockHash returns the hash of the given block number, for BLOCKHASH.
	BlockHash(number uint64) (common.Hash, error)
}

// MemoryReadOnlyRef is a fixed, in-memory ReadOnlyRef, useful for tests and
// for synthetic states that are not backed by a real archive or RPC
// endpoint. It never fails; every miss is a plain absence.
type MemoryReadOnlyRef struct {
	accounts map[common.Address]AccountInfo
	codes    map[common.Hash][]byte
	storage  map[common.Address]map[common.Hash]common.Hash
	blocks   map[uint64]common.Hash
}

func NewMemoryReadOnlyRef() *MemoryReadOnlyRef {
	return &MemoryReadOnlyRef{
		accounts: make(map[common.Address]AccountInfo),
		codes:    make(map[common.Hash][]byte),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		blocks:   make(map[uint64]common.Hash),
	}
}

// SetAccount seeds an account's basic info. If info.Code is non-empty, its
// code is also registered under info.CodeHash.
func (m *MemoryReadOnlyRef) SetAccount(addr common.Address, info AccountInfo) {
	m.accounts[addr] = info
	if !info.Code.Empty() {
		m.codes[info.CodeHash] = info.Code.Raw()
	}
}

func (m *MemoryReadOnlyRef) SetStorage(addr common.Address, slot, value common.Hash) {
	if m.storage[addr] == nil {
		m.storage[addr] = make(map[common.Hash]common.Hash)
	}
	m.storage[addr][slot] = value
}

func (m *MemoryReadOnlyRef) SetBlockHash(number uint64, hash common.Hash) {
	m.blocks[number] = hash
}

func (m *MemoryReadOnlyRef) BasicAccount(addr common.Address) (*AccountInfo, error) {
	info, ok := m.accounts[addr]
	if !ok {
		return nil, nil
	}
	clone := info.clone()
	return &clone, nil
}

func (m *MemoryReadOnlyRef) CodeByHash(hash common.Hash) ([]byte, error) {
	if hash == KeccakEmpty {
		return []byte{}, nil
	}
	return m.codes[hash], nil
}

func (m *MemoryReadOnlyRef) StorageAt(addr common.Address, slot common.Hash) (common.Hash, error) {
	slots, ok := m.storage[addr]
	if !ok {
		return common.Hash{}, nil
	}
	return slots[slot], nil
}

func (m *MemoryReadOnlyRef) BlockHash(number uint64) (common.Hash, error) {
	return m.blocks[number], nil
}
