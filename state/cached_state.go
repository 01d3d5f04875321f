package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"

	"github.com/sofl-go/sofl/internal/metrics"
)

// accountEntry is the mutable per-address record kept in a CachedState
// overlay. It is created lazily on first touch; addresses never touched in
// this layer simply fall through to the parent ReadOnlyRef.
type accountEntry struct {
	info  AccountInfo
	exist bool // false means "known not to exist" (e.g. after a finalized self-destruct)

	createdThisTx  bool // set by CreateContract; governs EIP-6780 behavior
	selfDestructed bool

	// storageDirty holds slots written in this layer; storageOriginal
	// memoizes values fetched from the parent so repeated reads of the
	// same slot don't re-traverse the layer stack.
	storageDirty    map[common.Hash]common.Hash
	storageOriginal map[common.Hash]common.Hash
}

func newAccountEntry() *accountEntry {
	return &accountEntry{
		storageDirty:    make(map[common.Hash]common.Hash),
		storageOriginal: make(map[common.Hash]common.Hash),
	}
}

// CachedState is the copy-on-write middle layer of the state stack
// (spec.md §4.1). It implements both ReadOnlyRef (so it can itself serve as
// the bottom layer of a forked CachedState, i.e. a ForkedView) and
// go-ethereum's real core/vm.StateDB, so it can be handed directly to
// vm.NewEVM without any translation layer.
//
// CachedState has exclusive-owner semantics: the spec.md §5 concurrency
// model forbids concurrent mutators, so this type does not synchronize
// internally; callers that need to share a read-only snapshot across
// goroutines should fork instead of sharing a single *CachedState.
type CachedState struct {
	parent ReadOnlyRef

	accounts map[common.Address]*accountEntry
	codes    map[common.Hash][]byte

	accessAddrs map[common.Address]struct{}
	accessSlots map[common.Address]map[common.Hash]struct{}

	transient map[common.Address]map[common.Hash]common.Hash

	refund uint64
	logs   []*types.Log

	journal []func()
}

// NewCachedState builds a fresh overlay over the given ReadOnlyRef.
func NewCachedState(parent ReadOnlyRef) *CachedState {
	return &CachedState{
		parent:      parent,
		accounts:    make(map[common.Address]*accountEntry),
		codes:       make(map[common.Hash][]byte),
		accessAddrs: make(map[common.Address]struct{}),
		accessSlots: make(map[common.Address]map[common.Hash]struct{}),
		transient:   make(map[common.Address]map[common.Hash]common.Hash),
	}
}

// Fork constructs a CachedState whose ReadOnlyRef is this CachedState,
// sharing the parent by read-only handle rather than deep-copying it
// (spec.md §4.1 "Forking"). Used both for the ephemeral ForkedView
// (dry-run) and for the transition driver's per-transaction scratch layer.
func (s *CachedState) Fork() *CachedState {
	return NewCachedState(s)
}

// ---------------------------------------------------------------------
// internal account/storage lookups
// ---------------------------------------------------------------------

// load returns the entry for addr, creating one from the parent layer if
// this is the first touch. It never marks the layer dirty by itself.
func (s *CachedState) load(addr common.Address) *accountEntry {
	if e, ok := s.accounts[addr]; ok {
		return e
	}
	e := newAccountEntry()
	base, err := s.parent.BasicAccount(addr)
	if err != nil {
		log.Error("state: bottom provider failed reading account", "addr", addr, "err", err)
	}
	metrics.StateReadMisses.Inc(1)
	if base != nil {
		e.info = *base
		e.exist = true
	} else {
		e.info = emptyAccountInfo()
		e.exist = false
	}
	s.accounts[addr] = e
	return e
}

func (s *CachedState) storageAt(e *accountEntry, addr common.Address, slot common.Hash) common.Hash {
	if v, ok := e.storageDirty[slot]; ok {
		return v
	}
	if v, ok := e.storageOriginal[slot]; ok {
		return v
	}
	v, err := s.parent.StorageAt(addr, slot)
	if err != nil {
		log.Error("state: bottom provider failed reading storage", "addr", addr, "slot", slot, "err", err)
	}
	metrics.StateStorageMisses.Inc(1)
	e.storageOriginal[slot] = v
	return v
}

// ---------------------------------------------------------------------
// ReadOnlyRef implementation (so a CachedState can itself be forked)
// ---------------------------------------------------------------------

func (s *CachedState) BasicAccount(addr common.Address) (*AccountInfo, error) {
	e := s.load(addr)
	if !e.exist {
		return nil, nil
	}
	info := e.info.clone()
	return &info, nil
}

func (s *CachedState) CodeByHash(hash common.Hash) ([]byte, error) {
	if hash == KeccakEmpty {
		return []byte{}, nil
	}
	if code, ok := s.codes[hash]; ok {
		return code, nil
	}
	return s.parent.CodeByHash(hash)
}

func (s *CachedState) StorageAt(addr common.Address, slot common.Hash) (common.Hash, error) {
	e := s.load(addr)
	return s.storageAt(e, addr, slot), nil
}

func (s *CachedState) BlockHash(number uint64) (common.Hash, error) {
	return s.parent.BlockHash(number)
}

// ---------------------------------------------------------------------
// Explicit mutation operations named in spec.md §4.1
// ---------------------------------------------------------------------

// InsertAccountInfo overwrites an account's basic info in this layer
// without going through the EVM, e.g. for genesis seeding or test setup.
func (s *CachedState) InsertAccountInfo(addr common.Address, info AccountInfo) {
	e := s.load(addr)
	e.info = info.clone()
	e.exist = true
	if !info.Code.Empty() {
		s.codes[info.CodeHash] = info.Code.Raw()
	}
}

// InsertAccountStorage sets a single storage slot in this layer.
func (s *CachedState) InsertAccountStorage(addr common.Address, slot, value common.Hash) {
	e := s.load(addr)
	e.storageDirty[slot] = value
}

// Diff exports every account touched in this layer as a StateChange. It is
// the StateChange the transition driver commits into the parent layer after
// executing one transaction in a scratch CachedState (spec.md §4.3).
func (s *CachedState) Diff() StateChange {
	sc := NewStateChange()
	for addr, e := range s.accounts {
		if len(e.storageDirty) == 0 && !accountTouchedBasic(e) {
			continue
		}
		ac := sc.entry(addr)
		ac.Info = e.info.clone()
		ac.Destroyed = e.selfDestructed
		ac.Created = e.createdThisTx
		for k, v := range e.storageDirty {
			ac.Storage[k] = v
		}
	}
	return sc
}

// accountTouchedBasic is used by Diff to decide whether an account with no
// storage writes still belongs in the change set (e.g. a plain balance
// transfer). It reports true for every account that exists in this layer or
// was created or self-destructed here; it does not compare against the
// parent, so an existing account that was only read is exported too, with
// its unchanged info.
func accountTouchedBasic(e *accountEntry) bool {
	return e.exist || e.selfDestructed || e.createdThisTx
}

// Commit atomically applies a StateChange to this layer (spec.md §4.1,
// §4.3). A failure partway through never happens: every field write below
// is an in-memory map assignment.
func (s *CachedState) Commit(sc StateChange) {
	for addr, ac := range sc.Accounts {
		if ac.Destroyed {
			gone := newAccountEntry()
			gone.info = emptyAccountInfo()
			s.accounts[addr] = gone
			continue
		}
		e := s.load(addr)
		e.info = ac.Info.clone()
		e.exist = true
		e.createdThisTx = false
		if !ac.Info.Code.Empty() {
			s.codes[ac.Info.CodeHash] = ac.Info.Code.Raw()
		}
		for k, v := range ac.Storage {
			e.storageDirty[k] = v
		}
	}
}

// ---------------------------------------------------------------------
// go-ethereum core/vm.StateDB implementation
// ---------------------------------------------------------------------

func (s *CachedState) CreateAccount(addr common.Address) {
	e := s.load(addr)
	prevExist, prevInfo := e.exist, e.info
	s.journal = append(s.journal, func() {
		e.exist, e.info = prevExist, prevInfo
	})
	balance := e.info.Balance
	e.info = emptyAccountInfo()
	e.info.Balance = balance
	e.exist = true
}

func (s *CachedState) CreateContract(addr common.Address) {
	e := s.load(addr)
	prev := e.createdThisTx
	s.journal = append(s.journal, func() { e.createdThisTx = prev })
	e.createdThisTx = true
}

func (s *CachedState) SubBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int {
	e := s.load(addr)
	prev := *e.info.Balance
	s.journal = append(s.journal, func() { e.info.Balance = &prev })
	newBal := new(uint256.Int).Sub(e.info.Balance, amount)
	e.info.Balance = newBal
	log.Trace("state: balance decreased", "addr", addr, "amount", amount, "reason", reason)
	return prev
}

func (s *CachedState) AddBalance(addr common.Address, amount *uint256.Int, reason tracing.BalanceChangeReason) uint256.Int {
	e := s.load(addr)
	prev := *e.info.Balance
	s.journal = append(s.journal, func() { e.info.Balance = &prev })
	newBal := new(uint256.Int).Add(e.info.Balance, amount)
	e.info.Balance = newBal
	e.exist = true
	log.Trace("state: balance increased", "addr", addr, "amount", amount, "reason", reason)
	return prev
}

func (s *CachedState) GetBalance(addr common.Address) *uint256.Int {
	return s.load(addr).info.Balance
}

func (s *CachedState) GetNonce(addr common.Address) uint64 {
	return s.load(addr).info.Nonce
}

func (s *CachedState) SetNonce(addr common.Address, nonce uint64, reason tracing.NonceChangeReason) {
	e := s.load(addr)
	prev := e.info.Nonce
	s.journal = append(s.journal, func() { e.info.Nonce = prev })
	e.info.Nonce = nonce
	e.exist = true
}

func (s *CachedState) GetCodeHash(addr common.Address) common.Hash {
	return s.load(addr).info.CodeHash
}

func (s *CachedState) GetCode(addr common.Address) []byte {
	e := s.load(addr)
	if !e.info.Code.Empty() {
		return e.info.Code.Raw()
	}
	code, _ := s.CodeByHash(e.info.CodeHash)
	return code
}

func (s *CachedState) GetCodeSize(addr common.Address) int {
	return len(s.GetCode(addr))
}

func (s *CachedState) SetCode(addr common.Address, code []byte) {
	e := s.load(addr)
	prevHash, prevCode := e.info.CodeHash, e.info.Code
	s.journal = append(s.journal, func() { e.info.CodeHash, e.info.Code = prevHash, prevCode })
	hash := codeHash(code)
	e.info.CodeHash = hash
	e.info.Code = NewBytecode(code)
	e.exist = true
	s.codes[hash] = code
}

func (s *CachedState) AddRefund(gas uint64) {
	prev := s.refund
	s.journal = append(s.journal, func() { s.refund = prev })
	s.refund += gas
}

func (s *CachedState) SubRefund(gas uint64) {
	prev := s.refund
	s.journal = append(s.journal, func() { s.refund = prev })
	if gas > s.refund {
		panic("state: refund counter went negative")
	}
	s.refund -= gas
}

func (s *CachedState) GetRefund() uint64 { return s.refund }

func (s *CachedState) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	e := s.load(addr)
	if v, ok := e.storageOriginal[key]; ok {
		return v
	}
	v, err := s.parent.StorageAt(addr, key)
	if err != nil {
		log.Error("state: bottom provider failed reading committed storage", "addr", addr, "key", key, "err", err)
	}
	e.storageOriginal[key] = v
	return v
}

func (s *CachedState) GetState(addr common.Address, key common.Hash) common.Hash {
	e := s.load(addr)
	return s.storageAt(e, addr, key)
}

func (s *CachedState) SetState(addr common.Address, key, value common.Hash) common.Hash {
	e := s.load(addr)
	prev := s.storageAt(e, addr, key)
	s.journal = append(s.journal, func() { e.storageDirty[key] = prev })
	e.storageDirty[key] = value
	return prev
}

func (s *CachedState) GetStorageRoot(addr common.Address) common.Hash {
	// This module never computes Merkle commitments (spec.md §1
	// Non-goals: "does not itself ... persist anything"); callers that
	// need a storage root should do so against the ReadOnlyRef's backing
	// archive directly.
	return common.Hash{}
}

func (s *CachedState) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	return s.transient[addr][key]
}

func (s *CachedState) SetTransientState(addr common.Address, key, value common.Hash) {
	prev, had := s.transient[addr][key]
	s.journal = append(s.journal, func() {
		if had {
			s.transient[addr][key] = prev
		} else if s.transient[addr] != nil {
			delete(s.transient[addr], key)
		}
	})
	if s.transient[addr] == nil {
		s.transient[addr] = make(map[common.Hash]common.Hash)
	}
	s.transient[addr][key] = value
}

func (s *CachedState) SelfDestruct(addr common.Address) uint256.Int {
	e := s.load(addr)
	prevBal, prevFlag := *e.info.Balance, e.selfDestructed
	s.journal = append(s.journal, func() { e.info.Balance = &prevBal; e.selfDestructed = prevFlag })
	e.selfDestructed = true
	e.info.Balance = new(uint256.Int)
	return prevBal
}

func (s *CachedState) HasSelfDestructed(addr common.Address) bool {
	if e, ok := s.accounts[addr]; ok {
		return e.selfDestructed
	}
	return false
}

// Selfdestruct6780 implements EIP-6780: an account is only fully destroyed
// if it was also created within the current transaction; otherwise its
// balance is zeroed (the caller is expected to have already moved the
// funds to the beneficiary) but the account row survives.
func (s *CachedState) Selfdestruct6780(addr common.Address) (uint256.Int, bool) {
	e := s.load(addr)
	if !e.createdThisTx {
		prevBal := *e.info.Balance
		s.journal = append(s.journal, func() { e.info.Balance = &prevBal })
		e.info.Balance = new(uint256.Int)
		return prevBal, false
	}
	bal := s.SelfDestruct(addr)
	return bal, true
}

func (s *CachedState) Exist(addr common.Address) bool {
	return s.load(addr).exist
}

func (s *CachedState) Empty(addr common.Address) bool {
	e := s.load(addr)
	return !e.exist || e.info.Empty()
}

func (s *CachedState) AddressInAccessList(addr common.Address) bool {
	_, ok := s.accessAddrs[addr]
	return ok
}

func (s *CachedState) SlotInAccessList(addr common.Address, slot common.Hash) (addrOk bool, slotOk bool) {
	addrOk = s.AddressInAccessList(addr)
	if slots, ok := s.accessSlots[addr]; ok {
		_, slotOk = slots[slot]
	}
	return
}

func (s *CachedState) AddAddressToAccessList(addr common.Address) {
	if _, ok := s.accessAddrs[addr]; ok {
		return
	}
	s.journal = append(s.journal, func() { delete(s.accessAddrs, addr) })
	s.accessAddrs[addr] = struct{}{}
}

func (s *CachedState) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	s.AddAddressToAccessList(addr)
	if s.accessSlots[addr] == nil {
		s.accessSlots[addr] = make(map[common.Hash]struct{})
	}
	if _, ok := s.accessSlots[addr][slot]; ok {
		return
	}
	s.journal = append(s.journal, func() { delete(s.accessSlots[addr], slot) })
	s.accessSlots[addr][slot] = struct{}{}
}

// Prepare primes the access list the way EIP-2929/2930/3651 require: the
// sender, the destination (if any), the precompiles, and the entries of the
// transaction's access list are all warmed up-front; under EIP-3651 the
// coinbase is warmed too. We warm the coinbase unconditionally — a harmless
// over-approximation pre-3651 since the access list only affects gas
// accounting for cold vs. warm access, not correctness of this module.
func (s *CachedState) Prepare(rules params.Rules, sender, coinbase common.Address, dest *common.Address, precompiles []common.Address, txAccesses types.AccessList) {
	s.AddAddressToAccessList(sender)
	s.AddAddressToAccessList(coinbase)
	if dest != nil {
		s.AddAddressToAccessList(*dest)
	}
	for _, p := range precompiles {
		s.AddAddressToAccessList(p)
	}
	for _, al := range txAccesses {
		s.AddAddressToAccessList(al.Address)
		for _, key := range al.StorageKeys {
			s.AddSlotToAccessList(al.Address, key)
		}
	}
}

func (s *CachedState) RevertToSnapshot(id int) {
	for i := len(s.journal) - 1; i >= id; i-- {
		s.journal[i]()
	}
	s.journal = s.journal[:id]
}

func (s *CachedState) Snapshot() int { return len(s.journal) }

func (s *CachedState) AddLog(l *types.Log) {
	s.journal = append(s.journal, func() { s.logs = s.logs[:len(s.logs)-1] })
	s.logs = append(s.logs, l)
}

func (s *CachedState) AddPreimage(hash common.Hash, preimage []byte) {
	// This module never persists preimages (spec.md §1 Non-goals); the
	// hook exists only because older go-ethereum StateDB implementations
	// carried it.
}

// Logs returns the logs recorded so far in this layer, in emission order.
func (s *CachedState) Logs() []*types.Log { return s.logs }

func codeHash(code []byte) common.Hash {
	if len(code) == 0 {
		return KeccakEmpty
	}
	return crypto.Keccak256Hash(code)
}
