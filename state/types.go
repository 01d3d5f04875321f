// Package state implements the layered account/storage/code database
// described in spec.md §3 and §4.1: a read-only bottom ReadOnlyRef,
// a copy-on-write CachedState overlay, and an ephemeral ForkedView used for
// dry-running a TransitionSpec. CachedState also implements go-ethereum's
// real core/vm.StateDB interface so it can be handed directly to
// vm.NewEVM — this module drives the oracle EVM in-process instead of
// bridging to it over cgo/FFI the way the teacher's revm_bridge did.
package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// KeccakEmpty is the code hash of an account with no code, matching
// go-ethereum's types.EmptyCodeHash.
var KeccakEmpty = common.Hash{0xc5, 0xd2, 0x46, 0x01, 0x86, 0xf7, 0x23, 0x3c, 0x92, 0x7e, 0x7d, 0xb2, 0xdc, 0xc7, 0x03, 0xc0, 0xe5, 0x00, 0xb6, 0x53, 0xca, 0x82, 0x27, 0x3b, 0x7b, 0xfa, 0xd8, 0x04, 0x5d, 0x85, 0xa4, 0x70}

// Bytecode is a raw byte sequence plus lazily computed jump-destination
// analysis metadata, per spec.md §3. Two Bytecode values with equal raw
// bytes are semantically equal regardless of whether either has been
// analyzed yet (the Equal method compares only Raw).
type Bytecode struct {
	raw       []byte
	analyzed  bool
	jumpdests []bool // jumpdests[pc] true iff pc is valid JUMPDEST, i.e. not inside PUSH data
}

// NewBytecode wraps raw bytecode without performing analysis; analysis is
// computed lazily on first IsJumpDest call.
func NewBytecode(raw []byte) Bytecode {
	return Bytecode{raw: raw}
}

func (b Bytecode) Raw() []byte { return b.raw }
func (b Bytecode) Len() int    { return len(b.raw) }
func (b Bytecode) Empty() bool { return len(b.raw) == 0 }

// Equal compares only raw bytes, per the invariant in spec.md §3.
func (b Bytecode) Equal(other Bytecode) bool {
	if len(b.raw) != len(other.raw) {
		return false
	}
	for i := range b.raw {
		if b.raw[i] != other.raw[i] {
			return false
		}
	}
	return true
}

const opJumpdest = 0x5b
const opPush1 = 0x60
const opPush32 = 0x7f

// analyze walks the bytecode once, skipping PUSH immediates, and records
// which offsets are valid jump destinations. This is the same linear-scan
// approach go-ethereum's own code-bitmap analysis uses, simplified to a
// plain []bool since we only need membership, not a packed bitmap.
func (b *Bytecode) analyze() {
	b.jumpdests = make([]bool, len(b.raw))
	for pc := 0; pc < len(b.raw); {
		op := b.raw[pc]
		if op == opJumpdest {
			b.jumpdests[pc] = true
			pc++
			continue
		}
		if op >= opPush1 && op <= opPush32 {
			pc += int(op-opPush1) + 2
			continue
		}
		pc++
	}
	b.analyzed = true
}

// IsJumpDest reports whether pc is a valid JUMPDEST, analyzing the code on
// first use and caching the result.
func (b *Bytecode) IsJumpDest(pc uint64) bool {
	if !b.analyzed {
		b.analyze()
	}
	return pc < uint64(len(b.jumpdests)) && b.jumpdests[pc]
}

// AccountInfo mirrors spec.md §3's AccountInfo: balance, nonce, code hash,
// and an optional code body. The invariant `code_hash == keccak256(code)`
// whenever Code is non-empty, and `code_hash == KeccakEmpty` otherwise, is
// maintained by CachedState.SetCode rather than enforced structurally here.
type AccountInfo struct {
	Balance  *uint256.Int
	Nonce    uint64
	CodeHash common.Hash
	Code     Bytecode // zero value (empty raw) means "no code known locally"
}

// Empty reports whether the account is EIP-161 empty: zero balance, zero
// nonce, no code.
func (a AccountInfo) Empty() bool {
	return a.Nonce == 0 && (a.Balance == nil || a.Balance.IsZero()) && a.CodeHash == KeccakEmpty
}

func emptyAccountInfo() AccountInfo {
	return AccountInfo{Balance: new(uint256.Int), CodeHash: KeccakEmpty}
}

func (a AccountInfo) clone() AccountInfo {
	out := a
	out.Balance = new(uint256.Int).Set(a.Balance)
	return out
}

// AccountChange is the delta recorded for a single account inside a
// StateChange: its final AccountInfo (always present, even for accounts
// that only had storage touched), the storage slots written, and whether
// the account was created or destroyed during the transaction.
type AccountChange struct {
	Info      AccountInfo
	Storage   map[common.Hash]common.Hash
	Created   bool
	Destroyed bool
}

// StateChange is the set of account deltas produced by executing one
// transaction (spec.md §3). It is applied atomically by CachedState.Commit.
type StateChange struct {
	Accounts map[common.Address]*AccountChange
}

func NewStateChange() StateChange {
	return StateChange{Accounts: make(map[common.Address]*AccountChange)}
}

func (sc StateChange) entry(addr common.Address) *AccountChange {
	ac, ok := sc.Accounts[addr]
	if !ok {
		ac = &AccountChange{Storage: make(map[common.Hash]common.Hash)}
		sc.Accounts[addr] = ac
	}
	return ac
}

// Empty reports whether the change set touches no accounts.
func (sc StateChange) Empty() bool { return len(sc.Accounts) == 0 }
