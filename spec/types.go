// Package spec implements the immutable transition spec and its builder
// (spec.md §4.2): CfgEnv, BlockEnv, TxEnv, and the TransitionSpec they
// compose into. Hardfork resolution (SpecID) is adapted from the teacher's
// core/vm/spec.go fork cascade, generalized from a REVM FFI integer to
// go-ethereum's own params.Rules.
package spec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// CreateScheme distinguishes CREATE from CREATE2, per spec.md §3's TxEnv.
type CreateScheme struct {
	Create2 bool
	Salt    *big.Int // only meaningful when Create2 is true
}

// TransactTo is the sum type `Call(addr) | Create(scheme)` from spec.md §3.
// Exactly one of Addr/Scheme is meaningful, discriminated by IsCreate.
type TransactTo struct {
	IsCreate bool
	Addr     common.Address
	Scheme   CreateScheme
}

func Call(addr common.Address) TransactTo   { return TransactTo{Addr: addr} }
func Create(scheme CreateScheme) TransactTo { return TransactTo{IsCreate: true, Scheme: scheme} }

// CfgEnv is spec.md §3's CfgEnv: chain id, hardfork spec id, memory limit,
// and the six simulation policy toggles.
type CfgEnv struct {
	ChainID     uint64
	SpecID      uint8
	MemoryLimit uint64 // bytes; 0 means "use go-ethereum's default"

	DisableBalanceCheck  bool
	DisableBaseFee       bool
	DisableBlockGasLimit bool
	DisableEIP3607       bool
	DisableGasRefund     bool
	DisableNonceCheck    bool
}

// BlockEnv is spec.md §3's BlockEnv.
type BlockEnv struct {
	Number     uint64
	Timestamp  uint64
	Coinbase   common.Address
	Difficulty *big.Int // pre-merge PoW difficulty
	PrevRandao common.Hash // post-merge RANDAO output; zero if pre-merge
	BaseFee    *big.Int
	GasLimit   uint64

	BlobBaseFee *big.Int
	ExcessBlobGas *uint64
}

// TxEnv is spec.md §3's TxEnv.
type TxEnv struct {
	Caller     common.Address
	GasLimit   uint64
	GasPrice   *big.Int
	TransactTo TransactTo
	Value      *big.Int
	Data       []byte
	Nonce      uint64
	ChainID    *big.Int

	AccessList types.AccessList

	PriorityFee      *big.Int
	BlobHashes       []common.Hash
	MaxFeePerBlobGas *big.Int
}

// TransitionSpec is spec.md §3's immutable { cfg, block, txs } triple: built
// once by a Builder, consumed once by the transition driver, never mutated
// by the driver.
type TransitionSpec struct {
	Cfg   CfgEnv
	Block BlockEnv
	Txs   []TxEnv
}
