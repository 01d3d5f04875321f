package transition

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/consensus"
	"github.com/ethereum/go-ethereum/core"
	gethstate "github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/sofl-go/sofl/spec"
	"github.com/sofl-go/sofl/state"
)

// stubEngine is a minimal consensus.Engine used only to let
// core.NewEVMBlockContext assemble a vm.BlockContext when no real
// blockchain/consensus backend is present — this library never validates
// headers or mines blocks (spec.md §1 Non-goals). Adapted from the
// teacher's core/tx_executor.go stubEngine: every method is a no-op except
// Author, which echoes the header's coinbase.
type stubEngine struct{}

func (stubEngine) Author(h *types.Header) (common.Address, error) { return h.Coinbase, nil }
func (stubEngine) VerifyHeader(consensus.ChainHeaderReader, *types.Header) error { return nil }
func (stubEngine) VerifyHeaders(consensus.ChainHeaderReader, []*types.Header) (chan<- struct{}, <-chan error) {
	quit := make(chan struct{})
	results := make(chan error)
	go func() { <-quit; close(results) }()
	return quit, results
}
func (stubEngine) VerifyUncles(consensus.ChainReader, *types.Block) error { return nil }
func (stubEngine) Prepare(consensus.ChainHeaderReader, *types.Header) error { return nil }
func (stubEngine) Finalize(consensus.ChainHeaderReader, *types.Header, vm.StateDB, *[]*types.Transaction, []*types.Header, []*types.Withdrawal, *[]*types.Receipt, *[]*types.Transaction, *uint64, *tracing.Hooks) error {
	return nil
}
func (stubEngine) FinalizeAndAssemble(consensus.ChainHeaderReader, *types.Header, *gethstate.StateDB, *types.Body, []*types.Receipt) (*types.Block, []*types.Receipt, error) {
	return nil, nil, nil
}
func (stubEngine) Seal(consensus.ChainHeaderReader, *types.Block, chan<- *types.Block, <-chan struct{}) error {
	return nil
}
func (stubEngine) SealHash(*types.Header) common.Hash { return common.Hash{} }
func (stubEngine) CalcDifficulty(consensus.ChainHeaderReader, uint64, *types.Header) *big.Int {
	return big.NewInt(0)
}
func (stubEngine) APIs(consensus.ChainHeaderReader) []rpc.API { return nil }
func (stubEngine) Close() error { return nil }

// stubChain implements core.ChainContext: a static Engine plus a GetHeader
// that always misses, since block lookups for BLOCKHASH go through the
// state's ReadOnlyRef instead (see buildBlockContext below).
type stubChain struct{}

func (stubChain) Engine() consensus.Engine                    { return stubEngine{} }
func (stubChain) GetHeader(common.Hash, uint64) *types.Header { return nil }

// headerFromBlockEnv translates spec.md §3's BlockEnv into the
// *types.Header shape core.NewEVMBlockContext expects.
func headerFromBlockEnv(b spec.BlockEnv) *types.Header {
	h := &types.Header{
		Number:     new(big.Int).SetUint64(b.Number),
		Time:       b.Timestamp,
		Coinbase:   b.Coinbase,
		Difficulty: b.Difficulty,
		GasLimit:   b.GasLimit,
		BaseFee:    b.BaseFee,
	}
	if h.Difficulty == nil {
		h.Difficulty = big.NewInt(0)
	}
	if b.PrevRandao != (common.Hash{}) {
		h.MixDigest = b.PrevRandao
		h.Difficulty = big.NewInt(0) // signals "post-merge" to core.NewEVMBlockContext
	}
	if b.ExcessBlobGas != nil {
		h.ExcessBlobGas = b.ExcessBlobGas
	}
	return h
}

// buildBlockContext assembles a vm.BlockContext for one block, following
// the pattern of the teacher's core/tx_executor.go fallback path ("Fallback
// for isolated unit tests": NewEVMBlockContext + stubChain), since this
// library is never handed a full core.BlockChain (out of scope per
// spec.md §1). GetHash is then rebound to the state's ReadOnlyRef so
// BLOCKHASH resolves against whatever archival/RPC data backs it, instead
// of stubChain's always-nil GetHeader.
func buildBlockContext(block spec.BlockEnv, ref state.ReadOnlyRef) vm.BlockContext {
	header := headerFromBlockEnv(block)
	bc := core.NewEVMBlockContext(header, stubChain{}, &block.Coinbase)
	bc.GetHash = func(n uint64) common.Hash {
		h, err := ref.BlockHash(n)
		if err != nil {
			return common.Hash{}
		}
		return h
	}
	if block.BlobBaseFee != nil {
		bc.BlobBaseFee = block.BlobBaseFee
	}
	return bc
}
