package transition

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/sofl-go/sofl/inspector"
	"github.com/sofl-go/sofl/spec"
	"github.com/sofl-go/sofl/state"
)

func freshPair() (a, b common.Address, st *state.CachedState) {
	a = common.HexToAddress("0x00")
	b = common.HexToAddress("0x01")
	ref := state.NewMemoryReadOnlyRef()
	ref.SetAccount(a, state.AccountInfo{Balance: uint256.NewInt(1000), CodeHash: state.KeccakEmpty})
	ref.SetAccount(b, state.AccountInfo{Balance: uint256.NewInt(0), CodeHash: state.KeccakEmpty})
	return a, b, state.NewCachedState(ref)
}

func transferSpec(a, b common.Address) spec.TransitionSpec {
	cfg := spec.CfgEnv{
		ChainID:              1,
		SpecID:               spec.SpecLondon,
		DisableBalanceCheck:  true,
		DisableBaseFee:       true,
		DisableBlockGasLimit: true,
		DisableEIP3607:       true,
		DisableNonceCheck:    true,
	}
	block := spec.BlockEnv{Number: 1, Timestamp: 1, GasLimit: 30_000_000}
	tx := spec.TxEnv{
		Caller:     a,
		TransactTo: spec.Call(b),
		Value:      big.NewInt(500),
		GasLimit:   100000,
		GasPrice:   big.NewInt(0),
	}
	return spec.TransitionSpec{Cfg: cfg, Block: block, Txs: []spec.TxEnv{tx}}
}

func TestDryRunLeavesStateUnchanged(t *testing.T) {
	a, b, st := freshPair()
	sp := transferSpec(a, b)

	results, err := NewDriver().DryRun(st, sp, inspector.Shared)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].IsSuccess())

	require.Equal(t, uint256.NewInt(1000), st.GetBalance(a))
	require.True(t, st.GetBalance(b).IsZero())
}

func TestTransitAppliesPlainTransfer(t *testing.T) {
	a, b, st := freshPair()
	sp := transferSpec(a, b)

	results, err := NewDriver().Transit(st, sp, inspector.Shared)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].IsSuccess())

	require.Equal(t, uint256.NewInt(500), st.GetBalance(a))
	require.Equal(t, uint256.NewInt(500), st.GetBalance(b))
}

func TestTransitEmptyTxListIsNoop(t *testing.T) {
	_, _, st := freshPair()
	sp := spec.TransitionSpec{Cfg: spec.CfgEnv{ChainID: 1}, Block: spec.BlockEnv{Number: 1}}

	results, err := NewDriver().Transit(st, sp, inspector.Shared)
	require.NoError(t, err)
	require.Empty(t, results)
}

type skipAll struct{ inspector.Noop }

func (skipAll) Transaction(*spec.TxEnv, *state.CachedState) bool { return false }

func TestTransitPreSkipHaltsWithoutMutation(t *testing.T) {
	a, b, st := freshPair()
	sp := transferSpec(a, b)

	results, err := NewDriver().Transit(st, sp, skipAll{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].IsHalt())
	require.Equal(t, NotActivated, results[0].HaltReason)
	require.Equal(t, uint256.NewInt(1000), st.GetBalance(a))
}
