package resumable

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/sofl-go/sofl/spec"
	"github.com/sofl-go/sofl/state"
)

func freshPair(t *testing.T) (a, b common.Address, st *state.CachedState) {
	t.Helper()
	a = common.HexToAddress("0x00")
	b = common.HexToAddress("0x01")
	ref := state.NewMemoryReadOnlyRef()
	ref.SetAccount(a, state.AccountInfo{Balance: uint256.NewInt(1000), CodeHash: state.KeccakEmpty})
	ref.SetAccount(b, state.AccountInfo{Balance: uint256.NewInt(0), CodeHash: state.KeccakEmpty})
	return a, b, state.NewCachedState(ref)
}

func transferEnv(a, b common.Address) (spec.CfgEnv, spec.BlockEnv, spec.TxEnv) {
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
	return cfg, block, tx
}

func TestRunWithNoBreakpointsRunsToCompletion(t *testing.T) {
	a, b, st := freshPair(t)
	cfg, block, tx := transferEnv(a, b)

	ctx := NewContext(st, cfg, block, tx)
	res, err := ctx.Run(None())
	require.NoError(t, err)
	require.True(t, res.Done)
	require.False(t, res.Paused)
	require.True(t, res.Result.IsSuccess())

	// The fork inside NewContext means st itself is untouched until the
	// caller commits, mirroring transition.Driver.runOne.
	require.Equal(t, uint256.NewInt(1000), st.GetBalance(a))

	st.Commit(res.StateChange)
	require.Equal(t, uint256.NewInt(500), st.GetBalance(a))
	require.Equal(t, uint256.NewInt(500), st.GetBalance(b))
}

func TestRunPausesAtEveryCallPhaseThenResumes(t *testing.T) {
	a, b, st := freshPair(t)
	cfg, block, tx := transferEnv(a, b)

	ctx := NewContext(st, cfg, block, tx)

	var seen []Phase
	bps := Wildcard()
	for {
		res, err := ctx.Run(bps)
		require.NoError(t, err)
		if res.Done {
			require.True(t, res.Result.IsSuccess())
			break
		}
		require.True(t, res.Paused)
		require.Equal(t, b, res.Breakpoint.Addr)
		seen = append(seen, res.Breakpoint.Phase)
	}
	require.Equal(t, []Phase{MsgCallBefore, MsgCallBegin, MsgCallEnd, MsgCallAfter}, seen)
}

func TestRunStopsAfterDone(t *testing.T) {
	a, b, st := freshPair(t)
	cfg, block, tx := transferEnv(a, b)

	ctx := NewContext(st, cfg, block, tx)
	res, err := ctx.Run(None())
	require.NoError(t, err)
	require.True(t, res.Done)

	_, err = ctx.Run(None())
	require.Error(t, err)
}

func TestCallDepthTracksFrames(t *testing.T) {
	a, b, st := freshPair(t)
	cfg, block, tx := transferEnv(a, b)

	ctx := NewContext(st, cfg, block, tx)
	res, err := ctx.Run(BreakpointSet{AnyAddr(MsgCallBegin)})
	require.NoError(t, err)
	require.True(t, res.Paused)
	require.Equal(t, 1, ctx.CallDepth())

	res, err = ctx.Run(BreakpointSet{AnyAddr(MsgCallAfter)})
	require.NoError(t, err)
	require.True(t, res.Paused)
	require.Equal(t, 0, ctx.CallDepth())
}
