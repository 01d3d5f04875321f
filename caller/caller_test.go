package caller

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/sofl-go/sofl/spec"
	"github.com/sofl-go/sofl/state"
)

func TestCallerBypassCheckSetsEveryToggle(t *testing.T) {
	from := common.HexToAddress("0xaa")
	c := New(from, spec.CfgEnv{ChainID: 1}, spec.BlockEnv{GasLimit: 30_000_000}).BypassCheck()

	require.True(t, c.Cfg.DisableBalanceCheck)
	require.True(t, c.Cfg.DisableBaseFee)
	require.True(t, c.Cfg.DisableBlockGasLimit)
	require.True(t, c.Cfg.DisableEIP3607)
	require.True(t, c.Cfg.DisableGasRefund)
	require.True(t, c.Cfg.DisableNonceCheck)
}

func TestCallerSetEVMVersion(t *testing.T) {
	from := common.HexToAddress("0xaa")
	c := New(from, spec.CfgEnv{ChainID: 1}, spec.BlockEnv{}).SetEVMVersion(spec.SpecShanghai)
	require.Equal(t, uint8(spec.SpecShanghai), c.Cfg.SpecID)
}

func TestCallerStaticCallAgainstNonContractReturnsEmptyOutput(t *testing.T) {
	from := common.HexToAddress("0xaa")
	to := common.HexToAddress("0xbb")

	ref := state.NewMemoryReadOnlyRef()
	ref.SetAccount(from, state.AccountInfo{Balance: uint256.NewInt(1_000_000), CodeHash: state.KeccakEmpty})
	st := state.NewCachedState(ref)

	c := New(from, spec.CfgEnv{ChainID: 1, SpecID: spec.SpecLondon}, spec.BlockEnv{GasLimit: 30_000_000}).BypassCheck()
	out, err := c.StaticCall(st, to, nil)
	require.NoError(t, err)
	require.Empty(t, out)

	require.True(t, st.GetBalance(from).Eq(uint256.NewInt(1_000_000)))
}
