package resumable

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/sofl-go/sofl/spec"
	"github.com/sofl-go/sofl/state"
)

// fakeBlockProvider is a single-block, single-tx spec.BcProvider/
// provider.BcStateProvider good enough to drive DifferentialTesting end to
// end without a real archival or RPC backend (both out of scope per
// spec.md §1).
type fakeBlockProvider struct {
	from, to common.Address
	tx       spec.Tx
	st       *state.CachedState
}

func newFakeBlockProvider(t *testing.T) *fakeBlockProvider {
	t.Helper()
	from := common.HexToAddress("0x00")
	to := common.HexToAddress("0x01")
	ref := state.NewMemoryReadOnlyRef()
	ref.SetAccount(from, state.AccountInfo{Balance: uint256.NewInt(1000), CodeHash: state.KeccakEmpty})
	ref.SetAccount(to, state.AccountInfo{Balance: uint256.NewInt(0), CodeHash: state.KeccakEmpty})

	return &fakeBlockProvider{
		from: from,
		to:   to,
		tx:   spec.Tx{Hash: common.HexToHash("0xaa"), Sender: from, To: &to},
		st:   state.NewCachedState(ref),
	}
}

func (p *fakeBlockProvider) TransactionsByBlock(block spec.BlockID) ([]spec.Tx, error) {
	return []spec.Tx{p.tx}, nil
}

func (p *fakeBlockProvider) Tx(ref spec.TxRef) (spec.Tx, error) { return p.tx, nil }

func (p *fakeBlockProvider) ReceiptsByBlock(block spec.BlockID) ([]*types.Receipt, error) {
	return nil, nil
}

func (p *fakeBlockProvider) FillCfgEnv(env *spec.CfgEnv, block spec.BlockID) error {
	env.ChainID = 1
	env.SpecID = spec.SpecLondon
	env.DisableBalanceCheck = true
	env.DisableBaseFee = true
	env.DisableBlockGasLimit = true
	env.DisableEIP3607 = true
	env.DisableNonceCheck = true
	return nil
}

func (p *fakeBlockProvider) FillBlockEnv(env *spec.BlockEnv, block spec.BlockID) error {
	env.Number = 1
	env.Timestamp = 1
	env.GasLimit = 30_000_000
	return nil
}

func (p *fakeBlockProvider) FillTxEnv(env *spec.TxEnv, ref spec.TxRef) error {
	env.GasLimit = 100000
	env.GasPrice = big.NewInt(0)
	env.Value = big.NewInt(500)
	return nil
}

func (p *fakeBlockProvider) BcStateAt(pos spec.TxPosition) (*state.CachedState, error) {
	return p.st.Fork(), nil
}

func TestDifferentialTestingAgreesAcrossEngines(t *testing.T) {
	p := newFakeBlockProvider(t)
	deviations, err := DifferentialTesting(p, p, spec.BlockNumber(1))
	require.NoError(t, err)
	require.Empty(t, deviations)
}
