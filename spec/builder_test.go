package spec

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func mustHexKey(t *testing.T, hex string) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.HexToECDSA(hex)
	require.NoError(t, err)
	return key
}

func TestBuilderBypassCheck(t *testing.T) {
	b := NewBuilder().
		WithCfg(CfgEnv{ChainID: 1}).
		AppendTxEnv(TxEnv{Nonce: 7}).
		AppendTxEnv(TxEnv{Nonce: 12})

	b.BypassCheck()
	spec := b.Build()

	require.True(t, spec.Cfg.DisableBalanceCheck)
	require.True(t, spec.Cfg.DisableBaseFee)
	require.True(t, spec.Cfg.DisableBlockGasLimit)
	require.True(t, spec.Cfg.DisableEIP3607)
	require.True(t, spec.Cfg.DisableGasRefund)
	require.True(t, spec.Cfg.DisableNonceCheck)
	for _, tx := range spec.Txs {
		require.Zero(t, tx.Nonce)
	}
}

func TestBuilderAppendTxRecoversSender(t *testing.T) {
	key := mustHexKey(t, "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f25")
	signer := types.NewEIP155Signer(big.NewInt(1))
	to := common.HexToAddress("0x02")
	tx, err := types.SignTx(types.NewTransaction(0, to, big.NewInt(1), 21000, big.NewInt(1), nil), signer, key)
	require.NoError(t, err)

	b := NewBuilder().AppendTx(signer, tx)
	spec := b.Build()
	require.Len(t, spec.Txs, 1)
	require.False(t, spec.Txs[0].TransactTo.IsCreate)
	require.Equal(t, to, spec.Txs[0].TransactTo.Addr)
}

func TestBuilderAppendTxPanicsOnUnsignedTx(t *testing.T) {
	signer := types.NewEIP155Signer(big.NewInt(1))
	to := common.HexToAddress("0x02")
	tx := types.NewTransaction(0, to, big.NewInt(1), 21000, big.NewInt(1), nil)

	require.Panics(t, func() {
		NewBuilder().AppendTx(signer, tx)
	})
}
