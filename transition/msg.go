package transition

import (
	"math/big"

	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"

	"github.com/sofl-go/sofl/spec"
)

// messageFrom builds a core.Message from a TxEnv. go-ethereum couples the
// nonce and balance pre-checks under one SkipAccountChecks flag where
// spec.md's CfgEnv keeps them as two independent toggles
// (disable_nonce_check, disable_balance_check); we OR them together here
// since this module drives go-ethereum's own state-transition rather than
// reimplementing preCheck.
func messageFrom(tx spec.TxEnv, cfg spec.CfgEnv) *core.Message {
	gasPrice := nonNilBig(tx.GasPrice)
	tipCap := gasPrice
	if tx.PriorityFee != nil {
		tipCap = tx.PriorityFee
	}
	msg := &core.Message{
		From:              tx.Caller,
		Nonce:             tx.Nonce,
		Value:             nonNilBig(tx.Value),
		GasLimit:          tx.GasLimit,
		GasPrice:          gasPrice,
		GasFeeCap:         gasPrice,
		GasTipCap:         tipCap,
		Data:              tx.Data,
		AccessList:        tx.AccessList,
		BlobGasFeeCap:     tx.MaxFeePerBlobGas,
		BlobHashes:        tx.BlobHashes,
		SkipAccountChecks: cfg.DisableNonceCheck || cfg.DisableBalanceCheck,
	}
	if !tx.TransactTo.IsCreate {
		addr := tx.TransactTo.Addr
		msg.To = &addr
	}
	return msg
}

func nonNilBig(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func txContextFrom(tx spec.TxEnv) vm.TxContext {
	return core.NewEVMTxContext(messageFrom(tx, spec.CfgEnv{}))
}

// rulesChainConfig rebuilds a *params.ChainConfig consistent with cfg's
// resolved SpecID, for handing to vm.NewEVM.
func rulesChainConfig(cfg spec.CfgEnv, block spec.BlockEnv) *params.ChainConfig {
	return spec.ChainConfigForSpec(cfg.ChainID, cfg.SpecID)
}
