package transition

import (
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"

	"github.com/sofl-go/sofl/spec"
	"github.com/sofl-go/sofl/state"
)

// The functions below re-export this package's internal EVM-wiring helpers
// for the resumable package (C7), which drives the same
// vm.NewEVM/core.ApplyMessage machinery as Driver.Transit but needs to
// install its own tracing.Hooks to implement breakpoint pausing instead of
// the Inspector bridge. Keeping one set of wiring helpers, rather than a
// second copy in resumable, is what keeps the two engines from drifting out
// of sync with each other and with go-ethereum's API.

// BuildBlockContext is buildBlockContext, exported for resumable.
func BuildBlockContext(block spec.BlockEnv, ref state.ReadOnlyRef) vm.BlockContext {
	return buildBlockContext(block, ref)
}

// RulesChainConfig is rulesChainConfig, exported for resumable.
func RulesChainConfig(cfg spec.CfgEnv, block spec.BlockEnv) *params.ChainConfig {
	return rulesChainConfig(cfg, block)
}

// MessageFrom is messageFrom, exported for resumable.
func MessageFrom(tx spec.TxEnv, cfg spec.CfgEnv) *core.Message {
	return messageFrom(tx, cfg)
}

// TxContextFrom is txContextFrom, exported for resumable.
func TxContextFrom(tx spec.TxEnv) vm.TxContext {
	return txContextFrom(tx)
}

// EffectiveGasLimit is effectiveGasLimit, exported for resumable.
func EffectiveGasLimit(block spec.BlockEnv, cfg spec.CfgEnv) uint64 {
	return effectiveGasLimit(block, cfg)
}

// FromVMResult is fromVMResult, exported for resumable.
func FromVMResult(gasUsed, gasRefunded uint64, returnData []byte, vmErr error, logs []*types.Log) ExecutionResult {
	return fromVMResult(gasUsed, gasRefunded, returnData, vmErr, logs)
}
