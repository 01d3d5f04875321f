// Package transition implements the deterministic driver of spec.md §4.3:
// Transit applies an ordered sequence of transactions to a State, threading
// an Inspector and committing the StateChange of each transaction before
// moving to the next. It reuses go-ethereum's real state-transition engine
// (core.ApplyMessage driving a vm.EVM) the way the teacher's
// core/tx_executor.go vmExecutorAdapter.ExecuteTx does for its "go-evm"
// branch, including the stubEngine/stubChain fallback for building a
// vm.BlockContext when no full core.BlockChain backend is wired — the
// common case for this library, since a full blockchain backend is out of
// scope (spec.md §1).
package transition

import (
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"

	"github.com/sofl-go/sofl/inspector"
	"github.com/sofl-go/sofl/internal/metrics"
	"github.com/sofl-go/sofl/internal/solerr"
	"github.com/sofl-go/sofl/spec"
	"github.com/sofl-go/sofl/state"
)

// Driver is the stateless executor of a TransitionSpec against a State.
// A zero-value Driver is ready to use; it carries no fields because every
// piece of execution state it needs (cfg, block, per-tx scratch layer)
// is local to a single Transit call.
type Driver struct{}

func NewDriver() *Driver { return &Driver{} }

// Transit applies every tx-env in spec order to state, per spec.md §4.3.
// On the first EVM-level error (InvalidTransaction/InvalidHeader) the whole
// call fails and any results already committed are discarded from the
// return value — but NOT from state, which already has those commits
// applied. This is spec.md §9 Open Question (a): surfaced here explicitly
// rather than silently relied upon. See DESIGN.md.
func (d *Driver) Transit(st *state.CachedState, sp spec.TransitionSpec, insp inspector.Inspector) ([]ExecutionResult, error) {
	metrics.TransitionsTotal.Inc(1)
	if insp == nil {
		insp = inspector.Shared
	}

	results := make([]ExecutionResult, 0, len(sp.Txs))
	for i := range sp.Txs {
		tx := sp.Txs[i]
		metrics.TransitionTxsTotal.Inc(1)

		if !insp.Transaction(&tx, st) {
			results = append(results, ExecutionResult{Kind: KindHalt, HaltReason: NotActivated})
			continue
		}

		result, change, err := d.runOne(st, sp.Cfg, sp.Block, tx, insp)
		if err != nil {
			return nil, err
		}

		st.Commit(change)
		metrics.GasUsedHistogram.Update(int64(result.GasUsed))
		results = append(results, result)
		insp.TransactionEnd(&tx, st, result)
	}
	return results, nil
}

// runOne executes a single transaction in an isolated scratch CachedState
// forked from st, returning the classified result and the StateChange to
// commit. Running against a fork (rather than st directly) is what yields
// the StateChange that Transit then commits into st before calling
// TransactionEnd (spec.md §4.3 steps 2-4).
func (d *Driver) runOne(st *state.CachedState, cfg spec.CfgEnv, block spec.BlockEnv, tx spec.TxEnv, insp inspector.Inspector) (ExecutionResult, state.StateChange, error) {
	scratch := st.Fork()

	blockCtx := buildBlockContext(block, st)
	vmConfig := vm.Config{
		NoBaseFee: cfg.DisableBaseFee,
		Tracer:    hooksFromInspector(insp),
	}

	evm := vm.NewEVM(blockCtx, scratch, rulesChainConfig(cfg, block), vmConfig)
	evm.SetTxContext(txContextFrom(tx))

	msg := messageFrom(tx, cfg)

	gp := new(core.GasPool).AddGas(effectiveGasLimit(block, cfg))
	vmResult, err := core.ApplyMessage(evm, msg, gp)
	if err != nil {
		log.Debug("transition: evm rejected transaction", "err", err)
		return ExecutionResult{}, state.StateChange{}, solerr.InvalidTransaction(err, "transition: apply message")
	}

	result := fromVMResult(vmResult.UsedGas, refundOf(vmResult), vmResult.ReturnData, vmResult.Err, scratch.Logs())
	return result, scratch.Diff(), nil
}

// refundOf isolates the RefundedGas field access so a future go-ethereum
// version that renames or drops it only needs one call site touched.
func refundOf(r *core.ExecutionResult) uint64 { return r.RefundedGas }

// effectiveGasLimit returns an effectively-unbounded gas pool when the
// caller disabled the block gas limit check (spec.md §4.2's
// disable_block_gas_limit), since go-ethereum's GasPool has no separate
// toggle for that check — exhausting it is what enforces the limit.
func effectiveGasLimit(block spec.BlockEnv, cfg spec.CfgEnv) uint64 {
	if cfg.DisableBlockGasLimit {
		return ^uint64(0) >> 1
	}
	return block.GasLimit
}

// hooksFromInspector adapts the Inspector capability set (C4) into
// go-ethereum's core/tracing.Hooks, the same bridge the teacher's
// state.NewHookedState(sdb, evmCfg.Tracer) relies on in core/tx_executor.go.
func hooksFromInspector(insp inspector.Inspector) *tracing.Hooks {
	a := &hookAdapter{insp: insp}
	return &tracing.Hooks{
		OnOpcode: a.onOpcode,
		OnEnter:  a.onEnter,
		OnExit:   a.onExit,
	}
}

// DryRun forks stateRef into a ForkedView, runs Transit against the fork,
// and returns only the results — the fork (and every change made to it) is
// discarded once DryRun returns (spec.md §4.3). stateRef is never mutated.
func (d *Driver) DryRun(stateRef *state.CachedState, sp spec.TransitionSpec, insp inspector.Inspector) ([]ExecutionResult, error) {
	metrics.DryRunsTotal.Inc(1)
	view := stateRef.Fork()
	return d.Transit(view, sp, insp)
}

// Modify is the escape hatch for pseudo-transactions (spec.md §4.3): it
// runs a user-supplied state mutator under the same fork/diff/commit
// discipline Transit uses for real transactions, so pseudo-mutations
// interleave cleanly with real ones (e.g. a test harness seeding a balance
// between two on-chain transactions).
func (d *Driver) Modify(st *state.CachedState, f func(scratch *state.CachedState) error) error {
	scratch := st.Fork()
	if err := f(scratch); err != nil {
		return err
	}
	st.Commit(scratch.Diff())
	return nil
}
