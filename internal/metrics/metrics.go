// Package metrics centralizes the counters this module registers with
// go-ethereum's metrics registry (itself a thin wrapper around
// rcrowley/go-metrics). It replaces the teacher's cgo-backed miss counters
// in revm_bridge/metrics.go (ResetProfileCounters/ProfileCounters), which
// read two uintptr counters out of the Rust side of an FFI boundary this
// module no longer has.
package metrics

import (
	"github.com/ethereum/go-ethereum/metrics"
)

var (
	// TransitionsTotal counts calls to transition.Driver.Transit.
	TransitionsTotal = metrics.NewRegisteredCounter("sofl/transition/total", nil)
	// TransitionTxsTotal counts individual transactions applied across all
	// Transit calls, including NotActivated halts.
	TransitionTxsTotal = metrics.NewRegisteredCounter("sofl/transition/txs", nil)
	// DryRunsTotal counts calls to transition.Driver.DryRun.
	DryRunsTotal = metrics.NewRegisteredCounter("sofl/transition/dry_runs", nil)
	// GasUsedHistogram samples gas used per successfully applied transaction.
	GasUsedHistogram = metrics.NewRegisteredHistogram("sofl/transition/gas_used", nil, metrics.NewExpDecaySample(1028, 0.015))

	// StateReadMisses counts CachedState account reads that fell through to
	// the layer's parent ReadOnlyRef (which may itself be a CachedState).
	// Mirrors the teacher's account-miss counter, minus the FFI boundary.
	StateReadMisses = metrics.NewRegisteredCounter("sofl/state/read_misses", nil)
	// StateStorageMisses counts CachedState storage reads that fell through
	// to the layer's parent ReadOnlyRef.
	StateStorageMisses = metrics.NewRegisteredCounter("sofl/state/storage_misses", nil)

	// TaintStepsTotal counts opcodes observed by the taint analyzer.
	TaintStepsTotal = metrics.NewRegisteredCounter("sofl/taint/steps", nil)

	// ResumableBreakpointHits counts pauses returned by the interruptable
	// engine, by nothing more specific than "a pause happened" — per-phase
	// breakdown would require a label dimension go-ethereum's metrics
	// package does not support without a registry per label.
	ResumableBreakpointHits = metrics.NewRegisteredCounter("sofl/resumable/breakpoint_hits", nil)
	// ResumableRunsTotal counts ResumableContext.Run calls (both the
	// initial drive and every subsequent resume).
	ResumableRunsTotal = metrics.NewRegisteredCounter("sofl/resumable/runs", nil)

	// DifferentialDeviationsTotal counts BehaviorDeviation reports produced
	// by differential_testing, across all three engines compared.
	DifferentialDeviationsTotal = metrics.NewRegisteredCounter("sofl/resumable/differential_deviations", nil)
)
