// Package resumable implements the interruptable EVM of spec.md §4.7: a
// resumable call-frame machine that drives go-ethereum's real
// core/vm.EVM (the oracle interpreter, consumed as an unmodified
// primitive per spec.md §1) but can pause at named Breakpoints and resume
// exactly where it left off.
//
// go-ethereum's interpreter has no built-in pause/resume: once Run is
// called it runs an opcode loop to completion on the calling goroutine.
// Per spec.md §9 DESIGN NOTES "Coroutine control flow" option (b), this
// package gets pause/resume by running the interpreter on its own
// goroutine and synchronizing with the caller over a pair of unbuffered
// channels: the interpreter goroutine blocks in tracing.Hooks.OnEnter/
// OnExit until the controlling goroutine tells it to continue, and the
// controlling goroutine blocks in Run until the interpreter goroutine
// either hits a matching Breakpoint or finishes.
package resumable

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/sofl-go/sofl/internal/metrics"
	"github.com/sofl-go/sofl/internal/solerr"
	"github.com/sofl-go/sofl/spec"
	"github.com/sofl-go/sofl/state"
	"github.com/sofl-go/sofl/transition"
)

// frame is the per-call-frame bookkeeping the ResumableContext's call stack
// holds, per spec.md §3's ResumableContext.call_stack.
type frame struct {
	codeAddress common.Address
}

// ResumableContext is spec.md §3's ResumableContext: it owns the
// goroutine driving the EVM, the bounded call stack mirroring the
// interpreter's own frames (kept in step by the pause hooks below so Run
// can answer Breakpoint-matching questions without reaching into
// go-ethereum internals), and the channel pair used to hand control back
// and forth.
//
// A ResumableContext is used for exactly one transaction and is not safe
// for concurrent use — the spec.md §5 single-threaded-per-state rule
// applies here too.
type ResumableContext struct {
	st   *state.CachedState
	cfg  spec.CfgEnv
	blk  spec.BlockEnv
	tx   spec.TxEnv
	bps  BreakpointSet

	callStack []frame

	resumeCh chan struct{}
	pauseCh  chan pauseSignal

	started  bool
	finished bool
	lastErr  error

	change state.StateChange
	result transition.ExecutionResult
}

// pauseSignal is what the interpreter goroutine hands back to Run each
// time it blocks at a breakpoint or finishes.
type pauseSignal struct {
	bp   *Breakpoint
	done bool
}

// maxCallDepth is go-ethereum's own CallCreateDepth (params.CallCreateDepth
// is 1024); duplicated here as a plain constant so the frame-push check
// doesn't need to import params just for one number, matching spec.md
// §4.7's "Hard limit: 1024 frames" stated independently of go-ethereum.
const maxCallDepth = 1024

// NewContext builds a ResumableContext ready to Run against st for a
// single transaction tx. st is forked internally (mirroring
// transition.Driver.runOne) so the caller's state is untouched until the
// eventual StateChange is committed by the caller.
func NewContext(st *state.CachedState, cfg spec.CfgEnv, blk spec.BlockEnv, tx spec.TxEnv) *ResumableContext {
	return &ResumableContext{
		st:       st.Fork(),
		cfg:      cfg,
		blk:      blk,
		tx:       tx,
		resumeCh: make(chan struct{}),
		pauseCh:  make(chan pauseSignal),
	}
}

// RunResult is spec.md §4.7's RunResult: either a Breakpoint the engine
// paused at, or the terminal (StateChange, ExecutionResult) pair.
type RunResult struct {
	Paused     bool
	Breakpoint Breakpoint

	Done        bool
	StateChange state.StateChange
	Result      transition.ExecutionResult
}

// Run advances ctx until it crosses a Breakpoint in bps or finishes,
// per spec.md §4.7. Calling Run again after a Paused result resumes
// execution exactly where it left off; calling Run after a Done result
// is a programmer error (ctx is spent).
func (ctx *ResumableContext) Run(bps BreakpointSet) (RunResult, error) {
	if ctx.finished {
		return RunResult{}, solerr.Custom("resumable: Run called on a finished context")
	}
	metrics.ResumableRunsTotal.Inc(1)
	ctx.bps = bps

	if !ctx.started {
		ctx.started = true
		go ctx.drive()
	} else {
		ctx.resumeCh <- struct{}{}
	}

	sig := <-ctx.pauseCh
	if sig.done {
		ctx.finished = true
		if ctx.lastErr != nil {
			return RunResult{}, ctx.lastErr
		}
		return RunResult{Done: true, StateChange: ctx.change, Result: ctx.result}, nil
	}
	return RunResult{Paused: true, Breakpoint: *sig.bp}, nil
}

// drive runs on its own goroutine for the lifetime of ctx: it builds the
// EVM with breakpoint-pausing hooks installed (the same wiring
// transition.Driver.runOne uses, exported by transition/export.go for this
// package per spec.md §4.7's grounding note) and applies the transaction,
// reporting the terminal result over pauseCh exactly once.
func (ctx *ResumableContext) drive() {
	defer func() {
		ctx.pauseCh <- pauseSignal{done: true}
	}()

	blockCtx := transition.BuildBlockContext(ctx.blk, ctx.st)
	vmConfig := vm.Config{
		NoBaseFee: ctx.cfg.DisableBaseFee,
		Tracer:    ctx.hooks(),
	}

	evm := vm.NewEVM(blockCtx, ctx.st, transition.RulesChainConfig(ctx.cfg, ctx.blk), vmConfig)
	evm.SetTxContext(transition.TxContextFrom(ctx.tx))

	msg := transition.MessageFrom(ctx.tx, ctx.cfg)
	gp := new(core.GasPool).AddGas(transition.EffectiveGasLimit(ctx.blk, ctx.cfg))

	vmResult, err := core.ApplyMessage(evm, msg, gp)
	if err != nil {
		log.Debug("resumable: evm rejected transaction", "err", err)
		ctx.lastErr = solerr.InvalidTransaction(err, "resumable: apply message")
		return
	}

	ctx.result = transition.FromVMResult(vmResult.UsedGas, vmResult.RefundedGas, vmResult.ReturnData, vmResult.Err, ctx.st.Logs())
	ctx.change = ctx.st.Diff()
}

// hooks wires go-ethereum's OnEnter/OnExit into the four-phase pause
// points of spec.md §4.7. Each of OnEnter/OnExit is split into two phases
// (Before/Begin and End/After respectively) by checking-and-pausing
// twice: once immediately on entry to the hook (Before/End, "not yet
// pushed/popped") and once again right after updating callStack
// (Begin/After, "now pushed/popped") — go-ethereum exposes only the two
// raw hooks, so this package recovers the four-phase granularity spec.md
// describes by pausing around its own bookkeeping rather than around any
// additional go-ethereum hook.
func (ctx *ResumableContext) hooks() *tracing.Hooks {
	return &tracing.Hooks{
		OnEnter: ctx.onEnter,
		OnExit:  ctx.onExit,
	}
}

func (ctx *ResumableContext) onEnter(depth int, typ byte, from, to common.Address, input []byte, gas uint64, value *uint256.Int) {
	codeAddr := to

	ctx.maybePause(MsgCallBefore, codeAddr)

	if len(ctx.callStack) >= maxCallDepth {
		// go-ethereum's own depth check (params.CallCreateDepth) fires
		// before OnEnter is ever called for the overflowing frame, so in
		// practice this branch is unreachable; kept as a mirror of
		// spec.md §4.7's "the 1025th push halts" for defense in depth.
		return
	}
	ctx.callStack = append(ctx.callStack, frame{codeAddress: codeAddr})

	ctx.maybePause(MsgCallBegin, codeAddr)
}

func (ctx *ResumableContext) onExit(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
	var codeAddr common.Address
	if n := len(ctx.callStack); n > 0 {
		codeAddr = ctx.callStack[n-1].codeAddress
	}

	ctx.maybePause(MsgCallEnd, codeAddr)

	if n := len(ctx.callStack); n > 0 {
		ctx.callStack = ctx.callStack[:n-1]
	}

	ctx.maybePause(MsgCallAfter, codeAddr)
}

// maybePause checks bps for a match on phase/addr and, if one fires,
// hands control back to Run and blocks this goroutine until the next Run
// call sends on resumeCh.
func (ctx *ResumableContext) maybePause(phase Phase, addr common.Address) {
	if !ctx.bps.Matches(phase, addr) {
		return
	}
	metrics.ResumableBreakpointHits.Inc(1)
	bp := At(phase, addr)
	ctx.pauseCh <- pauseSignal{bp: &bp}
	<-ctx.resumeCh
}

// CallDepth reports the current number of active call frames, per
// spec.md §3's ResumableContext.call_stack.
func (ctx *ResumableContext) CallDepth() int { return len(ctx.callStack) }
