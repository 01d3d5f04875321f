package taint

// TaintTracker is the taint state of one active call frame: its shadow
// stack, its memory, a reference to its contract's slot-taint map (shared
// across re-entrant frames at the same address), and its TaintableCall.
// Mirrors original_source/crates/analysis/src/taint/mod.rs's TaintTracker.
type TaintTracker struct {
	Stack   TaintableStack
	Memory  TaintableMemory
	Storage *TaintableStorage
	Call    *TaintableCall

	// ChildCall is the about-to-happen call's fresh TaintableCall while the
	// current opcode is CREATE-like or CALL-like; once that child frame
	// exits it holds the most recently returned child's final state, so
	// nested-call policies can read its return-data/status taint.
	ChildCall *TaintableCall

	// pendingRetOffset/pendingRetLength remember a CALL-family opcode's
	// output-copy operands between Step (when they're read off the real
	// stack) and CallEnd (when the callee's return-data taint becomes
	// known), since those two events are driven by separate go-ethereum
	// hooks with the full inner call sandwiched between them.
	pendingRetOffset int
	pendingRetLength int
}

// NewTaintTracker constructs a clean frame bound to the given per-address
// storage map.
func NewTaintTracker(storage *TaintableStorage) *TaintTracker {
	return &TaintTracker{
		Memory:  NewTaintableMemory(32),
		Storage: storage,
		Call:    NewTaintableCall(),
	}
}
