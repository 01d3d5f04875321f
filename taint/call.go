package taint

// TaintableCall is the taint state of one active call frame, mirroring
// original_source/crates/analysis/src/taint/call.rs. Code is an addition
// beyond the Rust struct literal: env.rs's CODECOPY policy reads
// taint_tracker.call.code, so the frame must carry a taint map over its own
// init/runtime code alongside calldata and return data.
type TaintableCall struct {
	Caller bool // is the call's caller address tainted?
	Gas    bool // is the call's gas argument tainted?
	Value  bool // is the call's value tainted?

	Calldata   TaintableMemory
	Code       TaintableMemory
	ReturnData TaintableMemory

	Status bool // is the call's success/failure tainted?
}

// NewTaintableCall constructs a clean call frame.
func NewTaintableCall() *TaintableCall {
	return &TaintableCall{
		Calldata:   NewTaintableMemory(32),
		Code:       NewTaintableMemory(32),
		ReturnData: NewTaintableMemory(32),
	}
}
