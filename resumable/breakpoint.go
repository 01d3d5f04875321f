package resumable

import "github.com/ethereum/go-ethereum/common"

// Phase is one of the four message-call-frame transitions spec.md §4.7's
// interruptable engine can pause at.
type Phase int

const (
	// MsgCallBefore fires just as a new call/create frame is recognized,
	// before any of its code runs.
	MsgCallBefore Phase = iota
	// MsgCallBegin fires immediately after MsgCallBefore, once the frame
	// has been pushed onto the engine's call stack. go-ethereum exposes a
	// single OnEnter hook for frame entry, so MsgCallBefore and
	// MsgCallBegin are both derived from it — see ResumableContext.onEnter.
	MsgCallBegin
	// MsgCallEnd fires as a frame finishes, before its result (created
	// address, revert flag) has been folded back into the parent frame.
	MsgCallEnd
	// MsgCallAfter fires immediately after MsgCallEnd, once the frame has
	// been popped. Both are derived from go-ethereum's single OnExit hook.
	MsgCallAfter
)

func (p Phase) String() string {
	switch p {
	case MsgCallBefore:
		return "MsgCallBefore"
	case MsgCallBegin:
		return "MsgCallBegin"
	case MsgCallEnd:
		return "MsgCallEnd"
	case MsgCallAfter:
		return "MsgCallAfter"
	default:
		return "Unknown"
	}
}

// Breakpoint is a tag naming a phase and the call-frame code address it
// applies to, per spec.md §4.7. Any, when true, matches every code address
// for Phase regardless of Addr — used to build the "every possible MsgCall*
// breakpoint" set differential_testing's third engine runs with.
type Breakpoint struct {
	Phase Phase
	Addr  common.Address
	Any   bool
}

// At builds a Breakpoint scoped to one code address.
func At(phase Phase, addr common.Address) Breakpoint {
	return Breakpoint{Phase: phase, Addr: addr}
}

// AnyAddr builds a Breakpoint matching phase at every code address.
func AnyAddr(phase Phase) Breakpoint {
	return Breakpoint{Phase: phase, Any: true}
}

// BreakpointSet is the set of breakpoints a single Run call should honor.
// The interruptable engine pauses at the first one (in call order) whose
// phase and address match the current frame (spec.md §4.7).
type BreakpointSet []Breakpoint

// Matches reports whether any breakpoint in the set fires for phase/addr.
func (bs BreakpointSet) Matches(phase Phase, addr common.Address) bool {
	for _, bp := range bs {
		if bp.Phase != phase {
			continue
		}
		if bp.Any || bp.Addr == addr {
			return true
		}
	}
	return false
}

// Wildcard returns the breakpoint set differential_testing's "every
// possible MsgCall* breakpoint" engine uses: all four phases, matching
// every address, forcing a pause at every call boundary of every frame.
func Wildcard() BreakpointSet {
	return BreakpointSet{
		AnyAddr(MsgCallBefore),
		AnyAddr(MsgCallBegin),
		AnyAddr(MsgCallEnd),
		AnyAddr(MsgCallAfter),
	}
}

// None is the empty breakpoint set: the interruptable engine runs straight
// through to Done without ever pausing.
func None() BreakpointSet { return nil }
