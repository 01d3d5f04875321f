package transition

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/holiman/uint256"

	"github.com/sofl-go/sofl/inspector"
	"github.com/sofl-go/sofl/spec"
)

// hookAdapter bridges go-ethereum's core/tracing.Hooks callbacks to the
// Inspector capability set (C4), the same role the teacher's
// state.NewHookedState(sdb, evmCfg.Tracer) plays for its own internal
// tracer type in core/tx_executor.go. Only OnOpcode/OnEnter/OnExit are
// wired: those are the three hooks go-ethereum's EVM actually fires per
// opcode and per call frame, which is enough surface to drive every
// Inspector hook except SelfDestruct (wired separately, see below) and the
// multi-tx hooks (driven directly by Driver.Transit, not per-opcode).
type hookAdapter struct {
	insp       inspector.Inspector
	pendingErr error

	// frameIsCreate tracks, per call depth, whether the entered frame was a
	// CREATE/CREATE2 — go-ethereum's OnExit carries no opcode, so onExit
	// must remember what onEnter saw in order to route to CreateEnd instead
	// of CallEnd.
	frameIsCreate []bool
	// frameAddr tracks, per call depth, the address onEnter reported; for a
	// create frame it is the new contract's address, passed to CreateEnd.
	frameAddr []common.Address
}

func (a *hookAdapter) onOpcode(pc uint64, op byte, gas, cost uint64, scope tracing.OpContext, rData []byte, depth int, err error) {
	data := &inspector.StepData{
		PC:     pc,
		Op:     op,
		Gas:    gas,
		Cost:   cost,
		Stack:  scope.StackData(),
		Memory: scope.MemoryData(),
		Depth:  depth,
		Err:    err,
	}
	a.insp.Step(data)
	a.insp.StepEnd(data)

	if vm.OpCode(op) == vm.SELFDESTRUCT && len(data.Stack) > 0 {
		beneficiary := common.Address(data.Stack[len(data.Stack)-1].Bytes20())
		a.insp.SelfDestruct(scope.Address(), beneficiary, nil)
	}
}

func (a *hookAdapter) onEnter(depth int, typ byte, from, to common.Address, input []byte, gas uint64, value *uint256.Int) {
	isCreate := vm.OpCode(typ) == vm.CREATE || vm.OpCode(typ) == vm.CREATE2
	a.frameIsCreate = append(a.frameIsCreate, isCreate)
	a.frameAddr = append(a.frameAddr, to)

	switch vm.OpCode(typ) {
	case vm.CREATE, vm.CREATE2:
		// OnEnter does not expose CREATE2's salt; Create2 consumers that
		// need it should derive it from the preceding OnOpcode's stack
		// data instead.
		scheme := spec.CreateScheme{Create2: vm.OpCode(typ) == vm.CREATE2}
		ci := &inspector.CreateInputs{
			Caller:   from,
			Scheme:   scheme,
			Value:    value,
			InitCode: input,
			GasLimit: gas,
		}
		a.insp.Create(ci)
	default:
		isStatic := vm.OpCode(typ) == vm.STATICCALL
		ci := &inspector.CallInputs{
			Caller:           from,
			Callee:           to,
			CodeAddress:      to,
			ApparentValue:    value,
			TransferredValue: value,
			Input:            input,
			GasLimit:         gas,
			IsStatic:         isStatic,
		}
		a.insp.Call(ci)
	}
}

func (a *hookAdapter) onExit(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
	isCreate := false
	if n := len(a.frameIsCreate); n > 0 {
		isCreate = a.frameIsCreate[n-1]
		a.frameIsCreate = a.frameIsCreate[:n-1]
	}
	var addr common.Address
	if n := len(a.frameAddr); n > 0 {
		addr = a.frameAddr[n-1]
		a.frameAddr = a.frameAddr[:n-1]
	}
	success := !reverted && err == nil
	if isCreate {
		outcome := inspector.CreateOutcome{Success: success, Output: output}
		if success {
			outcome.Address = &addr
		}
		a.insp.CreateEnd(nil, outcome)
		return
	}
	a.insp.CallEnd(nil, inspector.CallOutcome{Success: success, Output: output})
}

