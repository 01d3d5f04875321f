// Package caller implements the high-level one-shot helper of spec.md §4.5:
// static_call/call/view/invoke/create, each a thin wrapper that fabricates a
// single-tx TransitionSpec and runs it through the transition driver (C3).
package caller

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/sofl-go/sofl/inspector"
	"github.com/sofl-go/sofl/internal/solerr"
	"github.com/sofl-go/sofl/spec"
	"github.com/sofl-go/sofl/state"
	"github.com/sofl-go/sofl/transition"
)

// Caller fabricates single-tx specs with a configurable sender identity and
// default cfg/block environment (spec.md §4.5).
type Caller struct {
	From  common.Address
	Nonce uint64
	Cfg   spec.CfgEnv
	Block spec.BlockEnv

	driver *transition.Driver
}

func New(from common.Address, cfg spec.CfgEnv, block spec.BlockEnv) *Caller {
	return &Caller{From: from, Cfg: cfg, Block: block, driver: transition.NewDriver()}
}

// BypassCheck turns on every policy toggle, for running with synthetic
// addresses (spec.md §4.5).
func (c *Caller) BypassCheck() *Caller {
	c.Cfg.DisableBalanceCheck = true
	c.Cfg.DisableBaseFee = true
	c.Cfg.DisableBlockGasLimit = true
	c.Cfg.DisableEIP3607 = true
	c.Cfg.DisableGasRefund = true
	c.Cfg.DisableNonceCheck = true
	return c
}

// SetEVMVersion pins the hardfork SpecID this caller executes against. This
// supplements spec.md §4.5: the distilled spec names cfg as a caller field
// but not a setter for it; real callers routinely need to pin an EVM
// version independent of whatever a provider would resolve.
func (c *Caller) SetEVMVersion(id uint8) *Caller {
	c.Cfg.SpecID = id
	return c
}

func (c *Caller) singleTxSpec(to common.Address, value *big.Int, data []byte) spec.TransitionSpec {
	tx := spec.TxEnv{
		Caller:     c.From,
		TransactTo: spec.Call(to),
		Value:      value,
		Data:       data,
		GasLimit:   c.Block.GasLimit,
		GasPrice:   big.NewInt(0),
		Nonce:      c.Nonce,
	}
	return spec.TransitionSpec{Cfg: c.Cfg, Block: c.Block, Txs: []spec.TxEnv{tx}}
}

// StaticCall runs against a ForkedView so no commit happens; returns the
// output on Success, fails with Exec otherwise (spec.md §4.5).
func (c *Caller) StaticCall(st *state.CachedState, callee common.Address, calldata []byte) ([]byte, error) {
	sp := c.singleTxSpec(callee, big.NewInt(0), calldata)
	results, err := c.driver.DryRun(st, sp, inspector.Shared)
	if err != nil {
		return nil, err
	}
	return outputOrExec(results[0])
}

// Call commits on Success (spec.md §4.5).
func (c *Caller) Call(st *state.CachedState, callee common.Address, calldata []byte) ([]byte, error) {
	sp := c.singleTxSpec(callee, big.NewInt(0), calldata)
	results, err := c.driver.Transit(st, sp, inspector.Shared)
	if err != nil {
		return nil, err
	}
	return outputOrExec(results[0])
}

// View wraps StaticCall with ABI encode/decode (spec.md §4.5).
func (c *Caller) View(st *state.CachedState, callee common.Address, method *abi.Method, args ...any) ([]any, error) {
	calldata, err := method.Inputs.Pack(args...)
	if err != nil {
		return nil, solerr.Abi(err, "caller: pack view args for %s", method.Name)
	}
	calldata = append(method.ID, calldata...)

	out, err := c.StaticCall(st, callee, calldata)
	if err != nil {
		return nil, err
	}
	decoded, err := method.Outputs.Unpack(out)
	if err != nil {
		return nil, solerr.Abi(err, "caller: unpack view result for %s", method.Name)
	}
	return decoded, nil
}

// Invoke wraps Call with ABI encode/decode (spec.md §4.5).
func (c *Caller) Invoke(st *state.CachedState, callee common.Address, method *abi.Method, args ...any) ([]any, error) {
	calldata, err := method.Inputs.Pack(args...)
	if err != nil {
		return nil, solerr.Abi(err, "caller: pack invoke args for %s", method.Name)
	}
	calldata = append(method.ID, calldata...)

	out, err := c.Call(st, callee, calldata)
	if err != nil {
		return nil, err
	}
	decoded, err := method.Outputs.Unpack(out)
	if err != nil {
		return nil, solerr.Abi(err, "caller: unpack invoke result for %s", method.Name)
	}
	return decoded, nil
}

// Create constructs a contract via CREATE (or CREATE2 when salt is
// non-nil), committing its StateChange and returning the resulting address
// on success (spec.md §4.5).
func (c *Caller) Create(st *state.CachedState, initCode []byte, salt *big.Int, insp inspector.Inspector) (transition.ExecutionResult, *common.Address, error) {
	scheme := spec.CreateScheme{}
	if salt != nil {
		scheme = spec.CreateScheme{Create2: true, Salt: salt}
	}
	tx := spec.TxEnv{
		Caller:     c.From,
		TransactTo: spec.Create(scheme),
		Value:      big.NewInt(0),
		Data:       initCode,
		GasLimit:   c.Block.GasLimit,
		GasPrice:   big.NewInt(0),
		Nonce:      c.Nonce,
	}
	sp := spec.TransitionSpec{Cfg: c.Cfg, Block: c.Block, Txs: []spec.TxEnv{tx}}
	if insp == nil {
		insp = inspector.Shared
	}
	results, err := c.driver.Transit(st, sp, insp)
	if err != nil {
		return transition.ExecutionResult{}, nil, err
	}
	result := results[0]
	if !result.IsSuccess() {
		return result, nil, nil
	}
	addr := crypto.CreateAddress(c.From, c.Nonce)
	if scheme.Create2 {
		addr = crypto.CreateAddress2(c.From, toHash32(scheme.Salt), crypto.Keccak256(initCode))
	}
	return result, &addr, nil
}

func toHash32(v *big.Int) [32]byte {
	var out [32]byte
	v.FillBytes(out[:])
	return out
}

func outputOrExec(result transition.ExecutionResult) ([]byte, error) {
	if result.IsSuccess() {
		return result.Output, nil
	}
	return nil, solerr.Exec("caller: expected Success, got %v", result.Kind)
}
