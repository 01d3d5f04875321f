package collateral

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/sofl-go/sofl/inspector"
)

type fixedCodeLookup map[common.Address]int

func (f fixedCodeLookup) GetCodeSize(addr common.Address) int { return f[addr] }

// Mirrors spec.md §8 end-to-end test 5: a contract whose only external
// action is a native-asset transfer to an EOA. ExtractInvocation should
// report exactly one address (the contract itself, invoked by the
// top-level call into it), not the EOA recipient of the inner transfer.
func TestExtractInvocationFiltersNonContractCallees(t *testing.T) {
	contract := common.HexToAddress("0x01")
	eoa := common.HexToAddress("0x123456")

	lookup := fixedCodeLookup{contract: 10}
	e := NewExtractInvocation(lookup)

	e.Call(&inspector.CallInputs{CodeAddress: contract})
	e.Call(&inspector.CallInputs{CodeAddress: eoa})

	addrs := e.Addresses()
	require.Equal(t, []common.Address{contract}, addrs)
}

func TestExtractInvocationIncludesContractsCreatedThisTx(t *testing.T) {
	child := common.HexToAddress("0x02")
	e := NewExtractInvocation(fixedCodeLookup{})

	e.CreateEnd(&inspector.CreateInputs{}, inspector.CreateOutcome{Success: true, Address: &child})
	e.Call(&inspector.CallInputs{CodeAddress: child})

	require.Equal(t, []common.Address{child}, e.Addresses())
}

func TestExtractInvocationDedupesRepeatedCalls(t *testing.T) {
	target := common.HexToAddress("0x05")
	e := NewExtractInvocation(fixedCodeLookup{target: 1})

	e.Call(&inspector.CallInputs{CodeAddress: target})
	e.Call(&inspector.CallInputs{CodeAddress: target})

	require.Equal(t, []common.Address{target}, e.Addresses())
}
