package collateral

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/sofl-go/sofl/inspector"
)

func TestCallExtractRecordsNestedCallsInCompletionOrder(t *testing.T) {
	e := NewCallExtract(nil)
	outer := common.HexToAddress("0x01")
	inner := common.HexToAddress("0x02")

	e.Call(&inspector.CallInputs{Caller: common.HexToAddress("0xee"), Callee: outer, CodeAddress: outer, GasLimit: 1000})
	e.Call(&inspector.CallInputs{Caller: outer, Callee: inner, CodeAddress: inner, GasLimit: 500, ApparentValue: uint256.NewInt(7)})
	e.CallEnd(&inspector.CallInputs{}, inspector.CallOutcome{Success: true, Output: []byte("inner-out")})
	e.CallEnd(&inspector.CallInputs{}, inspector.CallOutcome{Success: true, Output: []byte("outer-out")})

	records := e.Records()
	require.Len(t, records, 2)
	require.Equal(t, inner, records[0].Callee)
	require.Equal(t, ResultSuccess, records[0].Result)
	require.Equal(t, []byte("inner-out"), records[0].Output)
	require.Equal(t, outer, records[1].Callee)
}

func TestCallExtractFiltersByTarget(t *testing.T) {
	target := common.HexToAddress("0x03")
	other := common.HexToAddress("0x04")
	e := NewCallExtract(&target)

	e.Call(&inspector.CallInputs{Callee: other, CodeAddress: other})
	e.CallEnd(&inspector.CallInputs{}, inspector.CallOutcome{Success: true})

	e.Call(&inspector.CallInputs{Callee: target, CodeAddress: target})
	e.CallEnd(&inspector.CallInputs{}, inspector.CallOutcome{Success: false})

	records := e.Records()
	require.Len(t, records, 1)
	require.Equal(t, target, records[0].Callee)
	require.Equal(t, ResultFailure, records[0].Result)
}

func TestCallExtractRecordsCreateWithResultingAddress(t *testing.T) {
	e := NewCallExtract(nil)
	created := common.HexToAddress("0x05")

	e.Create(&inspector.CreateInputs{Caller: common.HexToAddress("0xee"), Value: uint256.NewInt(0)})
	e.CreateEnd(&inspector.CreateInputs{}, inspector.CreateOutcome{Success: true, Address: &created})

	records := e.Records()
	require.Len(t, records, 1)
	require.True(t, records[0].IsCreate)
	require.Equal(t, created, records[0].Callee)
}
