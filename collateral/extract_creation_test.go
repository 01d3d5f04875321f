package collateral

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/sofl-go/sofl/inspector"
)

// Mirrors spec.md §8 end-to-end test 4: a constructor deploys one child via
// CREATE2 and nothing self-destructs; ExtractCreation should report exactly
// two entries (the outer contract and the child), both not destroyed.
func TestExtractCreationRecordsBothCreationsNoDestruction(t *testing.T) {
	e := NewExtractCreation()
	outer := common.HexToAddress("0x01")
	child := common.HexToAddress("0x02")

	e.CreateEnd(&inspector.CreateInputs{}, inspector.CreateOutcome{Success: true, Address: &outer})
	e.CreateEnd(&inspector.CreateInputs{}, inspector.CreateOutcome{Success: true, Address: &child})

	records := e.Records()
	require.Len(t, records, 2)
	for _, r := range records {
		require.False(t, r.Destroyed)
	}
	require.Equal(t, outer, records[0].Address)
	require.Equal(t, child, records[1].Address)
}

func TestExtractCreationMarksDestroyedWhenSelfDestructedSameTx(t *testing.T) {
	e := NewExtractCreation()
	addr := common.HexToAddress("0x03")
	e.CreateEnd(&inspector.CreateInputs{}, inspector.CreateOutcome{Success: true, Address: &addr})

	e.SelfDestruct(addr, common.HexToAddress("0x99"), nil)

	records := e.Records()
	require.Len(t, records, 1)
	require.True(t, records[0].Destroyed)
}

func TestExtractCreationDestructionOfPreexistingContract(t *testing.T) {
	e := NewExtractCreation()
	addr := common.HexToAddress("0x04")

	e.SelfDestruct(addr, common.HexToAddress("0x99"), nil)

	records := e.Records()
	require.Len(t, records, 1)
	require.Equal(t, addr, records[0].Address)
	require.True(t, records[0].Destroyed)
}

func TestExtractCreationFailedCreateNotRecorded(t *testing.T) {
	e := NewExtractCreation()
	e.CreateEnd(&inspector.CreateInputs{}, inspector.CreateOutcome{Success: false})
	require.Empty(t, e.Records())
}
