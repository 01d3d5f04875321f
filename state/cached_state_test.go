package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestCachedStateFallsThroughToParent(t *testing.T) {
	parent := NewMemoryReadOnlyRef()
	addr := common.HexToAddress("0x01")
	parent.SetAccount(addr, AccountInfo{Balance: uint256.NewInt(100), CodeHash: KeccakEmpty})
	parent.SetStorage(addr, common.HexToHash("0x1"), common.HexToHash("0x2"))

	cs := NewCachedState(parent)
	require.True(t, cs.Exist(addr))
	require.Equal(t, uint256.NewInt(100), cs.GetBalance(addr))
	require.Equal(t, common.HexToHash("0x2"), cs.GetState(addr, common.HexToHash("0x1")))

	other := common.HexToAddress("0x02")
	require.False(t, cs.Exist(other))
	require.True(t, cs.Empty(other))
}

func TestCachedStateBalanceJournalRevert(t *testing.T) {
	cs := NewCachedState(NewMemoryReadOnlyRef())
	addr := common.HexToAddress("0xaa")

	snap := cs.Snapshot()
	cs.AddBalance(addr, uint256.NewInt(50), tracing.BalanceChangeUnspecified)
	require.Equal(t, uint256.NewInt(50), cs.GetBalance(addr))

	cs.RevertToSnapshot(snap)
	require.True(t, cs.GetBalance(addr).IsZero())
}

func TestCachedStateStorageJournalRevert(t *testing.T) {
	cs := NewCachedState(NewMemoryReadOnlyRef())
	addr := common.HexToAddress("0xbb")
	key := common.HexToHash("0x1")

	snap := cs.Snapshot()
	prev := cs.SetState(addr, key, common.HexToHash("0xff"))
	require.Equal(t, common.Hash{}, prev)
	require.Equal(t, common.HexToHash("0xff"), cs.GetState(addr, key))

	cs.RevertToSnapshot(snap)
	require.Equal(t, common.Hash{}, cs.GetState(addr, key))
}

func TestCachedStateDiffAndCommit(t *testing.T) {
	root := NewCachedState(NewMemoryReadOnlyRef())
	addr := common.HexToAddress("0xcc")
	root.InsertAccountInfo(addr, AccountInfo{Balance: uint256.NewInt(10), CodeHash: KeccakEmpty})

	scratch := root.Fork()
	scratch.AddBalance(addr, uint256.NewInt(5), tracing.BalanceChangeUnspecified)
	scratch.SetState(addr, common.HexToHash("0x1"), common.HexToHash("0x9"))

	diff := scratch.Diff()
	require.False(t, diff.Empty())

	root.Commit(diff)
	require.Equal(t, uint256.NewInt(15), root.GetBalance(addr))
	require.Equal(t, common.HexToHash("0x9"), root.GetState(addr, common.HexToHash("0x1")))
}

func TestCachedStateSelfDestruct6780(t *testing.T) {
	cs := NewCachedState(NewMemoryReadOnlyRef())
	addr := common.HexToAddress("0xdd")
	cs.CreateContract(addr)
	cs.AddBalance(addr, uint256.NewInt(7), tracing.BalanceChangeUnspecified)

	bal, destroyed := cs.Selfdestruct6780(addr)
	require.Equal(t, *uint256.NewInt(7), bal)
	require.True(t, destroyed)
	require.True(t, cs.HasSelfDestructed(addr))
}

func TestCachedStateSelfDestruct6780NotCreatedThisTx(t *testing.T) {
	parent := NewMemoryReadOnlyRef()
	addr := common.HexToAddress("0xee")
	parent.SetAccount(addr, AccountInfo{Balance: uint256.NewInt(7), CodeHash: KeccakEmpty})

	cs := NewCachedState(parent)
	bal, destroyed := cs.Selfdestruct6780(addr)
	require.Equal(t, *uint256.NewInt(7), bal)
	require.False(t, destroyed)
	require.False(t, cs.HasSelfDestructed(addr))
	require.True(t, cs.GetBalance(addr).IsZero())
}

func TestCachedStateAccessList(t *testing.T) {
	cs := NewCachedState(NewMemoryReadOnlyRef())
	addr := common.HexToAddress("0x01")
	slot := common.HexToHash("0x1")

	require.False(t, cs.AddressInAccessList(addr))
	snap := cs.Snapshot()
	cs.AddSlotToAccessList(addr, slot)
	addrOk, slotOk := cs.SlotInAccessList(addr, slot)
	require.True(t, addrOk)
	require.True(t, slotOk)

	cs.RevertToSnapshot(snap)
	require.False(t, cs.AddressInAccessList(addr))
}
