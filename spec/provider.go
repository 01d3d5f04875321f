package spec

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// BlockID names a block either by number or by hash; exactly one field is
// set, mirroring the "either hash or position" tagged unions spec.md §6 and
// §9 call for instead of implicit coercions.
type BlockID struct {
	Number *uint64
	Hash   *common.Hash
}

func BlockNumber(n uint64) BlockID    { return BlockID{Number: &n} }
func BlockHashID(h common.Hash) BlockID { return BlockID{Hash: &h} }

// TxPosition identifies a transaction by its block and index within it.
type TxPosition struct {
	Block BlockID
	Index uint64
}

// TxRef is either a transaction hash or a TxPosition.
type TxRef struct {
	Hash     *common.Hash
	Position *TxPosition
}

func TxByHash(h common.Hash) TxRef    { return TxRef{Hash: &h} }
func TxByPosition(p TxPosition) TxRef { return TxRef{Position: &p} }

// Tx is the provider's view of one transaction: enough to fill a TxEnv, plus
// its historical outcome once mined (spec.md §6.1).
type Tx struct {
	Hash     common.Hash
	Sender   common.Address
	To       *common.Address
	Position *TxPosition
	Output   []byte
	Success  *bool
	Logs     []*types.Log

	// Raw is the full signed transaction. FillTxEnv uses it to recover
	// every TxEnv field; Sender/To/Hash above are denormalized for
	// providers that only keep a lightweight index.
	Raw *types.Transaction
}

// FillTxEnv copies this Tx's fields into env, recovering gas/value/access
// list/blob fields from the raw signed transaction when present.
func (t Tx) FillTxEnv(env *TxEnv) {
	env.Caller = t.Sender
	if t.To != nil {
		env.TransactTo = Call(*t.To)
	} else {
		env.TransactTo = Create(CreateScheme{})
	}
	if t.Raw == nil {
		return
	}
	env.Data = t.Raw.Data()
	env.GasLimit = t.Raw.Gas()
	env.GasPrice = t.Raw.GasPrice()
	env.Nonce = t.Raw.Nonce()
	env.Value = t.Raw.Value()
	env.AccessList = t.Raw.AccessList()
	env.ChainID = t.Raw.ChainId()
	env.BlobHashes = t.Raw.BlobHashes()
	if tip := t.Raw.GasTipCap(); tip != nil {
		env.PriorityFee = tip
	}
	if fee := t.Raw.BlobGasFeeCap(); fee != nil {
		env.MaxFeePerBlobGas = fee
	}
}

// BcProvider is the read side of an external blockchain data source
// (spec.md §6.1). Archival-database and JSON-RPC adapters both implement
// it; neither ships with this module (spec.md §1).
type BcProvider interface {
	TransactionsByBlock(block BlockID) ([]Tx, error)
	Tx(ref TxRef) (Tx, error)
	ReceiptsByBlock(block BlockID) ([]*types.Receipt, error)

	FillCfgEnv(env *CfgEnv, block BlockID) error
	FillBlockEnv(env *BlockEnv, block BlockID) error
	FillTxEnv(env *TxEnv, ref TxRef) error
}
