package op

import (
	"math/big"

	"github.com/qingah/zkdpos/foundation/zkdpos/packing"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// TransferOp is an executed transfer between two existing accounts.
type TransferOp struct {
	Tx   *tx.Transfer
	From types.AccountID
	To   types.AccountID
}

// Tag implements the Op interface.
func (TransferOp) Tag() byte { return TagTransfer }

// Chunks implements the Op interface.
func (TransferOp) Chunks() int { return TransferChunks }

// PublicData implements the Op interface. The transfer layout packs both
// numeric fields and fills its two chunks exactly, no padding.
func (o TransferOp) PublicData() ([]byte, error) {
	amount, err := packing.PackAmount(o.Tx.Amount)
	if err != nil {
		return nil, err
	}

	fee, err := packing.PackFee(o.Tx.Fee)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, TransferChunks*ChunkBytes)
	data = append(data, TagTransfer)
	data = appendU32(data, uint32(o.From))
	data = appendU16(data, uint16(o.Tx.Token))
	data = append(data, amount...)
	data = append(data, fee...)
	data = appendU32(data, uint32(o.To))

	return pad(data, TransferChunks), nil
}

// UpdatedAccountIDs implements the Op interface.
func (o TransferOp) UpdatedAccountIDs() []types.AccountID {
	return []types.AccountID{o.From, o.To}
}

// transferFromPublicData restores the fields the public data carries. The
// sender and recipient addresses, the nonce and the signature are not
// part of the pubdata and come back zero valued.
func transferFromPublicData(data []byte) (TransferOp, error) {
	from := types.AccountID(getU32(data, 1))
	token := types.TokenID(getU16(data, 5))

	amount, err := packing.UnpackAmount(data[7:12])
	if err != nil {
		return TransferOp{}, err
	}

	fee, err := packing.UnpackFee(data[12:14])
	if err != nil {
		return TransferOp{}, err
	}

	to := types.AccountID(getU32(data, 14))

	return TransferOp{
		Tx: &tx.Transfer{
			AccountID: from,
			Token:     token,
			Amount:    amount,
			Fee:       fee,
			TimeRange: tx.DefaultTimeRange(),
		},
		From: from,
		To:   to,
	}, nil
}

// =============================================================================

// TransferToNewOp is a transfer whose recipient account does not exist
// yet and has to be created. It is represented by the same Transfer
// transaction but carries the recipient address in its public data so the
// account can be restored from L1.
type TransferToNewOp struct {
	Tx   *tx.Transfer
	From types.AccountID
	To   types.AccountID
}

// Tag implements the Op interface.
func (TransferToNewOp) Tag() byte { return TagTransferToNew }

// Chunks implements the Op interface.
func (TransferToNewOp) Chunks() int { return TransferToNewChunks }

// PublicData implements the Op interface.
func (o TransferToNewOp) PublicData() ([]byte, error) {
	amount, err := packing.PackAmount(o.Tx.Amount)
	if err != nil {
		return nil, err
	}

	fee, err := packing.PackFee(o.Tx.Fee)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, TransferToNewChunks*ChunkBytes)
	data = append(data, TagTransferToNew)
	data = appendU32(data, uint32(o.From))
	data = appendU16(data, uint16(o.Tx.Token))
	data = append(data, amount...)
	data = append(data, o.Tx.To.Bytes()...)
	data = appendU32(data, uint32(o.To))
	data = append(data, fee...)

	return pad(data, TransferToNewChunks), nil
}

// UpdatedAccountIDs implements the Op interface.
func (o TransferToNewOp) UpdatedAccountIDs() []types.AccountID {
	return []types.AccountID{o.From, o.To}
}

func transferToNewFromPublicData(data []byte) (TransferToNewOp, error) {
	from := types.AccountID(getU32(data, 1))
	token := types.TokenID(getU16(data, 5))

	amount, err := packing.UnpackAmount(data[7:12])
	if err != nil {
		return TransferToNewOp{}, err
	}

	var toAddr types.Address
	copy(toAddr[:], data[12:32])

	to := types.AccountID(getU32(data, 32))

	fee, err := packing.UnpackFee(data[36:38])
	if err != nil {
		return TransferToNewOp{}, err
	}

	return TransferToNewOp{
		Tx: &tx.Transfer{
			AccountID: from,
			To:        toAddr,
			Token:     token,
			Amount:    amount,
			Fee:       fee,
			TimeRange: tx.DefaultTimeRange(),
		},
		From: from,
		To:   to,
	}, nil
}

// =============================================================================

func appendU16(data []byte, v uint16) []byte {
	return append(data, byte(v>>8), byte(v))
}

func appendU32(data []byte, v uint32) []byte {
	return append(data, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func append16Bytes(data []byte, v *big.Int) []byte {
	var slot [16]byte
	v.FillBytes(slot[:])
	return append(data, slot[:]...)
}
