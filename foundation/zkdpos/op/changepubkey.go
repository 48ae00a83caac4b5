package op

import (
	"github.com/qingah/zkdpos/foundation/zkdpos/packing"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// ChangePubKeyOp is an executed signing key rotation.
type ChangePubKeyOp struct {
	Tx        *tx.ChangePubKey
	AccountID types.AccountID
}

// Tag implements the Op interface.
func (ChangePubKeyOp) Tag() byte { return TagChangePubKey }

// Chunks implements the Op interface.
func (ChangePubKeyOp) Chunks() int { return ChangePubKeyChunks }

// PublicData implements the Op interface.
func (o ChangePubKeyOp) PublicData() ([]byte, error) {
	fee, err := packing.PackFee(o.Tx.Fee)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, ChangePubKeyChunks*ChunkBytes)
	data = append(data, TagChangePubKey)
	data = appendU32(data, uint32(o.AccountID))
	data = append(data, o.Tx.NewPkHash[:]...)
	data = append(data, o.Tx.Account.Bytes()...)
	data = appendU32(data, uint32(o.Tx.Nonce))
	data = appendU16(data, uint16(o.Tx.FeeToken))
	data = append(data, fee...)

	return pad(data, ChangePubKeyChunks), nil
}

// EthWitness implements the Witnesser interface. The witness carries the
// L1 authorization so the contract can check the rotation was approved.
func (o ChangePubKeyOp) EthWitness() []byte {
	if witness := o.Tx.EthWitness(); witness != nil {
		return witness
	}

	// No auth data means the rotation is authorized purely by the L2
	// signature. The contract still receives a marker byte.
	out := make([]byte, 0, 1+len(o.Tx.Signature.Sig))
	out = append(out, 0x02)
	out = append(out, o.Tx.Signature.Sig[:]...)
	return out
}

// UpdatedAccountIDs implements the Op interface.
func (o ChangePubKeyOp) UpdatedAccountIDs() []types.AccountID {
	return []types.AccountID{o.AccountID}
}

func changePubKeyFromPublicData(data []byte) (ChangePubKeyOp, error) {
	accountID := types.AccountID(getU32(data, 1))

	pkh, err := types.PubKeyHashFromBytes(data[5:25])
	if err != nil {
		return ChangePubKeyOp{}, err
	}

	var account types.Address
	copy(account[:], data[25:45])

	nonce := types.Nonce(getU32(data, 45))
	feeToken := types.TokenID(getU16(data, 49))

	fee, err := packing.UnpackFee(data[51:53])
	if err != nil {
		return ChangePubKeyOp{}, err
	}

	return ChangePubKeyOp{
		Tx: &tx.ChangePubKey{
			AccountID: accountID,
			Account:   account,
			NewPkHash: pkh,
			FeeToken:  feeToken,
			Fee:       fee,
			Nonce:     nonce,
			TimeRange: tx.DefaultTimeRange(),
		},
		AccountID: accountID,
	}, nil
}
