package tx

import (
	"encoding/binary"
	"math/big"

	"github.com/qingah/zkdpos/foundation/zkdpos/packing"
	"github.com/qingah/zkdpos/foundation/zkdpos/signature"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Transfer moves funds between two L2 accounts. The fee is paid in the
// transferred token.
type Transfer struct {
	AccountID types.AccountID       `json:"accountId"`
	From      types.Address         `json:"from"`
	To        types.Address         `json:"to"`
	Token     types.TokenID         `json:"token"`
	Amount    *big.Int              `json:"amount"`
	Fee       *big.Int              `json:"fee"`
	Nonce     types.Nonce           `json:"nonce"`
	TimeRange TimeRange             `json:"timeRange"`
	Signature signature.TxSignature `json:"signature"`
}

// TxType implements the Tx interface.
func (t *Transfer) TxType() byte { return TypeTransfer }

// Bytes returns the canonical signing preimage. Both the amount and the
// fee are signed in their packed form, exactly as they appear in the
// public data.
func (t *Transfer) Bytes() ([]byte, error) {
	amount, err := packing.PackAmount(t.Amount)
	if err != nil {
		return nil, err
	}

	fee, err := packing.PackFee(t.Fee)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 74)
	out = append(out, TypeTransfer)
	out = binary.BigEndian.AppendUint32(out, uint32(t.AccountID))
	out = append(out, t.From.Bytes()...)
	out = append(out, t.To.Bytes()...)
	out = binary.BigEndian.AppendUint16(out, uint16(t.Token))
	out = append(out, amount...)
	out = append(out, fee...)
	out = binary.BigEndian.AppendUint32(out, uint32(t.Nonce))
	out = append(out, t.TimeRange.Bytes()...)

	return out, nil
}

// ValidateStatic implements the Tx interface.
func (t *Transfer) ValidateStatic() error {
	if t.AccountID > types.MaxAccountID {
		return validationErr("accountId", "out of range")
	}
	if t.Token > types.MaxTokenID {
		return validationErr("token", "out of range")
	}
	if !packing.IsPackableAmount(t.Amount) {
		return validationErr("amount", "not packable")
	}
	if !packing.IsPackableFee(t.Fee) {
		return validationErr("fee", "not packable")
	}
	if !t.TimeRange.Check() {
		return validationErr("timeRange", "validFrom after validUntil")
	}

	return nil
}

// VerifySignature implements the Tx interface.
func (t *Transfer) VerifySignature(network types.Network) (types.PubKeyHash, error) {
	return verify(t, t.Signature, network)
}

// SenderAccountID implements the Tx interface.
func (t *Transfer) SenderAccountID() types.AccountID { return t.AccountID }

// TxNonce implements the Tx interface.
func (t *Transfer) TxNonce() types.Nonce { return t.Nonce }

// FeeTokenID implements the Tx interface.
func (t *Transfer) FeeTokenID() types.TokenID { return t.Token }

// TxFee implements the Tx interface.
func (t *Transfer) TxFee() *big.Int { return t.Fee }
