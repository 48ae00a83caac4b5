package tx

import (
	"encoding/binary"
	"math/big"

	"github.com/qingah/zkdpos/foundation/zkdpos/packing"
	"github.com/qingah/zkdpos/foundation/zkdpos/signature"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Withdraw moves funds from an L2 account to an L1 address. The amount is
// carried in full width so the settlement contract can release it without
// unpacking, only the fee is packed.
type Withdraw struct {
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
func (w *Withdraw) TxType() byte { return TypeWithdraw }

// Bytes returns the canonical signing preimage.
func (w *Withdraw) Bytes() ([]byte, error) {
	if !amountFits16(w.Amount) {
		return nil, validationErr("amount", "exceeds 128 bits")
	}

	fee, err := packing.PackFee(w.Fee)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 85)
	out = append(out, TypeWithdraw)
	out = binary.BigEndian.AppendUint32(out, uint32(w.AccountID))
	out = append(out, w.From.Bytes()...)
	out = append(out, w.To.Bytes()...)
	out = binary.BigEndian.AppendUint16(out, uint16(w.Token))
	out = append16(out, w.Amount)
	out = append(out, fee...)
	out = binary.BigEndian.AppendUint32(out, uint32(w.Nonce))
	out = append(out, w.TimeRange.Bytes()...)

	return out, nil
}

// ValidateStatic implements the Tx interface.
func (w *Withdraw) ValidateStatic() error {
	if w.AccountID > types.MaxAccountID {
		return validationErr("accountId", "out of range")
	}
	if w.Token > types.MaxTokenID {
		return validationErr("token", "out of range")
	}
	if !amountFits16(w.Amount) {
		return validationErr("amount", "exceeds 128 bits")
	}
	if !packing.IsPackableFee(w.Fee) {
		return validationErr("fee", "not packable")
	}
	if !w.TimeRange.Check() {
		return validationErr("timeRange", "validFrom after validUntil")
	}

	return nil
}

// VerifySignature implements the Tx interface.
func (w *Withdraw) VerifySignature(network types.Network) (types.PubKeyHash, error) {
	return verify(w, w.Signature, network)
}

// SenderAccountID implements the Tx interface.
func (w *Withdraw) SenderAccountID() types.AccountID { return w.AccountID }

// TxNonce implements the Tx interface.
func (w *Withdraw) TxNonce() types.Nonce { return w.Nonce }

// FeeTokenID implements the Tx interface.
func (w *Withdraw) FeeTokenID() types.TokenID { return w.Token }

// TxFee implements the Tx interface.
func (w *Withdraw) TxFee() *big.Int { return w.Fee }
