package tx

import (
	"encoding/binary"
	"math/big"

	"github.com/qingah/zkdpos/foundation/zkdpos/packing"
	"github.com/qingah/zkdpos/foundation/zkdpos/signature"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// ForcedExit withdraws the full balance of a locked target account to its
// own L1 address. The initiator pays the fee and signs the transaction;
// whether the initiator is allowed to force the target out is decided by
// the state collaborator, not here.
type ForcedExit struct {
	InitiatorAccountID types.AccountID       `json:"initiatorAccountId"`
	Target             types.Address         `json:"target"`
	Token              types.TokenID         `json:"token"`
	Fee                *big.Int              `json:"fee"`
	Nonce              types.Nonce           `json:"nonce"`
	TimeRange          TimeRange             `json:"timeRange"`
	Signature          signature.TxSignature `json:"signature"`
}

// TxType implements the Tx interface.
func (fe *ForcedExit) TxType() byte { return TypeForcedExit }

// Bytes returns the canonical signing preimage.
func (fe *ForcedExit) Bytes() ([]byte, error) {
	fee, err := packing.PackFee(fe.Fee)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 49)
	out = append(out, TypeForcedExit)
	out = binary.BigEndian.AppendUint32(out, uint32(fe.InitiatorAccountID))
	out = append(out, fe.Target.Bytes()...)
	out = binary.BigEndian.AppendUint16(out, uint16(fe.Token))
	out = append(out, fee...)
	out = binary.BigEndian.AppendUint32(out, uint32(fe.Nonce))
	out = append(out, fe.TimeRange.Bytes()...)

	return out, nil
}

// ValidateStatic implements the Tx interface.
func (fe *ForcedExit) ValidateStatic() error {
	if fe.InitiatorAccountID > types.MaxAccountID {
		return validationErr("initiatorAccountId", "out of range")
	}
	if fe.Token > types.MaxTokenID {
		return validationErr("token", "out of range")
	}
	if !packing.IsPackableFee(fe.Fee) {
		return validationErr("fee", "not packable")
	}
	if !fe.TimeRange.Check() {
		return validationErr("timeRange", "validFrom after validUntil")
	}

	return nil
}

// VerifySignature implements the Tx interface.
func (fe *ForcedExit) VerifySignature(network types.Network) (types.PubKeyHash, error) {
	return verify(fe, fe.Signature, network)
}

// SenderAccountID implements the Tx interface.
func (fe *ForcedExit) SenderAccountID() types.AccountID { return fe.InitiatorAccountID }

// TxNonce implements the Tx interface.
func (fe *ForcedExit) TxNonce() types.Nonce { return fe.Nonce }

// FeeTokenID implements the Tx interface.
func (fe *ForcedExit) FeeTokenID() types.TokenID { return fe.Token }

// TxFee implements the Tx interface.
func (fe *ForcedExit) TxFee() *big.Int { return fe.Fee }
