package tx

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/qingah/zkdpos/foundation/zkdpos/packing"
	"github.com/qingah/zkdpos/foundation/zkdpos/signature"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// ErrInvalidAuth is returned when the ChangePubKey L1 authorization data
// does not authorize the account in the transaction.
var ErrInvalidAuth = errors.New("invalid changepubkey authorization")

// ethSignedDataLen is the fixed size of the message the L1 key signs to
// authorize a ChangePubKey: pubkey hash, nonce, account id and batch hash.
const ethSignedDataLen = 60

// =============================================================================

// EthAuthData is the alternative L1 authorization carried by a
// ChangePubKey. Accounts that can't produce an Ethereum signature (smart
// contract wallets) authorize on chain or through CREATE2 derivation.
type EthAuthData interface {
	// Witness returns the bytes handed to the settlement contract to
	// verify the authorization.
	Witness() []byte
}

// AuthOnchain marks a ChangePubKey authorized by a prior L1 contract call.
// The actual check is performed by the L1 watcher collaborator.
type AuthOnchain struct{}

// Witness implements the EthAuthData interface.
func (AuthOnchain) Witness() []byte { return nil }

// AuthECDSA authorizes a ChangePubKey with an Ethereum signature from the
// account's L1 key.
type AuthECDSA struct {
	EthSignature signature.PackedEthSignature `json:"ethSignature"`
	BatchHash    types.Hash                   `json:"batchHash"`
}

// Witness implements the EthAuthData interface.
func (a AuthECDSA) Witness() []byte {
	out := make([]byte, 0, 1+signature.EthSigLen)
	out = append(out, 0x00)
	out = append(out, a.EthSignature[:]...)
	return out
}

// AuthCREATE2 authorizes a ChangePubKey for an account whose address is
// derived from the new pubkey hash via CREATE2.
type AuthCREATE2 struct {
	CreatorAddress types.Address `json:"creatorAddress"`
	SaltArg        types.Hash    `json:"saltArg"`
	CodeHash       types.Hash    `json:"codeHash"`
}

// Witness implements the EthAuthData interface.
func (a AuthCREATE2) Witness() []byte {
	out := make([]byte, 0, 1+20+32+32)
	out = append(out, 0x01)
	out = append(out, a.CreatorAddress.Bytes()...)
	out = append(out, a.SaltArg.Bytes()...)
	out = append(out, a.CodeHash.Bytes()...)
	return out
}

// Address derives the CREATE2 account address bound to the pubkey hash.
func (a AuthCREATE2) Address(pkh types.PubKeyHash) types.Address {
	salt := crypto.Keccak256(a.SaltArg.Bytes(), pkh[:])

	preimage := make([]byte, 0, 1+20+32+32)
	preimage = append(preimage, 0xff)
	preimage = append(preimage, a.CreatorAddress.Bytes()...)
	preimage = append(preimage, salt...)
	preimage = append(preimage, a.CodeHash.Bytes()...)

	var addr types.Address
	copy(addr[:], crypto.Keccak256(preimage)[12:])
	return addr
}

// =============================================================================

// ChangePubKey rotates the L2 signing key of an account by committing a
// new pubkey hash. The transaction is signed with the NEW key so the fee
// fields can't be tampered with, and additionally requires an L1
// authorization proving the account owner approved the rotation.
type ChangePubKey struct {
	AccountID types.AccountID       `json:"accountId"`
	Account   types.Address         `json:"account"`
	NewPkHash types.PubKeyHash      `json:"newPkHash"`
	FeeToken  types.TokenID         `json:"feeToken"`
	Fee       *big.Int              `json:"fee"`
	Nonce     types.Nonce           `json:"nonce"`
	TimeRange TimeRange             `json:"timeRange"`
	Signature signature.TxSignature `json:"signature"`
	EthAuth   EthAuthData           `json:"-"`
}

// TxType implements the Tx interface.
func (cpk *ChangePubKey) TxType() byte { return TypeChangePubKey }

// Bytes returns the canonical signing preimage.
func (cpk *ChangePubKey) Bytes() ([]byte, error) {
	fee, err := packing.PackFee(cpk.Fee)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 69)
	out = append(out, TypeChangePubKey)
	out = binary.BigEndian.AppendUint32(out, uint32(cpk.AccountID))
	out = append(out, cpk.Account.Bytes()...)
	out = append(out, cpk.NewPkHash[:]...)
	out = binary.BigEndian.AppendUint16(out, uint16(cpk.FeeToken))
	out = append(out, fee...)
	out = binary.BigEndian.AppendUint32(out, uint32(cpk.Nonce))
	out = append(out, cpk.TimeRange.Bytes()...)

	return out, nil
}

// EthSignedData returns the message the L1 key signs to authorize the
// rotation. Fee fields are deliberately excluded: they are covered by the
// L2 signature, which is free to verify in the circuit.
func (cpk *ChangePubKey) EthSignedData() []byte {
	out := make([]byte, 0, ethSignedDataLen)
	out = append(out, cpk.NewPkHash[:]...)
	out = binary.BigEndian.AppendUint32(out, uint32(cpk.Nonce))
	out = binary.BigEndian.AppendUint32(out, uint32(cpk.AccountID))

	if auth, ok := cpk.EthAuth.(AuthECDSA); ok {
		out = append(out, auth.BatchHash.Bytes()...)
	} else {
		out = append(out, make([]byte, 32)...)
	}

	return out
}

// EthWitness returns the authorization bytes handed to the settlement
// contract alongside the public data.
func (cpk *ChangePubKey) EthWitness() []byte {
	if cpk.EthAuth == nil {
		return nil
	}
	return cpk.EthAuth.Witness()
}

// ValidateStatic implements the Tx interface.
func (cpk *ChangePubKey) ValidateStatic() error {
	if cpk.AccountID > types.MaxAccountID {
		return validationErr("accountId", "out of range")
	}
	if cpk.NewPkHash.IsZero() {
		return validationErr("newPkHash", "must not be zero")
	}
	if cpk.FeeToken > types.MaxTokenID {
		return validationErr("feeToken", "out of range")
	}
	if !packing.IsPackableFee(cpk.Fee) {
		return validationErr("fee", "not packable")
	}
	if !cpk.TimeRange.Check() {
		return validationErr("timeRange", "validFrom after validUntil")
	}

	return nil
}

// ValidateAuth checks the L1 authorization path. When no auth data is
// attached the L2 signature is mandatory and carries the authorization on
// its own.
func (cpk *ChangePubKey) ValidateAuth() error {
	switch auth := cpk.EthAuth.(type) {
	case nil:
		if cpk.Signature.IsZero() {
			return ErrInvalidAuth
		}
		return nil

	case AuthOnchain:
		// Attested by the L1 watcher against the AuthFact registry.
		return nil

	case AuthECDSA:
		signer, err := auth.EthSignature.RecoverSigner(cpk.EthSignedData())
		if err != nil || signer != cpk.Account {
			return ErrInvalidAuth
		}
		return nil

	case AuthCREATE2:
		if auth.Address(cpk.NewPkHash) != cpk.Account {
			return ErrInvalidAuth
		}
		return nil
	}

	return ErrInvalidAuth
}

// VerifySignature implements the Tx interface. The signature must be
// produced with the key being set, so the recovered pubkey hash has to
// match NewPkHash.
func (cpk *ChangePubKey) VerifySignature(network types.Network) (types.PubKeyHash, error) {
	pkh, err := verify(cpk, cpk.Signature, network)
	if err != nil {
		return types.PubKeyHash{}, err
	}

	if pkh != cpk.NewPkHash {
		return types.PubKeyHash{}, signature.ErrInvalidSignature
	}

	return pkh, nil
}

// SenderAccountID implements the Tx interface.
func (cpk *ChangePubKey) SenderAccountID() types.AccountID { return cpk.AccountID }

// TxNonce implements the Tx interface.
func (cpk *ChangePubKey) TxNonce() types.Nonce { return cpk.Nonce }

// FeeTokenID implements the Tx interface.
func (cpk *ChangePubKey) FeeTokenID() types.TokenID { return cpk.FeeToken }

// TxFee implements the Tx interface.
func (cpk *ChangePubKey) TxFee() *big.Int { return cpk.Fee }
