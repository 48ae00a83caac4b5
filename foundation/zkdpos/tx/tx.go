// Package tx defines the four L2 originated transaction kinds of the
// zkDpos network: Transfer, Withdraw, ChangePubKey and ForcedExit. Each
// transaction produces a canonical byte preimage that the owner signs, and
// validates its own fields before any signature work is done.
package tx

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/qingah/zkdpos/foundation/zkdpos/signature"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Transaction type identifiers. These values are shared with the public
// data tag space and are fixed forever.
const (
	TypeWithdraw     byte = 0x03
	TypeTransfer     byte = 0x05
	TypeChangePubKey byte = 0x07
	TypeForcedExit   byte = 0x08
)

// Tx is the behavior shared by every L2 transaction kind.
type Tx interface {
	// TxType returns the fixed type byte of the transaction kind.
	TxType() byte

	// Bytes returns the canonical signing preimage. The signature field
	// itself is never part of the preimage.
	Bytes() ([]byte, error)

	// ValidateStatic performs field range checks. It is cheap and runs
	// before any signature verification.
	ValidateStatic() error

	// VerifySignature checks the transaction signature against the
	// canonical preimage stamped for the given network.
	VerifySignature(network types.Network) (types.PubKeyHash, error)

	// SenderAccountID returns the account charged for the transaction.
	SenderAccountID() types.AccountID

	// TxNonce returns the account nonce carried by the transaction.
	TxNonce() types.Nonce

	// FeeTokenID returns the token the fee is paid in.
	FeeTokenID() types.TokenID

	// TxFee returns the fee the sender offers for processing.
	TxFee() *big.Int
}

// Hash returns the identifying hash of a transaction: the sha256 of its
// canonical preimage.
func Hash(tx Tx) (types.Hash, error) {
	data, err := tx.Bytes()
	if err != nil {
		return types.Hash{}, err
	}

	return sha256.Sum256(data), nil
}

// =============================================================================

// ValidationError reports a field that failed a static range check.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", ve.Field, ve.Reason)
}

func validationErr(field string, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// =============================================================================

// TimeRange bounds the timestamps a transaction may be executed between.
type TimeRange struct {
	ValidFrom  uint64 `json:"validFrom"`
	ValidUntil uint64 `json:"validUntil"`
}

// DefaultTimeRange returns a range that never expires.
func DefaultTimeRange() TimeRange {
	return TimeRange{ValidUntil: ^uint64(0)}
}

// Bytes returns the 16 byte big endian encoding used in signing preimages.
func (tr TimeRange) Bytes() []byte {
	out := make([]byte, 0, 16)
	out = binary.BigEndian.AppendUint64(out, tr.ValidFrom)
	out = binary.BigEndian.AppendUint64(out, tr.ValidUntil)
	return out
}

// Check reports whether the range is well formed.
func (tr TimeRange) Check() bool {
	return tr.ValidFrom <= tr.ValidUntil
}

// IsValidAt reports whether the timestamp falls inside the range.
func (tr TimeRange) IsValidAt(timestamp uint64) bool {
	return tr.ValidFrom <= timestamp && timestamp <= tr.ValidUntil
}

// =============================================================================

// EthSignData carries the Ethereum 2FA signature and the exact message the
// user signed with their L1 key.
type EthSignData struct {
	Signature signature.PackedEthSignature `json:"signature"`
	Message   []byte                       `json:"message"`
}

// SignedTx is a transaction together with its optional Ethereum sign data.
// This is the form clients submit for inclusion.
type SignedTx struct {
	Tx          Tx
	EthSignData *EthSignData
}

// =============================================================================

// maxAmount bounds full-width amount fields to their 16 byte wire slot.
var maxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// amountFits16 reports whether the value fits the 16 byte balance slot.
func amountFits16(value *big.Int) bool {
	return value != nil && value.Sign() >= 0 && value.Cmp(maxAmount) <= 0
}

// append16 writes the value into a 16 byte big endian slot.
func append16(out []byte, value *big.Int) []byte {
	var slot [16]byte
	value.FillBytes(slot[:])
	return append(out, slot[:]...)
}

// verify checks a signature over the transaction preimage and returns the
// recovered pubkey hash.
func verify(tx Tx, sig signature.TxSignature, network types.Network) (types.PubKeyHash, error) {
	msg, err := tx.Bytes()
	if err != nil {
		return types.PubKeyHash{}, err
	}

	return sig.Verify(network, msg)
}
