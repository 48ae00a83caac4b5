// Package types declares the primitive identifiers used across the zkDpos
// network core. Most of the chain level types are re-used from the
// go-ethereum common package.
package types

import (
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address represents a 20 byte L1 account address.
type Address = common.Address

// Hash represents a 32 byte L1 transaction or block hash.
type Hash = common.Hash

// AccountID is the unique index of the account inside the account tree.
// It is assigned once at account creation and never changes.
type AccountID uint32

// TokenID is the index of a fungible asset registered with the network.
type TokenID uint16

// Nonce is the per account counter preventing transaction replay.
type Nonce uint32

// SerialID is the monotonically increasing identifier assigned by the L1
// contract to each priority operation event.
type SerialID uint64

// BlockNumber is the sequential index of an L2 block.
type BlockNumber uint32

// Limits for the identifier space. The last account id is reserved for
// the network operator fee account.
const (
	MaxAccountID AccountID = math.MaxUint32 - 1
	MaxTokenID   TokenID   = math.MaxUint16
)

// =============================================================================

// PubKeyHashLen is the byte length of a public key hash.
const PubKeyHashLen = 20

// pubKeyHashPrefix marks the textual form of a public key hash.
const pubKeyHashPrefix = "dpos:"

// PubKeyHash is the compact commitment to an account's L2 public key.
type PubKeyHash [PubKeyHashLen]byte

// PubKeyHashFromString parses the "dpos:<hex>" textual form.
func PubKeyHashFromString(s string) (PubKeyHash, error) {
	if !strings.HasPrefix(s, pubKeyHashPrefix) {
		return PubKeyHash{}, fmt.Errorf("pubkey hash must start with %q", pubKeyHashPrefix)
	}

	data, err := hex.DecodeString(strings.TrimPrefix(s, pubKeyHashPrefix))
	if err != nil {
		return PubKeyHash{}, fmt.Errorf("decoding pubkey hash: %w", err)
	}

	return PubKeyHashFromBytes(data)
}

// PubKeyHashFromBytes constructs a PubKeyHash from its raw bytes.
func PubKeyHashFromBytes(data []byte) (PubKeyHash, error) {
	if len(data) != PubKeyHashLen {
		return PubKeyHash{}, fmt.Errorf("pubkey hash must be %d bytes, got %d", PubKeyHashLen, len(data))
	}

	var pkh PubKeyHash
	copy(pkh[:], data)
	return pkh, nil
}

// IsZero reports whether the hash is unset. An account with a zero pubkey
// hash can't sign L2 transactions.
func (pkh PubKeyHash) IsZero() bool {
	return pkh == PubKeyHash{}
}

// String implements the fmt.Stringer interface.
func (pkh PubKeyHash) String() string {
	return pubKeyHashPrefix + hex.EncodeToString(pkh[:])
}
