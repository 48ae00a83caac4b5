// Package signature wraps the secp256k1 primitives the zkDpos core needs:
// signing preimage stamping, transaction signature verification and public
// key hashing. All curve math is delegated to the go-ethereum crypto
// package.
package signature

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

var (
	// ErrInvalidSignature is returned when a signature fails cryptographic
	// verification. It is always fatal to the operation carrying it.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidPubKey is returned when a public key can't be parsed.
	ErrInvalidPubKey = errors.New("invalid public key")
)

// Lengths of the packed signature material.
const (
	PubKeyLen = 33
	SigLen    = 64
)

// Stamp produces the digest that is actually signed. The network chain id
// is baked into the stamp so a signature produced for one network can
// never verify on another.
func Stamp(network types.Network, msg []byte) []byte {
	stamp := fmt.Sprintf("\x19ZkDpos Signed Message (chain %d):\n32", network.ChainID())
	return crypto.Keccak256([]byte(stamp), crypto.Keccak256(msg))
}

// =============================================================================

// TxSignature is a detached transaction signature together with the
// compressed public key it verifies against.
type TxSignature struct {
	PubKey [PubKeyLen]byte
	Sig    [SigLen]byte
}

// Sign produces a transaction signature over the canonical message using
// the provided private key.
func Sign(network types.Network, msg []byte, privateKey *ecdsa.PrivateKey) (TxSignature, error) {
	sig, err := crypto.Sign(Stamp(network, msg), privateKey)
	if err != nil {
		return TxSignature{}, fmt.Errorf("signing message: %w", err)
	}

	var txSig TxSignature
	copy(txSig.PubKey[:], crypto.CompressPubkey(&privateKey.PublicKey))
	copy(txSig.Sig[:], sig[:SigLen])

	return txSig, nil
}

// Verify checks the signature over the canonical message and returns the
// hash of the public key that produced it. Mutating any byte of either the
// message or the signature makes verification fail.
func (ts TxSignature) Verify(network types.Network, msg []byte) (types.PubKeyHash, error) {
	pubKey, err := crypto.DecompressPubkey(ts.PubKey[:])
	if err != nil {
		return types.PubKeyHash{}, ErrInvalidPubKey
	}

	if !crypto.VerifySignature(ts.PubKey[:], Stamp(network, msg), ts.Sig[:]) {
		return types.PubKeyHash{}, ErrInvalidSignature
	}

	return PubKeyHashFromPubKey(pubKey), nil
}

// IsZero reports whether the signature is unset.
func (ts TxSignature) IsZero() bool {
	return ts == TxSignature{}
}

// String implements the fmt.Stringer interface for logging.
func (ts TxSignature) String() string {
	return hex.EncodeToString(ts.Sig[:8]) + "..."
}

// =============================================================================

// PubKeyHashFromPubKey derives the compact commitment to a public key:
// the last 20 bytes of the keccak hash of its compressed form.
func PubKeyHashFromPubKey(pubKey *ecdsa.PublicKey) types.PubKeyHash {
	digest := crypto.Keccak256(crypto.CompressPubkey(pubKey))

	var pkh types.PubKeyHash
	copy(pkh[:], digest[32-types.PubKeyHashLen:])
	return pkh
}
