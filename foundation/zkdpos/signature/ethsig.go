package signature

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// EthSigLen is the byte length of a packed Ethereum style signature.
const EthSigLen = 65

// PackedEthSignature is a signature produced by an Ethereum wallet over a
// personal-sign message. The recovery byte is stored electrum style
// (27/28) for compatibility with geth and ethers.js output.
type PackedEthSignature [EthSigLen]byte

// PackedEthSignatureFromBytes parses the 65 byte wire form. Both raw
// (0/1) and electrum (27/28) recovery bytes are accepted.
func PackedEthSignatureFromBytes(data []byte) (PackedEthSignature, error) {
	if len(data) != EthSigLen {
		return PackedEthSignature{}, fmt.Errorf("eth signature must be %d bytes, got %d", EthSigLen, len(data))
	}

	var sig PackedEthSignature
	copy(sig[:], data)
	if sig[64] < 27 {
		sig[64] += 27
	}

	return sig, nil
}

// SignEthMessage signs a personal-sign message with the provided key. The
// result is identical to what geth and ethers.js produce for the same
// message, no extra hashing or prefixing is required by the caller.
func SignEthMessage(msg []byte, privateKey *ecdsa.PrivateKey) (PackedEthSignature, error) {
	raw, err := crypto.Sign(accounts.TextHash(msg), privateKey)
	if err != nil {
		return PackedEthSignature{}, fmt.Errorf("signing eth message: %w", err)
	}

	var sig PackedEthSignature
	copy(sig[:], raw)
	sig[64] += 27

	return sig, nil
}

// RecoverSigner checks the signature over the personal-sign message and
// returns the L1 address of the signer.
func (pes PackedEthSignature) RecoverSigner(msg []byte) (types.Address, error) {
	raw := make([]byte, EthSigLen)
	copy(raw, pes[:])
	if raw[64] >= 27 {
		raw[64] -= 27
	}

	pubKey, err := crypto.SigToPub(accounts.TextHash(msg), raw)
	if err != nil {
		return types.Address{}, ErrInvalidSignature
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}

// AddressFromPrivateKey returns the L1 address matching the private key.
func AddressFromPrivateKey(privateKey *ecdsa.PrivateKey) types.Address {
	return crypto.PubkeyToAddress(privateKey.PublicKey)
}
