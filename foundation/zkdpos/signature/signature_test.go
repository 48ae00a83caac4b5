package signature_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/qingah/zkdpos/foundation/zkdpos/signature"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestSignVerify(t *testing.T) {
	t.Log("Given the need to sign and verify transaction preimages.")
	{
		t.Log("\tTest 0:\tWhen signing a message for the localhost network.")
		{
			pk, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a private key: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to generate a private key.", success)

			msg := []byte("canonical transaction preimage")

			sig, err := signature.Sign(types.Localhost, msg, pk)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the message: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to sign the message.", success)

			pkh, err := sig.Verify(types.Localhost, msg)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to verify the signature: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to verify the signature.", success)

			if pkh != signature.PubKeyHashFromPubKey(&pk.PublicKey) {
				t.Fatalf("\t%s\tTest 0:\tShould recover the signer's pubkey hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould recover the signer's pubkey hash.", success)

			if _, err := sig.Verify(types.Mainnet, msg); !errors.Is(err, signature.ErrInvalidSignature) {
				t.Fatalf("\t%s\tTest 0:\tShould not verify on a different network: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould not verify on a different network.", success)

			tampered := append([]byte(nil), msg...)
			tampered[0] ^= 0x01
			if _, err := sig.Verify(types.Localhost, tampered); !errors.Is(err, signature.ErrInvalidSignature) {
				t.Fatalf("\t%s\tTest 0:\tShould not verify a tampered message: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould not verify a tampered message.", success)

			sig.Sig[10] ^= 0x01
			if _, err := sig.Verify(types.Localhost, msg); !errors.Is(err, signature.ErrInvalidSignature) {
				t.Fatalf("\t%s\tTest 0:\tShould not verify a tampered signature: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould not verify a tampered signature.", success)
		}
	}
}

func TestEthSignature(t *testing.T) {
	t.Log("Given the need to verify Ethereum personal-sign 2FA signatures.")
	{
		t.Log("\tTest 0:\tWhen signing a human readable message.")
		{
			pk, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate a private key: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to generate a private key.", success)

			msg := []byte("Transfer 1.0 DPOS to: 0xbee6ace826ec3de1b6349888b9151b92522f7f76\nNonce: 7")

			sig, err := signature.SignEthMessage(msg, pk)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the message: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to sign the message.", success)

			addr, err := sig.RecoverSigner(msg)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to recover the signer: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to recover the signer.", success)

			if addr != signature.AddressFromPrivateKey(pk) {
				t.Fatalf("\t%s\tTest 0:\tShould recover the signer's address.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould recover the signer's address.", success)

			if addr2, err := sig.RecoverSigner([]byte("different message")); err == nil && addr2 == addr {
				t.Fatalf("\t%s\tTest 0:\tShould not recover the same address for a different message.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not recover the same address for a different message.", success)
		}

		t.Log("\tTest 1:\tWhen parsing packed signature bytes.")
		{
			if _, err := signature.PackedEthSignatureFromBytes(make([]byte, 64)); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould reject a 64 byte buffer.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a 64 byte buffer.", success)

			raw := make([]byte, 65)
			raw[64] = 0x01
			sig, err := signature.PackedEthSignatureFromBytes(raw)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould accept a recovery id of 1: %s", failed, err)
			}
			if sig[64] != 28 {
				t.Fatalf("\t%s\tTest 1:\tShould normalize V to electrum form, got %d.", failed, sig[64])
			}
			t.Logf("\t%s\tTest 1:\tShould normalize V to electrum form.", success)
		}
	}
}
