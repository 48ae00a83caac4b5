package tx_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/qingah/zkdpos/foundation/zkdpos/signature"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

var oneToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func signTx(t *testing.T, transaction tx.Tx, network types.Network) (signature.TxSignature, types.PubKeyHash) {
	t.Helper()

	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generating key: %s", err)
	}

	msg, err := transaction.Bytes()
	if err != nil {
		t.Fatalf("building preimage: %s", err)
	}

	sig, err := signature.Sign(network, msg, pk)
	if err != nil {
		t.Fatalf("signing: %s", err)
	}

	return sig, signature.PubKeyHashFromPubKey(&pk.PublicKey)
}

func TestTransferLifecycle(t *testing.T) {
	t.Log("Given the need to validate and verify a transfer.")
	{
		t.Log("\tTest 0:\tWhen handling a well formed transfer.")
		{
			transfer := tx.Transfer{
				AccountID: 42,
				From:      common.HexToAddress("0x6Fe6CF3c8fF57c58d24BfC869668F48BCbDb3BD9"),
				To:        common.HexToAddress("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"),
				Token:     1,
				Amount:    new(big.Int).Set(oneToken),
				Fee:       big.NewInt(1000),
				Nonce:     7,
				TimeRange: tx.DefaultTimeRange(),
			}

			if err := transfer.ValidateStatic(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould pass static validation: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould pass static validation.", success)

			sig, pkh := signTx(t, &transfer, types.Localhost)
			transfer.Signature = sig

			got, err := transfer.VerifySignature(types.Localhost)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould verify the signature: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould verify the signature.", success)

			if got != pkh {
				t.Fatalf("\t%s\tTest 0:\tShould recover the signing pubkey hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould recover the signing pubkey hash.", success)

			if _, err := transfer.VerifySignature(types.Mainnet); !errors.Is(err, signature.ErrInvalidSignature) {
				t.Fatalf("\t%s\tTest 0:\tShould not verify on another network: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould not verify on another network.", success)

			transfer.Amount = new(big.Int).Add(transfer.Amount, big.NewInt(1))
			var verr *tx.ValidationError
			if err := transfer.ValidateStatic(); !errors.As(err, &verr) || verr.Field != "amount" {
				t.Fatalf("\t%s\tTest 0:\tShould reject an unpackable amount: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject an unpackable amount.", success)
		}
	}
}

func TestWithdrawFullAmount(t *testing.T) {
	t.Log("Given the need to sign withdrawals with the exact amount.")
	{
		t.Log("\tTest 0:\tWhen the amount does not fit the packed encoding.")
		{
			amount := new(big.Int).Add(oneToken, big.NewInt(1))

			withdraw := tx.Withdraw{
				AccountID: 42,
				From:      common.HexToAddress("0x6Fe6CF3c8fF57c58d24BfC869668F48BCbDb3BD9"),
				To:        common.HexToAddress("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"),
				Token:     1,
				Amount:    amount,
				Fee:       big.NewInt(1000),
				Nonce:     3,
				TimeRange: tx.DefaultTimeRange(),
			}

			// Withdrawals carry the full width amount, so a value that
			// would not survive packing is still valid.
			if err := withdraw.ValidateStatic(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould pass static validation: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould pass static validation.", success)

			sig, pkh := signTx(t, &withdraw, types.Testnet)
			withdraw.Signature = sig

			got, err := withdraw.VerifySignature(types.Testnet)
			if err != nil || got != pkh {
				t.Fatalf("\t%s\tTest 0:\tShould verify the signature: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould verify the signature.", success)
		}
	}
}

func TestChangePubKeyAuth(t *testing.T) {
	t.Log("Given the need to authorize signing key rotations.")
	{
		t.Log("\tTest 0:\tWhen the rotation is authorized by an L1 signature.")
		{
			l1Key, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate the L1 key: %s", failed, err)
			}

			l2Key, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate the L2 key: %s", failed, err)
			}

			cpk := tx.ChangePubKey{
				AccountID: 42,
				Account:   signature.AddressFromPrivateKey(l1Key),
				NewPkHash: signature.PubKeyHashFromPubKey(&l2Key.PublicKey),
				FeeToken:  0,
				Fee:       big.NewInt(100),
				Nonce:     0,
				TimeRange: tx.DefaultTimeRange(),
			}

			ethSig, err := signature.SignEthMessage(cpk.EthSignedData(), l1Key)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to sign the auth message: %s", failed, err)
			}
			cpk.EthAuth = tx.AuthECDSA{EthSignature: ethSig}

			if err := cpk.ValidateAuth(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the ECDSA authorization: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept the ECDSA authorization.", success)

			msg, err := cpk.Bytes()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould build the preimage: %s", failed, err)
			}

			cpk.Signature, err = signature.Sign(types.Localhost, msg, l2Key)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould sign with the new key: %s", failed, err)
			}

			if _, err := cpk.VerifySignature(types.Localhost); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould verify the new key signature: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould verify the new key signature.", success)

			// Signing with a key other than the one being set must fail.
			otherKey, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to generate another key: %s", failed, err)
			}
			cpk.Signature, err = signature.Sign(types.Localhost, msg, otherKey)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould sign with the other key: %s", failed, err)
			}
			if _, err := cpk.VerifySignature(types.Localhost); !errors.Is(err, signature.ErrInvalidSignature) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a signature from the wrong key: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a signature from the wrong key.", success)
		}

		t.Log("\tTest 1:\tWhen the authorization does not match the account.")
		{
			l1Key, err := crypto.GenerateKey()
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to generate the L1 key: %s", failed, err)
			}

			cpk := tx.ChangePubKey{
				AccountID: 42,
				Account:   common.HexToAddress("0x6Fe6CF3c8fF57c58d24BfC869668F48BCbDb3BD9"),
				NewPkHash: types.PubKeyHash{0x01},
				Fee:       big.NewInt(0),
				TimeRange: tx.DefaultTimeRange(),
			}

			ethSig, err := signature.SignEthMessage(cpk.EthSignedData(), l1Key)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to sign the auth message: %s", failed, err)
			}
			cpk.EthAuth = tx.AuthECDSA{EthSignature: ethSig}

			if err := cpk.ValidateAuth(); !errors.Is(err, tx.ErrInvalidAuth) {
				t.Fatalf("\t%s\tTest 1:\tShould reject a signature from a stranger: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject a signature from a stranger.", success)
		}

		t.Log("\tTest 2:\tWhen no authorization data is attached.")
		{
			cpk := tx.ChangePubKey{
				AccountID: 42,
				NewPkHash: types.PubKeyHash{0x01},
				Fee:       big.NewInt(0),
				TimeRange: tx.DefaultTimeRange(),
			}

			if err := cpk.ValidateAuth(); !errors.Is(err, tx.ErrInvalidAuth) {
				t.Fatalf("\t%s\tTest 2:\tShould require the L2 signature: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould require the L2 signature.", success)
		}

		t.Log("\tTest 3:\tWhen the account is a CREATE2 wallet.")
		{
			auth := tx.AuthCREATE2{
				CreatorAddress: common.HexToAddress("0x6Fe6CF3c8fF57c58d24BfC869668F48BCbDb3BD9"),
				SaltArg:        common.HexToHash("0x01"),
				CodeHash:       common.HexToHash("0x02"),
			}

			pkh := types.PubKeyHash{0xaa, 0xbb}

			cpk := tx.ChangePubKey{
				AccountID: 42,
				Account:   auth.Address(pkh),
				NewPkHash: pkh,
				Fee:       big.NewInt(0),
				TimeRange: tx.DefaultTimeRange(),
				EthAuth:   auth,
			}

			if err := cpk.ValidateAuth(); err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould accept the derived address: %s", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould accept the derived address.", success)

			cpk.Account = common.HexToAddress("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76")
			if err := cpk.ValidateAuth(); !errors.Is(err, tx.ErrInvalidAuth) {
				t.Fatalf("\t%s\tTest 3:\tShould reject a mismatched address: %v", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould reject a mismatched address.", success)
		}
	}
}

func TestEthSignMessages(t *testing.T) {
	token := types.TokenMeta{ID: 1, Symbol: "DPOS", Decimals: 18}

	t.Log("Given the need to render human readable 2FA messages.")
	{
		t.Log("\tTest 0:\tWhen rendering a transfer message.")
		{
			transfer := tx.Transfer{
				To:     common.HexToAddress("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"),
				Token:  1,
				Amount: new(big.Int).Set(oneToken),
				Fee:    big.NewInt(0),
				Nonce:  7,
			}

			want := "Transfer 1.0 DPOS to: 0xbee6ace826ec3de1b6349888b9151b92522f7f76\nNonce: 7"
			if got := tx.EthSignMessage(&transfer, token); got != want {
				t.Logf("\t%s\tTest 0:\tgot: %q", failed, got)
				t.Logf("\t%s\tTest 0:\texp: %q", failed, want)
				t.Fatalf("\t%s\tTest 0:\tShould render the expected message.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould render the expected message.", success)
		}

		t.Log("\tTest 1:\tWhen the transaction carries a fee.")
		{
			withdraw := tx.Withdraw{
				To:     common.HexToAddress("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"),
				Token:  1,
				Amount: new(big.Int).Mul(oneToken, big.NewInt(2)),
				Fee:    new(big.Int).Set(oneToken),
				Nonce:  8,
			}

			want := "Withdraw 2.0 DPOS to: 0xbee6ace826ec3de1b6349888b9151b92522f7f76\nFee: 1.0 DPOS\nNonce: 8"
			if got := tx.EthSignMessage(&withdraw, token); got != want {
				t.Logf("\t%s\tTest 1:\tgot: %q", failed, got)
				t.Logf("\t%s\tTest 1:\texp: %q", failed, want)
				t.Fatalf("\t%s\tTest 1:\tShould render the fee line.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould render the fee line.", success)
		}
	}
}
