package tx

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/qingah/zkdpos/foundation/zkdpos/packing"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// EthSignMessagePart returns the human readable line an Ethereum wallet
// displays for the transaction when it is part of a batch. The nonce is
// appended once for the whole batch, not per transaction.
func EthSignMessagePart(t Tx, token types.TokenMeta) string {
	switch t := t.(type) {
	case *Transfer:
		return withFee(fmt.Sprintf("Transfer %s %s to: %s",
			packing.FormatUnits(t.Amount, token.Decimals), token.Symbol, lowerHex(t.To)),
			t.Fee, token)

	case *Withdraw:
		return withFee(fmt.Sprintf("Withdraw %s %s to: %s",
			packing.FormatUnits(t.Amount, token.Decimals), token.Symbol, lowerHex(t.To)),
			t.Fee, token)

	case *ForcedExit:
		return withFee(fmt.Sprintf("ForcedExit %s to: %s", token.Symbol, lowerHex(t.Target)),
			t.Fee, token)

	case *ChangePubKey:
		return withFee(fmt.Sprintf("Set signing key: %s", hex.EncodeToString(t.NewPkHash[:])),
			t.Fee, token)
	}

	return ""
}

// EthSignMessage returns the full 2FA message for a standalone
// transaction.
func EthSignMessage(t Tx, token types.TokenMeta) string {
	msg := EthSignMessagePart(t, token)
	if msg != "" {
		msg += "\n"
	}

	return msg + fmt.Sprintf("Nonce: %d", t.TxNonce())
}

func withFee(msg string, fee *big.Int, token types.TokenMeta) string {
	if fee != nil && fee.Sign() > 0 {
		msg += fmt.Sprintf("\nFee: %s %s", packing.FormatUnits(fee, token.Decimals), token.Symbol)
	}
	return msg
}

func lowerHex(addr types.Address) string {
	return strings.ToLower(addr.Hex())
}
