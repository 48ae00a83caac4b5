package tx

import (
	"fmt"

	"github.com/qingah/zkdpos/foundation/zkdpos/signature"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Batch is a set of transactions that must be executed atomically: all of
// them land in the same block and either all succeed or all fail.
type Batch struct {
	Txs           []SignedTx
	BatchID       int64
	EthSignatures []signature.PackedEthSignature
}

// Hashes returns the identifying hashes of every transaction in the batch.
func (b Batch) Hashes() ([]types.Hash, error) {
	hashes := make([]types.Hash, len(b.Txs))
	for i, stx := range b.Txs {
		h, err := Hash(stx.Tx)
		if err != nil {
			return nil, fmt.Errorf("hashing batch tx %d: %w", i, err)
		}
		hashes[i] = h
	}

	return hashes, nil
}

// EthSignMessageForBatch combines the per transaction message parts into
// the single message the user signs with their L1 key for the whole
// batch. The nonce of the first transaction closes the message.
func EthSignMessageForBatch(txs []Tx, tokens map[types.TokenID]types.TokenMeta) string {
	var msg string
	for _, t := range txs {
		if part := EthSignMessagePart(t, tokens[t.FeeTokenID()]); part != "" {
			msg += part + "\n"
		}
	}

	var nonce types.Nonce
	if len(txs) > 0 {
		nonce = txs[0].TxNonce()
	}

	return msg + fmt.Sprintf("Nonce: %d", nonce)
}
