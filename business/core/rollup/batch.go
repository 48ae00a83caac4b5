package rollup

import (
	"context"
	"errors"
	"fmt"

	"github.com/qingah/zkdpos/foundation/events"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// ErrEmptyBatch is returned when a batch carries no transactions.
var ErrEmptyBatch = errors.New("empty batch")

// SubmitBatch validates a set of transactions that must execute together
// and adds all of them to the mempool. A single L1 signature over the
// combined batch message can stand in for the per transaction Ethereum
// sign data.
func (c *Core) SubmitBatch(ctx context.Context, batch tx.Batch) ([]types.Hash, error) {
	if len(batch.Txs) == 0 {
		return nil, ErrEmptyBatch
	}

	for i, stx := range batch.Txs {
		if stx.Tx == nil {
			return nil, fmt.Errorf("batch tx %d: missing transaction", i)
		}
	}

	// Recover the signers of the batch level signatures. The message
	// covers every transaction in order, so a signature binds its author
	// to the whole batch.
	signers := make(map[types.Address]bool)
	if len(batch.EthSignatures) > 0 {
		msg := []byte(c.batchMessage(batch))
		for i, sig := range batch.EthSignatures {
			signer, err := sig.RecoverSigner(msg)
			if err != nil {
				return nil, fmt.Errorf("batch signature %d: %w", i, ErrBadEthSign)
			}
			signers[signer] = true
		}
	}

	// Validate every transaction before pooling any of them. A batch is
	// atomic: one bad transaction rejects the whole submission.
	hashes := make([]types.Hash, len(batch.Txs))
	for i, stx := range batch.Txs {
		if err := stx.Tx.ValidateStatic(); err != nil {
			return nil, fmt.Errorf("batch tx %d: %w", i, err)
		}

		account, err := c.accounts.AccountByID(stx.Tx.SenderAccountID())
		if err != nil {
			return nil, fmt.Errorf("batch tx %d: %w", i, err)
		}

		if stx.Tx.TxNonce() < account.Nonce {
			return nil, fmt.Errorf("batch tx %d: nonce %d below account nonce %d: %w", i, stx.Tx.TxNonce(), account.Nonce, ErrStaleNonce)
		}

		if err := c.verifySignatures(stx, account); err != nil {
			return nil, fmt.Errorf("batch tx %d: %w", i, err)
		}

		// A batch signature from the sender covers transactions that
		// carry no sign data of their own.
		if stx.EthSignData == nil && len(batch.EthSignatures) > 0 && !signers[account.Address] {
			return nil, fmt.Errorf("batch tx %d: %w", i, ErrBadEthSign)
		}

		hashes[i], err = tx.Hash(stx.Tx)
		if err != nil {
			return nil, fmt.Errorf("batch tx %d: %w", i, err)
		}
	}

	for _, stx := range batch.Txs {
		if _, err := c.mempool.Upsert(stx); err != nil {
			return nil, err
		}
	}

	c.log.Infow("batch accepted", "txs", len(batch.Txs), "batchID", batch.BatchID)
	for _, hash := range hashes {
		c.evts.Send(events.Event{Kind: events.KindTxAccepted, Message: hash.Hex()})
	}

	return hashes, nil
}

// batchMessage builds the combined L1 signing message of the batch.
func (c *Core) batchMessage(batch tx.Batch) string {
	txs := make([]tx.Tx, len(batch.Txs))
	tokens := make(map[types.TokenID]types.TokenMeta)
	for i, stx := range batch.Txs {
		txs[i] = stx.Tx
		if token, err := c.tokens.TokenByID(stx.Tx.FeeTokenID()); err == nil {
			tokens[token.ID] = token
		}
	}

	return tx.EthSignMessageForBatch(txs, tokens)
}
