// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/qingah/zkdpos/business/core/rollup"
	"github.com/qingah/zkdpos/business/web/errs"
	"github.com/qingah/zkdpos/business/web/validate"
	"github.com/qingah/zkdpos/foundation/events"
	"github.com/qingah/zkdpos/foundation/web"
	"github.com/qingah/zkdpos/foundation/zkdpos/op"
	"github.com/qingah/zkdpos/foundation/zkdpos/packing"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
	"go.uber.org/zap"
)

// Handlers manages the set of public operation endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Rollup *rollup.Core
	WS     websocket.Upgrader
	Evts   *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(msg); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction adds a new user transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var env submitTx
	if err := web.Decode(r, &env); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if err := validate.Check(env); err != nil {
		return err
	}

	stx, err := decodeSignedTx(env)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tx", "traceid", v.TraceID, "type", env.Type, "account", stx.Tx.SenderAccountID(), "nonce", stx.Tx.TxNonce())

	hash, err := h.Rollup.SubmitTx(ctx, stx)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	result := submitResult{
		Hash:   hash,
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, result, http.StatusOK)
}

// SubmitBatch adds an atomic set of transactions to the mempool.
func (h Handlers) SubmitBatch(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var env submitBatch
	if err := web.Decode(r, &env); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if err := validate.Check(env); err != nil {
		return err
	}

	batch := tx.Batch{
		BatchID:       env.BatchID,
		EthSignatures: env.EthSignatures,
	}
	for _, item := range env.Txs {
		stx, err := decodeSignedTx(item)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		batch.Txs = append(batch.Txs, stx)
	}

	h.Log.Infow("submit batch", "traceid", v.TraceID, "txs", len(batch.Txs), "batchID", batch.BatchID)

	hashes, err := h.Rollup.SubmitBatch(ctx, batch)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	result := struct {
		Hashes []types.Hash `json:"hashes"`
		Status string       `json:"status"`
	}{
		Hashes: hashes,
		Status: "batch added to mempool",
	}

	return web.Respond(ctx, w, result, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pending := h.Rollup.PendingTxs()

	trans := make([]pendingTx, 0, len(pending))
	for _, stx := range pending {
		hash, err := tx.Hash(stx.Tx)
		if err != nil {
			return err
		}

		trans = append(trans, pendingTx{
			Type:    typeName(stx.Tx.TxType()),
			Account: stx.Tx.SenderAccountID(),
			Nonce:   stx.Tx.TxNonce(),
			Token:   stx.Tx.FeeTokenID(),
			Fee:     stx.Tx.TxFee(),
			Hash:    hash,
		})
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Tokens returns the registered token list.
func (h Handlers) Tokens(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Rollup.Tokens(), http.StatusOK)
}

// ClosestFee returns the closest packable fee not exceeding the request.
func (h Handlers) ClosestFee(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	requested, err := parseAmount(web.Param(r, "amount"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	packable, err := packing.ClosestPackableFee(requested)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, closest{Requested: requested, Packable: packable}, http.StatusOK)
}

// ClosestAmount returns the closest packable amount not exceeding the
// request.
func (h Handlers) ClosestAmount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	requested, err := parseAmount(web.Param(r, "amount"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	packable, err := packing.ClosestPackableAmount(requested)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, closest{Requested: requested, Packable: packable}, http.StatusOK)
}

// QueueStatus returns the priority queue counters.
func (h Handlers) QueueStatus(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pending, included, expired, nextSerial := h.Rollup.QueueStatus()

	status := queueStatus{
		Pending:    pending,
		Included:   included,
		Expired:    expired,
		NextSerial: nextSerial,
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// QueuePending returns the priority operations waiting for inclusion.
func (h Handlers) QueuePending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Rollup.PendingPriority(), http.StatusOK)
}

// QueueLookup returns the queue entry for one serial id.
func (h Handlers) QueueLookup(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	serial, err := strconv.ParseUint(web.Param(r, "serial"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid serial id: %w", err), http.StatusBadRequest)
	}

	entry, err := h.Rollup.LookupPriority(types.SerialID(serial))
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, entry, http.StatusOK)
}

// DecodePublicData decodes a block public data blob back into operations.
func (h Handlers) DecodePublicData(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var payload struct {
		Data string `json:"data" validate:"required"`
	}
	if err := web.Decode(r, &payload); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if err := validate.Check(payload); err != nil {
		return err
	}

	data, err := hexutil.Decode(payload.Data)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid hex data: %w", err), http.StatusBadRequest)
	}

	ops, err := op.DecodeAll(data)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	decoded := make([]decodedOp, len(ops))
	for i, o := range ops {
		decoded[i] = decodedOp{
			Tag:    o.Tag(),
			Chunks: o.Chunks(),
			Op:     o,
		}
	}

	return web.Respond(ctx, w, decoded, http.StatusOK)
}

// =============================================================================

// decodeSignedTx turns a submit envelope into the typed transaction it
// carries.
func decodeSignedTx(env submitTx) (tx.SignedTx, error) {
	var t tx.Tx

	switch env.Type {
	case "Transfer":
		t = new(tx.Transfer)
	case "Withdraw":
		t = new(tx.Withdraw)
	case "ChangePubKey":
		t = new(tx.ChangePubKey)
	case "ForcedExit":
		t = new(tx.ForcedExit)
	default:
		return tx.SignedTx{}, fmt.Errorf("unknown transaction type %q", env.Type)
	}

	if err := json.Unmarshal(env.Tx, t); err != nil {
		return tx.SignedTx{}, fmt.Errorf("unable to decode %s payload: %w", env.Type, err)
	}

	if cpk, ok := t.(*tx.ChangePubKey); ok && env.EthAuthData != nil {
		auth, err := decodeEthAuth(*env.EthAuthData)
		if err != nil {
			return tx.SignedTx{}, err
		}
		cpk.EthAuth = auth
	}

	return tx.SignedTx{Tx: t, EthSignData: env.EthSignData}, nil
}

// decodeEthAuth resolves the tagged union form of the ChangePubKey L1
// authorization.
func decodeEthAuth(a ethAuthData) (tx.EthAuthData, error) {
	switch a.Type {
	case "Onchain":
		return tx.AuthOnchain{}, nil
	case "ECDSA":
		return tx.AuthECDSA{EthSignature: a.EthSignature, BatchHash: a.BatchHash}, nil
	case "CREATE2":
		return tx.AuthCREATE2{CreatorAddress: a.CreatorAddress, SaltArg: a.SaltArg, CodeHash: a.CodeHash}, nil
	}

	return nil, fmt.Errorf("unknown auth type %q", a.Type)
}

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}

	return amount, nil
}

func typeName(typeByte byte) string {
	switch typeByte {
	case tx.TypeTransfer:
		return "Transfer"
	case tx.TypeWithdraw:
		return "Withdraw"
	case tx.TypeChangePubKey:
		return "ChangePubKey"
	case tx.TypeForcedExit:
		return "ForcedExit"
	}

	return "Unknown"
}
