// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/qingah/zkdpos/business/core/rollup"
	"github.com/qingah/zkdpos/business/web/errs"
	"github.com/qingah/zkdpos/business/web/validate"
	"github.com/qingah/zkdpos/foundation/web"
	"github.com/qingah/zkdpos/foundation/zkdpos/priority"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
	"go.uber.org/zap"
)

// Handlers manages the set of node operation endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Rollup *rollup.Core
}

// observeOp is the wire form of a priority operation picked off the L1
// event stream. Exactly one of deposit and fullExit must be present.
type observeOp struct {
	SerialID      types.SerialID     `json:"serialId"`
	DeadlineBlock uint64             `json:"deadlineBlock"`
	EthHash       types.Hash         `json:"ethHash"`
	EthBlock      uint64             `json:"ethBlock"`
	Deposit       *priority.Deposit  `json:"deposit"`
	FullExit      *priority.FullExit `json:"fullExit"`
}

// Status returns the current operational counters of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pending, included, expired, nextSerial := h.Rollup.QueueStatus()

	status := struct {
		NextBlock       types.BlockNumber `json:"next_block"`
		MempoolTxs      int               `json:"mempool_txs"`
		QueuePending    int               `json:"queue_pending"`
		QueueIncluded   int               `json:"queue_included"`
		QueueExpired    int               `json:"queue_expired"`
		QueueNextSerial types.SerialID    `json:"queue_next_serial"`
	}{
		NextBlock:       h.Rollup.NextBlock(),
		MempoolTxs:      h.Rollup.MempoolCount(),
		QueuePending:    pending,
		QueueIncluded:   included,
		QueueExpired:    expired,
		QueueNextSerial: nextSerial,
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// ObservePriority records a priority operation seen on L1.
func (h Handlers) ObservePriority(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var payload observeOp
	if err := web.Decode(r, &payload); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if err := validate.Check(payload); err != nil {
		return err
	}

	var data priority.Data
	switch {
	case payload.Deposit != nil && payload.FullExit == nil:
		data = *payload.Deposit
	case payload.FullExit != nil && payload.Deposit == nil:
		data = *payload.FullExit
	default:
		return errs.NewTrusted(errors.New("exactly one of deposit and fullExit must be set"), http.StatusBadRequest)
	}

	op := priority.Op{
		SerialID:      payload.SerialID,
		Data:          data,
		DeadlineBlock: payload.DeadlineBlock,
		EthHash:       payload.EthHash,
		EthBlock:      payload.EthBlock,
	}

	if err := h.Rollup.ObservePriority(op); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "priority operation recorded",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ExpirePriority expires every pending priority operation whose deadline
// has passed at the given L1 block.
func (h Handlers) ExpirePriority(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ethBlock, err := strconv.ParseUint(web.Param(r, "block"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid block number: %w", err), http.StatusBadRequest)
	}

	expired := h.Rollup.ExpirePriority(ethBlock)

	resp := struct {
		Expired []priority.Op `json:"expired"`
	}{
		Expired: expired,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SealBlock assembles the next block from the priority queue and the
// mempool and returns the data to commit.
func (h Handlers) SealBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	sealed, err := h.Rollup.SealBlock(ctx)
	if err != nil {
		if errors.Is(err, rollup.ErrEmptyBlock) {
			return errs.NewTrusted(err, http.StatusConflict)
		}
		return err
	}

	withdrawals := make([]string, len(sealed.WithdrawalData))
	for i, wd := range sealed.WithdrawalData {
		withdrawals[i] = hexutil.Encode(wd)
	}

	witnesses := make([]string, len(sealed.Witnesses))
	for i, wit := range sealed.Witnesses {
		witnesses[i] = hexutil.Encode(wit)
	}

	resp := struct {
		Number         types.BlockNumber `json:"number"`
		Ops            int               `json:"ops"`
		PublicData     string            `json:"public_data"`
		WithdrawalData []string          `json:"withdrawal_data"`
		Witnesses      []string          `json:"witnesses"`
		CommitGasLimit uint64            `json:"commit_gas_limit"`
		VerifyGasLimit uint64            `json:"verify_gas_limit"`
	}{
		Number:         sealed.Number,
		Ops:            sealed.Ops,
		PublicData:     hexutil.Encode(sealed.PublicData),
		WithdrawalData: withdrawals,
		Witnesses:      witnesses,
		CommitGasLimit: sealed.CommitGasLimit,
		VerifyGasLimit: sealed.VerifyGasLimit,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
