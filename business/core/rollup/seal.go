package rollup

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/qingah/zkdpos/foundation/events"
	"github.com/qingah/zkdpos/foundation/zkdpos/block"
	"github.com/qingah/zkdpos/foundation/zkdpos/op"
	"github.com/qingah/zkdpos/foundation/zkdpos/priority"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Sealing errors.
var (
	ErrEmptyBlock        = errors.New("no operations to seal")
	ErrInsufficientFunds = errors.New("insufficient balance")
)

// Sealed describes a block ready for commitment to the settlement
// contract.
type Sealed struct {
	Number         types.BlockNumber
	Ops            int
	PublicData     []byte
	WithdrawalData [][]byte
	Witnesses      [][]byte
	CommitGasLimit uint64
	VerifyGasLimit uint64
}

// SealBlock assembles the next block: pending priority operations are
// consumed first in serial id order, then the best paying mempool
// transactions fill the remaining capacity. Included transactions are
// removed from the mempool.
func (c *Core) SealBlock(ctx context.Context) (Sealed, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	asm, err := block.NewAssembler(c.nextBlock, c.capacity)
	if err != nil {
		return Sealed{}, err
	}

	// Priority operations go first. Stopping at the first one that does
	// not fit keeps the serial order intact for the next block.
	for _, p := range c.queue.Pending() {
		o, err := c.priorityOp(p)
		if err != nil {
			return Sealed{}, fmt.Errorf("priority serial %d: %w", p.SerialID, err)
		}

		if err := asm.Add(o); err != nil {
			if errors.Is(err, block.ErrBlockFull) {
				break
			}
			return Sealed{}, err
		}

		if err := c.queue.ProposeInclusion(p.SerialID, p.Data); err != nil {
			return Sealed{}, fmt.Errorf("priority serial %d: %w", p.SerialID, err)
		}

		if err := c.applyOp(o); err != nil {
			return Sealed{}, fmt.Errorf("priority serial %d: %w", p.SerialID, err)
		}
	}

	// Fill the remaining capacity with mempool transactions. A
	// transaction that is not executable against the current state is
	// skipped, not dropped: it stays pooled for a later block.
	var included []tx.SignedTx
	for _, stx := range c.mempool.PickBest(-1) {
		if err := c.checkExecutable(stx.Tx); err != nil {
			c.log.Infow("tx skipped", "account", stx.Tx.SenderAccountID(), "nonce", stx.Tx.TxNonce(), "ERROR", err)
			continue
		}

		o, err := c.executedOp(stx.Tx)
		if err != nil {
			c.log.Infow("tx skipped", "account", stx.Tx.SenderAccountID(), "nonce", stx.Tx.TxNonce(), "ERROR", err)
			continue
		}

		if err := asm.Add(o); err != nil {
			if errors.Is(err, block.ErrBlockFull) {
				break
			}
			return Sealed{}, err
		}

		if err := c.applyOp(o); err != nil {
			return Sealed{}, fmt.Errorf("applying %T: %w", o, err)
		}
		included = append(included, stx)
	}

	if len(asm.Ops()) == 0 {
		return Sealed{}, ErrEmptyBlock
	}

	pubData, err := asm.PublicData()
	if err != nil {
		return Sealed{}, err
	}

	withdrawals, err := asm.WithdrawalData()
	if err != nil {
		return Sealed{}, err
	}

	witnesses := asm.Witnesses()

	for _, stx := range included {
		c.mempool.Delete(stx.Tx)
	}

	commitGas, verifyGas := asm.GasLimits()

	sealed := Sealed{
		Number:         asm.Number(),
		Ops:            len(asm.Ops()),
		PublicData:     pubData,
		WithdrawalData: withdrawals,
		Witnesses:      witnesses,
		CommitGasLimit: commitGas,
		VerifyGasLimit: verifyGas,
	}

	c.nextBlock++

	c.log.Infow("block sealed", "number", sealed.Number, "ops", sealed.Ops, "txs", len(included))
	c.evts.Send(events.Event{Kind: events.KindBlockSealed, Message: fmt.Sprintf("block %d", sealed.Number)})

	return sealed, nil
}

// priorityOp builds the executed operation for a pending priority
// operation, resolving account ids through the registry.
func (c *Core) priorityOp(p priority.Op) (op.Op, error) {
	switch data := p.Data.(type) {
	case priority.Deposit:
		record, err := c.assigner.AssignAccount(data.To)
		if err != nil {
			return nil, err
		}
		return op.FromPriorityOp(p, record.ID, nil)

	case priority.FullExit:
		amount := c.state.Balance(data.AccountID, data.Token)
		return op.FromPriorityOp(p, data.AccountID, amount)
	}

	return nil, fmt.Errorf("unsupported priority operation %T", p.Data)
}

// executedOp builds the executed operation for a mempool transaction.
func (c *Core) executedOp(t tx.Tx) (op.Op, error) {
	switch t := t.(type) {
	case *tx.Transfer:
		record, err := c.accounts.AccountByAddress(t.To)
		if err == nil {
			return op.NewTransferOp(t, record.ID, true), nil
		}

		record, err = c.assigner.AssignAccount(t.To)
		if err != nil {
			return nil, err
		}
		return op.NewTransferOp(t, record.ID, false), nil

	case *tx.Withdraw:
		return op.NewWithdrawOp(t), nil

	case *tx.ChangePubKey:
		return op.NewChangePubKeyOp(t), nil

	case *tx.ForcedExit:
		record, err := c.accounts.AccountByAddress(t.Target)
		if err != nil {
			return nil, err
		}
		amount := c.state.Balance(record.ID, t.Token)
		return op.NewForcedExitOp(t, record.ID, amount), nil
	}

	return nil, fmt.Errorf("unsupported transaction %T", t)
}

// checkExecutable decides whether a pooled transaction can execute
// against the current state: the nonce must be the account's next one
// and the sender must hold the funds the transaction moves.
func (c *Core) checkExecutable(t tx.Tx) error {
	account, err := c.accounts.AccountByID(t.SenderAccountID())
	if err != nil {
		return err
	}

	if t.TxNonce() < account.Nonce {
		return fmt.Errorf("nonce %d below account nonce %d: %w", t.TxNonce(), account.Nonce, ErrStaleNonce)
	}
	if t.TxNonce() > account.Nonce {
		return fmt.Errorf("nonce %d ahead of account nonce %d", t.TxNonce(), account.Nonce)
	}

	switch t := t.(type) {
	case *tx.Transfer:
		need := new(big.Int).Add(t.Amount, t.Fee)
		if c.state.Balance(t.AccountID, t.Token).Cmp(need) < 0 {
			return ErrInsufficientFunds
		}

	case *tx.Withdraw:
		need := new(big.Int).Add(t.Amount, t.Fee)
		if c.state.Balance(t.AccountID, t.Token).Cmp(need) < 0 {
			return ErrInsufficientFunds
		}

	case *tx.ChangePubKey:
		if c.state.Balance(t.AccountID, t.FeeToken).Cmp(t.Fee) < 0 {
			return ErrInsufficientFunds
		}

	case *tx.ForcedExit:
		if c.state.Balance(t.InitiatorAccountID, t.Token).Cmp(t.Fee) < 0 {
			return ErrInsufficientFunds
		}
	}

	return nil
}

// applyOp writes the effects of an included operation back to the
// account state. Executable checks already passed, so a failure here
// means the state and the block diverged and sealing must abort.
func (c *Core) applyOp(o op.Op) error {
	switch o := o.(type) {
	case op.TransferOp:
		if err := c.state.Debit(o.From, o.Tx.Token, new(big.Int).Add(o.Tx.Amount, o.Tx.Fee)); err != nil {
			return err
		}
		c.state.Credit(o.To, o.Tx.Token, o.Tx.Amount)
		return c.state.BumpNonce(o.From)

	case op.TransferToNewOp:
		if err := c.state.Debit(o.From, o.Tx.Token, new(big.Int).Add(o.Tx.Amount, o.Tx.Fee)); err != nil {
			return err
		}
		c.state.Credit(o.To, o.Tx.Token, o.Tx.Amount)
		return c.state.BumpNonce(o.From)

	case op.WithdrawOp:
		if err := c.state.Debit(o.AccountID, o.Tx.Token, new(big.Int).Add(o.Tx.Amount, o.Tx.Fee)); err != nil {
			return err
		}
		return c.state.BumpNonce(o.AccountID)

	case op.ChangePubKeyOp:
		if err := c.state.Debit(o.AccountID, o.Tx.FeeToken, o.Tx.Fee); err != nil {
			return err
		}
		if err := c.state.SetPubKeyHash(o.AccountID, o.Tx.NewPkHash); err != nil {
			return err
		}
		return c.state.BumpNonce(o.AccountID)

	case op.ForcedExitOp:
		if err := c.state.Debit(o.Tx.InitiatorAccountID, o.Tx.Token, o.Tx.Fee); err != nil {
			return err
		}
		if err := c.state.BumpNonce(o.Tx.InitiatorAccountID); err != nil {
			return err
		}
		return c.state.Debit(o.TargetAccountID, o.Tx.Token, o.WithdrawAmount)

	case op.DepositOp:
		c.state.Credit(o.AccountID, o.Deposit.Token, o.Deposit.Amount)
		return nil

	case op.FullExitOp:
		if o.WithdrawAmount == nil || o.WithdrawAmount.Sign() == 0 {
			return nil
		}
		return c.state.Debit(o.FullExit.AccountID, o.FullExit.Token, o.WithdrawAmount)
	}

	return fmt.Errorf("unsupported operation %T", o)
}
