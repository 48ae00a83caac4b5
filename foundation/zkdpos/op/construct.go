package op

import (
	"fmt"
	"math/big"

	"github.com/qingah/zkdpos/foundation/zkdpos/priority"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// NewTransferOp builds the executed operation for a transfer. A transfer
// whose recipient account does not exist yet becomes a TransferToNew,
// which carries the recipient address in public data so the account can
// be restored from L1.
func NewTransferOp(t *tx.Transfer, to types.AccountID, toExists bool) Op {
	if toExists {
		return TransferOp{Tx: t, From: t.AccountID, To: to}
	}
	return TransferToNewOp{Tx: t, From: t.AccountID, To: to}
}

// NewWithdrawOp builds the executed operation for a withdrawal.
func NewWithdrawOp(t *tx.Withdraw) WithdrawOp {
	return WithdrawOp{Tx: t, AccountID: t.AccountID}
}

// NewChangePubKeyOp builds the executed operation for a key rotation.
func NewChangePubKeyOp(t *tx.ChangePubKey) ChangePubKeyOp {
	return ChangePubKeyOp{Tx: t, AccountID: t.AccountID}
}

// NewForcedExitOp builds the executed operation for a forced exit. The
// withdraw amount is the target's balance captured by the state engine.
func NewForcedExitOp(t *tx.ForcedExit, target types.AccountID, withdrawAmount *big.Int) ForcedExitOp {
	return ForcedExitOp{Tx: t, TargetAccountID: target, WithdrawAmount: withdrawAmount}
}

// FromPriorityOp builds the executed operation for a priority operation.
// The account id is the one assigned (or found) by the state engine; the
// withdraw amount only applies to full exits.
func FromPriorityOp(p priority.Op, accountID types.AccountID, withdrawAmount *big.Int) (Op, error) {
	switch data := p.Data.(type) {
	case priority.Deposit:
		return DepositOp{Deposit: data, AccountID: accountID}, nil
	case priority.FullExit:
		return FullExitOp{FullExit: data, WithdrawAmount: withdrawAmount}, nil
	}

	return nil, fmt.Errorf("unsupported priority operation %T", p.Data)
}

// PriorityData extracts the priority operation payload an executed
// operation was built from. The reconciler compares it field by field
// against the queue entry.
func PriorityData(o Op) (priority.Data, bool) {
	switch o := o.(type) {
	case DepositOp:
		return o.Deposit, true
	case FullExitOp:
		return o.FullExit, true
	}

	return nil, false
}
