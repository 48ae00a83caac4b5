package block

import (
	"github.com/qingah/zkdpos/foundation/zkdpos/op"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
)

// TxGasLimit is the amount of gas the operator can afford to spend in a
// single settlement transaction. It must fit big blocks with expensive
// operations while staying under the L1 block gas limit.
const TxGasLimit = 4_000_000

// Costs of processing each kind of operation inside the commitBlock
// contract call, estimated against the settlement contract.
const (
	commitBaseCost              = 40_000
	commitDepositCost           = 7_000
	commitChangePubKeyCostECDSA = 11_050
	commitChangePubKeyCostOther = 4_000
	commitTransferCost          = 250
	commitTransferToNewCost     = 780
	commitFullExitCost          = 7_000
	commitWithdrawCost          = 3_500
	commitForcedExitCost        = commitWithdrawCost
)

// Costs of processing each kind of operation inside the verifyBlock
// contract call.
const (
	verifyBaseCost       = 10_000
	verifyDepositCost    = 50
	verifyFullExitCost   = 30_000
	verifyWithdrawCost   = 48_000
	verifyForcedExitCost = verifyWithdrawCost
)

func commitCost(o op.Op) uint64 {
	switch o := o.(type) {
	case op.DepositOp:
		return commitDepositCost
	case op.ChangePubKeyOp:
		if _, ok := o.Tx.EthAuth.(tx.AuthECDSA); ok {
			return commitChangePubKeyCostECDSA
		}
		return commitChangePubKeyCostOther
	case op.TransferOp:
		return commitTransferCost
	case op.TransferToNewOp:
		return commitTransferToNewCost
	case op.FullExitOp:
		return commitFullExitCost
	case op.WithdrawOp:
		return commitWithdrawCost
	case op.ForcedExitOp:
		return commitForcedExitCost
	}

	return 0
}

func verifyCost(o op.Op) uint64 {
	switch o.(type) {
	case op.DepositOp:
		return verifyDepositCost
	case op.FullExitOp:
		return verifyFullExitCost
	case op.WithdrawOp:
		return verifyWithdrawCost
	case op.ForcedExitOp:
		return verifyForcedExitCost
	}

	return 0
}

// GasCounter tracks the estimated gas cost of the upcoming commit and
// verify settlement transactions for a block under assembly. The
// assembler seals the block once no further operation can be added
// without either transaction trespassing TxGasLimit.
//
// The estimate is a pre-calculated base cost (the cost of committing an
// empty block) plus the added cost of every operation in the block.
type GasCounter struct {
	commitCost uint64
	verifyCost uint64
}

// NewGasCounter constructs a counter charged with the base costs.
func NewGasCounter() GasCounter {
	return GasCounter{
		commitCost: commitBaseCost,
		verifyCost: verifyBaseCost,
	}
}

// Add charges an operation's costs to the counter. ErrBlockFull is
// returned when either scaled-up total would exceed TxGasLimit, in
// which case the counter is left unchanged.
func (g *GasCounter) Add(o op.Op) error {
	newCommit := g.commitCost + commitCost(o)
	if scaleUp(newCommit) > TxGasLimit {
		return ErrBlockFull
	}

	newVerify := g.verifyCost + verifyCost(o)
	if scaleUp(newVerify) > TxGasLimit {
		return ErrBlockFull
	}

	g.commitCost = newCommit
	g.verifyCost = newVerify

	return nil
}

// CommitGasLimit returns the gas limit to set on the commit transaction.
func (g *GasCounter) CommitGasLimit() uint64 {
	return scaleUp(g.commitCost)
}

// VerifyGasLimit returns the gas limit to set on the verify transaction.
func (g *GasCounter) VerifyGasLimit() uint64 {
	return scaleUp(g.verifyCost)
}

// scaleUp adds a 30% safety margin to an estimated cost.
func scaleUp(cost uint64) uint64 {
	return cost * 130 / 100
}
