package op

import (
	"math/big"

	"github.com/qingah/zkdpos/foundation/zkdpos/packing"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// The first byte of withdrawal data tells the settlement contract whether
// the funds go through the pending withdrawals queue.
const (
	withdrawToQueue  byte = 0x01
	withdrawDirectly byte = 0x00
)

// WithdrawOp is an executed withdrawal from an L2 account to L1.
type WithdrawOp struct {
	Tx        *tx.Withdraw
	AccountID types.AccountID
}

// Tag implements the Op interface.
func (WithdrawOp) Tag() byte { return TagWithdraw }

// Chunks implements the Op interface.
func (WithdrawOp) Chunks() int { return WithdrawChunks }

// PublicData implements the Op interface.
func (o WithdrawOp) PublicData() ([]byte, error) {
	fee, err := packing.PackFee(o.Tx.Fee)
	if err != nil {
		return nil, err
	}

	data := make([]byte, 0, WithdrawChunks*ChunkBytes)
	data = append(data, TagWithdraw)
	data = appendU32(data, uint32(o.AccountID))
	data = appendU16(data, uint16(o.Tx.Token))
	data = append16Bytes(data, o.Tx.Amount)
	data = append(data, fee...)
	data = append(data, o.Tx.To.Bytes()...)

	return pad(data, WithdrawChunks), nil
}

// WithdrawalData implements the Withdrawer interface.
func (o WithdrawOp) WithdrawalData() ([]byte, error) {
	data := make([]byte, 0, 1+20+2+16)
	data = append(data, withdrawToQueue)
	data = append(data, o.Tx.To.Bytes()...)
	data = appendU16(data, uint16(o.Tx.Token))
	data = append16Bytes(data, o.Tx.Amount)
	return data, nil
}

// UpdatedAccountIDs implements the Op interface.
func (o WithdrawOp) UpdatedAccountIDs() []types.AccountID {
	return []types.AccountID{o.AccountID}
}

func withdrawFromPublicData(data []byte) (WithdrawOp, error) {
	accountID := types.AccountID(getU32(data, 1))
	token := types.TokenID(getU16(data, 5))
	amount := new(big.Int).SetBytes(data[7:23])

	fee, err := packing.UnpackFee(data[23:25])
	if err != nil {
		return WithdrawOp{}, err
	}

	var to types.Address
	copy(to[:], data[25:45])

	return WithdrawOp{
		Tx: &tx.Withdraw{
			AccountID: accountID,
			To:        to,
			Token:     token,
			Amount:    amount,
			Fee:       fee,
			TimeRange: tx.DefaultTimeRange(),
		},
		AccountID: accountID,
	}, nil
}

// =============================================================================

// ForcedExitOp is an executed forced exit: the target account's full
// balance of the token is withdrawn to the target's own L1 address.
type ForcedExitOp struct {
	Tx              *tx.ForcedExit
	TargetAccountID types.AccountID

	// WithdrawAmount is the target's balance captured at execution time.
	WithdrawAmount *big.Int
}

// Tag implements the Op interface.
func (ForcedExitOp) Tag() byte { return TagForcedExit }

// Chunks implements the Op interface.
func (ForcedExitOp) Chunks() int { return ForcedExitChunks }

// PublicData implements the Op interface.
func (o ForcedExitOp) PublicData() ([]byte, error) {
	fee, err := packing.PackFee(o.Tx.Fee)
	if err != nil {
		return nil, err
	}

	amount := o.WithdrawAmount
	if amount == nil {
		amount = new(big.Int)
	}

	data := make([]byte, 0, ForcedExitChunks*ChunkBytes)
	data = append(data, TagForcedExit)
	data = appendU32(data, uint32(o.Tx.InitiatorAccountID))
	data = appendU32(data, uint32(o.TargetAccountID))
	data = appendU16(data, uint16(o.Tx.Token))
	data = append16Bytes(data, amount)
	data = append(data, fee...)
	data = append(data, o.Tx.Target.Bytes()...)

	return pad(data, ForcedExitChunks), nil
}

// WithdrawalData implements the Withdrawer interface.
func (o ForcedExitOp) WithdrawalData() ([]byte, error) {
	amount := o.WithdrawAmount
	if amount == nil {
		amount = new(big.Int)
	}

	data := make([]byte, 0, 1+20+2+16)
	data = append(data, withdrawToQueue)
	data = append(data, o.Tx.Target.Bytes()...)
	data = appendU16(data, uint16(o.Tx.Token))
	data = append16Bytes(data, amount)
	return data, nil
}

// UpdatedAccountIDs implements the Op interface.
func (o ForcedExitOp) UpdatedAccountIDs() []types.AccountID {
	return []types.AccountID{o.Tx.InitiatorAccountID, o.TargetAccountID}
}

func forcedExitFromPublicData(data []byte) (ForcedExitOp, error) {
	initiator := types.AccountID(getU32(data, 1))
	target := types.AccountID(getU32(data, 5))
	token := types.TokenID(getU16(data, 9))
	amount := new(big.Int).SetBytes(data[11:27])

	fee, err := packing.UnpackFee(data[27:29])
	if err != nil {
		return ForcedExitOp{}, err
	}

	var targetAddr types.Address
	copy(targetAddr[:], data[29:49])

	return ForcedExitOp{
		Tx: &tx.ForcedExit{
			InitiatorAccountID: initiator,
			Target:             targetAddr,
			Token:              token,
			Fee:                fee,
			TimeRange:          tx.DefaultTimeRange(),
		},
		TargetAccountID: target,
		WithdrawAmount:  amount,
	}, nil
}
