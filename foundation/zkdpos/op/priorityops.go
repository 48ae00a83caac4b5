package op

import (
	"fmt"
	"math/big"

	"github.com/qingah/zkdpos/foundation/zkdpos/priority"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// DepositOp is an executed L1 deposit credited to an L2 account.
type DepositOp struct {
	Deposit   priority.Deposit
	AccountID types.AccountID
}

// Tag implements the Op interface.
func (DepositOp) Tag() byte { return TagDeposit }

// Chunks implements the Op interface.
func (DepositOp) Chunks() int { return DepositChunks }

// PublicData implements the Op interface.
func (o DepositOp) PublicData() ([]byte, error) {
	data := make([]byte, 0, DepositChunks*ChunkBytes)
	data = append(data, TagDeposit)
	data = appendU32(data, uint32(o.AccountID))
	data = appendU16(data, uint16(o.Deposit.Token))
	data = append16Bytes(data, o.Deposit.Amount)
	data = append(data, o.Deposit.To.Bytes()...)

	return pad(data, DepositChunks), nil
}

// UpdatedAccountIDs implements the Op interface.
func (o DepositOp) UpdatedAccountIDs() []types.AccountID {
	return []types.AccountID{o.AccountID}
}

func depositFromPublicData(data []byte) (DepositOp, error) {
	accountID := types.AccountID(getU32(data, 1))
	token := types.TokenID(getU16(data, 5))
	amount := new(big.Int).SetBytes(data[7:23])

	var to types.Address
	copy(to[:], data[23:43])

	return DepositOp{
		Deposit: priority.Deposit{
			Token:  token,
			Amount: amount,
			To:     to,
		},
		AccountID: accountID,
	}, nil
}

// =============================================================================

// FullExitOp is an executed L1 full exit. WithdrawAmount is nil when the
// exit found nothing to withdraw (unknown account or zero balance); the
// operation is still committed so the request is consumed.
type FullExitOp struct {
	FullExit       priority.FullExit
	WithdrawAmount *big.Int
}

// Tag implements the Op interface.
func (FullExitOp) Tag() byte { return TagFullExit }

// Chunks implements the Op interface.
func (FullExitOp) Chunks() int { return FullExitChunks }

// PublicData implements the Op interface.
func (o FullExitOp) PublicData() ([]byte, error) {
	amount := o.WithdrawAmount
	if amount == nil {
		amount = new(big.Int)
	}

	data := make([]byte, 0, FullExitChunks*ChunkBytes)
	data = append(data, TagFullExit)
	data = appendU32(data, uint32(o.FullExit.AccountID))
	data = append(data, o.FullExit.EthAddress.Bytes()...)
	data = appendU16(data, uint16(o.FullExit.Token))
	data = append16Bytes(data, amount)

	return pad(data, FullExitChunks), nil
}

// WithdrawalData implements the Withdrawer interface. Full exits bypass
// the pending withdrawals queue.
func (o FullExitOp) WithdrawalData() ([]byte, error) {
	amount := o.WithdrawAmount
	if amount == nil {
		amount = new(big.Int)
	}

	data := make([]byte, 0, 1+20+2+16)
	data = append(data, withdrawDirectly)
	data = append(data, o.FullExit.EthAddress.Bytes()...)
	data = appendU16(data, uint16(o.FullExit.Token))
	data = append16Bytes(data, amount)
	return data, nil
}

// UpdatedAccountIDs implements the Op interface.
func (o FullExitOp) UpdatedAccountIDs() []types.AccountID {
	return []types.AccountID{o.FullExit.AccountID}
}

func fullExitFromPublicData(data []byte) (FullExitOp, error) {
	accountID := types.AccountID(getU32(data, 1))

	var addr types.Address
	copy(addr[:], data[5:25])

	token := types.TokenID(getU16(data, 25))
	amount := new(big.Int).SetBytes(data[27:43])

	return FullExitOp{
		FullExit: priority.FullExit{
			AccountID:  accountID,
			EthAddress: addr,
			Token:      token,
		},
		WithdrawAmount: amount,
	}, nil
}

// =============================================================================

// NoopOp fills the unused chunk capacity at the end of a block. It can't
// be submitted, only generated during block assembly.
type NoopOp struct{}

// Tag implements the Op interface.
func (NoopOp) Tag() byte { return TagNoop }

// Chunks implements the Op interface.
func (NoopOp) Chunks() int { return NoopChunks }

// PublicData implements the Op interface.
func (NoopOp) PublicData() ([]byte, error) {
	return make([]byte, NoopChunks*ChunkBytes), nil
}

// UpdatedAccountIDs implements the Op interface.
func (NoopOp) UpdatedAccountIDs() []types.AccountID { return nil }

func noopFromPublicData(data []byte) (NoopOp, error) {
	for _, b := range data {
		if b != 0 {
			return NoopOp{}, fmt.Errorf("noop public data must be all zero")
		}
	}

	return NoopOp{}, nil
}
