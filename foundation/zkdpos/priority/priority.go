// Package priority defines the L1 originated operations of the zkDpos
// network: Deposit and FullExit. Priority operations are never signed;
// their authenticity comes from having been emitted as an event by the
// settlement contract, which the reconciler in the queue package verifies.
package priority

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Operation type identifiers, shared with the public data tag space.
const (
	TypeDeposit  byte = 0x01
	TypeFullExit byte = 0x06
)

// ErrMalformedLog is returned when an L1 log payload does not match the
// expected binary shape. The error is fatal to that log only.
var ErrMalformedLog = errors.New("malformed priority operation log")

// Byte widths of the log payload fields. The payload layout is an
// immutable contract with the deployed settlement contract.
const (
	opTypeLen    = 1
	accountIDLen = 4
	tokenLen     = 2
	amountLen    = 16
	addressLen   = 20

	depositLogLen  = opTypeLen + accountIDLen + tokenLen + amountLen + addressLen
	fullExitLogLen = opTypeLen + accountIDLen + addressLen + tokenLen + amountLen
)

// =============================================================================

// Data is the payload of a priority operation.
type Data interface {
	// OpType returns the fixed operation type byte.
	OpType() byte

	// Equal reports exact field equality. The reconciler depends on this
	// to reject proposals that substitute fields under a real serial id.
	Equal(other Data) bool
}

// Deposit transfers funds from an L1 account to an L2 account. If the
// target account does not exist yet it will be created.
type Deposit struct {
	From   types.Address `json:"from"`
	Token  types.TokenID `json:"token"`
	Amount *big.Int      `json:"amount"`
	To     types.Address `json:"to"`
}

// OpType implements the Data interface.
func (d Deposit) OpType() byte { return TypeDeposit }

// Equal implements the Data interface.
func (d Deposit) Equal(other Data) bool {
	o, ok := other.(Deposit)
	return ok &&
		d.From == o.From &&
		d.Token == o.Token &&
		d.Amount != nil && o.Amount != nil && d.Amount.Cmp(o.Amount) == 0 &&
		d.To == o.To
}

// FullExit withdraws the whole balance of the token to the account's L1
// address without any L2 interaction.
type FullExit struct {
	AccountID  types.AccountID `json:"accountId"`
	EthAddress types.Address   `json:"ethAddress"`
	Token      types.TokenID   `json:"token"`
}

// OpType implements the Data interface.
func (fe FullExit) OpType() byte { return TypeFullExit }

// Equal implements the Data interface.
func (fe FullExit) Equal(other Data) bool {
	o, ok := other.(FullExit)
	return ok && fe == o
}

// =============================================================================

// ParseFromLogData parses the operation payload carried inside a priority
// request event. The layout mirrors the settlement contract's Operations
// library and is checked strictly: any length or field mismatch fails
// with ErrMalformedLog.
func ParseFromLogData(opType byte, sender types.Address, pubdata []byte) (Data, error) {
	switch opType {
	case TypeDeposit:
		if len(pubdata) != depositLogLen {
			return nil, fmt.Errorf("deposit payload is %d bytes, want %d: %w", len(pubdata), depositLogLen, ErrMalformedLog)
		}

		// The account id slot is zero at request time: the id is
		// assigned when the operation is executed.
		offset := opTypeLen + accountIDLen
		token := types.TokenID(uint16(pubdata[offset])<<8 | uint16(pubdata[offset+1]))
		offset += tokenLen
		amount := new(big.Int).SetBytes(pubdata[offset : offset+amountLen])
		offset += amountLen

		var to types.Address
		copy(to[:], pubdata[offset:offset+addressLen])

		return Deposit{From: sender, Token: token, Amount: amount, To: to}, nil

	case TypeFullExit:
		if len(pubdata) != fullExitLogLen {
			return nil, fmt.Errorf("full exit payload is %d bytes, want %d: %w", len(pubdata), fullExitLogLen, ErrMalformedLog)
		}

		offset := opTypeLen
		accountID := types.AccountID(uint32(pubdata[offset])<<24 | uint32(pubdata[offset+1])<<16 | uint32(pubdata[offset+2])<<8 | uint32(pubdata[offset+3]))
		offset += accountIDLen

		var addr types.Address
		copy(addr[:], pubdata[offset:offset+addressLen])
		offset += addressLen

		token := types.TokenID(uint16(pubdata[offset])<<8 | uint16(pubdata[offset+1]))

		return FullExit{AccountID: accountID, EthAddress: addr, Token: token}, nil
	}

	return nil, fmt.Errorf("unsupported priority op type 0x%02x: %w", opType, ErrMalformedLog)
}

// =============================================================================

// Op is a priority operation together with the queue metadata assigned by
// the settlement contract.
type Op struct {
	// SerialID is the position assigned by the L1 contract. Operations
	// must be included into blocks in serial id order.
	SerialID types.SerialID `json:"serialId"`

	// Data is the parsed operation payload.
	Data Data `json:"data"`

	// DeadlineBlock is the L1 block by which the operation must be
	// included before it becomes refundable.
	DeadlineBlock uint64 `json:"deadlineBlock"`

	// EthHash is the hash of the L1 transaction that emitted the event.
	EthHash types.Hash `json:"ethHash"`

	// EthBlock is the L1 block the event was included in.
	EthBlock uint64 `json:"ethBlock"`
}
