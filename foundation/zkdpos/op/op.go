// Package op defines the unified zkDpos block operation: the union of
// executed L2 transactions and L1 priority operations, together with the
// fixed width public data layout committed to the settlement contract.
//
// Every operation kind owns a single tag byte and a fixed chunk count.
// The tag space is append only: tags are never reassigned because the
// deployed settlement contract decodes public data by tag forever.
package op

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// ChunkBytes is the fixed width of one public data chunk. It is a circuit
// parameter and can never change.
const ChunkBytes = 9

// Operation tags. Tag 0x04 belonged to the retired Close operation and
// stays reserved.
const (
	TagNoop          byte = 0x00
	TagDeposit       byte = 0x01
	TagTransferToNew byte = 0x02
	TagWithdraw      byte = 0x03
	TagTransfer      byte = 0x05
	TagFullExit      byte = 0x06
	TagChangePubKey  byte = 0x07
	TagForcedExit    byte = 0x08
)

// Chunk counts per operation kind.
const (
	NoopChunks          = 1
	DepositChunks       = 6
	TransferToNewChunks = 6
	WithdrawChunks      = 6
	TransferChunks      = 2
	FullExitChunks      = 6
	ChangePubKeyChunks  = 6
	ForcedExitChunks    = 6
)

var (
	// ErrUnknownOperationTag is returned when public data starts with a
	// tag no operation kind owns.
	ErrUnknownOperationTag = errors.New("unknown operation tag")

	// ErrTruncatedOperation is returned when public data ends before the
	// operation's full chunk span.
	ErrTruncatedOperation = errors.New("truncated operation public data")
)

// =============================================================================

// Op is one operation as it appears inside a block.
type Op interface {
	// Tag returns the operation's public data tag byte.
	Tag() byte

	// Chunks returns the number of public data chunks the operation
	// occupies inside a block.
	Chunks() int

	// PublicData returns the chunk aligned byte encoding committed to
	// the settlement contract. Its length is always Chunks()*ChunkBytes.
	PublicData() ([]byte, error)

	// UpdatedAccountIDs lists the accounts this operation touches.
	UpdatedAccountIDs() []types.AccountID
}

// Withdrawer is implemented by operations that move funds out of the
// network and produce withdrawal data for the settlement contract.
type Withdrawer interface {
	WithdrawalData() ([]byte, error)
}

// Witnesser is implemented by operations that hand extra witness bytes to
// the settlement contract. Only ChangePubKey does today.
type Witnesser interface {
	EthWitness() []byte
}

// =============================================================================

// ChunksForTag returns the chunk count of the operation kind owning the
// tag, or ErrUnknownOperationTag.
func ChunksForTag(tag byte) (int, error) {
	switch tag {
	case TagNoop:
		return NoopChunks, nil
	case TagDeposit:
		return DepositChunks, nil
	case TagTransferToNew:
		return TransferToNewChunks, nil
	case TagWithdraw:
		return WithdrawChunks, nil
	case TagTransfer:
		return TransferChunks, nil
	case TagFullExit:
		return FullExitChunks, nil
	case TagChangePubKey:
		return ChangePubKeyChunks, nil
	case TagForcedExit:
		return ForcedExitChunks, nil
	}

	return 0, fmt.Errorf("tag 0x%02x: %w", tag, ErrUnknownOperationTag)
}

// FromPublicData restores a single operation from its full chunk span.
func FromPublicData(data []byte) (Op, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty public data: %w", ErrTruncatedOperation)
	}

	chunks, err := ChunksForTag(data[0])
	if err != nil {
		return nil, err
	}

	if len(data) < chunks*ChunkBytes {
		return nil, fmt.Errorf("operation 0x%02x needs %d bytes, got %d: %w", data[0], chunks*ChunkBytes, len(data), ErrTruncatedOperation)
	}
	data = data[:chunks*ChunkBytes]

	switch data[0] {
	case TagNoop:
		return noopFromPublicData(data)
	case TagDeposit:
		return depositFromPublicData(data)
	case TagTransferToNew:
		return transferToNewFromPublicData(data)
	case TagWithdraw:
		return withdrawFromPublicData(data)
	case TagTransfer:
		return transferFromPublicData(data)
	case TagFullExit:
		return fullExitFromPublicData(data)
	case TagChangePubKey:
		return changePubKeyFromPublicData(data)
	case TagForcedExit:
		return forcedExitFromPublicData(data)
	}

	return nil, fmt.Errorf("tag 0x%02x: %w", data[0], ErrUnknownOperationTag)
}

// DecodeAll walks a block's public data and restores every operation in
// order. The input must be an exact concatenation of chunk spans.
func DecodeAll(data []byte) ([]Op, error) {
	var ops []Op
	for len(data) > 0 {
		operation, err := FromPublicData(data)
		if err != nil {
			return nil, err
		}

		ops = append(ops, operation)
		data = data[operation.Chunks()*ChunkBytes:]
	}

	return ops, nil
}

// =============================================================================

// pad extends the encoded fields with zero bytes up to the chunk span.
func pad(data []byte, chunks int) []byte {
	out := make([]byte, chunks*ChunkBytes)
	copy(out, data)
	return out
}

func getU16(data []byte, offset int) uint16 {
	return binary.BigEndian.Uint16(data[offset : offset+2])
}

func getU32(data []byte, offset int) uint32 {
	return binary.BigEndian.Uint32(data[offset : offset+4])
}
