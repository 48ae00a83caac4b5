// Package block assembles executed operations into chunk-aligned blocks
// ready for commitment to the settlement contract.
package block

import (
	"errors"
	"fmt"

	"github.com/qingah/zkdpos/foundation/zkdpos/op"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// ErrBlockFull is returned by Add when the operation does not fit the
// block's remaining chunk or gas capacity.
var ErrBlockFull = errors.New("block is full")

// Assembler accumulates executed operations up to a fixed chunk capacity
// and an L1 gas budget, then produces the block's public data with noop
// padding out to the full capacity.
type Assembler struct {
	number    types.BlockNumber
	capacity  int
	usedChunk int
	gas       GasCounter
	ops       []op.Op
}

// NewAssembler constructs an assembler for a block with the specified
// chunk capacity.
func NewAssembler(number types.BlockNumber, chunkCapacity int) (*Assembler, error) {
	if chunkCapacity <= 0 {
		return nil, fmt.Errorf("chunk capacity must be positive, got %d", chunkCapacity)
	}

	return &Assembler{
		number:   number,
		capacity: chunkCapacity,
		gas:      NewGasCounter(),
	}, nil
}

// Number returns the block number this assembler is building.
func (a *Assembler) Number() types.BlockNumber {
	return a.number
}

// Capacity returns the block's total chunk capacity.
func (a *Assembler) Capacity() int {
	return a.capacity
}

// ChunksLeft returns the number of chunks still available.
func (a *Assembler) ChunksLeft() int {
	return a.capacity - a.usedChunk
}

// GasLimits returns the gas limits to set on the commit and verify
// settlement transactions for the block as assembled so far.
func (a *Assembler) GasLimits() (commit uint64, verify uint64) {
	return a.gas.CommitGasLimit(), a.gas.VerifyGasLimit()
}

// Ops returns the operations added so far, in execution order.
func (a *Assembler) Ops() []op.Op {
	return a.ops
}

// Add appends an executed operation to the block. The operation is
// rejected with ErrBlockFull when its chunks exceed the remaining
// capacity or its L1 costs exceed the remaining gas budget.
func (a *Assembler) Add(o op.Op) error {
	chunks := o.Chunks()
	if chunks > a.ChunksLeft() {
		return ErrBlockFull
	}

	if err := a.gas.Add(o); err != nil {
		return err
	}

	a.ops = append(a.ops, o)
	a.usedChunk += chunks

	return nil
}

// PublicData serializes every operation's public data in order and pads
// the result with noop operations to the block's full chunk capacity.
func (a *Assembler) PublicData() ([]byte, error) {
	data := make([]byte, 0, a.capacity*op.ChunkBytes)

	for i, o := range a.ops {
		pd, err := o.PublicData()
		if err != nil {
			return nil, fmt.Errorf("operation[%d]: %w", i, err)
		}
		data = append(data, pd...)
	}

	for i := 0; i < a.ChunksLeft(); i++ {
		pd, err := op.NoopOp{}.PublicData()
		if err != nil {
			return nil, err
		}
		data = append(data, pd...)
	}

	return data, nil
}

// WithdrawalData collects the onchain withdrawal payloads of every
// operation that moves funds out of the rollup, in execution order.
func (a *Assembler) WithdrawalData() ([][]byte, error) {
	var wd [][]byte
	for i, o := range a.ops {
		w, ok := o.(op.Withdrawer)
		if !ok {
			continue
		}

		b, err := w.WithdrawalData()
		if err != nil {
			return nil, fmt.Errorf("operation[%d]: %w", i, err)
		}
		wd = append(wd, b)
	}

	return wd, nil
}

// Witnesses returns the offchain witness bytes for every operation that
// carries one, in execution order. Operations without a witness
// contribute an empty slice so positions line up with the block's ops.
func (a *Assembler) Witnesses() [][]byte {
	wit := make([][]byte, len(a.ops))
	for i, o := range a.ops {
		w, ok := o.(op.Witnesser)
		if !ok {
			continue
		}
		wit[i] = w.EthWitness()
	}

	return wit
}

// UpdatedAccountIDs returns the deduplicated set of account ids touched
// by the block's operations, preserving first-touch order.
func (a *Assembler) UpdatedAccountIDs() []types.AccountID {
	seen := make(map[types.AccountID]struct{})
	var ids []types.AccountID

	for _, o := range a.ops {
		for _, id := range o.UpdatedAccountIDs() {
			if _, exists := seen[id]; exists {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	return ids
}
