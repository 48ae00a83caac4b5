package block_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/qingah/zkdpos/foundation/zkdpos/block"
	"github.com/qingah/zkdpos/foundation/zkdpos/op"
	"github.com/qingah/zkdpos/foundation/zkdpos/priority"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func testTransferOp(from, to types.AccountID) op.TransferOp {
	return op.TransferOp{
		Tx: &tx.Transfer{
			Token:     1,
			Amount:    big.NewInt(100),
			Fee:       big.NewInt(10),
			TimeRange: tx.DefaultTimeRange(),
		},
		From: from,
		To:   to,
	}
}

func TestAssemblerCapacity(t *testing.T) {
	t.Log("Given the need to seal blocks at their chunk capacity.")
	{
		t.Log("\tTest 0:\tWhen filling a block of 6 chunks.")
		{
			asm, err := block.NewAssembler(1, 6)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the assembler: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct the assembler.", success)

			// Two transfers occupy 4 of the 6 chunks.
			if err := asm.Add(testTransferOp(1, 2)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the first transfer: %s", failed, err)
			}
			if err := asm.Add(testTransferOp(2, 3)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept the second transfer: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept two transfers.", success)

			if asm.ChunksLeft() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have 2 chunks left, got %d.", failed, asm.ChunksLeft())
			}
			t.Logf("\t%s\tTest 0:\tShould have 2 chunks left.", success)

			// A withdrawal needs 6 chunks and must not fit anymore.
			withdraw := op.WithdrawOp{
				Tx: &tx.Withdraw{
					To:        common.HexToAddress("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"),
					Token:     1,
					Amount:    big.NewInt(100),
					Fee:       big.NewInt(10),
					TimeRange: tx.DefaultTimeRange(),
				},
				AccountID: 1,
			}
			if err := asm.Add(withdraw); !errors.Is(err, block.ErrBlockFull) {
				t.Fatalf("\t%s\tTest 0:\tShould get ErrBlockFull, got %v.", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould get ErrBlockFull.", success)

			data, err := asm.PublicData()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould produce public data: %s", failed, err)
			}

			if len(data) != 6*op.ChunkBytes {
				t.Fatalf("\t%s\tTest 0:\tShould pad to the full capacity, got %d bytes.", failed, len(data))
			}
			t.Logf("\t%s\tTest 0:\tShould pad to the full capacity.", success)

			ops, err := op.DecodeAll(data)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould decode the padded block: %s", failed, err)
			}

			// Two transfers plus two noop padding chunks.
			if len(ops) != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould decode 4 operations, got %d.", failed, len(ops))
			}
			if ops[2].Tag() != op.TagNoop || ops[3].Tag() != op.TagNoop {
				t.Fatalf("\t%s\tTest 0:\tShould end with noop padding.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould end with noop padding.", success)
		}
	}
}

func TestAssemblerWithdrawalData(t *testing.T) {
	t.Log("Given the need to collect withdrawal data for the contract.")
	{
		t.Log("\tTest 0:\tWhen the block mixes withdrawing and plain operations.")
		{
			asm, err := block.NewAssembler(2, 20)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the assembler: %s", failed, err)
			}

			ops := []op.Op{
				testTransferOp(1, 2),
				op.FullExitOp{
					FullExit: priority.FullExit{
						AccountID:  7,
						EthAddress: common.HexToAddress("0x6Fe6CF3c8fF57c58d24BfC869668F48BCbDb3BD9"),
						Token:      1,
					},
					WithdrawAmount: big.NewInt(900),
				},
				testTransferOp(2, 7),
			}

			for _, o := range ops {
				if err := asm.Add(o); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould accept the operation: %s", failed, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould accept every operation.", success)

			wd, err := asm.WithdrawalData()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould collect withdrawal data: %s", failed, err)
			}

			if len(wd) != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould collect exactly one payload, got %d.", failed, len(wd))
			}
			t.Logf("\t%s\tTest 0:\tShould collect exactly one payload.", success)

			ids := asm.UpdatedAccountIDs()
			if len(ids) != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould dedupe touched accounts, got %v.", failed, ids)
			}
			t.Logf("\t%s\tTest 0:\tShould dedupe touched accounts.", success)
		}
	}
}

func TestAssemblerWitnesses(t *testing.T) {
	t.Log("Given the need to collect witness bytes per operation.")
	{
		t.Log("\tTest 0:\tWhen the block mixes a key rotation with transfers.")
		{
			asm, err := block.NewAssembler(3, 20)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct the assembler: %s", failed, err)
			}

			cpk := op.ChangePubKeyOp{
				Tx: &tx.ChangePubKey{
					Account:   common.HexToAddress("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"),
					NewPkHash: types.PubKeyHash{0x01, 0x02, 0x03},
					FeeToken:  1,
					Fee:       big.NewInt(10),
					TimeRange: tx.DefaultTimeRange(),
				},
				AccountID: 3,
			}

			ops := []op.Op{
				testTransferOp(1, 2),
				cpk,
				testTransferOp(2, 3),
			}

			for _, o := range ops {
				if err := asm.Add(o); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould accept the operation: %s", failed, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould accept every operation.", success)

			wit := asm.Witnesses()

			if len(wit) != len(ops) {
				t.Fatalf("\t%s\tTest 0:\tShould line up with the operations, got %d entries.", failed, len(wit))
			}
			t.Logf("\t%s\tTest 0:\tShould line up with the operations.", success)

			if len(wit[0]) != 0 || len(wit[2]) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould leave transfers without a witness.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould leave transfers without a witness.", success)

			if len(wit[1]) == 0 || wit[1][0] != 0x02 {
				t.Fatalf("\t%s\tTest 0:\tShould carry the L2 authorization marker, got %x.", failed, wit[1])
			}
			t.Logf("\t%s\tTest 0:\tShould carry the L2 authorization marker.", success)
		}
	}
}

func TestGasCounter(t *testing.T) {
	t.Log("Given the need to keep settlement transactions under the gas limit.")
	{
		t.Log("\tTest 0:\tWhen adding operations until the budget runs out.")
		{
			gc := block.NewGasCounter()

			if gc.CommitGasLimit() <= 0 || gc.VerifyGasLimit() <= 0 {
				t.Fatalf("\t%s\tTest 0:\tShould start with the base costs.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould start with the base costs.", success)

			withdraw := op.WithdrawOp{
				Tx: &tx.Withdraw{
					Token:     1,
					Amount:    big.NewInt(100),
					Fee:       big.NewInt(10),
					TimeRange: tx.DefaultTimeRange(),
				},
				AccountID: 1,
			}

			// Verify cost dominates for withdrawals: the budget allows
			// roughly (4_000_000/1.3 - 10_000) / 48_000 of them.
			var added int
			for {
				if err := gc.Add(withdraw); err != nil {
					if !errors.Is(err, block.ErrBlockFull) {
						t.Fatalf("\t%s\tTest 0:\tShould fail with ErrBlockFull, got %v.", failed, err)
					}
					break
				}
				added++
				if added > 100_000 {
					t.Fatalf("\t%s\tTest 0:\tShould run out of budget eventually.", failed)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould run out of budget after %d withdrawals.", success, added)

			if added < 50 || added > 70 {
				t.Fatalf("\t%s\tTest 0:\tShould fit roughly 63 withdrawals, got %d.", failed, added)
			}
			t.Logf("\t%s\tTest 0:\tShould fit the expected number of withdrawals.", success)

			if gc.VerifyGasLimit() > block.TxGasLimit {
				t.Fatalf("\t%s\tTest 0:\tShould stay under the transaction gas limit.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould stay under the transaction gas limit.", success)
		}
	}
}
