package mempool_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/qingah/zkdpos/foundation/zkdpos/mempool"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func transfer(account types.AccountID, nonce types.Nonce, fee int64) tx.SignedTx {
	return tx.SignedTx{
		Tx: &tx.Transfer{
			AccountID: account,
			To:        common.HexToAddress("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"),
			Token:     1,
			Amount:    big.NewInt(1000),
			Fee:       big.NewInt(fee),
			Nonce:     nonce,
			TimeRange: tx.DefaultTimeRange(),
		},
	}
}

func TestCRUD(t *testing.T) {
	t.Log("Given the need to validate mempool api.")
	{
		t.Log("\tTest 0:\tWhen handling a set of transactions.")
		{
			mp, err := mempool.New()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a mempool: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to construct a mempool.", success)

			if _, err := mp.Upsert(transfer(1, 0, 100)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add a transaction: %s", failed, err)
			}
			if _, err := mp.Upsert(transfer(2, 0, 200)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add a transaction: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add transactions.", success)

			if mp.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have 2 transactions, got %d.", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould have 2 transactions.", success)

			// Resubmitting with the same account and nonce replaces.
			if _, err := mp.Upsert(transfer(1, 0, 500)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to replace a transaction: %s", failed, err)
			}
			if mp.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould still have 2 transactions, got %d.", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould replace on same account and nonce.", success)

			mp.Delete(transfer(2, 0, 200).Tx)
			if mp.Count() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould have 1 transaction after delete, got %d.", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould be able to delete a transaction.", success)

			mp.Truncate()
			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould be empty after truncate, got %d.", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould be empty after truncate.", success)
		}
	}
}

func TestPickBest(t *testing.T) {
	t.Log("Given the need to pick the best paying transactions.")
	{
		t.Log("\tTest 0:\tWhen accounts compete on fees.")
		{
			mp, err := mempool.New()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct a mempool: %s", failed, err)
			}

			txs := []tx.SignedTx{
				transfer(1, 1, 250),
				transfer(1, 0, 150),
				transfer(2, 1, 200),
				transfer(2, 0, 75),
				transfer(3, 1, 75),
				transfer(3, 0, 100),
			}
			for _, stx := range txs {
				if _, err := mp.Upsert(stx); err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to add a transaction: %s", failed, err)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add 6 transactions.", success)

			picked := mp.PickBest(4)
			if len(picked) != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould pick 4 transactions, got %d.", failed, len(picked))
			}
			t.Logf("\t%s\tTest 0:\tShould pick 4 transactions.", success)

			// Nonce order must hold per account across the whole pick.
			seen := make(map[types.AccountID]types.Nonce)
			for _, stx := range picked {
				account := stx.Tx.SenderAccountID()
				nonce := stx.Tx.TxNonce()
				if last, ok := seen[account]; ok && nonce <= last {
					t.Fatalf("\t%s\tTest 0:\tShould respect nonce order for account %d.", failed, account)
				}
				seen[account] = nonce
			}
			t.Logf("\t%s\tTest 0:\tShould respect nonce order per account.", success)

			// The first row holds every account's nonce 0 transaction.
			for _, stx := range picked[:3] {
				if stx.Tx.TxNonce() != 0 {
					t.Fatalf("\t%s\tTest 0:\tShould pick nonce 0 transactions first.", failed)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould pick nonce 0 transactions first.", success)

			// The fourth slot goes to the best fee in the second row.
			if picked[3].Tx.TxFee().Cmp(big.NewInt(250)) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould pick the best fee last, got %s.", failed, picked[3].Tx.TxFee())
			}
			t.Logf("\t%s\tTest 0:\tShould pick the best fee last.", success)

			all := mp.PickBest(-1)
			if len(all) != 6 {
				t.Fatalf("\t%s\tTest 0:\tShould return the whole pool for -1, got %d.", failed, len(all))
			}
			t.Logf("\t%s\tTest 0:\tShould return the whole pool for -1.", success)
		}
	}
}
