package selector

import (
	"sort"

	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// feeSelect returns transactions with the best fee while respecting the
// nonce order within each account.
var feeSelect = func(m map[types.AccountID][]tx.SignedTx, howMany int) []tx.SignedTx {

	// Sort the transactions per account by nonce.
	for key := range m {
		if len(m[key]) > 1 {
			sort.Sort(byNonce(m[key]))
		}
	}

	// Pick the first transaction in the slice for each account. Each
	// iteration represents a new row of selections. Keep doing that until
	// all the transactions have been selected.
	var rows [][]tx.SignedTx
	for {
		var row []tx.SignedTx
		for key := range m {
			if len(m[key]) > 0 {
				row = append(row, m[key][0])
				m[key] = m[key][1:]
			}
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}

	if howMany == -1 {
		howMany = 0
		for _, row := range rows {
			howMany += len(row)
		}
	}

	// Sort each row by fee unless we will take all transactions from that
	// row anyway. Then try to select the number of requested transactions.
	// Keep pulling transactions from each row until the amount is fulfilled
	// or there are no more transactions.
	final := []tx.SignedTx{}
	for _, row := range rows {
		need := howMany - len(final)
		if len(row) > need {
			sort.Sort(byFee(row))
			final = append(final, row[:need]...)
			break
		}
		final = append(final, row...)
	}

	return final
}
