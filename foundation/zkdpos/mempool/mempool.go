// Package mempool maintains the pool of signed transactions waiting for
// inclusion in a block.
package mempool

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/qingah/zkdpos/foundation/zkdpos/mempool/selector"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Mempool represents a cache of transactions organized by account:nonce.
// A resubmission with the same account and nonce replaces the pooled
// transaction, which is how users bump fees.
type Mempool struct {
	pool     map[string]tx.SignedTx
	mu       sync.RWMutex
	selectFn selector.Func
}

// New constructs a new mempool using the default sort strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyFee)
}

// NewWithStrategy constructs a new mempool with specified sort strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[string]tx.SignedTx),
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the mempool.
func (mp *Mempool) Upsert(stx tx.SignedTx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if stx.Tx == nil {
		return 0, fmt.Errorf("missing transaction")
	}

	mp.pool[mapKey(stx.Tx)] = stx

	return len(mp.pool), nil
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(t tx.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, mapKey(t))
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]tx.SignedTx)
}

// PickBest uses the configured sort strategy to return the next set of
// transactions for the next block. Passing -1 returns the whole pool in
// the strategy's ordering.
func (mp *Mempool) PickBest(howMany int) []tx.SignedTx {

	// Group the transactions by sender account.
	m := make(map[types.AccountID][]tx.SignedTx)
	mp.mu.RLock()
	{
		if howMany == -1 {
			howMany = len(mp.pool)
		}

		for key, stx := range mp.pool {
			account, err := strconv.ParseUint(strings.Split(key, ":")[0], 10, 32)
			if err != nil {
				continue
			}
			id := types.AccountID(account)
			m[id] = append(m[id], stx)
		}
	}
	mp.mu.RUnlock()

	return mp.selectFn(m, howMany)
}

// =============================================================================

// mapKey is used to generate the map key.
func mapKey(t tx.Tx) string {
	return fmt.Sprintf("%d:%d", t.SenderAccountID(), t.TxNonce())
}
