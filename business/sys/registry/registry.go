// Package registry maintains the node's in-memory view of the account
// tree leaves and the registered tokens. The authoritative tree is owned
// by the prover pipeline; this view exists for transaction validation
// and block assembly.
package registry

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Lookup errors.
var (
	ErrUnknownToken   = errors.New("unknown token")
	ErrUnknownAccount = errors.New("unknown account")
	ErrAccountExists  = errors.New("account already exists")
)

// Registry is a mutex guarded view of accounts, balances and tokens.
type Registry struct {
	mu        sync.RWMutex
	tokens    map[types.TokenID]types.TokenMeta
	accounts  map[types.AccountID]types.AccountRecord
	byAddress map[types.Address]types.AccountID
	balances  map[balanceKey]*big.Int
	nextID    types.AccountID
}

type balanceKey struct {
	account types.AccountID
	token   types.TokenID
}

// New constructs a registry seeded with the provided token set.
func New(tokens []types.TokenMeta) *Registry {
	r := Registry{
		tokens:    make(map[types.TokenID]types.TokenMeta),
		accounts:  make(map[types.AccountID]types.AccountRecord),
		byAddress: make(map[types.Address]types.AccountID),
		balances:  make(map[balanceKey]*big.Int),
	}

	for _, t := range tokens {
		r.tokens[t.ID] = t
	}

	return &r
}

// TokenByID implements the types.TokenRegistry interface.
func (r *Registry) TokenByID(id types.TokenID) (types.TokenMeta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.tokens[id]
	if !exists {
		return types.TokenMeta{}, fmt.Errorf("token %d: %w", id, ErrUnknownToken)
	}

	return t, nil
}

// Tokens implements the types.TokenRegistry interface. The result is
// sorted by token id.
func (r *Registry) Tokens() []types.TokenMeta {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]types.TokenMeta, 0, len(r.tokens))
	for _, t := range r.tokens {
		tokens = append(tokens, t)
	}

	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].ID < tokens[j].ID
	})

	return tokens
}

// AccountByID implements the types.AccountLookup interface.
func (r *Registry) AccountByID(id types.AccountID) (types.AccountRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.accounts[id]
	if !exists {
		return types.AccountRecord{}, fmt.Errorf("account %d: %w", id, ErrUnknownAccount)
	}

	return a, nil
}

// AccountByAddress implements the types.AccountLookup interface.
func (r *Registry) AccountByAddress(addr types.Address) (types.AccountRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byAddress[addr]
	if !exists {
		return types.AccountRecord{}, fmt.Errorf("address %s: %w", addr, ErrUnknownAccount)
	}

	return r.accounts[id], nil
}

// AssignAccount returns the record for the address, creating a fresh
// leaf with the next free account id when none exists yet.
func (r *Registry) AssignAccount(addr types.Address) (types.AccountRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.byAddress[addr]; exists {
		return r.accounts[id], nil
	}

	if r.nextID > types.MaxAccountID {
		return types.AccountRecord{}, fmt.Errorf("account tree is full")
	}

	record := types.AccountRecord{
		ID:      r.nextID,
		Address: addr,
	}
	r.accounts[record.ID] = record
	r.byAddress[addr] = record.ID
	r.nextID++

	return record, nil
}

// SetPubKeyHash records a signing key rotation for the account.
func (r *Registry) SetPubKeyHash(id types.AccountID, pkh types.PubKeyHash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.accounts[id]
	if !exists {
		return fmt.Errorf("account %d: %w", id, ErrUnknownAccount)
	}

	a.PubKeyHash = pkh
	r.accounts[id] = a

	return nil
}

// BumpNonce advances the stored nonce for the account.
func (r *Registry) BumpNonce(id types.AccountID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, exists := r.accounts[id]
	if !exists {
		return fmt.Errorf("account %d: %w", id, ErrUnknownAccount)
	}

	a.Nonce++
	r.accounts[id] = a

	return nil
}

// Balance returns the account's balance of the token. Unknown pairs
// report zero.
func (r *Registry) Balance(id types.AccountID, token types.TokenID) *big.Int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if b, exists := r.balances[balanceKey{id, token}]; exists {
		return new(big.Int).Set(b)
	}

	return new(big.Int)
}

// Credit adds funds to the account's balance of the token.
func (r *Registry) Credit(id types.AccountID, token types.TokenID, amount *big.Int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := balanceKey{id, token}
	b, exists := r.balances[key]
	if !exists {
		b = new(big.Int)
		r.balances[key] = b
	}
	b.Add(b, amount)
}

// Debit removes funds from the account's balance of the token. The
// balance is not allowed to go negative.
func (r *Registry) Debit(id types.AccountID, token types.TokenID, amount *big.Int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := balanceKey{id, token}
	b, exists := r.balances[key]
	if !exists || b.Cmp(amount) < 0 {
		return fmt.Errorf("account %d token %d: insufficient balance", id, token)
	}
	b.Sub(b, amount)

	return nil
}
