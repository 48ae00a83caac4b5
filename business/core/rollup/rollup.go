// Package rollup implements the operation layer of the node: transaction
// admission, priority queue tracking and block assembly.
package rollup

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/qingah/zkdpos/foundation/events"
	"github.com/qingah/zkdpos/foundation/zkdpos/mempool"
	"github.com/qingah/zkdpos/foundation/zkdpos/queue"
	"github.com/qingah/zkdpos/foundation/zkdpos/tx"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
	"go.uber.org/zap"
)

// Admission errors.
var (
	ErrWrongSigner = errors.New("signature does not match the account key")
	ErrStaleNonce  = errors.New("nonce already used")
	ErrBadEthSign  = errors.New("ethereum signature does not match the account address")
)

// Assigner is implemented by registries that can create account leaves
// for fresh deposit or transfer recipients.
type Assigner interface {
	AssignAccount(addr types.Address) (types.AccountRecord, error)
}

// State is the account state mutated by sealed blocks. Sealing debits
// and credits balances, bumps nonces and rotates signing keys through
// this interface.
type State interface {
	Balance(id types.AccountID, token types.TokenID) *big.Int
	Credit(id types.AccountID, token types.TokenID, amount *big.Int)
	Debit(id types.AccountID, token types.TokenID, amount *big.Int) error
	BumpNonce(id types.AccountID) error
	SetPubKeyHash(id types.AccountID, pkh types.PubKeyHash) error
}

// Config holds the mandatory collaborators of the core.
type Config struct {
	Log           *zap.SugaredLogger
	Network       types.Network
	Accounts      types.AccountLookup
	Assigner      Assigner
	State         State
	Tokens        types.TokenRegistry
	Evts          *events.Events
	ChunkCapacity int
	FirstSerialID types.SerialID
	FirstBlock    types.BlockNumber
}

// Core ties the mempool and the priority queue reconciler to the
// admission rules of the network.
type Core struct {
	log      *zap.SugaredLogger
	network  types.Network
	accounts types.AccountLookup
	assigner Assigner
	state    State
	tokens   types.TokenRegistry
	evts     *events.Events

	mempool  *mempool.Mempool
	queue    *queue.Reconciler
	capacity int

	mu        sync.Mutex
	nextBlock types.BlockNumber
}

// New constructs a core for transaction admission and block assembly.
func New(cfg Config) (*Core, error) {
	if cfg.ChunkCapacity <= 0 {
		return nil, fmt.Errorf("chunk capacity must be positive, got %d", cfg.ChunkCapacity)
	}

	mp, err := mempool.New()
	if err != nil {
		return nil, fmt.Errorf("constructing mempool: %w", err)
	}

	c := Core{
		log:       cfg.Log,
		network:   cfg.Network,
		accounts:  cfg.Accounts,
		assigner:  cfg.Assigner,
		state:     cfg.State,
		tokens:    cfg.Tokens,
		evts:      cfg.Evts,
		mempool:   mp,
		queue:     queue.New(cfg.FirstSerialID),
		capacity:  cfg.ChunkCapacity,
		nextBlock: cfg.FirstBlock,
	}

	return &c, nil
}

// SubmitTx validates a signed transaction against the admission rules
// and adds it to the mempool. The returned hash identifies the
// transaction from now on.
func (c *Core) SubmitTx(ctx context.Context, stx tx.SignedTx) (types.Hash, error) {
	if stx.Tx == nil {
		return types.Hash{}, fmt.Errorf("missing transaction")
	}

	if err := stx.Tx.ValidateStatic(); err != nil {
		return types.Hash{}, err
	}

	account, err := c.accounts.AccountByID(stx.Tx.SenderAccountID())
	if err != nil {
		return types.Hash{}, err
	}

	if stx.Tx.TxNonce() < account.Nonce {
		return types.Hash{}, fmt.Errorf("nonce %d below account nonce %d: %w", stx.Tx.TxNonce(), account.Nonce, ErrStaleNonce)
	}

	if err := c.verifySignatures(stx, account); err != nil {
		return types.Hash{}, err
	}

	hash, err := tx.Hash(stx.Tx)
	if err != nil {
		return types.Hash{}, err
	}

	if _, err := c.mempool.Upsert(stx); err != nil {
		return types.Hash{}, err
	}

	c.log.Infow("tx accepted", "hash", hash, "type", stx.Tx.TxType(), "account", stx.Tx.SenderAccountID(), "nonce", stx.Tx.TxNonce())
	c.evts.Send(events.Event{Kind: events.KindTxAccepted, Message: hash.Hex()})

	return hash, nil
}

// verifySignatures checks the L2 signature, the ChangePubKey L1
// authorization and the optional Ethereum 2FA signature.
func (c *Core) verifySignatures(stx tx.SignedTx, account types.AccountRecord) error {
	pkh, err := stx.Tx.VerifySignature(c.network)
	if err != nil {
		return err
	}

	switch t := stx.Tx.(type) {
	case *tx.ChangePubKey:
		// The rotation is signed with the key being set; the account is
		// authorized through the L1 path instead.
		if t.Account != account.Address {
			return ErrWrongSigner
		}
		if err := t.ValidateAuth(); err != nil {
			return err
		}

	default:
		if pkh != account.PubKeyHash {
			return ErrWrongSigner
		}
	}

	if stx.EthSignData != nil {
		signer, err := stx.EthSignData.Signature.RecoverSigner(stx.EthSignData.Message)
		if err != nil || signer != account.Address {
			return ErrBadEthSign
		}
	}

	return nil
}

// MempoolCount returns the number of transactions waiting for inclusion.
func (c *Core) MempoolCount() int {
	return c.mempool.Count()
}

// PendingTxs returns the pooled transactions in the selection order.
func (c *Core) PendingTxs() []tx.SignedTx {
	return c.mempool.PickBest(-1)
}

// Tokens returns the registered token set.
func (c *Core) Tokens() []types.TokenMeta {
	return c.tokens.Tokens()
}

// NextBlock returns the number the next sealed block will carry.
func (c *Core) NextBlock() types.BlockNumber {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.nextBlock
}
