// Package queue tracks the L1 priority queue and reconciles it against
// the operations the rollup includes in blocks. Every priority
// operation must be processed on L2 in serial id order before its
// expiration block, or the rollup is subject to exodus mode.
package queue

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/qingah/zkdpos/foundation/zkdpos/priority"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Reconciliation errors.
var (
	ErrPriorityOrderViolation = errors.New("priority operation out of serial order")
	ErrUnknownSerialID        = errors.New("unknown priority serial id")
	ErrPriorityDataMismatch   = errors.New("priority operation data mismatch")
)

// Status describes where a tracked priority operation is in its
// lifecycle.
type Status int

const (
	// StatusPending means the operation was observed on L1 and still
	// awaits inclusion in an L2 block.
	StatusPending Status = iota

	// StatusIncluded means the operation was matched against an L2
	// block operation.
	StatusIncluded

	// StatusExpired means the operation's deadline block passed before
	// inclusion.
	StatusExpired
)

// String implements the fmt.Stringer interface.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusIncluded:
		return "included"
	case StatusExpired:
		return "expired"
	}
	return "unknown"
}

// Entry is a tracked priority operation together with its lifecycle
// status.
type Entry struct {
	Op     priority.Op
	Status Status
}

// Reconciler maintains the set of priority operations observed on L1
// and validates that block production consumes them in order, with the
// exact payloads the contract recorded.
type Reconciler struct {
	mu sync.RWMutex

	entries map[types.SerialID]*Entry

	// nextSerial is the serial id the next included operation must
	// carry. It only advances on inclusion.
	nextSerial types.SerialID
}

// New constructs a reconciler expecting firstSerial as the next serial
// id to be included. A fresh rollup starts at zero; a restarted node
// passes the first unprocessed serial id from storage.
func New(firstSerial types.SerialID) *Reconciler {
	return &Reconciler{
		entries:    make(map[types.SerialID]*Entry),
		nextSerial: firstSerial,
	}
}

// Observe records a priority operation seen on L1. Observing the same
// serial id again with identical data is a no-op so event replays during
// chain resyncs are harmless; conflicting data for a known serial id is
// an error.
func (r *Reconciler) Observe(op priority.Op) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if known, exists := r.entries[op.SerialID]; exists {
		if !known.Op.Data.Equal(op.Data) {
			return fmt.Errorf("serial id %d: %w", op.SerialID, ErrPriorityDataMismatch)
		}
		return nil
	}

	r.entries[op.SerialID] = &Entry{Op: op, Status: StatusPending}

	return nil
}

// ProposeInclusion validates that a block may consume the given priority
// payload next. The serial id must be exactly the next one expected,
// the entry must still be pending, and the payload must equal the one
// observed on L1 field for field. On success the entry is marked
// included and the expected serial id advances.
//
// An expired entry never advances the expected serial id, so every
// later serial is permanently blocked from inclusion. At that point the
// settlement contract has stopped accepting blocks and users recover
// their funds through the L1 exodus path; the reconciler mirrors that
// finality rather than skipping over the expired entry.
func (r *Reconciler) ProposeInclusion(serialID types.SerialID, data priority.Data) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.entries[serialID]
	if !exists {
		return fmt.Errorf("serial id %d: %w", serialID, ErrUnknownSerialID)
	}

	if serialID != r.nextSerial {
		return fmt.Errorf("serial id %d, expected %d: %w", serialID, r.nextSerial, ErrPriorityOrderViolation)
	}

	switch entry.Status {
	case StatusIncluded:
		return fmt.Errorf("serial id %d already included: %w", serialID, ErrPriorityOrderViolation)
	case StatusExpired:
		return fmt.Errorf("serial id %d already expired: %w", serialID, ErrPriorityOrderViolation)
	}

	if !entry.Op.Data.Equal(data) {
		return fmt.Errorf("serial id %d: %w", serialID, ErrPriorityDataMismatch)
	}

	entry.Status = StatusIncluded
	r.nextSerial = serialID + 1

	return nil
}

// ExpireDue marks every pending operation whose deadline block is at or
// below the given L1 block as expired and returns them in serial id
// order. Expired deposits are the ones a user can claim back on L1.
func (r *Reconciler) ExpireDue(ethBlock uint64) []priority.Op {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []priority.Op
	for _, entry := range r.entries {
		if entry.Status != StatusPending {
			continue
		}
		if entry.Op.DeadlineBlock > ethBlock {
			continue
		}
		entry.Status = StatusExpired
		expired = append(expired, entry.Op)
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].SerialID < expired[j].SerialID
	})

	return expired
}

// Pending returns the operations still awaiting inclusion, in serial id
// order.
func (r *Reconciler) Pending() []priority.Op {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []priority.Op
	for _, entry := range r.entries {
		if entry.Status != StatusPending {
			continue
		}
		pending = append(pending, entry.Op)
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].SerialID < pending[j].SerialID
	})

	return pending
}

// NextSerialID returns the serial id the next included operation must
// carry.
func (r *Reconciler) NextSerialID() types.SerialID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.nextSerial
}

// Lookup returns the tracked entry for a serial id.
func (r *Reconciler) Lookup(serialID types.SerialID) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.entries[serialID]
	if !exists {
		return Entry{}, fmt.Errorf("serial id %d: %w", serialID, ErrUnknownSerialID)
	}

	return *entry, nil
}

// Counts reports how many tracked operations are in each status.
func (r *Reconciler) Counts() (pending, included, expired int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.entries {
		switch entry.Status {
		case StatusPending:
			pending++
		case StatusIncluded:
			included++
		case StatusExpired:
			expired++
		}
	}

	return pending, included, expired
}
