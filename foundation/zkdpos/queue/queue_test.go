package queue_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/qingah/zkdpos/foundation/zkdpos/priority"
	"github.com/qingah/zkdpos/foundation/zkdpos/queue"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func deposit(amount int64) priority.Deposit {
	return priority.Deposit{
		From:   common.HexToAddress("0x6Fe6CF3c8fF57c58d24BfC869668F48BCbDb3BD9"),
		Token:  1,
		Amount: big.NewInt(amount),
		To:     common.HexToAddress("0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76"),
	}
}

func observe(t *testing.T, r *queue.Reconciler, serial types.SerialID, data priority.Data, deadline uint64) {
	t.Helper()

	op := priority.Op{
		SerialID:      serial,
		Data:          data,
		DeadlineBlock: deadline,
	}
	if err := r.Observe(op); err != nil {
		t.Fatalf("observing serial %d: %s", serial, err)
	}
}

func TestInclusionOrder(t *testing.T) {
	t.Log("Given the need to consume priority operations in serial order.")
	{
		t.Log("\tTest 0:\tWhen proposing operations in and out of order.")
		{
			r := queue.New(1)

			observe(t, r, 1, deposit(100), 5000)
			observe(t, r, 2, deposit(200), 5000)
			observe(t, r, 3, deposit(300), 5000)
			t.Logf("\t%s\tTest 0:\tShould observe three operations.", success)

			if got := len(r.Pending()); got != 3 {
				t.Fatalf("\t%s\tTest 0:\tShould have 3 pending operations, got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould have 3 pending operations.", success)

			// Serial 2 before serial 1 must be rejected.
			if err := r.ProposeInclusion(2, deposit(200)); !errors.Is(err, queue.ErrPriorityOrderViolation) {
				t.Fatalf("\t%s\tTest 0:\tShould reject serial 2 first: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject serial 2 first.", success)

			if err := r.ProposeInclusion(1, deposit(100)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept serial 1: %s", failed, err)
			}
			if err := r.ProposeInclusion(2, deposit(200)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept serial 2: %s", failed, err)
			}
			if err := r.ProposeInclusion(3, deposit(300)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept serial 3: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept serials 1, 2, 3 in order.", success)

			if r.NextSerialID() != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould expect serial 4 next, got %d.", failed, r.NextSerialID())
			}
			t.Logf("\t%s\tTest 0:\tShould expect serial 4 next.", success)
		}
	}
}

func TestDoubleInclusion(t *testing.T) {
	t.Log("Given the need to consume each priority operation exactly once.")
	{
		t.Log("\tTest 0:\tWhen a serial id is proposed twice.")
		{
			r := queue.New(5)

			observe(t, r, 5, deposit(500), 5000)

			if err := r.ProposeInclusion(5, deposit(500)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould accept serial 5: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould accept serial 5.", success)

			if err := r.ProposeInclusion(5, deposit(500)); !errors.Is(err, queue.ErrPriorityOrderViolation) {
				t.Fatalf("\t%s\tTest 0:\tShould reject the second proposal: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the second proposal.", success)

			entry, err := r.Lookup(5)
			if err != nil || entry.Status != queue.StatusIncluded {
				t.Fatalf("\t%s\tTest 0:\tShould keep serial 5 included: %v %v", failed, entry.Status, err)
			}
			t.Logf("\t%s\tTest 0:\tShould keep serial 5 included.", success)
		}
	}
}

func TestDataMismatch(t *testing.T) {
	t.Log("Given the need to reject substituted operation payloads.")
	{
		t.Log("\tTest 0:\tWhen the proposed payload differs from the L1 event.")
		{
			r := queue.New(0)

			observe(t, r, 0, deposit(100), 5000)

			if err := r.ProposeInclusion(0, deposit(999)); !errors.Is(err, queue.ErrPriorityDataMismatch) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a different amount: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a different amount.", success)

			fe := priority.FullExit{AccountID: 1, Token: 1}
			if err := r.ProposeInclusion(0, fe); !errors.Is(err, queue.ErrPriorityDataMismatch) {
				t.Fatalf("\t%s\tTest 0:\tShould reject a different kind: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a different kind.", success)

			if err := r.ProposeInclusion(7, deposit(100)); !errors.Is(err, queue.ErrUnknownSerialID) {
				t.Fatalf("\t%s\tTest 0:\tShould reject an unknown serial id: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject an unknown serial id.", success)

			if err := r.ProposeInclusion(0, deposit(100)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould still accept the exact payload: %s", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould still accept the exact payload.", success)
		}
	}
}

func TestReplayedObservations(t *testing.T) {
	t.Log("Given the need to survive L1 event replays during resync.")
	{
		t.Log("\tTest 0:\tWhen the same event is observed twice.")
		{
			r := queue.New(0)

			observe(t, r, 0, deposit(100), 5000)
			observe(t, r, 0, deposit(100), 5000)
			t.Logf("\t%s\tTest 0:\tShould accept the identical replay.", success)

			if got := len(r.Pending()); got != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould track a single operation, got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould track a single operation.", success)

			err := r.Observe(priority.Op{SerialID: 0, Data: deposit(200)})
			if !errors.Is(err, queue.ErrPriorityDataMismatch) {
				t.Fatalf("\t%s\tTest 0:\tShould reject conflicting data: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject conflicting data.", success)
		}
	}
}

func TestExpiration(t *testing.T) {
	t.Log("Given the need to surface refundable priority operations.")
	{
		t.Log("\tTest 0:\tWhen deadlines pass without inclusion.")
		{
			r := queue.New(0)

			observe(t, r, 0, deposit(100), 1000)
			observe(t, r, 1, deposit(200), 2000)
			observe(t, r, 2, deposit(300), 3000)

			expired := r.ExpireDue(2000)
			if len(expired) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould expire 2 operations, got %d.", failed, len(expired))
			}
			t.Logf("\t%s\tTest 0:\tShould expire 2 operations.", success)

			if expired[0].SerialID != 0 || expired[1].SerialID != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould report expirations in serial order.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould report expirations in serial order.", success)

			if got := len(r.Pending()); got != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould keep 1 pending operation, got %d.", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould keep 1 pending operation.", success)

			// An expired operation can no longer be included.
			if err := r.ProposeInclusion(0, deposit(100)); !errors.Is(err, queue.ErrPriorityOrderViolation) {
				t.Fatalf("\t%s\tTest 0:\tShould reject an expired operation: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject an expired operation.", success)

			// The expired entries never advance the expected serial, so
			// the still pending operation behind them is blocked too.
			if err := r.ProposeInclusion(2, deposit(300)); !errors.Is(err, queue.ErrPriorityOrderViolation) {
				t.Fatalf("\t%s\tTest 0:\tShould block the serials behind the expiry: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould block the serials behind the expiry.", success)

			pending, included, expiredCount := r.Counts()
			if pending != 1 || included != 0 || expiredCount != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould report counts 1/0/2, got %d/%d/%d.", failed, pending, included, expiredCount)
			}
			t.Logf("\t%s\tTest 0:\tShould report the right counts.", success)
		}
	}
}
