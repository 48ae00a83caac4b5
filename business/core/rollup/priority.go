package rollup

import (
	"fmt"

	"github.com/qingah/zkdpos/foundation/events"
	"github.com/qingah/zkdpos/foundation/zkdpos/priority"
	"github.com/qingah/zkdpos/foundation/zkdpos/queue"
	"github.com/qingah/zkdpos/foundation/zkdpos/types"
)

// ObservePriority records a priority operation emitted by the settlement
// contract.
func (c *Core) ObservePriority(op priority.Op) error {
	if err := c.queue.Observe(op); err != nil {
		return err
	}

	c.log.Infow("priority op observed", "serial", op.SerialID, "type", op.Data.OpType(), "deadline", op.DeadlineBlock)
	c.evts.Send(events.Event{Kind: events.KindPriorityObserved, Message: fmt.Sprintf("serial %d", op.SerialID)})

	return nil
}

// ExpirePriority marks every pending priority operation whose deadline
// is at or below the given L1 block as expired and returns the
// refundable set.
func (c *Core) ExpirePriority(ethBlock uint64) []priority.Op {
	expired := c.queue.ExpireDue(ethBlock)

	for _, op := range expired {
		c.log.Infow("priority op expired", "serial", op.SerialID, "deadline", op.DeadlineBlock, "ethblock", ethBlock)
		c.evts.Send(events.Event{Kind: events.KindPriorityExpired, Message: fmt.Sprintf("serial %d", op.SerialID)})
	}

	return expired
}

// PendingPriority returns the priority operations still awaiting
// inclusion, in serial id order.
func (c *Core) PendingPriority() []priority.Op {
	return c.queue.Pending()
}

// QueueStatus reports the reconciler's counts and the next expected
// serial id.
func (c *Core) QueueStatus() (pending, included, expired int, nextSerial types.SerialID) {
	pending, included, expired = c.queue.Counts()
	return pending, included, expired, c.queue.NextSerialID()
}

// LookupPriority returns the tracked entry for a serial id.
func (c *Core) LookupPriority(serialID types.SerialID) (queue.Entry, error) {
	return c.queue.Lookup(serialID)
}
