// Package frontier implements the bounded circular FIFO of tiles that drives
// distance-field expansion, stored entirely in shared channels and guarded by
// an advisory lock.
package frontier

import (
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/swarmnav/internal/channel"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// Worst-case budget cost of each operation through a metered view.
const (
	LockCost    = core.CostChannelWrite
	UnlockCost  = core.CostChannelWrite
	EnqueueCost = 2*core.CostChannelRead + 3*core.CostChannelWrite
	DequeueCost = 3*core.CostChannelRead + 2*core.CostChannelWrite

	// DefaultLockPolls bounds how often Acquire retries within one call.
	DefaultLockPolls = 3
)

// Queue is a view of the frontier region of a channel store. Views are cheap;
// build one per agent turn over that agent's metered channels.
//
// The lock is advisory: Enqueue and Dequeue do not check it. Callers must
// hold it around every queue mutation. Header updates are separate channel
// writes, so two holders at once (after a force-clear) can corrupt the queue;
// the corruption is bounded to the queue region.
type Queue struct {
	ch     channel.Channels
	layout channel.Layout
	logger zerolog.Logger
}

// New binds a queue view to a channel surface.
func New(ch channel.Channels, layout channel.Layout, logger zerolog.Logger) *Queue {
	return &Queue{
		ch:     ch,
		layout: layout,
		logger: logger.With().Str("component", "frontier").Logger(),
	}
}

// Capacity returns the maximum number of queued tiles.
func (q *Queue) Capacity() int { return q.layout.QueueCapacity() }

// Size returns the queued tile count.
func (q *Queue) Size() int {
	n := int(q.ch.Get(q.layout.QueueSizeChannel()))
	if n < 0 {
		return 0
	}
	return n
}

// Enqueue appends a tile. It returns false and leaves the queue unchanged
// when the queue is full.
func (q *Queue) Enqueue(t core.Tile) bool {
	size := int(q.ch.Get(q.layout.QueueSizeChannel()))
	if size >= q.Capacity() {
		q.logger.Warn().
			Int("capacity", q.Capacity()).
			Str("tile", t.String()).
			Msg("Frontier queue is full, dropping tile")
		return false
	}
	if size < 0 {
		size = 0
	}

	tail := q.wrap(q.ch.Get(q.layout.QueueTailChannel()))
	q.ch.Set(q.layout.QueueSlotChannel(tail), channel.PackTile(t))
	q.ch.Set(q.layout.QueueTailChannel(), int32((tail+1)%q.Capacity()))
	q.ch.Set(q.layout.QueueSizeChannel(), int32(size+1))
	return true
}

// Dequeue removes the oldest tile. The second result is false if the queue is empty.
func (q *Queue) Dequeue() (core.Tile, bool) {
	size := int(q.ch.Get(q.layout.QueueSizeChannel()))
	if size <= 0 {
		return core.Tile{}, false
	}

	head := q.wrap(q.ch.Get(q.layout.QueueHeadChannel()))
	v := q.ch.Get(q.layout.QueueSlotChannel(head))
	q.ch.Set(q.layout.QueueHeadChannel(), int32((head+1)%q.Capacity()))
	q.ch.Set(q.layout.QueueSizeChannel(), int32(size-1))
	return channel.UnpackTile(v), true
}

// TryLock attempts to take the lock for owner, which must be non-zero.
// It never blocks.
func (q *Queue) TryLock(owner int32) bool {
	return q.ch.CompareAndSwap(q.layout.QueueLockChannel(), 0, owner)
}

// Acquire polls TryLock up to maxPolls times, stopping early once budget
// (if non-nil) is exhausted. It never waits across turns.
func (q *Queue) Acquire(owner int32, budget *core.Budget, maxPolls int) bool {
	if maxPolls <= 0 {
		maxPolls = DefaultLockPolls
	}
	for i := 0; i < maxPolls; i++ {
		if budget != nil && !budget.Affords(LockCost) {
			return false
		}
		if q.TryLock(owner) {
			return true
		}
	}
	q.logger.Debug().Int32("owner", owner).Int32("holder", q.Holder()).Msg("Frontier lock busy")
	return false
}

// Unlock releases the lock if owner holds it.
func (q *Queue) Unlock(owner int32) {
	q.ch.CompareAndSwap(q.layout.QueueLockChannel(), owner, 0)
}

// Holder returns the current lock holder, 0 when free.
func (q *Queue) Holder() int32 {
	return q.ch.Get(q.layout.QueueLockChannel())
}

// ForceUnlock clears the lock regardless of holder and returns the previous
// holder. The home base calls it at every turn boundary so that a holder
// which died or ran out of budget mid-section cannot wedge the team.
func (q *Queue) ForceUnlock() int32 {
	c := q.layout.QueueLockChannel()
	prev := q.ch.Get(c)
	if prev != 0 {
		q.ch.Set(c, 0)
	}
	return prev
}

func (q *Queue) wrap(v int32) int {
	c := q.Capacity()
	i := int(v) % c
	if i < 0 {
		i += c
	}
	return i
}
