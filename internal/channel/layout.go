package channel

import (
	"fmt"
	"math"

	"github.com/mitchelldurbincs/swarmnav/internal/common"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

const (
	DefaultMaxMapWidth   = 120
	DefaultMaxMapHeight  = 120
	DefaultQueueCapacity = 3000

	// 16 signed bits per packed tile component
	maxHalfExtent = math.MaxInt16
)

// Region is a named contiguous run of channels.
type Region struct {
	Name  string
	Start Channel
	Len   int
}

// End returns the first channel after the region.
func (r Region) End() Channel { return r.Start + Channel(r.Len) }

// Layout is the static partition of a store. Every agent of a team must use
// the same Layout. Distance channels cover home-relative tiles in
// [-MaxWidth, MaxWidth] x [-MaxHeight, MaxHeight].
type Layout struct {
	maxWidth, maxHeight int
	queueCapacity       int

	ourCounts, enemyCounts Channel
	attackMode             Channel
	advance                Channel
	nextTarget             Channel
	alliesInPosition       Channel

	symmetryReady Channel
	symmetryMask  Channel
	midpointX     Channel
	midpointY     Channel

	queueLock, queueHead, queueTail, queueSize Channel
	queueBody                                  Channel

	distanceBase Channel
	rowStride    int

	size int
}

// NewLayout partitions a store for maps up to maxWidth x maxHeight and a
// frontier of queueCapacity tiles.
func NewLayout(maxWidth, maxHeight, queueCapacity int) (Layout, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return Layout{}, fmt.Errorf("%w: map extent %dx%d must be positive", core.ErrInvalidLayout, maxWidth, maxHeight)
	}
	if maxWidth > maxHalfExtent || maxHeight > maxHalfExtent {
		return Layout{}, fmt.Errorf("%w: map extent %dx%d exceeds packed tile range", core.ErrInvalidLayout, maxWidth, maxHeight)
	}
	if queueCapacity <= 0 {
		return Layout{}, fmt.Errorf("%w: queue capacity must be positive", core.ErrInvalidLayout)
	}

	l := Layout{maxWidth: maxWidth, maxHeight: maxHeight, queueCapacity: queueCapacity}
	next := Channel(0)
	take := func(n int) Channel {
		c := next
		next += Channel(n)
		return c
	}

	l.ourCounts = take(core.NumRoles)
	l.enemyCounts = take(core.NumRoles)
	l.attackMode = take(1)
	l.advance = take(1)
	l.nextTarget = take(1)
	l.alliesInPosition = take(1)

	l.symmetryReady = take(1)
	l.symmetryMask = take(1)
	l.midpointX = take(1)
	l.midpointY = take(1)

	l.queueLock = take(1)
	l.queueHead = take(1)
	l.queueTail = take(1)
	l.queueSize = take(1)
	l.queueBody = take(queueCapacity)

	l.rowStride = 2*maxHeight + 1
	l.distanceBase = take((2*maxWidth + 1) * l.rowStride)

	l.size = int(next)
	return l, nil
}

// DefaultLayout returns the layout for 120x120 maps and a 3000-tile frontier.
func DefaultLayout() Layout {
	l, err := NewLayout(DefaultMaxMapWidth, DefaultMaxMapHeight, DefaultQueueCapacity)
	if err != nil {
		panic(err)
	}
	return l
}

// Size is the number of channels a store needs for this layout.
func (l Layout) Size() int { return l.size }

func (l Layout) MaxWidth() int      { return l.maxWidth }
func (l Layout) MaxHeight() int     { return l.maxHeight }
func (l Layout) QueueCapacity() int { return l.queueCapacity }

// Regions lists every region in channel order.
func (l Layout) Regions() []Region {
	return []Region{
		{Name: "unit_counts", Start: l.ourCounts, Len: 2 * core.NumRoles},
		{Name: "signals", Start: l.attackMode, Len: 4},
		{Name: "symmetry", Start: l.symmetryReady, Len: 4},
		{Name: "queue_header", Start: l.queueLock, Len: 4},
		{Name: "queue_body", Start: l.queueBody, Len: l.queueCapacity},
		{Name: "distance", Start: l.distanceBase, Len: l.size - int(l.distanceBase)},
	}
}

// InWindow reports whether a home-relative tile has a distance channel.
func (l Layout) InWindow(t core.Tile) bool {
	return common.InWindow(t.X, t.Y, l.maxWidth, l.maxHeight)
}

// DistanceChannel maps a home-relative tile to its distance channel.
// The second result is false for tiles outside the window.
func (l Layout) DistanceChannel(t core.Tile) (Channel, bool) {
	if !l.InWindow(t) {
		return 0, false
	}
	return l.distanceBase + Channel((t.X+l.maxWidth)*l.rowStride+(t.Y+l.maxHeight)), true
}

// UnitCountChannel returns the count channel for a role on our team or the enemy's.
func (l Layout) UnitCountChannel(role core.Role, enemy bool) Channel {
	if int(role) >= core.NumRoles {
		panic(fmt.Sprintf("role %d has no count channel", role))
	}
	if enemy {
		return l.enemyCounts + Channel(role)
	}
	return l.ourCounts + Channel(role)
}

func (l Layout) AttackModeChannel() Channel       { return l.attackMode }
func (l Layout) AdvanceChannel() Channel          { return l.advance }
func (l Layout) NextTargetChannel() Channel       { return l.nextTarget }
func (l Layout) AlliesInPositionChannel() Channel { return l.alliesInPosition }

func (l Layout) SymmetryReadyChannel() Channel { return l.symmetryReady }
func (l Layout) SymmetryMaskChannel() Channel  { return l.symmetryMask }
func (l Layout) MidpointXChannel() Channel     { return l.midpointX }
func (l Layout) MidpointYChannel() Channel     { return l.midpointY }

func (l Layout) QueueLockChannel() Channel { return l.queueLock }
func (l Layout) QueueHeadChannel() Channel { return l.queueHead }
func (l Layout) QueueTailChannel() Channel { return l.queueTail }
func (l Layout) QueueSizeChannel() Channel { return l.queueSize }

// QueueSlotChannel returns the channel for queue body slot i, 0 <= i < capacity.
func (l Layout) QueueSlotChannel(i int) Channel {
	if i < 0 || i >= l.queueCapacity {
		panic(fmt.Sprintf("queue slot %d out of range [0,%d)", i, l.queueCapacity))
	}
	return l.queueBody + Channel(i)
}
