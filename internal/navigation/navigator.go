// Package navigation steers a single agent toward a target with a two-tier
// scheme: greedy descent while some neighbour is strictly closer, and wall
// following with cycle detection when greedy descent is stuck.
package navigation

import (
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/swarmnav/internal/distfield"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// DefaultMaxFollowSteps caps one wall-following episode.
const DefaultMaxFollowSteps = 400

// Mode is the navigator state.
type Mode uint8

const (
	ModeDirect Mode = iota
	ModeFollowing
)

func (m Mode) String() string {
	if m == ModeFollowing {
		return "following"
	}
	return "direct"
}

// Surroundings is the agent's view of its immediate neighbourhood, in
// home-relative coordinates.
type Surroundings interface {
	Position() core.Tile
	CanMove(d core.Direction) bool
	InHostileRange(t core.Tile) bool
}

// Options tunes a Navigator.
type Options struct {
	HistorySize    int
	AvoidHostiles  bool
	MaxFollowSteps int
}

// DefaultOptions returns the standard navigator settings.
func DefaultOptions() Options {
	return Options{
		HistorySize:    DefaultHistorySize,
		AvoidHostiles:  true,
		MaxFollowSteps: DefaultMaxFollowSteps,
	}
}

// Navigator is the per-agent navigation state machine. It is not safe for
// concurrent use.
type Navigator struct {
	opts   Options
	rng    *rand.Rand
	logger zerolog.Logger

	mode        Mode
	baseline    int
	entry       core.Tile
	goal        core.Tile
	wall        core.Tile
	left        bool
	followSteps int
	lastTurn    int
	history     *history
}

// New creates a navigator in Direct mode.
func New(opts Options, rng *rand.Rand, logger zerolog.Logger) *Navigator {
	if opts.MaxFollowSteps <= 0 {
		opts.MaxFollowSteps = DefaultMaxFollowSteps
	}
	return &Navigator{
		opts:     opts,
		rng:      rng,
		logger:   logger.With().Str("component", "navigator").Logger(),
		history:  newHistory(opts.HistorySize),
		lastTurn: -1,
	}
}

// Mode returns the current state.
func (n *Navigator) Mode() Mode { return n.mode }

// Reset drops back to Direct mode.
func (n *Navigator) Reset() {
	n.mode = ModeDirect
	n.followSteps = 0
	n.history.reset()
}

// Step picks the direction to move this turn, or core.DirNone when nothing
// is available. The caller is expected to perform the move. A navigator
// that was not stepped on the previous turn, or whose target moved, abandons
// any wall following.
func (n *Navigator) Step(turn int, s Surroundings, target Target) core.Direction {
	if n.mode == ModeFollowing && (n.lastTurn != turn-1 || n.goal != target.Location()) {
		n.Reset()
	}
	n.lastTurn = turn

	safe, skirt := n.traversable(s)
	pos := s.Position()

	if n.mode == ModeDirect {
		if d := n.descend(pos, safe, target); d != core.DirNone {
			return d
		}
		n.enterFollowing(pos, target)
	}

	d := n.follow(pos, skirt)
	if d == core.DirNone {
		return d
	}

	next := pos.Move(d)
	n.history.push(pos)
	n.followSteps++
	switch {
	case next.DistanceSquaredTo(target.Location()) < n.baseline:
		n.exitFollowing("improved")
	case next == n.entry:
		n.exitFollowing("loop")
	case n.history.contains(next):
		n.exitFollowing("cycle")
	case n.followSteps >= n.opts.MaxFollowSteps:
		n.exitFollowing("step_limit")
	}
	return d
}

// descend returns the direction that strictly lowers the distance to the
// target, preferring the flood-fill field when it covers pos.
func (n *Navigator) descend(pos core.Tile, open [8]bool, target Target) core.Direction {
	if cur := target.Distance(pos); cur != distfield.Unknown {
		best, bestDist := core.DirNone, cur
		for i, d := range core.AllDirections {
			if !open[i] {
				continue
			}
			nd := target.Distance(pos.Move(d))
			if nd != distfield.Unknown && nd < bestDist {
				best, bestDist = d, nd
			}
		}
		if best != core.DirNone {
			return best
		}
	}

	goal := target.Location()
	best, bestDist := core.DirNone, pos.DistanceSquaredTo(goal)
	for i, d := range core.AllDirections {
		if !open[i] {
			continue
		}
		if nd := pos.Move(d).DistanceSquaredTo(goal); nd < bestDist {
			best, bestDist = d, nd
		}
	}
	return best
}

func (n *Navigator) enterFollowing(pos core.Tile, target Target) {
	goal := target.Location()
	n.mode = ModeFollowing
	n.baseline = pos.DistanceSquaredTo(goal)
	n.entry = pos
	n.goal = goal
	n.wall = pos.Move(pos.DirectionTo(goal))
	n.left = n.rng.Intn(2) == 0
	n.followSteps = 0
	n.history.reset()
	n.logger.Debug().
		Str("position", pos.String()).
		Bool("left", n.left).
		Msg("Entering wall following")
}

// follow rotates the facing probe away from the wall until it finds an open
// direction, then remembers the tile it turned away from as the new wall.
func (n *Navigator) follow(pos core.Tile, open [8]bool) core.Direction {
	facing := pos.DirectionTo(n.wall)
	if facing == core.DirNone {
		facing = core.North
	}
	for i := 0; i < 8; i++ {
		if n.left {
			facing = facing.RotateLeft()
		} else {
			facing = facing.RotateRight()
		}
		if !open[facing] {
			continue
		}
		if n.left {
			n.wall = pos.Move(facing.RotateRight())
		} else {
			n.wall = pos.Move(facing.RotateLeft())
		}
		return facing
	}
	return core.DirNone
}

func (n *Navigator) exitFollowing(reason string) {
	n.logger.Debug().Str("reason", reason).Int("steps", n.followSteps).Msg("Leaving wall following")
	n.Reset()
}

// traversable returns the open directions minus those in hostile range, and
// the subset wall following may use. Next to a hostile range, following only
// keeps the directions that skirt it (beside an in-range direction but not in
// range themselves), unless none do.
func (n *Navigator) traversable(s Surroundings) (safe, skirt [8]bool) {
	for i, d := range core.AllDirections {
		safe[i] = s.CanMove(d)
	}
	if !n.opts.AvoidHostiles {
		return safe, safe
	}

	pos := s.Position()
	var hostile [8]bool
	nearHostile := false
	for i, d := range core.AllDirections {
		if safe[i] && s.InHostileRange(pos.Move(d)) {
			hostile[i] = true
			safe[i] = false
			nearHostile = true
		}
	}
	if !nearHostile {
		return safe, safe
	}

	skirting := false
	for i, d := range core.AllDirections {
		if safe[i] && (hostile[d.RotateLeft()] || hostile[d.RotateRight()]) {
			skirt[i] = true
			skirting = true
		}
	}
	if !skirting {
		return safe, safe
	}
	return safe, skirt
}
