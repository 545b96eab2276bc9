package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/swarmnav/internal/channel"
	"github.com/mitchelldurbincs/swarmnav/internal/distfield"
	"github.com/mitchelldurbincs/swarmnav/internal/frontier"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/symmetry"
	"github.com/mitchelldurbincs/swarmnav/internal/testutil"
)

// gridView exposes a board position as Surroundings.
// Positions are relative to origin on the board.
type gridView struct {
	board   *core.Board
	origin  core.Tile
	pos     core.Tile
	hostile func(core.Tile) bool
}

func (g *gridView) Position() core.Tile { return g.pos }

func (g *gridView) CanMove(d core.Direction) bool {
	return g.board.Passable(g.pos.Move(d).Add(g.origin))
}

func (g *gridView) InHostileRange(t core.Tile) bool {
	return g.hostile != nil && g.hostile(t)
}

// drive steps the navigator and applies each move, returning the number of
// turns until the view reaches goal, or -1.
func drive(t *testing.T, nav *Navigator, view *gridView, target Target, goal core.Tile, maxTurns int) int {
	t.Helper()
	for turn := 1; turn <= maxTurns; turn++ {
		d := nav.Step(turn, view, target)
		if d != core.DirNone {
			require.True(t, view.CanMove(d), "navigator chose blocked direction %s at %s", d, view.pos)
			view.pos = view.pos.Move(d)
		}
		if view.pos == goal {
			return turn
		}
	}
	return -1
}

func newNavigator(seed int64, opts Options) *Navigator {
	return New(opts, testutil.NewTestRNG(seed), testutil.NopLogger())
}

func TestNavigator_DirectEuclidean(t *testing.T) {
	board := testutil.CreateOpenBoard(10, 10)
	view := &gridView{board: board, pos: core.NewTile(1, 1)}
	nav := newNavigator(1, DefaultOptions())

	turns := drive(t, nav, view, Point{Tile: core.NewTile(8, 5)}, core.NewTile(8, 5), 20)

	assert.Equal(t, 7, turns, "open ground takes the Chebyshev distance")
	assert.Equal(t, ModeDirect, nav.Mode())
}

func TestNavigator_EscapesCup(t *testing.T) {
	board, markers := testutil.BoardFromRows(
		"..........",
		".#####....",
		".....#....",
		"T....#A...",
		".....#....",
		".#####....",
		"..........",
	)
	goal := markers['T'][0]

	for seed := int64(0); seed < 6; seed++ {
		view := &gridView{board: board, pos: markers['A'][0]}
		nav := newNavigator(seed, DefaultOptions())

		turns := drive(t, nav, view, Point{Tile: goal}, goal, 60)
		assert.Positive(t, turns, "seed %d should reach the target", seed)
	}
}

func TestNavigator_FollowingExitsOnLoop(t *testing.T) {
	// The target is outside a sealed room, so following can only exit by
	// loop or cycle detection.
	board, markers := testutil.BoardFromRows(
		"######",
		"#....#",
		"#....#",
		"#.A..#",
		"######",
	)
	target := Point{Tile: core.NewTile(20, 2)}

	for seed := int64(0); seed < 4; seed++ {
		opts := DefaultOptions()
		opts.MaxFollowSteps = 1000
		nav := newNavigator(seed, opts)
		view := &gridView{board: board, pos: markers['A'][0]}

		run, longest, exits := 0, 0, 0
		for turn := 1; turn <= 80; turn++ {
			d := nav.Step(turn, view, target)
			require.NotEqual(t, core.DirNone, d)
			view.pos = view.pos.Move(d)

			if nav.Mode() == ModeFollowing {
				run++
				if run > longest {
					longest = run
				}
			} else if run > 0 {
				exits++
				run = 0
			}
		}

		interiorPerimeter := 10
		assert.LessOrEqual(t, longest, interiorPerimeter, "seed %d", seed)
		assert.Greater(t, exits, 1, "seed %d should leave following repeatedly", seed)
	}
}

func TestNavigator_FollowingTerminatesInMaze(t *testing.T) {
	board, markers := testutil.BoardFromRows(
		"#############",
		"#A..#.......#",
		"#.#.#.#####.#",
		"#.#...#...#.#",
		"#.#####.#.#.#",
		"#.......#..T#",
		"#############",
	)
	goal := markers['T'][0]
	perimeter := 2 * (board.W + board.H)

	for seed := int64(0); seed < 4; seed++ {
		opts := DefaultOptions()
		opts.MaxFollowSteps = 2 * perimeter
		nav := newNavigator(seed, opts)
		view := &gridView{board: board, pos: markers['A'][0]}

		run := 0
		for turn := 1; turn <= 300 && view.pos != goal; turn++ {
			d := nav.Step(turn, view, Point{Tile: goal})
			if d != core.DirNone {
				require.True(t, view.CanMove(d))
				view.pos = view.pos.Move(d)
			}
			if nav.Mode() == ModeFollowing {
				run++
				require.LessOrEqual(t, run, 2*perimeter, "seed %d: following must exit", seed)
			} else {
				run = 0
			}
		}
	}
}

func TestNavigator_BoxedInReportsNoMovement(t *testing.T) {
	board, markers := testutil.BoardFromRows(
		"###",
		"#A#",
		"###",
	)
	nav := newNavigator(1, DefaultOptions())
	view := &gridView{board: board, pos: markers['A'][0]}

	assert.Equal(t, core.DirNone, nav.Step(1, view, Point{Tile: core.NewTile(9, 9)}))
	assert.Equal(t, ModeFollowing, nav.Mode())
}

func TestNavigator_StaleFollowingResets(t *testing.T) {
	board, markers := testutil.BoardFromRows(
		"......",
		"..#...",
		"..#A..",
		"..#...",
		"......",
	)
	target := Point{Tile: core.NewTile(0, 2)}

	t.Run("consecutive turns keep following", func(t *testing.T) {
		nav := newNavigator(3, DefaultOptions())
		view := &gridView{board: board, pos: markers['A'][0]}
		require.NotEqual(t, core.DirNone, nav.Step(1, view, target))
		require.Equal(t, ModeFollowing, nav.Mode())
	})

	t.Run("skipped turn drops to direct", func(t *testing.T) {
		nav := newNavigator(3, DefaultOptions())
		view := &gridView{board: board, pos: markers['A'][0]}
		require.NotEqual(t, core.DirNone, nav.Step(1, view, target))
		require.Equal(t, ModeFollowing, nav.Mode())

		// Move the agent somewhere greedy descent works, then skip a turn.
		view.pos = core.NewTile(5, 0)
		d := nav.Step(3, view, target)
		assert.Equal(t, core.SouthWest, d)
		assert.Equal(t, ModeDirect, nav.Mode())
	})
}

func TestNavigator_SkirtsHostileRange(t *testing.T) {
	board := testutil.CreateOpenBoard(12, 5)
	tower := core.NewTile(5, 2)
	view := &gridView{
		board:   board,
		pos:     core.NewTile(2, 2),
		hostile: func(t core.Tile) bool { return t.DistanceSquaredTo(tower) <= 4 },
	}

	nav := newNavigator(1, DefaultOptions())
	d := nav.Step(1, view, Point{Tile: core.NewTile(10, 2)})
	assert.Equal(t, core.NorthEast, d)
	assert.Equal(t, ModeDirect, nav.Mode(), "a safe improving tile exists")

	opts := DefaultOptions()
	opts.AvoidHostiles = false
	reckless := newNavigator(1, opts)
	assert.Equal(t, core.East, reckless.Step(1, view, Point{Tile: core.NewTile(10, 2)}))
}

func TestNavigator_HostileRangeOnlyExcludesTilesInRange(t *testing.T) {
	board := testutil.CreateOpenBoard(12, 5)
	tower := core.NewTile(5, 2)
	inRange := func(t core.Tile) bool { return t.DistanceSquaredTo(tower) <= 4 }

	tests := []struct {
		name   string
		target core.Tile
		want   core.Direction
	}{
		{"away from the tower", core.NewTile(0, 2), core.West},
		{"north, tower beside", core.NewTile(2, 0), core.North},
		{"south, tower beside", core.NewTile(2, 4), core.South},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := &gridView{board: board, pos: core.NewTile(2, 2), hostile: inRange}
			nav := newNavigator(1, DefaultOptions())

			assert.Equal(t, tt.want, nav.Step(1, view, Point{Tile: tt.target}))
			assert.Equal(t, ModeDirect, nav.Mode())
		})
	}
}

func TestNavigator_NewTargetAbandonsFollowing(t *testing.T) {
	board, markers := testutil.BoardFromRows(
		"..........",
		".#####....",
		".....#....",
		"T....#A...",
		".....#....",
		".#####....",
		"..........",
	)

	for seed := int64(0); seed < 4; seed++ {
		nav := newNavigator(seed, DefaultOptions())
		view := &gridView{board: board, pos: markers['A'][0]}

		d := nav.Step(1, view, Point{Tile: markers['T'][0]})
		require.NotEqual(t, core.DirNone, d)
		require.Equal(t, ModeFollowing, nav.Mode(), "seed %d: the wall blocks the way west", seed)
		view.pos = view.pos.Move(d)

		east := view.pos.Add(core.NewTile(3, 0))
		assert.Equal(t, core.East, nav.Step(2, view, Point{Tile: east}), "seed %d", seed)
		assert.Equal(t, ModeDirect, nav.Mode(), "seed %d", seed)
	}
}

func TestNavigator_FieldDescentFollowsShortestPath(t *testing.T) {
	board, markers := testutil.BoardFromRows(
		"###########",
		"#H..#.....#",
		"#.#.#.###.#",
		"#.#...#...#",
		"#.#####.#.#",
		"#.......#A#",
		"###########",
	)
	home := markers['H'][0]
	start := markers['A'][0]

	// Arrange: converge the field from home.
	store, layout := testutil.NewTestStore(t, 16, 16, 256)
	budget := core.NewBudget(1 << 30)
	engine := distfield.NewEngine(
		distfield.NewField(store, layout),
		frontier.New(store, layout, testutil.NopLogger()),
		distfield.SensorFunc(testutil.RelativeSensor(board, home)),
		budget, 1, testutil.NopLogger(),
	)
	require.True(t, engine.Seed(core.Tile{}))
	for i := 0; i < 10000 && engine.Step() != distfield.StepIdle; i++ {
	}

	// Act: navigate in home-relative coordinates.
	view := &gridView{board: board, origin: home, pos: start.Sub(home)}
	nav := newNavigator(1, DefaultOptions())
	target := Home{Field: distfield.NewField(store, layout)}
	turns := drive(t, nav, view, target, core.Tile{}, 100)

	// Assert
	want := testutil.ReferenceHops(board, home)[start]
	assert.Equal(t, want, turns)
	assert.Equal(t, ModeDirect, nav.Mode())
}

func TestEnemyTarget(t *testing.T) {
	store, layout := testutil.NewTestStore(t, 16, 16, 8)
	field := distfield.NewField(store, layout)
	desc := symmetry.Descriptor{Transform: symmetry.Rotation, Midpoint: symmetry.Point{X: 4, Y: 3}}
	field.Set(core.NewTile(7, 5), 3)

	target := Enemy{Field: field, Desc: desc}
	assert.Equal(t, core.NewTile(8, 6), target.Location())
	assert.Equal(t, 3, target.Distance(core.NewTile(1, 1)))
	assert.Equal(t, distfield.Unknown, Point{}.Distance(core.NewTile(1, 1)))

	// metered views work as well
	view := channel.Meter(store, core.NewBudget(100))
	assert.Equal(t, 3, Enemy{Field: distfield.NewField(view, layout), Desc: desc}.Distance(core.NewTile(1, 1)))
}

func TestHistory(t *testing.T) {
	h := newHistory(3)
	for i := 0; i < 5; i++ {
		h.push(core.NewTile(i, 0))
	}
	assert.Equal(t, 3, h.len())
	assert.False(t, h.contains(core.NewTile(1, 0)), "evicted")
	assert.True(t, h.contains(core.NewTile(4, 0)))

	h.reset()
	assert.False(t, h.contains(core.NewTile(4, 0)))
}
