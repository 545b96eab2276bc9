package monitoring

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/swarmnav/internal/distfield"
	"github.com/mitchelldurbincs/swarmnav/internal/frontier"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
	"github.com/mitchelldurbincs/swarmnav/internal/testutil"
)

func turnEnded(turn int, teams ...events.TeamStats) *events.TurnEndedEvent {
	return events.NewTurnEndedEvent("m1", turn, teams, 0)
}

func TestFieldCoverage(t *testing.T) {
	store, layout := testutil.NewTestStore(t, 4, 4, 16)

	resolved, size := FieldCoverage(store, layout)
	assert.Equal(t, 0, resolved)
	assert.Equal(t, 0, size)

	field := distfield.NewField(store, layout)
	require.True(t, field.Set(core.NewTile(0, 0), 1))
	require.True(t, field.Set(core.NewTile(-4, 4), 9))
	require.True(t, field.Set(core.NewTile(4, -4), 9))

	q := frontier.New(store, layout, testutil.NopLogger())
	require.True(t, q.Enqueue(core.NewTile(1, 1)))
	require.True(t, q.Enqueue(core.NewTile(2, 2)))

	resolved, size = FieldCoverage(store, layout)
	assert.Equal(t, 3, resolved, "window corners are counted")
	assert.Equal(t, 2, size)
}

func TestConvergenceMonitor_TracksProgress(t *testing.T) {
	cm := NewConvergenceMonitor(3, testutil.NopLogger())
	assert.Equal(t, "convergence_monitor", cm.ID())
	assert.True(t, cm.InterestedIn(events.TypeTurnEnded))
	assert.True(t, cm.InterestedIn(events.TypeLockCleared))
	assert.False(t, cm.InterestedIn(events.TypeTurnStarted))

	cm.HandleEvent(turnEnded(1,
		events.TeamStats{Team: 1, ResolvedTiles: 3, FrontierSize: 2},
		events.TeamStats{Team: 0, ResolvedTiles: 5, FrontierSize: 7},
	))
	cm.HandleEvent(turnEnded(2,
		events.TeamStats{Team: 0, ResolvedTiles: 9, FrontierSize: 4},
		events.TeamStats{Team: 1, ResolvedTiles: 3, FrontierSize: 2},
	))

	metrics := cm.GetMetrics()
	require.Len(t, metrics, 2)
	assert.Equal(t, 0, metrics[0].Team, "ordered by team")
	assert.Equal(t, 9, metrics[0].Resolved)
	assert.Equal(t, 4, metrics[0].Frontier)
	assert.Equal(t, 7, metrics[0].PeakFrontier)
	assert.Equal(t, 2, metrics[0].LastProgress)
	assert.Equal(t, 1, metrics[1].LastProgress)
	assert.Equal(t, 2, cm.Turn())
}

func TestConvergenceMonitor_WarnsOncePerStall(t *testing.T) {
	var buf bytes.Buffer
	cm := NewConvergenceMonitor(3, zerolog.New(&buf))

	cm.HandleEvent(turnEnded(1, events.TeamStats{Team: 0, ResolvedTiles: 10, FrontierSize: 5}))
	for turn := 2; turn <= 6; turn++ {
		cm.HandleEvent(turnEnded(turn, events.TeamStats{Team: 0, ResolvedTiles: 10, FrontierSize: 5}))
	}

	m := cm.GetMetrics()[0]
	assert.True(t, m.Stalled)
	assert.Equal(t, 1, m.StallWarnings)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Distance field stopped converging")))

	// Progress clears the stall and a later stall warns again.
	cm.HandleEvent(turnEnded(7, events.TeamStats{Team: 0, ResolvedTiles: 11, FrontierSize: 5}))
	assert.False(t, cm.GetMetrics()[0].Stalled)
	for turn := 8; turn <= 10; turn++ {
		cm.HandleEvent(turnEnded(turn, events.TeamStats{Team: 0, ResolvedTiles: 11, FrontierSize: 5}))
	}
	assert.Equal(t, 2, cm.GetMetrics()[0].StallWarnings)
}

func TestConvergenceMonitor_EmptyFrontierIsNotAStall(t *testing.T) {
	cm := NewConvergenceMonitor(2, testutil.NopLogger())
	for turn := 1; turn <= 10; turn++ {
		cm.HandleEvent(turnEnded(turn, events.TeamStats{Team: 0, ResolvedTiles: 40}))
	}
	m := cm.GetMetrics()[0]
	assert.False(t, m.Stalled)
	assert.Zero(t, m.StallWarnings)
}

func TestConvergenceMonitor_CountsLockClears(t *testing.T) {
	bus := events.NewEventBus()
	cm := NewConvergenceMonitor(0, testutil.NopLogger())
	bus.Subscribe(cm)

	bus.Publish(events.NewLockClearedEvent("m1", 1, 4, 17))
	bus.Publish(events.NewLockClearedEvent("m1", 1, 9, 22))
	bus.Publish(events.NewTurnStartedEvent("m1", 10))

	metrics := cm.GetMetrics()
	require.Len(t, metrics, 1)
	assert.Equal(t, 1, metrics[0].Team)
	assert.Equal(t, 2, metrics[0].LockClears)
}
