package runindex

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
	"github.com/mitchelldurbincs/swarmnav/internal/testutil"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(filepath.Join(t.TempDir(), "db", "runs.sqlite"), testutil.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("", testutil.NopLogger())
	assert.Error(t, err)
}

func TestIndex_RecordsMatchThroughBus(t *testing.T) {
	idx := openTestIndex(t)
	bus := events.NewEventBus()
	bus.Subscribe(idx)

	assert.True(t, idx.InterestedIn(events.TypeTurnEnded))
	assert.False(t, idx.InterestedIn(events.TypeAgentSpawned))

	bus.Publish(events.NewMatchStartedEvent("m1", 7, 20, 16, "rotation"))
	bus.Publish(events.NewTurnEndedEvent("m1", 1, []events.TeamStats{
		{Team: 0, Agents: 3, FrontierSize: 4, ResolvedTiles: 9, KnownTiles: 30, MaintenanceSteps: 12, Relaxed: 8},
		{Team: 1, Agents: 3, FrontierSize: 2, ResolvedTiles: 5, KnownTiles: 25, LockCleared: true},
	}, time.Millisecond))
	bus.Publish(events.NewLockClearedEvent("m1", 1, 2, 17))
	bus.Publish(events.NewTurnEndedEvent("m1", 2, []events.TeamStats{
		{Team: 0, Agents: 4, AttackMode: true},
	}, time.Millisecond))
	bus.Publish(events.NewMatchEndedEvent("m1", 0, "reached enemy base", 2, 1500*time.Millisecond))
	idx.RecordSnapshot(SnapshotRow{MatchID: "m1", Turn: 2, Team: 0, Path: "/tmp/a.snap.zst"})

	ctx := context.Background()
	require.NoError(t, idx.Flush(ctx))

	matches, err := idx.Matches(ctx)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, "m1", m.MatchID)
	assert.Equal(t, int64(7), m.Seed)
	assert.Equal(t, 20, m.Width)
	assert.Equal(t, 16, m.Height)
	assert.Equal(t, "rotation", m.Symmetry)
	assert.True(t, m.Ended)
	assert.Equal(t, 0, m.Winner)
	assert.Equal(t, "reached enemy base", m.Reason)
	assert.Equal(t, 2, m.Turns)
	assert.Equal(t, 1500*time.Millisecond, m.Duration)
	assert.False(t, m.StartedAt.IsZero())

	samples, err := idx.TurnSamples(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, TurnSample{Turn: 1, Team: 0, Agents: 3, Frontier: 4, Resolved: 9, Known: 30, Steps: 12, Relaxed: 8}, samples[0])
	assert.True(t, samples[1].LockCleared)
	assert.True(t, samples[2].AttackMode)

	clears, err := idx.LockClears(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 1}, clears)

	snaps, err := idx.Snapshots(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, []SnapshotRow{{MatchID: "m1", Turn: 2, Team: 0, Path: "/tmp/a.snap.zst"}}, snaps)
	assert.Zero(t, idx.Dropped())
}

func TestIndex_RunningMatchHasNoEnd(t *testing.T) {
	idx := openTestIndex(t)
	idx.HandleEvent(events.NewMatchStartedEvent("m2", 1, 8, 8, "vertical"))
	require.NoError(t, idx.Flush(context.Background()))

	matches, err := idx.Matches(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.False(t, matches[0].Ended)
}

func TestIndex_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.sqlite")
	idx, err := Open(path, testutil.NopLogger())
	require.NoError(t, err)
	idx.HandleEvent(events.NewMatchStartedEvent("m3", 1, 8, 8, "rotation"))
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close(), "close is idempotent")
	assert.ErrorIs(t, idx.Flush(context.Background()), ErrClosed)

	idx, err = Open(path, testutil.NopLogger())
	require.NoError(t, err)
	defer idx.Close()
	matches, err := idx.Matches(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "m3", matches[0].MatchID)
}

func TestIndex_PublishRacingCloseIsDropped(t *testing.T) {
	idx, err := Open(filepath.Join(t.TempDir(), "runs.sqlite"), testutil.NopLogger())
	require.NoError(t, err)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			<-start
			for turn := 1; turn <= 200; turn++ {
				idx.HandleEvent(events.NewLockClearedEvent("race", w%2, turn, 3))
				idx.RecordSnapshot(SnapshotRow{MatchID: "race", Team: w % 2, Turn: turn})
				_ = idx.Flush(context.Background())
			}
		}(w)
	}

	close(start)
	assert.NotPanics(t, func() { require.NoError(t, idx.Close()) })
	wg.Wait()
	assert.ErrorIs(t, idx.Flush(context.Background()), ErrClosed)
}
