package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/swarmnav/internal/distfield"
	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
	"github.com/mitchelldurbincs/swarmnav/internal/mapfile"
	"github.com/mitchelldurbincs/swarmnav/internal/runindex"
	"github.com/mitchelldurbincs/swarmnav/internal/snapshot"
	"github.com/mitchelldurbincs/swarmnav/internal/testutil"
)

func TestListIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.sqlite")
	idx, err := runindex.Open(path, testutil.NopLogger())
	require.NoError(t, err)
	idx.HandleEvent(events.NewMatchStartedEvent("m1", 5, 20, 20, "rotation"))
	idx.HandleEvent(events.NewTurnEndedEvent("m1", 1, []events.TeamStats{{Team: 0, ResolvedTiles: 7}}, 0))
	idx.HandleEvent(events.NewLockClearedEvent("m1", 1, 1, 12))
	idx.HandleEvent(events.NewMatchEndedEvent("m1", 1, "destroyed enemy base", 1, time.Second))
	require.NoError(t, idx.Close())

	var out bytes.Buffer
	require.NoError(t, listIndex(context.Background(), &out, path, ""))
	assert.Contains(t, out.String(), "destroyed enemy base")
	assert.Contains(t, out.String(), "20x20")

	out.Reset()
	require.NoError(t, listIndex(context.Background(), &out, path, "m1"))
	assert.Contains(t, out.String(), "RESOLVED")
	assert.Contains(t, out.String(), "team 1 stale locks cleared: 1")
}

func TestInspectSnapshot(t *testing.T) {
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "map.yaml")
	require.NoError(t, os.WriteFile(mapPath, []byte("symmetry: rotation\nrows:\n  - \"A...\"\n  - \"...B\"\n"), 0o644))
	m, err := mapfile.Load(mapPath)
	require.NoError(t, err)

	store, layout := testutil.NewTestStore(t, 8, 8, 16)
	field := distfield.NewField(store, layout)
	for tile, d := range testutil.ReferenceHops(m.Board, m.HQs[0]) {
		require.True(t, field.Set(tile.Sub(m.HQs[0]), d+1))
	}
	snapPath := snapshot.FileName(dir, "m9", 3, 0)
	require.NoError(t, snapshot.WriteSnapshot(snapPath, snapshot.Capture("m9", 3, 0, [2]int{0, 0}, store, layout)))

	var out bytes.Buffer
	require.NoError(t, inspectSnapshot(&out, snapPath, "", "", 4))
	assert.Contains(t, out.String(), "match m9 team 0 turn 3")
	assert.Contains(t, out.String(), "resolved tiles 8, frontier 0")

	pngPath := filepath.Join(dir, "heat.png")
	out.Reset()
	require.NoError(t, inspectSnapshot(&out, snapPath, mapPath, pngPath, 4))
	_, err = os.Stat(pngPath)
	assert.NoError(t, err)

	bad := snapshot.Capture("m9", 3, 1, [2]int{40, 40}, store, layout)
	badPath := snapshot.FileName(dir, "m9", 3, 1)
	require.NoError(t, snapshot.WriteSnapshot(badPath, bad))
	assert.Error(t, inspectSnapshot(&out, badPath, mapPath, pngPath, 4))
}
