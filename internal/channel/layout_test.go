package channel

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

func TestNewLayout_Invalid(t *testing.T) {
	tests := []struct {
		name          string
		w, h, capcity int
	}{
		{"zero width", 0, 10, 10},
		{"negative height", 10, -1, 10},
		{"zero capacity", 10, 10, 0},
		{"too wide to pack", 40000, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLayout(tt.w, tt.h, tt.capcity)
			assert.ErrorIs(t, err, core.ErrInvalidLayout)
		})
	}
}

func TestLayout_RegionsDoNotOverlap(t *testing.T) {
	for _, l := range []Layout{DefaultLayout(), mustLayout(t, 3, 7, 5), mustLayout(t, 1, 1, 1)} {
		regions := l.Regions()
		sort.Slice(regions, func(i, j int) bool { return regions[i].Start < regions[j].Start })

		require.Equal(t, Channel(0), regions[0].Start)
		for i := 1; i < len(regions); i++ {
			assert.Equal(t, regions[i-1].End(), regions[i].Start,
				"%s must end where %s starts", regions[i-1].Name, regions[i].Name)
		}
		assert.Equal(t, l.Size(), int(regions[len(regions)-1].End()))
	}
}

func TestLayout_DistanceChannelsAreUniqueAndInRegion(t *testing.T) {
	l := mustLayout(t, 4, 3, 10)
	var distance Region
	for _, r := range l.Regions() {
		if r.Name == "distance" {
			distance = r
		}
	}

	seen := make(map[Channel]core.Tile)
	for x := -4; x <= 4; x++ {
		for y := -3; y <= 3; y++ {
			tile := core.NewTile(x, y)
			ch, ok := l.DistanceChannel(tile)
			require.True(t, ok, "tile %s should be in window", tile)
			assert.GreaterOrEqual(t, ch, distance.Start)
			assert.Less(t, ch, distance.End())
			if prev, dup := seen[ch]; dup {
				t.Fatalf("tiles %s and %s share channel %d", prev, tile, ch)
			}
			seen[ch] = tile
		}
	}
	assert.Len(t, seen, distance.Len)
}

func TestLayout_DistanceChannelOutsideWindow(t *testing.T) {
	l := mustLayout(t, 4, 3, 10)
	for _, tile := range []core.Tile{{X: 5, Y: 0}, {X: -5, Y: 0}, {X: 0, Y: 4}, {X: 0, Y: -4}} {
		_, ok := l.DistanceChannel(tile)
		assert.False(t, ok, "tile %s should be outside window", tile)
	}
}

func TestLayout_Accessors(t *testing.T) {
	l := DefaultLayout()
	assert.Equal(t, DefaultQueueCapacity, l.QueueCapacity())
	assert.NotEqual(t, l.UnitCountChannel(core.RoleSoldier, false), l.UnitCountChannel(core.RoleSoldier, true))
	assert.Equal(t, l.QueueSlotChannel(0)+1, l.QueueSlotChannel(1))
	assert.Panics(t, func() { l.QueueSlotChannel(DefaultQueueCapacity) })
	assert.Panics(t, func() { l.UnitCountChannel(core.Role(core.NumRoles), false) })

	// The default layout must fit a store of the documented size.
	s := NewStore(l.Size())
	last, ok := l.DistanceChannel(core.NewTile(DefaultMaxMapWidth, DefaultMaxMapHeight))
	require.True(t, ok)
	assert.Equal(t, l.Size()-1, int(last))
	s.Set(last, 1)
}

func TestSignals(t *testing.T) {
	l := mustLayout(t, 5, 5, 4)
	sig := NewSignals(NewStore(l.Size()), l)

	sig.SetUnitCount(core.RoleSoldier, false, 6)
	sig.SetUnitCount(core.RoleSoldier, true, 2)
	assert.Equal(t, 6, sig.UnitCount(core.RoleSoldier, false))
	assert.Equal(t, 2, sig.UnitCount(core.RoleSoldier, true))

	assert.False(t, sig.AttackMode())
	sig.SetAttackMode(true)
	assert.True(t, sig.AttackMode())
	sig.SetAdvance(true)
	assert.True(t, sig.Advance())

	_, ok := sig.NextTarget()
	assert.False(t, ok)
	sig.SetNextTarget(core.NewTile(-3, 2))
	target, ok := sig.NextTarget()
	assert.True(t, ok)
	assert.Equal(t, core.NewTile(-3, 2), target)
	sig.ClearNextTarget()
	_, ok = sig.NextTarget()
	assert.False(t, ok)

	sig.ReportInPosition()
	sig.ReportInPosition()
	assert.Equal(t, 2, sig.AlliesInPosition())
	sig.ResetAlliesInPosition()
	assert.Equal(t, 0, sig.AlliesInPosition())
}

func mustLayout(t *testing.T, w, h, capacity int) Layout {
	t.Helper()
	l, err := NewLayout(w, h, capacity)
	require.NoError(t, err)
	return l
}
