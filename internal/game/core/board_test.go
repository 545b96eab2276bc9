package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_Terrain(t *testing.T) {
	b := NewBoard(4, 3)
	require.Len(t, b.T, 12)

	// Arrange
	wall := NewTile(2, 1)
	b.SetTerrain(wall, TerrainImpassable)

	// Assert
	assert.Equal(t, TerrainImpassable, b.Terrain(wall))
	assert.Equal(t, TerrainNormal, b.Terrain(NewTile(0, 0)))
	assert.Equal(t, TerrainImpassable, b.Terrain(NewTile(-1, 0)), "off board reads impassable")
	assert.Equal(t, TerrainImpassable, b.Terrain(NewTile(4, 0)))
	assert.False(t, b.Passable(wall))
	assert.Equal(t, 11, b.CountPassable())

	// Off-board writes are dropped
	b.SetTerrain(NewTile(10, 10), TerrainImpassable)
	assert.Equal(t, 11, b.CountPassable())
}

func TestBoard_Clone(t *testing.T) {
	b := NewBoard(3, 3)
	c := b.Clone()
	c.SetTerrain(NewTile(1, 1), TerrainImpassable)

	assert.Equal(t, TerrainNormal, b.Terrain(NewTile(1, 1)))
	assert.Equal(t, TerrainImpassable, c.Terrain(NewTile(1, 1)))
}

func TestBudget(t *testing.T) {
	b := NewBudget(100)
	assert.True(t, b.Affords(100))

	b.Charge(60)
	assert.Equal(t, 40, b.Remaining())
	assert.False(t, b.Affords(41))
	assert.False(t, b.Exhausted())

	b.Charge(60)
	assert.Equal(t, 0, b.Remaining())
	assert.True(t, b.Exhausted())
	assert.Equal(t, 120, b.Used())

	b.Reset(BudgetUnit)
	assert.Equal(t, BudgetUnit, b.Remaining())
	assert.Equal(t, BudgetUnit, b.Limit())
}
