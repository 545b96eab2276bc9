package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeamColors(t *testing.T) {
	assert.Len(t, TeamColors, 2)
	assert.NotEqual(t, TeamColors[0], TeamColors[1])
	for team, c := range TeamColors {
		assert.Equal(t, uint8(255), c.A, "team %d colour should be opaque", team)
	}
}

func TestGradient(t *testing.T) {
	assert.Equal(t, NearColor, Gradient(0))
	assert.Equal(t, FarColor, Gradient(1))
	assert.Equal(t, NearColor, Gradient(-3), "clamped below")
	assert.Equal(t, FarColor, Gradient(7), "clamped above")

	mid := Gradient(0.5)
	assert.Less(t, mid.R, NearColor.R)
	assert.Greater(t, mid.R, FarColor.R)
}
