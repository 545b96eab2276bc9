package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbs(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"positive number", 5, 5},
		{"negative number", -5, 5},
		{"zero", 0, 0},
		{"min int special case", math.MinInt32 + 1, math.MaxInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Abs(tt.input))
		})
	}
}

func TestMinMaxClamp(t *testing.T) {
	assert.Equal(t, -5, Min(-5, -3))
	assert.Equal(t, 7, Max(7, 2))
	assert.Equal(t, 0, Clamp(-4, 0, 10))
	assert.Equal(t, 10, Clamp(40, 0, 10))
	assert.Equal(t, 6, Clamp(6, 0, 10))
}

func TestDistances(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 int
		chebyshev      int
		squared        int
	}{
		{"same point", 1, 1, 1, 1, 0, 0},
		{"horizontal", 0, 0, 4, 0, 4, 16},
		{"diagonal", -2, -2, 1, 1, 3, 18},
		{"mixed", 0, 0, 3, -1, 3, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.chebyshev, Chebyshev(tt.x1, tt.y1, tt.x2, tt.y2))
			assert.Equal(t, tt.squared, DistanceSquared(tt.x1, tt.y1, tt.x2, tt.y2))
		})
	}
}

func TestInWindow(t *testing.T) {
	assert.True(t, InWindow(0, 0, 2, 2))
	assert.True(t, InWindow(-2, 2, 2, 2))
	assert.False(t, InWindow(3, 0, 2, 2))
	assert.False(t, InWindow(0, -3, 2, 2))
}
