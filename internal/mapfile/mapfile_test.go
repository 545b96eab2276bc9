package mapfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/game/mapgen"
	"github.com/mitchelldurbincs/swarmnav/internal/symmetry"
	"github.com/mitchelldurbincs/swarmnav/internal/testutil"
)

const corridor = `
name: corridor
symmetry: rotation
rows:
  - "A..#...."
  - ".a....b."
  - "....#..B"
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(corridor))
	require.NoError(t, err)

	assert.Equal(t, symmetry.Rotation, m.Symmetry)
	assert.Equal(t, 8, m.Board.W)
	assert.Equal(t, 3, m.Board.H)
	assert.Equal(t, [2]core.Tile{core.NewTile(0, 0), core.NewTile(7, 2)}, m.HQs)
	assert.Equal(t, []core.Tile{core.NewTile(1, 1)}, m.Towers[0])
	assert.Equal(t, []core.Tile{core.NewTile(6, 1)}, m.Towers[1])
	assert.False(t, m.Board.Passable(core.NewTile(3, 0)))
	assert.False(t, m.Board.Passable(core.NewTile(4, 2)))
	assert.True(t, m.Board.Passable(core.NewTile(0, 0)))
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "rows: [unterminated"},
		{"missing rows", "symmetry: rotation\n"},
		{"unknown key", "symmetry: rotation\nrows: [\"A.\", \".B\"]\nowner: me\n"},
		{"unknown symmetry", "symmetry: glide\nrows: [\"A.\", \".B\"]\n"},
		{"bad rune", "symmetry: rotation\nrows: [\"AX\", \"XB\"]\n"},
		{"ragged rows", "symmetry: rotation\nrows: [\"A..\", \".B\"]\n"},
		{"two bases", "symmetry: rotation\nrows: [\"AA..\", \"..BB\"]\n"},
		{"no enemy base", "symmetry: rotation\nrows: [\"A.\", \"..\"]\n"},
		{"broken symmetry", "symmetry: horizontal_reflection\nrows: [\"A..#....\", \"........\", \"....#..B\"]\n"},
		{"diagonal on a rectangle", "symmetry: diagonal_reflection\nrows: [\"A..\", \"..B\"]\n"},
		{"walled off", "symmetry: rotation\nrows: [\"A#..\", \"####\", \"..#B\"]\n"},
		{"unpaired tower", "symmetry: rotation\nrows: [\"Aa..\", \"...B\"]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInvalidMap)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corridor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(corridor), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, core.NewTile(7, 2), m.HQs[1])

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSave_GeneratedMapLoadsBack(t *testing.T) {
	cfg := mapgen.DefaultMapConfig(12, 12, symmetry.DiagonalReflection)
	gen, err := mapgen.NewGenerator(cfg, testutil.NewTestRNG(3)).GenerateMap()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "gen.yaml")
	require.NoError(t, Save(path, "generated", gen))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, gen.Board.T, m.Board.T)
	assert.Equal(t, gen.HQs, m.HQs)
	assert.ElementsMatch(t, gen.Towers[0], m.Towers[0])
	assert.ElementsMatch(t, gen.Towers[1], m.Towers[1])

	f := FromMap("generated", gen)
	assert.Equal(t, "diagonal_reflection", f.Symmetry)
	assert.Len(t, f.Rows, 12)
}
