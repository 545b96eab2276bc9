// Package mapfile loads hand-drawn maps from YAML and writes generated maps
// back out in the same format.
//
// A map file looks like:
//
//	name: corridor
//	symmetry: rotation
//	rows:
//	  - "A..#...."
//	  - "...#...."
//	  - "....#..B"
//
// 'A' and 'B' are the two bases, 'a' and 'b' their towers, '#' a wall and
// '.' open ground.
package mapfile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/game/mapgen"
	"github.com/mitchelldurbincs/swarmnav/internal/symmetry"
)

const (
	wallRune  = '#'
	emptyRune = '.'
)

var (
	baseRunes  = [2]rune{'A', 'B'}
	towerRunes = [2]rune{'a', 'b'}
)

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["symmetry", "rows"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string"},
    "symmetry": {
      "enum": ["rotation", "horizontal_reflection", "vertical_reflection",
               "diagonal_reflection", "anti_diagonal_reflection"]
    },
    "rows": {
      "type": "array",
      "minItems": 2,
      "items": {"type": "string", "minLength": 2, "pattern": "^[.#ABab]+$"}
    }
  }
}`

var schema = jsonschema.MustCompileString("mapfile.schema.json", schemaJSON)

// File is the on-disk form of a map.
type File struct {
	Name     string   `yaml:"name,omitempty"`
	Symmetry string   `yaml:"symmetry"`
	Rows     []string `yaml:"rows"`
}

// Load reads, validates and converts the map file at path.
func Load(path string) (*mapgen.Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse validates raw YAML against the map schema and builds the map.
func Parse(raw []byte) (*mapgen.Map, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidMap, err)
	}
	// Normalise through JSON so the validator sees plain JSON types.
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidMap, err)
	}
	var normalised any
	if err := json.Unmarshal(js, &normalised); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidMap, err)
	}
	if err := schema.Validate(normalised); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidMap, err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidMap, err)
	}
	return f.Build()
}

// Build converts the rows into a map and checks that it is playable: one
// base per team, the declared symmetry actually holds, and the bases are
// connected.
func (f File) Build() (*mapgen.Map, error) {
	tr, ok := symmetry.ParseTransform(f.Symmetry)
	if !ok {
		return nil, fmt.Errorf("%w: unknown symmetry %q", core.ErrInvalidMap, f.Symmetry)
	}
	if len(f.Rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", core.ErrInvalidMap)
	}

	w := len(f.Rows[0])
	board := core.NewBoard(w, len(f.Rows))
	m := &mapgen.Map{Board: board, Symmetry: tr}
	var bases [2][]core.Tile

	for y, row := range f.Rows {
		if len(row) != w {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", core.ErrInvalidMap, y, len(row), w)
		}
		for x, r := range row {
			t := core.NewTile(x, y)
			switch r {
			case wallRune:
				board.SetTerrain(t, core.TerrainImpassable)
			case emptyRune:
			case baseRunes[0], baseRunes[1]:
				team := 0
				if r == baseRunes[1] {
					team = 1
				}
				bases[team] = append(bases[team], t)
			case towerRunes[0], towerRunes[1]:
				team := 0
				if r == towerRunes[1] {
					team = 1
				}
				m.Towers[team] = append(m.Towers[team], t)
			default:
				return nil, fmt.Errorf("%w: unexpected %q at (%d,%d)", core.ErrInvalidMap, r, x, y)
			}
		}
	}

	for team, b := range bases {
		if len(b) != 1 {
			return nil, fmt.Errorf("%w: team %c has %d bases", core.ErrInvalidMap, baseRunes[team], len(b))
		}
		m.HQs[team] = b[0]
	}
	if (tr == symmetry.DiagonalReflection || tr == symmetry.AntiDiagonalReflection) && board.W != board.H {
		return nil, fmt.Errorf("%w: %s needs a square map, got %dx%d", core.ErrInvalidMap, tr, board.W, board.H)
	}
	if err := checkSymmetric(m); err != nil {
		return nil, err
	}
	if !mapgen.Connected(board, m.HQs[0], m.HQs[1]) {
		return nil, fmt.Errorf("%w: bases are not connected", core.ErrInvalidMap)
	}
	return m, nil
}

func checkSymmetric(m *mapgen.Map) error {
	b := m.Board
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			t := core.NewTile(x, y)
			mt := m.Mirror(t)
			if !b.InBounds(mt) || b.Terrain(t) != b.Terrain(mt) {
				return fmt.Errorf("%w: %s does not mirror %s under %s", core.ErrInvalidMap, t, mt, m.Symmetry)
			}
		}
	}
	if m.Mirror(m.HQs[0]) != m.HQs[1] {
		return fmt.Errorf("%w: bases are not mirror images under %s", core.ErrInvalidMap, m.Symmetry)
	}
	if len(m.Towers[0]) != len(m.Towers[1]) {
		return fmt.Errorf("%w: towers are not mirror images", core.ErrInvalidMap)
	}
	theirs := make(map[core.Tile]bool, len(m.Towers[1]))
	for _, t := range m.Towers[1] {
		theirs[t] = true
	}
	for _, t := range m.Towers[0] {
		if !theirs[m.Mirror(t)] {
			return fmt.Errorf("%w: tower %s has no mirror image", core.ErrInvalidMap, t)
		}
	}
	return nil
}

// FromMap renders a map back into its file form.
func FromMap(name string, m *mapgen.Map) File {
	grid := make([][]rune, m.Board.H)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(string(emptyRune), m.Board.W))
		for x := range grid[y] {
			if !m.Board.Passable(core.NewTile(x, y)) {
				grid[y][x] = wallRune
			}
		}
	}
	for team := 0; team < 2; team++ {
		hq := m.HQs[team]
		grid[hq.Y][hq.X] = baseRunes[team]
		for _, t := range m.Towers[team] {
			grid[t.Y][t.X] = towerRunes[team]
		}
	}
	f := File{Name: name, Symmetry: m.Symmetry.String(), Rows: make([]string, len(grid))}
	for y, row := range grid {
		f.Rows[y] = string(row)
	}
	return f
}

// Save writes m to path as YAML.
func Save(path, name string, m *mapgen.Map) error {
	out, err := yaml.Marshal(FromMap(name, m))
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}
