package game

import (
	"fmt"
	"strings"

	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// This file contains the console rendering of a match.

// ANSI color codes
const (
	ColorReset = "\033[0m"
	ColorRed   = "\033[31m"
	ColorBlue  = "\033[34m"
	ColorGray  = "\033[90m"
)

var teamColors = [2]string{ColorRed, ColorBlue}

var roleSymbols = [core.NumRoles]byte{
	core.RoleHQ:      'H',
	core.RoleTower:   'T',
	core.RoleSoldier: 's',
	core.RoleScout:   'c',
}

const (
	emptySymbol   = "·"
	wallSymbol    = "▲"
	unknownSymbol = " "
)

// Render draws the board in board coordinates. With team set to 0 or 1,
// tiles that team has not seen are blanked; team -1 shows everything.
// color selects ANSI output.
func (w *World) Render(team int, color bool) string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	occupant := make(map[core.Tile]*Agent, len(w.agents))
	for _, a := range w.agents {
		occupant[w.boardTile(a.pos)] = a
	}

	width, height := w.board.W, w.board.H
	var sb strings.Builder
	sb.Grow((width*12 + 8) * (height + 2))

	sb.WriteString("    ")
	for x := 0; x < width; x++ {
		fmt.Fprintf(&sb, "%2d", x%100)
	}
	sb.WriteString("\n")

	for y := 0; y < height; y++ {
		fmt.Fprintf(&sb, "%2d  ", y%100)
		for x := 0; x < width; x++ {
			b := core.NewTile(x, y)
			if team >= 0 && !w.teams[team].known[w.board.Idx(x, y)] {
				sb.WriteString(" ")
				sb.WriteString(unknownSymbol)
				continue
			}
			if a, ok := occupant[b]; ok {
				writeColored(&sb, color, teamColors[a.team], string(rune(roleSymbols[a.role])))
				continue
			}
			if !w.board.Passable(b) {
				writeColored(&sb, color, ColorGray, wallSymbol)
				continue
			}
			writeColored(&sb, color, ColorGray, emptySymbol)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nH=base T=tower s=soldier c=scout ")
	sb.WriteString(wallSymbol)
	sb.WriteString("=wall\n")
	return sb.String()
}

func writeColored(sb *strings.Builder, color bool, code, symbol string) {
	sb.WriteString(" ")
	if color {
		sb.WriteString(code)
	}
	sb.WriteString(symbol)
	if color {
		sb.WriteString(ColorReset)
	}
}
