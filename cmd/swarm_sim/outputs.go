package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/swarmnav/internal/common"
	"github.com/mitchelldurbincs/swarmnav/internal/config"
	"github.com/mitchelldurbincs/swarmnav/internal/distfield"
	"github.com/mitchelldurbincs/swarmnav/internal/game"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
	"github.com/mitchelldurbincs/swarmnav/internal/runindex"
	"github.com/mitchelldurbincs/swarmnav/internal/snapshot"
	"github.com/mitchelldurbincs/swarmnav/internal/ui/renderer"
)

var teamNames = [2]string{"A", "B"}

// outputs writes the offline artifacts of a match: periodic store
// snapshots and the final distance-field heatmaps.
type outputs struct {
	match  *game.Match
	cfg    config.OutputConfig
	index  *runindex.Index
	logger zerolog.Logger
}

func newOutputs(m *game.Match, cfg config.OutputConfig, index *runindex.Index, logger zerolog.Logger) *outputs {
	return &outputs{match: m, cfg: cfg, index: index, logger: logger}
}

func (o *outputs) onTurnEnded(e events.Event) {
	ev, ok := e.(*events.TurnEndedEvent)
	if !ok || o.cfg.SnapshotDir == "" || o.cfg.SnapshotEvery <= 0 {
		return
	}
	if ev.TurnNumber%o.cfg.SnapshotEvery == 0 {
		o.snapshot(ev.TurnNumber)
	}
}

func (o *outputs) snapshot(turn int) {
	for team := 0; team < 2; team++ {
		t := o.match.World().Team(team)
		home := o.match.Map().HQs[team]
		snap := snapshot.Capture(o.match.ID(), turn, team, [2]int{home.X, home.Y}, t.Store, t.Layout)
		path := snapshot.FileName(o.cfg.SnapshotDir, o.match.ID(), turn, team)
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			o.logger.Error().Err(err).Str("path", path).Msg("Failed to write snapshot")
			continue
		}
		o.logger.Debug().Str("path", path).Int("team", team).Int("turn", turn).Msg("Snapshot written")
		if o.index != nil {
			o.index.RecordSnapshot(runindex.SnapshotRow{MatchID: o.match.ID(), Turn: turn, Team: team, Path: path})
		}
	}
}

// finish writes the last snapshot and the heatmaps.
func (o *outputs) finish(turn int) {
	if o.cfg.SnapshotDir != "" && o.cfg.SnapshotEvery > 0 && turn%o.cfg.SnapshotEvery != 0 {
		o.snapshot(turn)
	}
	if o.cfg.HeatmapPath == "" {
		return
	}
	br := renderer.NewBoardRenderer(o.cfg.HeatmapScale, renderer.DefaultFace())
	w := o.match.World()
	for team := 0; team < 2; team++ {
		t := w.Team(team)
		team := team
		h := renderer.Heatmap{
			Board: w.Board(),
			Field: distfield.NewField(t.Store, t.Layout),
			Home:  o.match.Map().HQs[team],
			Known: func(b core.Tile) bool { return w.Known(team, b.Add(w.Origin())) },
			Markers: []renderer.Marker{
				{Tile: o.match.Map().HQs[1-team], Color: common.TeamColors[1-team]},
			},
			Caption: fmt.Sprintf("team %s turn %d", teamNames[team], turn),
		}
		path := teamPath(o.cfg.HeatmapPath, team)
		if err := renderer.WritePNG(path, br.Draw(h)); err != nil {
			o.logger.Error().Err(err).Str("path", path).Msg("Failed to write heatmap")
			continue
		}
		o.logger.Info().Str("path", path).Int("team", team).Msg("Heatmap written")
	}
}

// teamPath turns "out/field.png" into "out/field_A.png".
func teamPath(path string, team int) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + teamNames[team] + ext
}
