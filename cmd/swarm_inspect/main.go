package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/swarmnav/internal/distfield"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/mapfile"
	"github.com/mitchelldurbincs/swarmnav/internal/monitoring"
	"github.com/mitchelldurbincs/swarmnav/internal/runindex"
	"github.com/mitchelldurbincs/swarmnav/internal/snapshot"
	"github.com/mitchelldurbincs/swarmnav/internal/ui/renderer"
)

func main() {
	indexPath := flag.String("index", "", "Run index to list matches from")
	matchID := flag.String("match", "", "With -index, print the turn samples of this match")
	snapPath := flag.String("snapshot", "", "Snapshot file to summarise")
	mapPath := flag.String("map", "", "With -snapshot, the map file the match was played on")
	pngPath := flag.String("png", "", "With -snapshot and -map, write a heatmap here")
	scale := flag.Int("scale", 8, "Heatmap pixels per tile")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	switch {
	case *indexPath != "":
		if err := listIndex(context.Background(), os.Stdout, *indexPath, *matchID); err != nil {
			log.Fatal().Err(err).Msg("Failed to read run index")
		}
	case *snapPath != "":
		if err := inspectSnapshot(os.Stdout, *snapPath, *mapPath, *pngPath, *scale); err != nil {
			log.Fatal().Err(err).Msg("Failed to inspect snapshot")
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func listIndex(ctx context.Context, w io.Writer, path, matchID string) error {
	idx, err := runindex.Open(path, log.Logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if matchID == "" {
		matches, err := idx.Matches(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "MATCH\tSEED\tSIZE\tSYMMETRY\tWINNER\tREASON\tTURNS")
		for _, m := range matches {
			winner, reason := "-", "running"
			if m.Ended {
				winner, reason = fmt.Sprint(m.Winner), m.Reason
			}
			fmt.Fprintf(tw, "%s\t%d\t%dx%d\t%s\t%s\t%s\t%d\n",
				m.MatchID, m.Seed, m.Width, m.Height, m.Symmetry, winner, reason, m.Turns)
		}
		return tw.Flush()
	}

	samples, err := idx.TurnSamples(ctx, matchID)
	if err != nil {
		return err
	}
	clears, err := idx.LockClears(ctx, matchID)
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "TURN\tTEAM\tAGENTS\tFRONTIER\tRESOLVED\tKNOWN\tSTEPS\tRELAXED\tATTACK")
	for _, s := range samples {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%t\n",
			s.Turn, s.Team, s.Agents, s.Frontier, s.Resolved, s.Known, s.Steps, s.Relaxed, s.AttackMode)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for team := 0; team < 2; team++ {
		fmt.Fprintf(w, "team %d stale locks cleared: %d\n", team, clears[team])
	}
	return nil
}

func inspectSnapshot(w io.Writer, path, mapPath, pngPath string, scale int) error {
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return err
	}
	store, layout, err := snap.Restore()
	if err != nil {
		return err
	}
	resolved, frontier := monitoring.FieldCoverage(store, layout)
	fmt.Fprintf(w, "match %s team %d turn %d\n", snap.Header.MatchID, snap.Header.Team, snap.Header.Turn)
	fmt.Fprintf(w, "window %dx%d queue capacity %d\n", layout.MaxWidth(), layout.MaxHeight(), layout.QueueCapacity())
	fmt.Fprintf(w, "resolved tiles %d, frontier %d\n", resolved, frontier)

	if mapPath == "" || pngPath == "" {
		return nil
	}
	m, err := mapfile.Load(mapPath)
	if err != nil {
		return err
	}
	home := core.NewTile(snap.Home[0], snap.Home[1])
	if !m.Board.InBounds(home) {
		return fmt.Errorf("snapshot home %s is outside the %dx%d map", home, m.Board.W, m.Board.H)
	}
	img := renderer.NewBoardRenderer(scale, renderer.DefaultFace()).Draw(renderer.Heatmap{
		Board:   m.Board,
		Field:   distfield.NewField(store, layout),
		Home:    home,
		Caption: fmt.Sprintf("%s team %d turn %d", snap.Header.MatchID, snap.Header.Team, snap.Header.Turn),
	})
	if err := renderer.WritePNG(pngPath, img); err != nil {
		return err
	}
	fmt.Fprintf(w, "heatmap written to %s\n", pngPath)
	return nil
}
