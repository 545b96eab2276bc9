// Package runindex keeps a queryable SQLite index of finished and running
// matches. It listens on the match event bus and writes from a single
// background goroutine so the simulation never waits on disk.
package runindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
)

var ErrClosed = errors.New("run index closed")

type reqKind int

const (
	reqMatchStarted reqKind = iota + 1
	reqTurn
	reqMatchEnded
	reqLockCleared
	reqSnapshot
	reqFlush
)

type req struct {
	kind     reqKind
	matchID  string
	started  *events.MatchStartedEvent
	turn     *events.TurnEndedEvent
	ended    *events.MatchEndedEvent
	lock     *events.LockClearedEvent
	snapshot SnapshotRow
	done     chan struct{}
}

// Index is an events.Subscriber backed by SQLite.
type Index struct {
	db     *sql.DB
	logger zerolog.Logger

	// mu orders sends on ch against close(ch).
	mu     sync.RWMutex
	ch     chan req
	closed bool
	wg     sync.WaitGroup
	once   sync.Once

	dropped atomic.Int64
}

// Open creates or opens the index at path.
func Open(path string, logger zerolog.Logger) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	idx := &Index{
		db:     db,
		logger: logger.With().Str("component", "run_index").Logger(),
		ch:     make(chan req, 4096),
	}
	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()
		idx.loop()
	}()
	return idx, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS matches (
			match_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			symmetry TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			winner INTEGER,
			reason TEXT,
			turns INTEGER,
			duration_ms INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS turn_samples (
			match_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			team INTEGER NOT NULL,
			agents INTEGER NOT NULL,
			frontier INTEGER NOT NULL,
			resolved INTEGER NOT NULL,
			known INTEGER NOT NULL,
			steps INTEGER NOT NULL,
			relaxed INTEGER NOT NULL,
			lock_cleared INTEGER NOT NULL,
			attack_mode INTEGER NOT NULL,
			PRIMARY KEY (match_id, turn, team)
		);`,
		`CREATE TABLE IF NOT EXISTS lock_clears (
			match_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			team INTEGER NOT NULL,
			holder INTEGER NOT NULL,
			PRIMARY KEY (match_id, turn, team)
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			match_id TEXT NOT NULL,
			turn INTEGER NOT NULL,
			team INTEGER NOT NULL,
			path TEXT NOT NULL,
			PRIMARY KEY (match_id, turn, team)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_turn_samples_team ON turn_samples(match_id, team, turn);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (idx *Index) ID() string { return "run_index" }

func (idx *Index) InterestedIn(eventType string) bool {
	switch eventType {
	case events.TypeMatchStarted, events.TypeTurnEnded, events.TypeMatchEnded, events.TypeLockCleared:
		return true
	}
	return false
}

func (idx *Index) HandleEvent(event events.Event) {
	r := req{matchID: event.MatchID()}
	switch e := event.(type) {
	case *events.MatchStartedEvent:
		r.kind, r.started = reqMatchStarted, e
	case *events.TurnEndedEvent:
		r.kind, r.turn = reqTurn, e
	case *events.MatchEndedEvent:
		r.kind, r.ended = reqMatchEnded, e
	case *events.LockClearedEvent:
		r.kind, r.lock = reqLockCleared, e
	default:
		return
	}
	idx.enqueue(r)
}

// RecordSnapshot notes a snapshot file written for a team.
func (idx *Index) RecordSnapshot(row SnapshotRow) {
	idx.enqueue(req{kind: reqSnapshot, matchID: row.MatchID, snapshot: row})
}

func (idx *Index) enqueue(r req) {
	if idx == nil {
		return
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return
	}
	select {
	case idx.ch <- r:
	default:
		if idx.dropped.Add(1) == 1 {
			idx.logger.Warn().Msg("Run index is falling behind, dropping writes")
		}
	}
}

// Dropped is the number of writes discarded because the queue was full.
func (idx *Index) Dropped() int64 { return idx.dropped.Load() }

// Flush blocks until every write queued before it has been applied.
func (idx *Index) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if err := idx.send(ctx, req{kind: reqFlush, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (idx *Index) send(ctx context.Context, r req) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return ErrClosed
	}
	select {
	case idx.ch <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (idx *Index) Close() error {
	var err error
	idx.once.Do(func() {
		idx.mu.Lock()
		idx.closed = true
		close(idx.ch)
		idx.mu.Unlock()
		idx.wg.Wait()
		err = idx.db.Close()
	})
	return err
}

func (idx *Index) loop() {
	ctx := context.Background()
	for r := range idx.ch {
		if r.kind == reqFlush {
			close(r.done)
			continue
		}
		if err := idx.apply(ctx, r); err != nil {
			idx.logger.Error().Err(err).Str("match_id", r.matchID).Int("kind", int(r.kind)).Msg("Run index write failed")
		}
	}
}

func (idx *Index) apply(ctx context.Context, r req) error {
	switch r.kind {
	case reqMatchStarted:
		e := r.started
		_, err := idx.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO matches(match_id,seed,width,height,symmetry,started_at) VALUES(?,?,?,?,?,?)`,
			r.matchID, e.Seed, e.MapWidth, e.MapHeight, e.Symmetry, e.Timestamp().UTC().Format(time.RFC3339Nano))
		return err

	case reqMatchEnded:
		e := r.ended
		_, err := idx.db.ExecContext(ctx,
			`UPDATE matches SET ended_at=?, winner=?, reason=?, turns=?, duration_ms=? WHERE match_id=?`,
			e.Timestamp().UTC().Format(time.RFC3339Nano), e.Winner, e.Reason, e.FinalTurn, e.Duration.Milliseconds(), r.matchID)
		return err

	case reqTurn:
		tx, err := idx.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		for _, ts := range r.turn.Teams {
			_, err := tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO turn_samples(match_id,turn,team,agents,frontier,resolved,known,steps,relaxed,lock_cleared,attack_mode) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
				r.matchID, r.turn.TurnNumber, ts.Team, ts.Agents, ts.FrontierSize, ts.ResolvedTiles, ts.KnownTiles,
				ts.MaintenanceSteps, ts.Relaxed, boolInt(ts.LockCleared), boolInt(ts.AttackMode))
			if err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()

	case reqLockCleared:
		e := r.lock
		_, err := idx.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO lock_clears(match_id,turn,team,holder) VALUES(?,?,?,?)`,
			r.matchID, e.Turn, e.Team, e.Holder)
		return err

	case reqSnapshot:
		s := r.snapshot
		_, err := idx.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO snapshots(match_id,turn,team,path) VALUES(?,?,?,?)`,
			s.MatchID, s.Turn, s.Team, s.Path)
		return err
	}
	return fmt.Errorf("unknown request kind %d", r.kind)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
