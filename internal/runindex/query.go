package runindex

import (
	"context"
	"database/sql"
	"time"
)

// MatchRow is one indexed match. The end columns stay empty while the
// match is still running.
type MatchRow struct {
	MatchID   string
	Seed      int64
	Width     int
	Height    int
	Symmetry  string
	StartedAt time.Time
	Ended     bool
	Winner    int
	Reason    string
	Turns     int
	Duration  time.Duration
}

// TurnSample is one team's end-of-turn numbers.
type TurnSample struct {
	Turn        int
	Team        int
	Agents      int
	Frontier    int
	Resolved    int
	Known       int
	Steps       int
	Relaxed     int
	LockCleared bool
	AttackMode  bool
}

type SnapshotRow struct {
	MatchID string
	Turn    int
	Team    int
	Path    string
}

// Matches lists indexed matches, newest first.
func (idx *Index) Matches(ctx context.Context) ([]MatchRow, error) {
	rows, err := idx.db.QueryContext(ctx,
		`SELECT match_id,seed,width,height,symmetry,started_at,ended_at,winner,reason,turns,duration_ms
		 FROM matches ORDER BY started_at DESC, match_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MatchRow
	for rows.Next() {
		var (
			m        MatchRow
			started  string
			endedAt  sql.NullString
			winner   sql.NullInt64
			reason   sql.NullString
			turns    sql.NullInt64
			duration sql.NullInt64
		)
		if err := rows.Scan(&m.MatchID, &m.Seed, &m.Width, &m.Height, &m.Symmetry, &started,
			&endedAt, &winner, &reason, &turns, &duration); err != nil {
			return nil, err
		}
		m.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		m.Ended = endedAt.Valid
		m.Winner = int(winner.Int64)
		m.Reason = reason.String
		m.Turns = int(turns.Int64)
		m.Duration = time.Duration(duration.Int64) * time.Millisecond
		out = append(out, m)
	}
	return out, rows.Err()
}

// TurnSamples returns every sample of a match ordered by turn then team.
func (idx *Index) TurnSamples(ctx context.Context, matchID string) ([]TurnSample, error) {
	rows, err := idx.db.QueryContext(ctx,
		`SELECT turn,team,agents,frontier,resolved,known,steps,relaxed,lock_cleared,attack_mode
		 FROM turn_samples WHERE match_id=? ORDER BY turn, team`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TurnSample
	for rows.Next() {
		var s TurnSample
		var lock, attack int64
		if err := rows.Scan(&s.Turn, &s.Team, &s.Agents, &s.Frontier, &s.Resolved, &s.Known,
			&s.Steps, &s.Relaxed, &lock, &attack); err != nil {
			return nil, err
		}
		s.LockCleared = lock != 0
		s.AttackMode = attack != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

// LockClears counts the stale locks cleared per team in a match.
func (idx *Index) LockClears(ctx context.Context, matchID string) (map[int]int, error) {
	rows, err := idx.db.QueryContext(ctx,
		`SELECT team, COUNT(*) FROM lock_clears WHERE match_id=? GROUP BY team`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var team, n int
		if err := rows.Scan(&team, &n); err != nil {
			return nil, err
		}
		out[team] = n
	}
	return out, rows.Err()
}

// Snapshots lists the snapshot files recorded for a match.
func (idx *Index) Snapshots(ctx context.Context, matchID string) ([]SnapshotRow, error) {
	rows, err := idx.db.QueryContext(ctx,
		`SELECT match_id,turn,team,path FROM snapshots WHERE match_id=? ORDER BY turn, team`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var s SnapshotRow
		if err := rows.Scan(&s.MatchID, &s.Turn, &s.Team, &s.Path); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
