package game

import (
	"sort"
	"sync"

	"github.com/mitchelldurbincs/swarmnav/internal/channel"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/game/mapgen"
	"github.com/mitchelldurbincs/swarmnav/internal/game/states"
	"github.com/mitchelldurbincs/swarmnav/internal/symmetry"
)

var teamNames = [2]string{"A", "B"}

// Team is one side of a match: its shared channel store, its fog, and the
// bookkeeping its home base keeps across turns.
type Team struct {
	ID     int
	Name   string
	Store  *channel.Store
	Layout channel.Layout

	hq       core.Tile
	hqID     int
	evidence symmetry.Evidence

	// guarded by World.mu
	known      []bool
	knownCount int

	// touched only during the home base's turn
	seeded    bool
	published bool
	spawned   int
}

// HQ returns the team's home base tile in world coordinates.
func (t *Team) HQ() core.Tile { return t.hq }

// Relative converts a world tile to the team's home-relative frame.
func (t *Team) Relative(world core.Tile) core.Tile { return world.Sub(t.hq) }

// Absolute converts a home-relative tile back to world coordinates.
func (t *Team) Absolute(rel core.Tile) core.Tile { return rel.Add(t.hq) }

// World is the authoritative state of a match. Board coordinates are offset
// by origin so that agents never see absolute positions that line up with
// the board edges. All agent state lives behind mu.
type World struct {
	mu sync.RWMutex

	board          *core.Board
	origin         core.Tile
	agents         map[int]*Agent
	occupied       map[core.Tile]int
	teams          [2]*Team
	sensorRadiusSq int
	nextID         int

	winner    int
	winReason string
}

func newWorld(m *mapgen.Map, origin core.Tile, sensorRadius int, layout channel.Layout) *World {
	w := &World{
		board:          m.Board.Clone(),
		origin:         origin,
		agents:         make(map[int]*Agent),
		occupied:       make(map[core.Tile]int),
		sensorRadiusSq: sensorRadius * sensorRadius,
		winner:         states.NoWinner,
	}
	for i := range w.teams {
		w.teams[i] = &Team{
			ID:       i,
			Name:     teamNames[i],
			Store:    channel.NewStore(layout.Size()),
			Layout:   layout,
			hq:       m.HQs[i].Add(origin),
			evidence: m.Evidence(i),
			known:    make([]bool, len(m.Board.T)),
		}
	}
	return w
}

// Board returns the terrain in board coordinates.
func (w *World) Board() *core.Board { return w.board }

// Origin is the offset added to board coordinates to get world coordinates.
func (w *World) Origin() core.Tile { return w.origin }

// Team returns one side of the match.
func (w *World) Team(id int) *Team { return w.teams[id] }

func (w *World) boardTile(t core.Tile) core.Tile { return t.Sub(w.origin) }

func (w *World) passable(t core.Tile) bool {
	return w.board.Passable(w.boardTile(t))
}

func (w *World) allocID() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	return w.nextID
}

// place puts a freshly built agent on the board.
func (w *World) place(a *Agent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.passable(a.pos) {
		return core.WrapAgentError(a.id, "place", core.ErrBlocked)
	}
	if _, taken := w.occupied[a.pos]; taken {
		return core.WrapAgentError(a.id, "place", core.ErrBlocked)
	}
	a.alive = true
	w.agents[a.id] = a
	w.occupied[a.pos] = a.id
	w.reveal(w.teams[a.team], a.pos)
	if a.role == core.RoleHQ {
		w.teams[a.team].hqID = a.id
	}
	return nil
}

// remove takes an agent off the board. The agent's in-flight turn, if any,
// keeps running against a dead agent and its actions fail.
func (w *World) remove(id int) (*Agent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	a, ok := w.agents[id]
	if !ok {
		return nil, core.WrapAgentError(id, "remove", core.ErrUnknownAgent)
	}
	w.removeLocked(a)
	return a, nil
}

func (w *World) removeLocked(a *Agent) {
	a.alive = false
	delete(w.agents, a.id)
	if w.occupied[a.pos] == a.id {
		delete(w.occupied, a.pos)
	}
}

func (w *World) agent(id int) (*Agent, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	a, ok := w.agents[id]
	return a, ok
}

// move steps a one tile in direction d.
func (w *World) move(a *Agent, d core.Direction) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !a.alive {
		return core.WrapAgentError(a.id, "move", core.ErrAgentRemoved)
	}
	dest := a.pos.Move(d)
	if !w.passable(dest) {
		return core.WrapAgentError(a.id, "move", core.ErrBlocked)
	}
	if _, taken := w.occupied[dest]; taken {
		return core.WrapAgentError(a.id, "move", core.ErrBlocked)
	}
	delete(w.occupied, a.pos)
	a.pos = dest
	w.occupied[dest] = a.id
	w.reveal(w.teams[a.team], dest)

	enemy := w.teams[1-a.team]
	if a.role.Mobile() && dest.ChebyshevTo(enemy.hq) <= WinDistance {
		w.declareLocked(a.team, "reached enemy base")
	}
	return nil
}

// canMove reports whether a could step in direction d right now.
func (w *World) canMove(a *Agent, d core.Direction) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	dest := a.pos.Move(d)
	if !w.passable(dest) {
		return false
	}
	_, taken := w.occupied[dest]
	return !taken
}

// inHostileRange reports whether t is inside the attack radius of an enemy
// structure. Structures are visible from the start of the match.
func (w *World) inHostileRange(team int, t core.Tile) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, a := range w.agents {
		if a.team == team || a.role.Mobile() {
			continue
		}
		if a.pos.DistanceSquaredTo(t) <= Stats(a.role).AttackRadiusSq {
			return true
		}
	}
	return false
}

// hostilesNear reports whether any living enemy is within radiusSq of a.
func (w *World) hostilesNear(a *Agent, radiusSq int) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, o := range w.agents {
		if o.team != a.team && o.pos.DistanceSquaredTo(a.pos) <= radiusSq {
			return true
		}
	}
	return false
}

// strike hits the weakest enemy within range of a. It returns the target
// and whether it was destroyed, or nil when nothing was in range.
func (w *World) strike(a *Agent) (*Agent, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !a.alive {
		return nil, false
	}
	stats := Stats(a.role)
	var target *Agent
	for _, o := range w.agents {
		if o.team == a.team || o.pos.DistanceSquaredTo(a.pos) > stats.AttackRadiusSq {
			continue
		}
		if target == nil || o.health < target.health || (o.health == target.health && o.id < target.id) {
			target = o
		}
	}
	if target == nil {
		return nil, false
	}

	target.health -= stats.Damage
	if target.health > 0 {
		return target, false
	}
	w.removeLocked(target)
	if target.role == core.RoleHQ {
		w.declareLocked(a.team, "destroyed enemy base")
	}
	return target, true
}

// freeNeighbor returns an open tile next to t, trying the direction toward
// goal first and then sweeping outward from it.
func (w *World) freeNeighbor(t, goal core.Tile) (core.Tile, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	d := t.DirectionTo(goal)
	if d == core.DirNone {
		d = core.North
	}
	left, right := d, d
	for i := 0; i < 8; i++ {
		try := right
		if i%2 == 1 {
			left = left.RotateLeft()
			try = left
		} else if i > 0 {
			right = right.RotateRight()
			try = right
		}
		n := t.Move(try)
		if !w.passable(n) {
			continue
		}
		if _, taken := w.occupied[n]; !taken {
			return n, true
		}
	}
	return core.Tile{}, false
}

// shareSupply hands half the difference to the neediest ally in range.
func (w *World) shareSupply(a *Agent) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	var needy *Agent
	for _, o := range w.agents {
		if o.team != a.team || o.id == a.id || !o.role.Mobile() {
			continue
		}
		if o.pos.DistanceSquaredTo(a.pos) > SupplyTransferRadiusSq || o.supply >= a.supply {
			continue
		}
		if needy == nil || o.supply < needy.supply || (o.supply == needy.supply && o.id < needy.id) {
			needy = o
		}
	}
	if needy == nil {
		return 0
	}
	amount := (a.supply - needy.supply) / 2
	a.supply -= amount
	needy.supply += amount
	return amount
}

// upkeep grants income and drains upkeep at the start of a's turn. It
// returns whether a is supplied for the turn.
func (w *World) upkeep(a *Agent, income int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	a.supply += income
	supplied := a.supply > 0
	a.supply -= Stats(a.role).SupplyUpkeep
	if a.supply < 0 {
		a.supply = 0
	}
	return supplied
}

// countUnits counts our living units by role, and the enemy units standing
// on tiles the team has seen.
func (w *World) countUnits(team int) (ours, theirs [core.NumRoles]int) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	t := w.teams[team]
	for _, a := range w.agents {
		if a.team == team {
			ours[a.role]++
			continue
		}
		if w.knownLocked(t, a.pos) {
			theirs[a.role]++
		}
	}
	return ours, theirs
}

func (w *World) mobileCount(team int) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	n := 0
	for _, a := range w.agents {
		if a.team == team && a.role.Mobile() {
			n++
		}
	}
	return n
}

func (w *World) declareLocked(team int, reason string) {
	if w.winner != states.NoWinner {
		return
	}
	w.winner = team
	w.winReason = reason
}

// Winner returns the winning team, or states.NoWinner.
func (w *World) Winner() (int, string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.winner, w.winReason
}

// AgentInfo is a read-only view of one agent.
type AgentInfo struct {
	ID       int       `json:"id"`
	Team     int       `json:"team"`
	Role     string    `json:"role"`
	Position core.Tile `json:"position"`
	Health   int       `json:"health"`
	Supply   int       `json:"supply"`
}

// Agents lists the living agents ordered by id.
func (w *World) Agents() []AgentInfo {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]AgentInfo, 0, len(w.agents))
	for _, a := range w.agents {
		out = append(out, AgentInfo{
			ID:       a.id,
			Team:     a.team,
			Role:     a.role.String(),
			Position: a.pos,
			Health:   a.health,
			Supply:   a.supply,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) agentIDs() []int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ids := make([]int, 0, len(w.agents))
	for id := range w.agents {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
