package scheduler

import (
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// Situation is what a policy may look at when ranking actions.
type Situation struct {
	Role            core.Role
	Supplied        bool
	AttackMode      bool
	HostilesInRange bool
	LowHealth       bool
	CanSpawn        bool
	RallyPoint      core.Tile
	HasRallyPoint   bool
}

// Condition gates a rule.
type Condition func(Situation) bool

// Always is a condition that always holds.
func Always(Situation) bool { return true }

func HostilesInRange(s Situation) bool { return s.HostilesInRange }
func AttackMode(s Situation) bool      { return s.AttackMode }
func LowHealth(s Situation) bool       { return s.LowHealth }
func CanSpawn(s Situation) bool        { return s.CanSpawn }
func HasRallyPoint(s Situation) bool   { return s.HasRallyPoint }

// Not negates a condition.
func Not(c Condition) Condition {
	return func(s Situation) bool { return !c(s) }
}

// All holds when every condition holds.
func All(cs ...Condition) Condition {
	return func(s Situation) bool {
		for _, c := range cs {
			if !c(s) {
				return false
			}
		}
		return true
	}
}

// Rule proposes an action when its condition holds. A nil When always holds.
type Rule struct {
	Kind ActionKind
	When Condition
}

// PolicyTable ranks actions per role. Rules are tried in order.
type PolicyTable map[core.Role][]Rule

// DefaultPolicy is the standard behaviour for each role.
func DefaultPolicy() PolicyTable {
	return PolicyTable{
		core.RoleHQ: {
			{Kind: ActionAttack, When: HostilesInRange},
			{Kind: ActionSpawn, When: CanSpawn},
			{Kind: ActionIdle},
		},
		core.RoleTower: {
			{Kind: ActionAttack, When: HostilesInRange},
			{Kind: ActionIdle},
		},
		core.RoleSoldier: {
			{Kind: ActionAttack, When: HostilesInRange},
			{Kind: ActionRetreat, When: All(LowHealth, Not(AttackMode))},
			{Kind: ActionMoveToEnemy, When: AttackMode},
			{Kind: ActionRally, When: HasRallyPoint},
			{Kind: ActionScout},
			{Kind: ActionIdle},
		},
		core.RoleScout: {
			{Kind: ActionRetreat, When: LowHealth},
			{Kind: ActionScout},
			{Kind: ActionIdle},
		},
	}
}

// Choose returns the ranked actions for a situation. Roles without rules idle.
func (p PolicyTable) Choose(s Situation) []Action {
	rules, ok := p[s.Role]
	if !ok {
		return []Action{{Kind: ActionIdle}}
	}
	out := make([]Action, 0, len(rules))
	for _, r := range rules {
		if r.When != nil && !r.When(s) {
			continue
		}
		a := Action{Kind: r.Kind}
		if r.Kind == ActionRally {
			a.Target = s.RallyPoint
		}
		out = append(out, a)
	}
	return out
}
