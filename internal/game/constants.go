package game

import (
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// UnitStats are the fixed combat numbers for a role.
type UnitStats struct {
	MaxHealth      int
	Damage         int
	AttackRadiusSq int
	// SupplyUpkeep is drained from the unit's supply every turn.
	SupplyUpkeep int
}

var unitStats = [core.NumRoles]UnitStats{
	core.RoleHQ:      {MaxHealth: 2000, Damage: 10, AttackRadiusSq: 24},
	core.RoleTower:   {MaxHealth: 1000, Damage: 6, AttackRadiusSq: 24},
	core.RoleSoldier: {MaxHealth: 40, Damage: 4, AttackRadiusSq: 8, SupplyUpkeep: 2},
	core.RoleScout:   {MaxHealth: 20, SupplyUpkeep: 1},
}

// Stats returns the combat numbers for role.
func Stats(role core.Role) UnitStats {
	if int(role) >= core.NumRoles {
		return UnitStats{}
	}
	return unitStats[role]
}

const (
	// SupplyTransferRadiusSq bounds how far supply can be handed over.
	SupplyTransferRadiusSq = 15
	// HQSupplyPerTurn is the supply the home base produces each turn.
	HQSupplyPerTurn = 100
	// SpawnSupply is what a freshly spawned unit carries.
	SpawnSupply = 20
	// ScoutEvery makes every Nth spawn a scout.
	ScoutEvery = 3
	// WinDistance is the Chebyshev distance to the enemy base that ends the match.
	WinDistance = 1
)
