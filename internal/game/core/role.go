package core

// Role identifies an agent's kind. Each role has its own action policy and
// per-turn compute budget.
type Role uint8

const (
	RoleHQ Role = iota
	RoleTower
	RoleSoldier
	RoleScout

	// NumRoles is the number of roles; unit-count channels are sized by it.
	NumRoles = 4
)

var roleNames = [NumRoles]string{"hq", "tower", "soldier", "scout"}

func (r Role) String() string {
	if int(r) >= NumRoles {
		return "unknown"
	}
	return roleNames[r]
}

// Mobile reports whether agents of this role can move.
func (r Role) Mobile() bool {
	return r == RoleSoldier || r == RoleScout
}

// ParseRole maps a role name back to its value.
func ParseRole(s string) (Role, bool) {
	for i, name := range roleNames {
		if name == s {
			return Role(i), true
		}
	}
	return 0, false
}
