package domain

import "fmt"

// Role is an account role. Roles are totally ordered by Rank.
type Role string

const (
	RoleBanned    Role = "banned"
	RoleGuest     Role = "guest"
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

var roleRanks = map[Role]int{
	RoleBanned:    -1,
	RoleGuest:     0,
	RoleUser:      10,
	RoleModerator: 20,
	RoleAdmin:     30,
}

// Rank returns the position of r in the hierarchy. ok is false for unknown roles.
func (r Role) Rank() (rank int, ok bool) {
	rank, ok = roleRanks[r]
	return rank, ok
}

// Satisfies reports whether r is at least as privileged as required.
// Unknown roles never satisfy and are never satisfied.
func (r Role) Satisfies(required Role) bool {
	have, ok := r.Rank()
	if !ok {
		return false
	}
	need, ok := required.Rank()
	if !ok {
		return false
	}
	return have >= need
}

func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// ParseRole converts s into a known Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
