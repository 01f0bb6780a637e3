package models

import "fmt"

type Role string

const (
	RoleMember  Role = "member"
	RoleAdmin   Role = "admin"
	RoleCreator Role = "creator"
)

// rank orders roles by scope: a role covers every role of equal or lower rank.
var rank = map[Role]int{
	RoleMember:  1,
	RoleAdmin:   2,
	RoleCreator: 3,
}

func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// Covers reports whether r grants at least the capabilities of required.
func (r Role) Covers(required Role) bool {
	return r.Valid() && rank[r] >= rank[required]
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
