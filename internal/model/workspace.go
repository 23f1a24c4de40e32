package model

import "time"

// Role is a workspace role. Roles form a strict hierarchy and every
// privilege comparison goes through Level(); string equality is never used
// for authorization so that OWNER always satisfies an ADMIN or MEMBER
// requirement.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// Level maps a role onto the hierarchy OWNER(3) > ADMIN(2) > MEMBER(1).
// Unrecognized roles rank below everything.
func (r Role) Level() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleMember:
		return 1
	default:
		return 0
	}
}

// ParseRole normalizes a client-supplied role string. ok is false for
// anything outside the known set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleMember:
		return Role(s), true
	default:
		return "", false
	}
}

// Workspace mirrors the 'workspaces' table.
type Workspace struct {
	ID        uint64
	Name      string
	CreatedBy uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership mirrors the 'workspace_members' table, a ternary relation of
// workspace, user and role with a composite unique key on (workspace, user).
type Membership struct {
	WorkspaceID uint64
	UserID      uint64
	Role        Role
	CreatedAt   time.Time
}

// MemberDetail is a membership joined with the member's user row, as listed
// to other workspace members.
type MemberDetail struct {
	UserID   uint64    `json:"user_id"`
	Email    string    `json:"email"`
	Name     *string   `json:"name"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
