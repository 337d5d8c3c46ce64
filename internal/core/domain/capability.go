package domain

import "strings"

// Role is a requester role as resolved by the authentication collaborator.
type Role string

// Known roles, least privileged first.
const (
	// RoleEmployee may ask questions and list the documents visible to it.
	RoleEmployee Role = "employee"

	// RoleAdmin may additionally upload, delete and read analytics.
	RoleAdmin Role = "admin"
)

// ParseRole normalises a role name. Unknown or empty names resolve to the
// least-privileged role, never to admin.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleEmployee
	}
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// AllowedRolesFor returns the chunk role set for an upload target-role tag.
// Admin-only documents are hidden from employees; every other tag is visible to both.
func AllowedRolesFor(tag string) []Role {
	if ParseRole(tag) == RoleAdmin {
		return []Role{RoleAdmin}
	}
	return []Role{RoleEmployee, RoleAdmin}
}

// Permission is a bitfield of operations a caller may perform.
type Permission uint8

const (
	// PermAsk allows asking questions and listing visible documents.
	PermAsk Permission = 1 << iota
	// PermUpload allows ingesting documents.
	PermUpload
	// PermManage allows deleting documents.
	PermManage
	// PermAnalytics allows reading query logs and accuracy.
	PermAnalytics
)

// Has returns true if every bit of p is granted.
func (c Permission) Has(p Permission) bool {
	return c&p == p
}

// String returns a human-readable representation.
func (c Permission) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, n := range []struct {
		p    Permission
		name string
	}{
		{PermAsk, "ask"},
		{PermUpload, "upload"},
		{PermManage, "manage"},
		{PermAnalytics, "analytics"},
	} {
		if c.Has(n.p) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ",")
}

// Principal is the identity attached to a request.
type Principal struct {
	UserID      string
	DisplayName string
	Role        Role
}

// Anonymous returns the principal used when no identity was supplied.
func Anonymous() Principal {
	return Principal{UserID: "anonymous", DisplayName: "guest_user", Role: RoleEmployee}
}

// Capabilities is the single evaluated {role, permissions} value for a request.
// It is computed once at the edge and passed down unchanged.
type Capabilities struct {
	Principal   Principal
	Role        Role
	Permissions Permission
}

// EvaluateCapabilities resolves the permissions of a principal.
func EvaluateCapabilities(p Principal) Capabilities {
	role := ParseRole(string(p.Role))
	p.Role = role
	perms := PermAsk
	if role == RoleAdmin {
		perms |= PermUpload | PermManage | PermAnalytics
	}
	return Capabilities{Principal: p, Role: role, Permissions: perms}
}

// Can returns true if the capabilities include the permission.
func (c Capabilities) Can(p Permission) bool {
	return c.Permissions.Has(p)
}

// Require returns ErrForbidden unless the permission is granted.
func (c Capabilities) Require(p Permission) error {
	if !c.Can(p) {
		return ErrForbidden
	}
	return nil
}
