package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleAdmin, ParseRole(" ADMIN "))
	assert.Equal(t, RoleEmployee, ParseRole("employee"))
	assert.Equal(t, RoleEmployee, ParseRole(""))
	assert.Equal(t, RoleEmployee, ParseRole("superuser"))
}

func TestAllowedRolesFor(t *testing.T) {
	assert.Equal(t, []Role{RoleAdmin}, AllowedRolesFor("admin"))
	assert.Equal(t, []Role{RoleEmployee, RoleAdmin}, AllowedRolesFor("employee"))
	assert.Equal(t, []Role{RoleEmployee, RoleAdmin}, AllowedRolesFor(""))
}

func TestEvaluateCapabilities_Employee(t *testing.T) {
	caps := EvaluateCapabilities(Principal{UserID: "u1", Role: "employee"})

	assert.Equal(t, RoleEmployee, caps.Role)
	assert.True(t, caps.Can(PermAsk))
	assert.False(t, caps.Can(PermUpload))
	assert.False(t, caps.Can(PermManage))
	assert.False(t, caps.Can(PermAnalytics))
	assert.ErrorIs(t, caps.Require(PermUpload), ErrForbidden)
	assert.NoError(t, caps.Require(PermAsk))
}

func TestEvaluateCapabilities_Admin(t *testing.T) {
	caps := EvaluateCapabilities(Principal{UserID: "a1", Role: "admin"})

	assert.Equal(t, RoleAdmin, caps.Role)
	assert.Equal(t, RoleAdmin, caps.Principal.Role)
	assert.True(t, caps.Can(PermAsk|PermUpload|PermManage|PermAnalytics))
	assert.Equal(t, "ask,upload,manage,analytics", caps.Permissions.String())
}

func TestEvaluateCapabilities_UnknownRoleIsLeastPrivileged(t *testing.T) {
	caps := EvaluateCapabilities(Principal{UserID: "x", Role: "root"})
	assert.Equal(t, RoleEmployee, caps.Role)
	assert.Equal(t, "ask", caps.Permissions.String())
}

func TestAnonymous(t *testing.T) {
	caps := EvaluateCapabilities(Anonymous())
	assert.Equal(t, RoleEmployee, caps.Role)
	assert.Equal(t, "guest_user", caps.Principal.DisplayName)
}

func TestPermission_StringNone(t *testing.T) {
	assert.Equal(t, "none", Permission(0).String())
}

func TestDocumentChunk_VisibleTo(t *testing.T) {
	chunk := DocumentChunk{AllowedRoles: AllowedRolesFor("admin")}
	assert.True(t, chunk.VisibleTo(RoleAdmin))
	assert.False(t, chunk.VisibleTo(RoleEmployee))
}

func TestPage_Ref(t *testing.T) {
	assert.Equal(t, "3", Page{Number: 3}.Ref())
	assert.Equal(t, PageRefMulti, Page{}.Ref())
}
