package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveAccessUnauthenticated(t *testing.T) {
	assert.True(t, ResolveAccess(RouteAuth, false, "").Allow)

	for _, route := range []string{
		RouteResidentApp, RouteAdminRequests, RouteAdminRestricted,
		RouteProfile, RouteProfileEdit, RouteCheckout, "nonsense",
	} {
		decision := ResolveAccess(route, false, "")
		assert.False(t, decision.Allow, route)
		assert.Equal(t, "/login", decision.RedirectTo, route)
	}
}

func TestResolveAccessAuthPagesBounce(t *testing.T) {
	assert.Equal(t, "/dashboard", ResolveAccess(RouteAuth, true, RoleResident).RedirectTo)
	assert.Equal(t, "/admin", ResolveAccess(RouteAuth, true, RoleAdmin).RedirectTo)
	assert.Equal(t, "/admin", ResolveAccess(RouteAuth, true, RoleEncoder).RedirectTo)
	assert.Equal(t, "/admin", ResolveAccess(RouteAuth, true, RoleCaptain).RedirectTo)
}

func TestResolveAccessResidentApp(t *testing.T) {
	assert.True(t, ResolveAccess(RouteResidentApp, true, RoleResident).Allow)

	for _, role := range []string{RoleAdmin, RoleEncoder, RoleCaptain} {
		decision := ResolveAccess(RouteResidentApp, true, role)
		assert.False(t, decision.Allow, role)
		assert.Equal(t, "/admin", decision.RedirectTo, role)
	}
}

func TestResolveAccessAdminRequests(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleEncoder, RoleCaptain} {
		assert.True(t, ResolveAccess(RouteAdminRequests, true, role).Allow, role)
	}

	decision := ResolveAccess(RouteAdminRequests, true, RoleResident)
	assert.False(t, decision.Allow)
	assert.Equal(t, "/dashboard", decision.RedirectTo)
}

func TestResolveAccessAdminRestricted(t *testing.T) {
	assert.True(t, ResolveAccess(RouteAdminRestricted, true, RoleAdmin).Allow)
	assert.True(t, ResolveAccess(RouteAdminRestricted, true, RoleCaptain).Allow)

	encoder := ResolveAccess(RouteAdminRestricted, true, RoleEncoder)
	assert.False(t, encoder.Allow)
	assert.Equal(t, "/admin", encoder.RedirectTo)

	resident := ResolveAccess(RouteAdminRestricted, true, RoleResident)
	assert.False(t, resident.Allow)
	assert.Equal(t, "/dashboard", resident.RedirectTo)
}

func TestResolveAccessProfileAndCheckout(t *testing.T) {
	for _, role := range []string{RoleResident, RoleAdmin, RoleEncoder, RoleCaptain} {
		assert.True(t, ResolveAccess(RouteProfile, true, role).Allow, role)
		assert.True(t, ResolveAccess(RouteCheckout, true, role).Allow, role)
	}
}

func TestResolveAccessProfileEdit(t *testing.T) {
	assert.True(t, ResolveAccess(RouteProfileEdit, true, RoleResident).Allow)

	for _, role := range []string{RoleAdmin, RoleEncoder, RoleCaptain} {
		decision := ResolveAccess(RouteProfileEdit, true, role)
		assert.False(t, decision.Allow, role)
		assert.Equal(t, "/profile", decision.RedirectTo, role)
	}
}

func TestResolveAccessUnknownRoute(t *testing.T) {
	assert.Equal(t, "/dashboard", ResolveAccess("mystery", true, RoleResident).RedirectTo)
	assert.Equal(t, "/admin", ResolveAccess("mystery", true, RoleCaptain).RedirectTo)
}

func TestRoleClassPredicates(t *testing.T) {
	assert.True(t, IsStaffRole(RoleAdmin))
	assert.True(t, IsStaffRole(RoleEncoder))
	assert.True(t, IsStaffRole(RoleCaptain))
	assert.False(t, IsStaffRole(RoleResident))
	assert.False(t, IsStaffRole(""))

	assert.True(t, IsAdminTierRole(RoleAdmin))
	assert.True(t, IsAdminTierRole(RoleCaptain))
	assert.False(t, IsAdminTierRole(RoleEncoder))
	assert.False(t, IsAdminTierRole(RoleResident))
}
