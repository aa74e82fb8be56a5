package services

// Role tokens stored on profiles.role.
const (
	RoleResident = "resident"
	RoleEncoder  = "encoder"
	RoleCaptain  = "captain"
	RoleAdmin    = "admin"
)

// IsStaffRole reports whether role belongs to the staff class.
func IsStaffRole(role string) bool {
	return role == RoleAdmin || role == RoleEncoder || role == RoleCaptain
}

// IsAdminTierRole reports whether role may reach admin analytics/settings.
func IsAdminTierRole(role string) bool {
	return role == RoleAdmin || role == RoleCaptain
}

// Route classes the SPA router resolves against.
const (
	RouteAuth            = "auth"             // login, register, forgot/reset password
	RouteResidentApp     = "resident"         // dashboard, new-request, history
	RouteAdminRequests   = "admin-requests"   // admin dashboard, request management
	RouteAdminRestricted = "admin-restricted" // analytics, settings
	RouteProfile         = "profile"
	RouteProfileEdit     = "profile-edit"
	RouteCheckout        = "checkout"
)

// Redirect targets.
const (
	pathLogin     = "/login"
	pathDashboard = "/dashboard"
	pathAdmin     = "/admin"
	pathProfile   = "/profile"
)

// AccessDecision is the outcome of resolving a route against a session.
type AccessDecision struct {
	Allow      bool   `json:"allow"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

func allow() AccessDecision               { return AccessDecision{Allow: true} }
func redirect(path string) AccessDecision { return AccessDecision{RedirectTo: path} }

// homeFor is where an authenticated principal lands by default.
func homeFor(role string) string {
	if IsStaffRole(role) {
		return pathAdmin
	}
	return pathDashboard
}

// ResolveAccess decides route accessibility as a pure function of
// (authenticated, role). Unauthorized access never errors; it redirects,
// so route existence is not leaked.
func ResolveAccess(route string, authenticated bool, role string) AccessDecision {
	if !authenticated {
		if route == RouteAuth {
			return allow()
		}
		return redirect(pathLogin)
	}

	switch route {
	case RouteAuth:
		return redirect(homeFor(role))
	case RouteResidentApp:
		if IsStaffRole(role) {
			return redirect(pathAdmin)
		}
		return allow()
	case RouteAdminRequests:
		if IsStaffRole(role) {
			return allow()
		}
		return redirect(pathDashboard)
	case RouteAdminRestricted:
		if IsAdminTierRole(role) {
			return allow()
		}
		if IsStaffRole(role) {
			return redirect(pathAdmin)
		}
		return redirect(pathDashboard)
	case RouteProfile, RouteCheckout:
		return allow()
	case RouteProfileEdit:
		if role == RoleResident {
			return allow()
		}
		return redirect(pathProfile)
	default:
		// Unknown routes fall back to the principal's home.
		return redirect(homeFor(role))
	}
}
