package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/barangaylink/barangaylink-backend/internal/services"
)

// AuthContext identifies the authenticated principal for a request.
type AuthContext struct {
	UserID uuid.UUID
	Role   string
}

func (a *AuthContext) IsStaff() bool     { return services.IsStaffRole(a.Role) }
func (a *AuthContext) IsAdminTier() bool { return services.IsAdminTierRole(a.Role) }

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "message": message})
}

// extractBearerToken pulls the token out of an Authorization header.
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// authenticate resolves the session token into an AuthContext. The role comes
// from the profile row; a session without a profile behaves as a resident
// with no elevated access.
func authenticate(r *http.Request, sessions *services.SessionService, db *sql.DB) (*AuthContext, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		// Browser WebSocket clients cannot set headers
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil, false
	}

	userID, ok, err := sessions.Validate(r.Context(), token)
	if err != nil || !ok {
		return nil, false
	}

	role := services.RoleResident
	err = db.QueryRowContext(r.Context(), `SELECT role FROM profiles WHERE id = $1`, userID).Scan(&role)
	if err != nil && err != sql.ErrNoRows {
		log.Printf("[auth] failed to resolve role for %s: %v", userID, err)
	}

	return &AuthContext{UserID: userID, Role: role}, true
}

// requireAuth writes 401 and returns false when the request carries no valid session.
func requireAuth(w http.ResponseWriter, r *http.Request, sessions *services.SessionService, db *sql.DB) (*AuthContext, bool) {
	auth, ok := authenticate(r, sessions, db)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return auth, true
}

// requireStaff gates staff-only operations (admin, encoder, captain).
func requireStaff(w http.ResponseWriter, r *http.Request, sessions *services.SessionService, db *sql.DB) (*AuthContext, bool) {
	auth, ok := requireAuth(w, r, sessions, db)
	if !ok {
		return nil, false
	}
	if !auth.IsStaff() {
		writeError(w, http.StatusForbidden, "Staff access required")
		return nil, false
	}
	return auth, true
}

// requireAdminTier gates analytics/settings operations (admin, captain).
func requireAdminTier(w http.ResponseWriter, r *http.Request, sessions *services.SessionService, db *sql.DB) (*AuthContext, bool) {
	auth, ok := requireAuth(w, r, sessions, db)
	if !ok {
		return nil, false
	}
	if !auth.IsAdminTier() {
		writeError(w, http.StatusForbidden, "Admin access required")
		return nil, false
	}
	return auth, true
}
