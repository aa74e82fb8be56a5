package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/barangaylink/barangaylink-backend/internal/models"
	"github.com/barangaylink/barangaylink-backend/internal/services"
)

// ProfileHandler manages resident profile reads and updates.
type ProfileHandler struct {
	db       *sql.DB
	sessions *services.SessionService
}

func NewProfileHandler(db *sql.DB, sessions *services.SessionService) *ProfileHandler {
	return &ProfileHandler{db: db, sessions: sessions}
}

func fetchProfile(r *http.Request, db *sql.DB, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := db.QueryRowContext(r.Context(), `
		SELECT id, email, COALESCE(full_name, ''), COALESCE(mobile, ''), COALESCE(address, ''),
		       birth_date, COALESCE(role, 'resident'), COALESCE(status, 'active'), created_at
		FROM profiles WHERE id = $1
	`, userID).Scan(&p.ID, &p.Email, &p.FullName, &p.Mobile, &p.Address,
		&p.BirthDate, &p.Role, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type UpdateProfileRequest struct {
	FullName  *string `json:"full_name,omitempty"`
	Mobile    *string `json:"mobile,omitempty"`
	Address   *string `json:"address,omitempty"`
	BirthDate *string `json:"birth_date,omitempty"` // YYYY-MM-DD
	Email     *string `json:"email,omitempty"`
}

// UpdateProfile applies partial edits to the caller's profile. An email
// change is mirrored into the users table; if that mirror write fails the
// profile email is restored so both stores keep agreeing.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	current, err := fetchProfile(r, h.db, auth.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Profile not found")
		return
	}

	setClauses := []string{}
	args := []interface{}{}
	idx := 1
	addSet := func(column string, value interface{}) {
		setClauses = append(setClauses, column+" = $"+strconv.Itoa(idx))
		args = append(args, value)
		idx++
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			writeError(w, http.StatusBadRequest, "Full name cannot be empty")
			return
		}
		addSet("full_name", name)
	}
	if req.Mobile != nil {
		addSet("mobile", strings.TrimSpace(*req.Mobile))
	}
	if req.Address != nil {
		addSet("address", strings.TrimSpace(*req.Address))
	}
	if req.BirthDate != nil {
		if *req.BirthDate == "" {
			addSet("birth_date", nil)
		} else {
			birthDate, parseErr := time.Parse("2006-01-02", *req.BirthDate)
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "Birth date must be in YYYY-MM-DD format")
				return
			}
			addSet("birth_date", birthDate)
		}
	}

	newEmail := ""
	if req.Email != nil {
		newEmail = strings.ToLower(strings.TrimSpace(*req.Email))
		if newEmail == "" || !strings.Contains(newEmail, "@") {
			writeError(w, http.StatusBadRequest, "Invalid email address")
			return
		}
		if newEmail != current.Email {
			var taken string
			err := h.db.QueryRowContext(r.Context(), `SELECT email FROM users WHERE email = $1 AND id != $2`, newEmail, auth.UserID).Scan(&taken)
			if err == nil {
				writeError(w, http.StatusConflict, "An account with this email already exists")
				return
			} else if err != sql.ErrNoRows {
				writeError(w, http.StatusInternalServerError, "Database error")
				return
			}
			addSet("email", newEmail)
		} else {
			newEmail = ""
		}
	}

	if len(setClauses) == 0 {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	args = append(args, auth.UserID)
	query := "UPDATE profiles SET " + strings.Join(setClauses, ", ") + " WHERE id = $" + strconv.Itoa(idx)
	if _, err := h.db.ExecContext(r.Context(), query, args...); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile: "+err.Error())
		return
	}

	if newEmail != "" {
		if _, err := h.db.ExecContext(r.Context(), `UPDATE users SET email = $1 WHERE id = $2`, newEmail, auth.UserID); err != nil {
			// Roll the profile email back so the two stores stay consistent
			if _, rbErr := h.db.ExecContext(r.Context(), `UPDATE profiles SET email = $1 WHERE id = $2`, current.Email, auth.UserID); rbErr != nil {
				log.Printf("[UpdateProfile] email rollback failed for %s: %v", auth.UserID, rbErr)
			}
			writeError(w, http.StatusInternalServerError, "Failed to update email")
			return
		}
	}

	updated, err := fetchProfile(r, h.db, auth.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load updated profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Profile updated successfully",
		"profile": updated,
	})
}

// GetProfileByID lets staff look up any resident profile.
func (h *ProfileHandler) GetProfileByID(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireStaff(w, r, h.sessions, h.db); !ok {
		return
	}

	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	profile, err := fetchProfile(r, h.db, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Profile not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "profile": profile})
}
