package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/barangaylink/barangaylink-backend/internal/models"
	"github.com/barangaylink/barangaylink-backend/internal/services"
)

// StatsHandler serves the staff dashboard and admin reporting numbers.
// Everything here is read-only aggregation; nothing in this file writes.
type StatsHandler struct {
	db       *sql.DB
	sessions *services.SessionService
}

func NewStatsHandler(db *sql.DB, sessions *services.SessionService) *StatsHandler {
	return &StatsHandler{db: db, sessions: sessions}
}

// periodStart resolves a reporting period name to its inclusive start time.
// Unknown names fall back to the last 30 days.
func periodStart(period string, now time.Time) time.Time {
	switch period {
	case "7d":
		return now.AddDate(0, 0, -7)
	case "90d":
		return now.AddDate(0, 0, -90)
	case "1y":
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -30)
	}
}

// monthStart truncates a time to the first instant of its month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

type statusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type dailyCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int    `json:"count"`
}

type monthlyCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}

type typeCount struct {
	DocumentType string `json:"document_type"`
	Count        int    `json:"count"`
}

// AdminStats returns the reporting block for the admin analytics page.
// Admin tier only.
func (h *StatsHandler) AdminStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminTier(w, r, h.sessions, h.db); !ok {
		return
	}

	now := time.Now()
	since := periodStart(r.URL.Query().Get("period"), now)
	thisMonth := monthStart(now)
	lastMonth := monthStart(now.AddDate(0, -1, 0))

	byStatus, total, err := h.countByStatus(r, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load statistics")
		return
	}

	var thisMonthCount, lastMonthCount int
	err = h.db.QueryRowContext(r.Context(), `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= $1),
			COUNT(*) FILTER (WHERE created_at >= $2 AND created_at < $1)
		FROM requests
	`, thisMonth, lastMonth).Scan(&thisMonthCount, &lastMonthCount)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load statistics")
		return
	}

	daily, err := h.dailySeries(r, now.AddDate(0, 0, -7))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load statistics")
		return
	}

	monthly, err := h.monthlySeries(r, monthStart(now.AddDate(0, -5, 0)))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load statistics")
		return
	}

	byType, err := h.typeDistribution(r, since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load statistics")
		return
	}

	var cancelled, cancelledPrev int
	prevSince := since.Add(-now.Sub(since))
	err = h.db.QueryRowContext(r.Context(), `
		SELECT
			COUNT(*) FILTER (WHERE status = $1 AND updated_at >= $2),
			COUNT(*) FILTER (WHERE status = $1 AND updated_at >= $3 AND updated_at < $2)
		FROM requests
	`, services.StatusCancelled, since, prevSince).Scan(&cancelled, &cancelledPrev)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load statistics")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats": map[string]interface{}{
			"total":               total,
			"by_status":           byStatus,
			"this_month":          thisMonthCount,
			"last_month":          lastMonthCount,
			"daily":               daily,
			"monthly":             monthly,
			"by_document_type":    byType,
			"cancelled":           cancelled,
			"cancelled_previous":  cancelledPrev,
			"period_start":        since,
		},
	})
}

// Dashboard returns the lightweight numbers for the staff landing page:
// status counts plus the most recent requests. Staff only.
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireStaff(w, r, h.sessions, h.db); !ok {
		return
	}

	byStatus, total, err := h.countByStatus(r, time.Time{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT `+requestColumns+`, COALESCE(p.full_name, ''), COALESCE(p.email, '')
		FROM requests r
		JOIN document_types dt ON dt.id = r.document_type_id
		LEFT JOIN profiles p ON p.id = r.user_id
		ORDER BY r.created_at DESC
		LIMIT 10
	`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}
	defer rows.Close()

	recent := []models.Request{}
	for rows.Next() {
		var req models.Request
		if err := scanRequest(rows, &req, &req.ResidentName, &req.ResidentEmail); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load dashboard")
			return
		}
		recent = append(recent, req)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"total":     total,
		"by_status": byStatus,
		"recent":    recent,
	})
}

// countByStatus counts requests per status. A zero since counts everything.
func (h *StatsHandler) countByStatus(r *http.Request, since time.Time) ([]statusCount, int, error) {
	query := `SELECT status, COUNT(*) FROM requests`
	args := []interface{}{}
	if !since.IsZero() {
		query += ` WHERE created_at >= $1`
		args = append(args, since)
	}
	query += ` GROUP BY status ORDER BY status`

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	counts := []statusCount{}
	total := 0
	for rows.Next() {
		var sc statusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, 0, err
		}
		sc.Status = services.NormalizeStatus(sc.Status)
		counts = append(counts, sc)
		total += sc.Count
	}
	return counts, total, rows.Err()
}

func (h *StatsHandler) dailySeries(r *http.Request, since time.Time) ([]dailyCount, error) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT TO_CHAR(DATE_TRUNC('day', created_at), 'YYYY-MM-DD') AS day, COUNT(*)
		FROM requests
		WHERE created_at >= $1
		GROUP BY day ORDER BY day
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	series := []dailyCount{}
	for rows.Next() {
		var dc dailyCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		series = append(series, dc)
	}
	return series, rows.Err()
}

func (h *StatsHandler) monthlySeries(r *http.Request, since time.Time) ([]monthlyCount, error) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT TO_CHAR(DATE_TRUNC('month', created_at), 'YYYY-MM') AS month, COUNT(*)
		FROM requests
		WHERE created_at >= $1
		GROUP BY month ORDER BY month
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	series := []monthlyCount{}
	for rows.Next() {
		var mc monthlyCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		series = append(series, mc)
	}
	return series, rows.Err()
}

func (h *StatsHandler) typeDistribution(r *http.Request, since time.Time) ([]typeCount, error) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT dt.name, COUNT(*)
		FROM requests req
		JOIN document_types dt ON dt.id = req.document_type_id
		WHERE req.created_at >= $1
		GROUP BY dt.name ORDER BY COUNT(*) DESC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := []typeCount{}
	for rows.Next() {
		var tc typeCount
		if err := rows.Scan(&tc.DocumentType, &tc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}
