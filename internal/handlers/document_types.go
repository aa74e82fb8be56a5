package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/barangaylink/barangaylink-backend/internal/models"
	"github.com/barangaylink/barangaylink-backend/internal/services"
)

// DocumentTypeHandler serves the catalog of requestable documents.
type DocumentTypeHandler struct {
	db       *sql.DB
	sessions *services.SessionService
	cache    *services.CacheService
}

func NewDocumentTypeHandler(db *sql.DB, sessions *services.SessionService, cache *services.CacheService) *DocumentTypeHandler {
	return &DocumentTypeHandler{db: db, sessions: sessions, cache: cache}
}

// ListActive returns every active document type, cheapest-name-first is left
// to the client; results come from Redis when warm.
func (h *DocumentTypeHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	var cached []models.DocumentType
	if hit, err := h.cache.Get(r.Context(), services.CacheKeyActiveDocumentTypes, &cached); err == nil && hit {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "document_types": cached})
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, name, COALESCE(description, ''), price, COALESCE(requirements, ''), processing_days, is_active, created_at, updated_at
		FROM document_types WHERE is_active = TRUE ORDER BY name ASC
	`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load document types")
		return
	}
	defer rows.Close()

	types, err := scanDocumentTypes(rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load document types")
		return
	}

	if err := h.cache.Set(r.Context(), services.CacheKeyActiveDocumentTypes, types); err != nil {
		log.Printf("[DocumentTypes] cache write failed: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "document_types": types})
}

// ListAll returns the full catalog including inactive entries. Staff only.
func (h *DocumentTypeHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireStaff(w, r, h.sessions, h.db); !ok {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, name, COALESCE(description, ''), price, COALESCE(requirements, ''), processing_days, is_active, created_at, updated_at
		FROM document_types ORDER BY name ASC
	`)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load document types")
		return
	}
	defer rows.Close()

	types, err := scanDocumentTypes(rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load document types")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "document_types": types})
}

func scanDocumentTypes(rows *sql.Rows) ([]models.DocumentType, error) {
	types := []models.DocumentType{}
	for rows.Next() {
		var dt models.DocumentType
		if err := rows.Scan(&dt.ID, &dt.Name, &dt.Description, &dt.Price, &dt.Requirements, &dt.ProcessingDays, &dt.IsActive, &dt.CreatedAt, &dt.UpdatedAt); err != nil {
			return nil, err
		}
		types = append(types, dt)
	}
	return types, rows.Err()
}

type DocumentTypeRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Price          *float64 `json:"price"`
	Requirements   string   `json:"requirements"`
	ProcessingDays *int     `json:"processing_days"`
}

func validateDocumentTypeRequest(req *DocumentTypeRequest) string {
	if strings.TrimSpace(req.Name) == "" {
		return "Name is required"
	}
	if req.Price == nil || *req.Price < 0 {
		return "Price must be zero or greater"
	}
	if req.ProcessingDays == nil || *req.ProcessingDays <= 0 {
		return "Processing days must be greater than zero"
	}
	return ""
}

// roundPeso keeps catalog prices at centavo precision.
func roundPeso(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// Create adds a new document type. Admin tier only.
func (h *DocumentTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminTier(w, r, h.sessions, h.db); !ok {
		return
	}

	var req DocumentTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateDocumentTypeRequest(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var dt models.DocumentType
	err := h.db.QueryRowContext(r.Context(), `
		INSERT INTO document_types (name, description, price, requirements, processing_days, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, name, COALESCE(description, ''), price, COALESCE(requirements, ''), processing_days, is_active, created_at, updated_at
	`, strings.TrimSpace(req.Name), req.Description, roundPeso(*req.Price), req.Requirements, *req.ProcessingDays).
		Scan(&dt.ID, &dt.Name, &dt.Description, &dt.Price, &dt.Requirements, &dt.ProcessingDays, &dt.IsActive, &dt.CreatedAt, &dt.UpdatedAt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create document type: "+err.Error())
		return
	}

	h.invalidateCatalogCache(r)

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "document_type": dt})
}

// Update replaces the mutable fields of a document type. Admin tier only.
func (h *DocumentTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminTier(w, r, h.sessions, h.db); !ok {
		return
	}

	typeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document type ID")
		return
	}

	var req DocumentTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateDocumentTypeRequest(&req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	var dt models.DocumentType
	err = h.db.QueryRowContext(r.Context(), `
		UPDATE document_types
		SET name = $1, description = $2, price = $3, requirements = $4, processing_days = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING id, name, COALESCE(description, ''), price, COALESCE(requirements, ''), processing_days, is_active, created_at, updated_at
	`, strings.TrimSpace(req.Name), req.Description, roundPeso(*req.Price), req.Requirements, *req.ProcessingDays, typeID).
		Scan(&dt.ID, &dt.Name, &dt.Description, &dt.Price, &dt.Requirements, &dt.ProcessingDays, &dt.IsActive, &dt.CreatedAt, &dt.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Document type not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to update document type: "+err.Error())
		}
		return
	}

	h.invalidateCatalogCache(r)

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "document_type": dt})
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

// SetActive toggles catalog visibility. Deactivation hides the type from
// residents but leaves existing requests untouched.
func (h *DocumentTypeHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdminTier(w, r, h.sessions, h.db); !ok {
		return
	}

	typeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document type ID")
		return
	}

	var req SetActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "is_active is required")
		return
	}

	result, err := h.db.ExecContext(r.Context(), `UPDATE document_types SET is_active = $1, updated_at = NOW() WHERE id = $2`, *req.IsActive, typeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update document type: "+err.Error())
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		writeError(w, http.StatusNotFound, "Document type not found")
		return
	}

	h.invalidateCatalogCache(r)

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Document type updated"})
}

func (h *DocumentTypeHandler) invalidateCatalogCache(r *http.Request) {
	if err := h.cache.Delete(r.Context(), services.CacheKeyActiveDocumentTypes); err != nil {
		log.Printf("[DocumentTypes] cache invalidation failed: %v", err)
	}
}
