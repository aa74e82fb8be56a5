package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/barangaylink/barangaylink-backend/internal/models"
	"github.com/barangaylink/barangaylink-backend/internal/services"
)

// RequestHandler owns the document-request lifecycle.
type RequestHandler struct {
	db              *sql.DB
	sessions        *services.SessionService
	storage         *services.StorageService
	hub             *services.EventHub
	idUploadsFolder string
}

func NewRequestHandler(db *sql.DB, sessions *services.SessionService, storage *services.StorageService, hub *services.EventHub, idUploadsFolder string) *RequestHandler {
	return &RequestHandler{
		db:              db,
		sessions:        sessions,
		storage:         storage,
		hub:             hub,
		idUploadsFolder: idUploadsFolder,
	}
}

const requestColumns = `
	r.id, r.user_id, r.document_type_id, r.tracking_number, r.status, r.purpose,
	COALESCE(r.id_image_url, ''), COALESCE(r.id_image_back_url, ''), COALESCE(r.admin_notes, ''),
	r.signed_document_url, r.processed_by, r.payment_status, r.stripe_payment_intent_id, r.payment_date,
	r.created_at, r.updated_at,
	dt.name, dt.price`

func scanRequest(scanner interface {
	Scan(dest ...interface{}) error
}, req *models.Request, extra ...interface{}) error {
	dest := []interface{}{
		&req.ID, &req.UserID, &req.DocumentTypeID, &req.TrackingNumber, &req.Status, &req.Purpose,
		&req.IDImageURL, &req.IDImageBackURL, &req.AdminNotes,
		&req.SignedDocumentURL, &req.ProcessedBy, &req.PaymentStatus, &req.StripePaymentIntentID, &req.PaymentDate,
		&req.CreatedAt, &req.UpdatedAt,
		&req.DocumentTypeName, &req.DocumentTypePrice,
	}
	dest = append(dest, extra...)
	return scanner.Scan(dest...)
}

// Create files a new document request from a multipart form. Both ID images
// are uploaded to storage before the row is inserted so a failed upload never
// leaves a half-formed request behind.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}
	if h.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "File storage is not configured")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	documentTypeID, err := uuid.Parse(r.FormValue("document_type_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document type ID")
		return
	}
	purpose := strings.TrimSpace(r.FormValue("purpose"))
	if purpose == "" {
		writeError(w, http.StatusBadRequest, "Purpose is required")
		return
	}

	var typeActive bool
	err = h.db.QueryRowContext(r.Context(), `SELECT is_active FROM document_types WHERE id = $1`, documentTypeID).Scan(&typeActive)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Document type not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}
	if !typeActive {
		writeError(w, http.StatusBadRequest, "This document type is no longer available")
		return
	}

	frontFile, frontHeader, err := r.FormFile("id_front")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Front ID image is required")
		return
	}
	defer frontFile.Close()
	backFile, backHeader, err := r.FormFile("id_back")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Back ID image is required")
		return
	}
	defer backFile.Close()

	if err := validateIDImage(frontHeader); err != nil {
		writeError(w, http.StatusBadRequest, "Front ID image: "+err.Error())
		return
	}
	if err := validateIDImage(backHeader); err != nil {
		writeError(w, http.StatusBadRequest, "Back ID image: "+err.Error())
		return
	}

	// Uploads happen first. Only after both objects exist does the request
	// row get inserted.
	frontToken, err := services.NewUploadToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to upload ID image")
		return
	}
	frontObj, err := h.storage.Upload(r.Context(), frontFile, services.IDImageKey(h.idUploadsFolder, auth.UserID, "id-front", frontToken))
	if err != nil {
		log.Printf("[CreateRequest] front ID upload failed for %s: %v", auth.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to upload ID image")
		return
	}

	backToken, err := services.NewUploadToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to upload ID image")
		return
	}
	backObj, err := h.storage.Upload(r.Context(), backFile, services.IDImageKey(h.idUploadsFolder, auth.UserID, "id-back", backToken))
	if err != nil {
		log.Printf("[CreateRequest] back ID upload failed for %s: %v", auth.UserID, err)
		writeError(w, http.StatusInternalServerError, "Failed to upload ID image")
		return
	}

	requestID := uuid.New()
	var trackingNumber string
	inserted := false
	for attempt := 0; attempt < 5; attempt++ {
		trackingNumber, err = services.NewTrackingNumber(time.Now())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to generate tracking number")
			return
		}

		_, err = h.db.ExecContext(r.Context(), `
			INSERT INTO requests (id, user_id, document_type_id, tracking_number, status, purpose, id_image_url, id_image_back_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, requestID, auth.UserID, documentTypeID, trackingNumber, services.StatusPending, purpose, frontObj.SecureURL, backObj.SecureURL)
		if err == nil {
			inserted = true
			break
		}
		if pqErr, isPq := err.(*pq.Error); isPq && pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, "tracking_number") {
			continue // collision, regenerate
		}
		writeError(w, http.StatusInternalServerError, "Failed to create request: "+err.Error())
		return
	}
	if !inserted {
		writeError(w, http.StatusInternalServerError, "Failed to allocate a tracking number")
		return
	}

	// Optional extra requirement files. Failures here do not sink the
	// request that already exists.
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["additional_documents"] {
			if err := h.attachRequirementFile(r, auth.UserID, requestID, header); err != nil {
				log.Printf("[CreateRequest] additional document %s skipped: %v", header.Filename, err)
			}
		}
	}

	if err := h.hub.Publish(r.Context(), services.RequestEvent{
		Type:           "request_created",
		RequestID:      requestID.String(),
		TrackingNumber: trackingNumber,
		NewStatus:      services.StatusPending,
		Timestamp:      time.Now(),
	}); err != nil {
		log.Printf("[CreateRequest] event publish failed: %v", err)
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Request submitted successfully",
		"request": map[string]interface{}{
			"id":              requestID.String(),
			"tracking_number": trackingNumber,
			"status":          services.StatusPending,
		},
	})
}

func (h *RequestHandler) attachRequirementFile(r *http.Request, ownerID, requestID uuid.UUID, header *multipart.FileHeader) error {
	if err := validateIDImage(header); err != nil {
		return err
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	token, err := services.NewUploadToken()
	if err != nil {
		return err
	}
	key := services.AttachmentKey(h.idUploadsFolder, ownerID, requestID, models.CategoryAdditionalDocument, token)
	obj, err := h.storage.Upload(r.Context(), file, key)
	if err != nil {
		return err
	}

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO resident_documents (request_id, file_path, file_name, file_type, file_size, file_url, uploaded_by, document_category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, requestID, obj.PublicID, header.Filename, uploadContentType(header), header.Size, obj.SecureURL, ownerID, models.CategoryAdditionalDocument)
	return err
}

// ListMine returns the caller's own requests, newest first.
func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT `+requestColumns+`
		FROM requests r
		JOIN document_types dt ON dt.id = r.document_type_id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC
	`, auth.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load requests")
		return
	}
	defer rows.Close()

	requests := []models.Request{}
	for rows.Next() {
		var req models.Request
		if err := scanRequest(rows, &req); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load requests")
			return
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load requests")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "requests": requests})
}

// ListAll returns every request for staff, filterable by status and by a
// case-insensitive search over tracking number, resident name and email.
// A leading '#' on the search term is ignored.
func (h *RequestHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireStaff(w, r, h.sessions, h.db); !ok {
		return
	}

	query := `
		SELECT ` + requestColumns + `, COALESCE(p.full_name, ''), COALESCE(p.email, '')
		FROM requests r
		JOIN document_types dt ON dt.id = r.document_type_id
		LEFT JOIN profiles p ON p.id = r.user_id
	`
	conditions := []string{}
	args := []interface{}{}

	if status := r.URL.Query().Get("status"); status != "" {
		normalized := services.NormalizeStatus(status)
		if !services.IsValidStatus(normalized) {
			writeError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		args = append(args, normalized)
		conditions = append(conditions, "r.status = $1")
	}
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		search = strings.TrimPrefix(search, "#")
		args = append(args, "%"+search+"%")
		placeholder := "$" + strconv.Itoa(len(args))
		conditions = append(conditions, "(r.tracking_number ILIKE "+placeholder+
			" OR p.full_name ILIKE "+placeholder+" OR p.email ILIKE "+placeholder+
			" OR dt.name ILIKE "+placeholder+")")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.created_at DESC"

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load requests")
		return
	}
	defer rows.Close()

	requests := []models.Request{}
	for rows.Next() {
		var req models.Request
		if err := scanRequest(rows, &req, &req.ResidentName, &req.ResidentEmail); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load requests")
			return
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load requests")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "requests": requests})
}

// Get returns a single request. Residents can only read their own.
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var req models.Request
	row := h.db.QueryRowContext(r.Context(), `
		SELECT `+requestColumns+`, COALESCE(p.full_name, ''), COALESCE(p.email, '')
		FROM requests r
		JOIN document_types dt ON dt.id = r.document_type_id
		LEFT JOIN profiles p ON p.id = r.user_id
		WHERE r.id = $1
	`, requestID)
	if err := scanRequest(row, &req, &req.ResidentName, &req.ResidentEmail); err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Request not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if req.UserID != auth.UserID && !auth.IsStaff() {
		writeError(w, http.StatusForbidden, "You do not have access to this request")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "request": req})
}

// GetHistory returns the request's status audit trail, oldest first.
func (h *RequestHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	ownerID, err := h.requestOwner(r, requestID)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Request not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}
	if ownerID != auth.UserID && !auth.IsStaff() {
		writeError(w, http.StatusForbidden, "You do not have access to this request")
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT sh.id, sh.request_id, COALESCE(sh.old_status, ''), sh.new_status,
		       COALESCE(sh.notes, ''), sh.changed_by, COALESCE(p.full_name, ''), sh.created_at
		FROM status_history sh
		LEFT JOIN profiles p ON p.id = sh.changed_by
		WHERE sh.request_id = $1
		ORDER BY sh.created_at ASC
	`, requestID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load status history")
		return
	}
	defer rows.Close()

	history := []models.StatusHistoryEntry{}
	for rows.Next() {
		var entry models.StatusHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.RequestID, &entry.OldStatus, &entry.NewStatus,
			&entry.Notes, &entry.ChangedBy, &entry.ChangedName, &entry.CreatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load status history")
			return
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load status history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "history": history})
}

func (h *RequestHandler) requestOwner(r *http.Request, requestID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := h.db.QueryRowContext(r.Context(), `SELECT user_id FROM requests WHERE id = $1`, requestID).Scan(&ownerID)
	return ownerID, err
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// UpdateStatus moves a request through the lifecycle. Staff only. Terminal
// requests stay put, and nobody but the resident can cancel.
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireStaff(w, r, h.sessions, h.db)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	newStatus := services.NormalizeStatus(req.Status)
	if !services.IsValidStatus(newStatus) {
		writeError(w, http.StatusBadRequest, "Invalid status: "+req.Status)
		return
	}
	if newStatus == services.StatusCancelled {
		writeError(w, http.StatusConflict, "Only the resident can cancel a request")
		return
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var currentStatus, trackingNumber string
	err = tx.QueryRowContext(r.Context(), `
		SELECT status, tracking_number FROM requests WHERE id = $1 FOR UPDATE
	`, requestID).Scan(&currentStatus, &trackingNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Request not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	currentStatus = services.NormalizeStatus(currentStatus)
	if !services.CanStaffTransition(currentStatus, newStatus) {
		writeError(w, http.StatusConflict,
			"Cannot change status from "+services.FormatStatus(currentStatus)+" to "+services.FormatStatus(newStatus))
		return
	}

	_, err = tx.ExecContext(r.Context(), `
		UPDATE requests
		SET status = $1,
		    admin_notes = CASE WHEN $2 != '' THEN $2 ELSE admin_notes END,
		    processed_by = $3,
		    updated_at = NOW()
		WHERE id = $4
	`, newStatus, strings.TrimSpace(req.Notes), auth.UserID, requestID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update status: "+err.Error())
		return
	}

	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO status_history (request_id, old_status, new_status, notes, changed_by)
		VALUES ($1, $2, $3, $4, $5)
	`, requestID, currentStatus, newStatus, strings.TrimSpace(req.Notes), auth.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record status change: "+err.Error())
		return
	}

	if err := tx.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := h.hub.Publish(r.Context(), services.RequestEvent{
		Type:           "status_changed",
		RequestID:      requestID.String(),
		TrackingNumber: trackingNumber,
		OldStatus:      currentStatus,
		NewStatus:      newStatus,
		ChangedBy:      auth.UserID.String(),
		Timestamp:      time.Now(),
	}); err != nil {
		log.Printf("[UpdateStatus] event publish failed: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Status updated to " + services.FormatStatus(newStatus),
		"status":  newStatus,
	})
}

// Cancel lets the owning resident withdraw a request that has not moved past
// processing. The audit row carries no changed_by, which marks it as a
// resident action.
func (h *RequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var ownerID uuid.UUID
	var currentStatus, trackingNumber string
	err = tx.QueryRowContext(r.Context(), `
		SELECT user_id, status, tracking_number FROM requests WHERE id = $1 FOR UPDATE
	`, requestID).Scan(&ownerID, &currentStatus, &trackingNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Request not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if ownerID != auth.UserID {
		writeError(w, http.StatusForbidden, "You can only cancel your own requests")
		return
	}

	currentStatus = services.NormalizeStatus(currentStatus)
	if !services.CanResidentCancel(currentStatus) {
		writeError(w, http.StatusConflict,
			"Requests in status "+services.FormatStatus(currentStatus)+" can no longer be cancelled")
		return
	}

	_, err = tx.ExecContext(r.Context(), `
		UPDATE requests SET status = $1, updated_at = NOW() WHERE id = $2
	`, services.StatusCancelled, requestID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to cancel request: "+err.Error())
		return
	}

	_, err = tx.ExecContext(r.Context(), `
		INSERT INTO status_history (request_id, old_status, new_status, notes, changed_by)
		VALUES ($1, $2, $3, $4, NULL)
	`, requestID, currentStatus, services.StatusCancelled, "Request cancelled by resident")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record cancellation: "+err.Error())
		return
	}

	if err := tx.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := h.hub.Publish(r.Context(), services.RequestEvent{
		Type:           "status_changed",
		RequestID:      requestID.String(),
		TrackingNumber: trackingNumber,
		OldStatus:      currentStatus,
		NewStatus:      services.StatusCancelled,
		Timestamp:      time.Now(),
	}); err != nil {
		log.Printf("[CancelRequest] event publish failed: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Request cancelled",
		"status":  services.StatusCancelled,
	})
}
