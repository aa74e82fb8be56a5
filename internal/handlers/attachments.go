package handlers

import (
	"database/sql"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/barangaylink/barangaylink-backend/internal/models"
	"github.com/barangaylink/barangaylink-backend/internal/services"
)

// AttachmentHandler manages files attached to a request after creation:
// extra requirement files from the resident and signed documents from staff.
type AttachmentHandler struct {
	db              *sql.DB
	sessions        *services.SessionService
	storage         *services.StorageService
	documentsFolder string
	idUploadsFolder string
}

func NewAttachmentHandler(db *sql.DB, sessions *services.SessionService, storage *services.StorageService, documentsFolder, idUploadsFolder string) *AttachmentHandler {
	return &AttachmentHandler{
		db:              db,
		sessions:        sessions,
		storage:         storage,
		documentsFolder: documentsFolder,
		idUploadsFolder: idUploadsFolder,
	}
}

// Upload attaches a file to a request. Residents may add
// additional-document files to their own requests; staff may also attach
// signed documents.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}
	if h.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "File storage is not configured")
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var ownerID uuid.UUID
	err = h.db.QueryRowContext(r.Context(), `SELECT user_id FROM requests WHERE id = $1`, requestID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Request not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if err := r.ParseMultipartForm(16 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	category := r.FormValue("category")
	if category == "" {
		category = models.CategoryAdditionalDocument
	}
	switch category {
	case models.CategoryAdditionalDocument:
		if ownerID != auth.UserID && !auth.IsStaff() {
			writeError(w, http.StatusForbidden, "You do not have access to this request")
			return
		}
	case models.CategorySignedDocument:
		if !auth.IsStaff() {
			writeError(w, http.StatusForbidden, "Staff access required")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "Unknown document category")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	if err := validateDocument(header); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := services.NewUploadToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}
	key := services.AttachmentKey(h.documentsFolder, ownerID, requestID, category, token)
	obj, err := h.storage.Upload(r.Context(), file, key)
	if err != nil {
		log.Printf("[UploadAttachment] upload failed for request %s: %v", requestID, err)
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	var attachment models.Attachment
	err = h.db.QueryRowContext(r.Context(), `
		INSERT INTO resident_documents (request_id, file_path, file_name, file_type, file_size, file_url, uploaded_by, document_category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, request_id, file_path, file_name, file_type, file_size, file_url, uploaded_by, document_category, created_at
	`, requestID, obj.PublicID, header.Filename, uploadContentType(header), header.Size, obj.SecureURL, auth.UserID, category).
		Scan(&attachment.ID, &attachment.RequestID, &attachment.FilePath, &attachment.FileName,
			&attachment.FileType, &attachment.FileSize, &attachment.FileURL,
			&attachment.UploadedBy, &attachment.DocumentCategory, &attachment.CreatedAt)
	if err != nil {
		// The object exists but the row does not; remove the object so
		// storage and database stay in agreement.
		if destroyErr := h.storage.Destroy(r.Context(), obj.PublicID); destroyErr != nil {
			log.Printf("[UploadAttachment] orphaned object %s: %v", obj.PublicID, destroyErr)
		}
		writeError(w, http.StatusInternalServerError, "Failed to record attachment: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "document": attachment})
}

// List returns a request's attachments. Owner or staff.
func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var ownerID uuid.UUID
	err = h.db.QueryRowContext(r.Context(), `SELECT user_id FROM requests WHERE id = $1`, requestID).Scan(&ownerID)
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
		SELECT id, request_id, file_path, file_name, file_type, file_size, file_url, uploaded_by, document_category, created_at
		FROM resident_documents
		WHERE request_id = $1
		ORDER BY created_at DESC
	`, requestID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load documents")
		return
	}
	defer rows.Close()

	attachments := []models.Attachment{}
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.RequestID, &a.FilePath, &a.FileName, &a.FileType,
			&a.FileSize, &a.FileURL, &a.UploadedBy, &a.DocumentCategory, &a.CreatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load documents")
			return
		}
		attachments = append(attachments, a)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load documents")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "documents": attachments})
}

// fetchAttachment loads an attachment with its owning request's user.
func (h *AttachmentHandler) fetchAttachment(r *http.Request, docID uuid.UUID) (*models.Attachment, uuid.UUID, error) {
	var a models.Attachment
	var ownerID uuid.UUID
	err := h.db.QueryRowContext(r.Context(), `
		SELECT d.id, d.request_id, d.file_path, d.file_name, d.file_type, d.file_size,
		       d.file_url, d.uploaded_by, d.document_category, d.created_at, req.user_id
		FROM resident_documents d
		JOIN requests req ON req.id = d.request_id
		WHERE d.id = $1
	`, docID).Scan(&a.ID, &a.RequestID, &a.FilePath, &a.FileName, &a.FileType, &a.FileSize,
		&a.FileURL, &a.UploadedBy, &a.DocumentCategory, &a.CreatedAt, &ownerID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return &a, ownerID, nil
}

// Delete removes an attachment: the stored object goes first, and the row is
// kept whenever the object removal fails so no dangling row ever points at
// nothing.
func (h *AttachmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}
	if h.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "File storage is not configured")
		return
	}

	docID, err := uuid.Parse(chi.URLParam(r, "docID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	attachment, ownerID, err := h.fetchAttachment(r, docID)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Document not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	switch attachment.DocumentCategory {
	case models.CategorySignedDocument:
		if !auth.IsStaff() {
			writeError(w, http.StatusForbidden, "Staff access required")
			return
		}
	default:
		if ownerID != auth.UserID && !auth.IsStaff() {
			writeError(w, http.StatusForbidden, "You do not have access to this document")
			return
		}
	}

	if err := h.storage.Destroy(r.Context(), attachment.FilePath); err != nil {
		log.Printf("[DeleteAttachment] object removal failed for %s: %v", attachment.FilePath, err)
		writeError(w, http.StatusInternalServerError, "Failed to delete stored file")
		return
	}

	if _, err := h.db.ExecContext(r.Context(), `DELETE FROM resident_documents WHERE id = $1`, docID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete document record: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Document deleted"})
}

// Download streams the attachment's bytes with a download disposition.
func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, true)
}

// View streams the attachment inline (browser preview).
func (h *AttachmentHandler) View(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, false)
}

func (h *AttachmentHandler) serve(w http.ResponseWriter, r *http.Request, asDownload bool) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}
	if h.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "File storage is not configured")
		return
	}

	docID, err := uuid.Parse(chi.URLParam(r, "docID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid document ID")
		return
	}

	attachment, ownerID, err := h.fetchAttachment(r, docID)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Document not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}
	if ownerID != auth.UserID && !auth.IsStaff() {
		writeError(w, http.StatusForbidden, "You do not have access to this document")
		return
	}

	body, contentType, err := h.storage.Download(r.Context(), attachment.FilePath, attachment.FileURL)
	if err != nil {
		log.Printf("[DownloadAttachment] fetch failed for %s: %v", attachment.FilePath, err)
		writeError(w, http.StatusBadGateway, "Failed to fetch stored file")
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = attachment.FileType
	}
	w.Header().Set("Content-Type", contentType)
	if attachment.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(attachment.FileSize, 10))
	}
	disposition := "inline"
	if asDownload {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition+`; filename="`+attachment.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		log.Printf("[DownloadAttachment] stream interrupted for %s: %v", attachment.FilePath, err)
	}
}

// ReplaceIDImage swaps one of the request's ID images: the new object is
// uploaded and recorded before the old one is destroyed, so a failed
// removal never loses the current image.
func (h *AttachmentHandler) ReplaceIDImage(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}
	if h.storage == nil {
		writeError(w, http.StatusServiceUnavailable, "File storage is not configured")
		return
	}

	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var ownerID uuid.UUID
	var status, frontURL, backURL string
	err = h.db.QueryRowContext(r.Context(), `
		SELECT user_id, status, COALESCE(id_image_url, ''), COALESCE(id_image_back_url, '')
		FROM requests WHERE id = $1
	`, requestID).Scan(&ownerID, &status, &frontURL, &backURL)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Request not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}
	if ownerID != auth.UserID {
		writeError(w, http.StatusForbidden, "You can only update your own requests")
		return
	}
	if services.IsTerminalStatus(services.NormalizeStatus(status)) {
		writeError(w, http.StatusConflict, "This request can no longer be changed")
		return
	}

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	side := r.FormValue("side")
	var column, oldURL string
	switch side {
	case "front":
		column, oldURL = "id_image_url", frontURL
	case "back":
		column, oldURL = "id_image_back_url", backURL
	default:
		writeError(w, http.StatusBadRequest, "side must be 'front' or 'back'")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	if err := validateIDImage(header); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, err := services.NewUploadToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to upload ID image")
		return
	}
	obj, err := h.storage.Upload(r.Context(), file, services.IDImageKey(h.idUploadsFolder, auth.UserID, "id-"+side, token))
	if err != nil {
		log.Printf("[ReplaceIDImage] upload failed for request %s: %v", requestID, err)
		writeError(w, http.StatusInternalServerError, "Failed to upload ID image")
		return
	}

	_, err = h.db.ExecContext(r.Context(), `UPDATE requests SET `+column+` = $1, updated_at = NOW() WHERE id = $2`, obj.SecureURL, requestID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update request: "+err.Error())
		return
	}

	// Best effort; the new image is already live.
	if oldKey := storageKeyFromURL(oldURL); oldKey != "" {
		if err := h.storage.Destroy(r.Context(), oldKey); err != nil {
			log.Printf("[ReplaceIDImage] old image cleanup failed for %s: %v", oldKey, err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "ID image updated",
		"image_url": obj.SecureURL,
	})
}

// storageKeyFromURL recovers the object key from a stored delivery URL
// (".../upload/v123/<key>.<ext>"). Returns "" when the URL does not parse.
func storageKeyFromURL(url string) string {
	idx := strings.Index(url, "/upload/")
	if idx < 0 {
		return ""
	}
	rest := url[idx+len("/upload/"):]
	if slash := strings.Index(rest, "/"); slash >= 0 && strings.HasPrefix(rest, "v") {
		rest = rest[slash+1:]
	}
	if dot := strings.LastIndex(rest, "."); dot > strings.LastIndex(rest, "/") {
		rest = rest[:dot]
	}
	return rest
}
