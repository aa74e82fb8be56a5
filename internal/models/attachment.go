package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment categories.
const (
	CategoryAdditionalDocument = "additional-document"
	CategorySignedDocument     = "signed-document"
)

// Attachment (resident_documents row) is a stored file owned by a request.
// Multiple attachments per category are permitted.
type Attachment struct {
	ID               uuid.UUID `json:"id"`
	RequestID        uuid.UUID `json:"request_id"`
	FilePath         string    `json:"file_path"` // object key in storage
	FileName         string    `json:"file_name"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	FileURL          string    `json:"file_url"`
	UploadedBy       uuid.UUID `json:"uploaded_by"`
	DocumentCategory string    `json:"document_category"`
	CreatedAt        time.Time `json:"created_at"`
}
