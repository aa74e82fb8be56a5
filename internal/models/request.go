package models

import (
	"time"

	"github.com/google/uuid"
)

// Request is a resident's document request. tracking_number and user_id are
// immutable after creation; status moves only through the lifecycle rules.
type Request struct {
	ID                    uuid.UUID  `json:"id"`
	UserID                uuid.UUID  `json:"user_id"`
	DocumentTypeID        uuid.UUID  `json:"document_type_id"`
	TrackingNumber        string     `json:"tracking_number"`
	Status                string     `json:"status"`
	Purpose               string     `json:"purpose"`
	IDImageURL            string     `json:"id_image_url"`
	IDImageBackURL        string     `json:"id_image_back_url"`
	AdminNotes            string     `json:"admin_notes"`
	SignedDocumentURL     *string    `json:"signed_document_url,omitempty"` // legacy single-file pointer
	ProcessedBy           *uuid.UUID `json:"processed_by,omitempty"`
	PaymentStatus         *string    `json:"payment_status,omitempty"`
	StripePaymentIntentID *string    `json:"stripe_payment_intent_id,omitempty"`
	PaymentDate           *time.Time `json:"payment_date,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`

	// Joined read-side fields (staff listings)
	DocumentTypeName  string  `json:"document_type_name,omitempty"`
	DocumentTypePrice float64 `json:"document_type_price,omitempty"`
	ResidentName      string  `json:"resident_name,omitempty"`
	ResidentEmail     string  `json:"resident_email,omitempty"`
}

// StatusHistoryEntry is one row of the append-only status audit trail.
type StatusHistoryEntry struct {
	ID          uuid.UUID  `json:"id"`
	RequestID   uuid.UUID  `json:"request_id"`
	OldStatus   string     `json:"old_status"`
	NewStatus   string     `json:"new_status"`
	Notes       string     `json:"notes"`
	ChangedBy   *uuid.UUID `json:"changed_by,omitempty"` // nil = resident self-service
	ChangedName string     `json:"changed_by_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
