package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment tracks the placeholder payment-intent handshake. Payment state is
// informational on the request and never drives its fulfillment status.
type Payment struct {
	ID                    uuid.UUID       `json:"id"`
	RequestID             uuid.UUID       `json:"request_id"`
	UserID                uuid.UUID       `json:"user_id"`
	StripePaymentIntentID string          `json:"stripe_payment_intent_id"`
	AmountPHP             float64         `json:"amount_php"`
	Currency              string          `json:"currency"`
	PaymentMethod         string          `json:"payment_method"`
	PaymentStatus         string          `json:"payment_status"`
	Description           string          `json:"description"`
	Metadata              json.RawMessage `json:"metadata,omitempty"`
	PaymentDate           *time.Time      `json:"payment_date,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}
