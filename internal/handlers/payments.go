package handlers

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/barangaylink/barangaylink-backend/internal/models"
	"github.com/barangaylink/barangaylink-backend/internal/services"
)

// PaymentHandler implements the placeholder payment-intent handshake. It
// mirrors the Stripe shape (intent ID + client secret) without talking to a
// processor, and it never moves the request's fulfillment status.
type PaymentHandler struct {
	db       *sql.DB
	sessions *services.SessionService
	hub      *services.EventHub
}

func NewPaymentHandler(db *sql.DB, sessions *services.SessionService, hub *services.EventHub) *PaymentHandler {
	return &PaymentHandler{db: db, sessions: sessions, hub: hub}
}

func randomSuffix(n int) (string, error) {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf)[:n], nil
}

// newPaymentIntentID returns "pi_<unix-ms>_<random>".
func newPaymentIntentID(now time.Time) (string, error) {
	suffix, err := randomSuffix(9)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("pi_%d_%s", now.UnixMilli(), suffix), nil
}

// newClientSecret returns "<intentID>_secret_<random>".
func newClientSecret(intentID string) (string, error) {
	suffix, err := randomSuffix(16)
	if err != nil {
		return "", err
	}
	return intentID + "_secret_" + suffix, nil
}

// intentIDFromSecret recovers the intent ID from a client secret. Returns ""
// when the secret is malformed.
func intentIDFromSecret(clientSecret string) string {
	idx := strings.Index(clientSecret, "_secret_")
	if idx <= 0 {
		return ""
	}
	return clientSecret[:idx]
}

type CreateIntentRequest struct {
	RequestID string `json:"request_id"`
}

// CreateIntent opens a pending payment for a request and hands the client
// secret back to the caller.
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}

	var req CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RequestID == "" {
		writeError(w, http.StatusBadRequest, "request_id is required")
		return
	}

	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var ownerID uuid.UUID
	var trackingNumber, documentName, paymentStatus string
	var price float64
	err = h.db.QueryRowContext(r.Context(), `
		SELECT r.user_id, r.tracking_number, dt.name, dt.price, COALESCE(r.payment_status, '')
		FROM requests r
		JOIN document_types dt ON dt.id = r.document_type_id
		WHERE r.id = $1
	`, requestID).Scan(&ownerID, &trackingNumber, &documentName, &price, &paymentStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Request not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}
	if ownerID != auth.UserID {
		writeError(w, http.StatusForbidden, "You can only pay for your own requests")
		return
	}
	if paymentStatus == models.PaymentCompleted {
		writeError(w, http.StatusConflict, "This request has already been paid")
		return
	}

	now := time.Now()
	intentID, err := newPaymentIntentID(now)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create payment intent")
		return
	}
	clientSecret, err := newClientSecret(intentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create payment intent")
		return
	}

	description := fmt.Sprintf("%s (%s)", documentName, trackingNumber)
	metadata, _ := json.Marshal(map[string]string{
		"tracking_number": trackingNumber,
		"document_type":   documentName,
	})

	_, err = h.db.ExecContext(r.Context(), `
		INSERT INTO payments (request_id, user_id, stripe_payment_intent_id, amount_php, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, requestID, auth.UserID, intentID, price, description, metadata)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create payment intent: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":       true,
		"payment_intent_id": intentID,
		"client_secret": clientSecret,
		"amount_php":    price,
		"currency":      "PHP",
	})
}

type VerifyPaymentRequest struct {
	ClientSecret string `json:"client_secret"`
}

// Verify marks the payment behind a client secret as completed and stamps the
// payment fields onto the request. Fulfillment status is untouched on
// purpose: paid and ready are independent facts.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}

	var req VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientSecret == "" {
		writeError(w, http.StatusBadRequest, "client_secret is required")
		return
	}

	intentID := intentIDFromSecret(req.ClientSecret)
	if intentID == "" {
		writeError(w, http.StatusBadRequest, "Invalid client secret")
		return
	}

	var paymentID, requestID, payerID uuid.UUID
	var paymentStatus string
	err := h.db.QueryRowContext(r.Context(), `
		SELECT id, request_id, user_id, payment_status FROM payments WHERE stripe_payment_intent_id = $1
	`, intentID).Scan(&paymentID, &requestID, &payerID, &paymentStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "Payment not found")
		} else {
			writeError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}
	if payerID != auth.UserID {
		writeError(w, http.StatusForbidden, "You can only verify your own payments")
		return
	}
	if paymentStatus == models.PaymentCompleted {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Payment already verified",
			"status":  models.PaymentCompleted,
		})
		return
	}

	now := time.Now()

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(r.Context(), `
		UPDATE payments SET payment_status = $1, payment_date = $2 WHERE id = $3
	`, models.PaymentCompleted, now, paymentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to verify payment: "+err.Error())
		return
	}

	var trackingNumber string
	err = tx.QueryRowContext(r.Context(), `
		UPDATE requests
		SET payment_status = $1, stripe_payment_intent_id = $2, payment_date = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING tracking_number
	`, models.PaymentCompleted, intentID, now, requestID).Scan(&trackingNumber)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to verify payment: "+err.Error())
		return
	}

	if err := tx.Commit(); err != nil {
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := h.hub.Publish(r.Context(), services.RequestEvent{
		Type:           "payment_completed",
		RequestID:      requestID.String(),
		TrackingNumber: trackingNumber,
		Timestamp:      now,
	}); err != nil {
		log.Printf("[VerifyPayment] event publish failed: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Payment verified",
		"status":  models.PaymentCompleted,
	})
}

// History returns the caller's payments, newest first.
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	auth, ok := requireAuth(w, r, h.sessions, h.db)
	if !ok {
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, request_id, user_id, stripe_payment_intent_id, amount_php, currency,
		       payment_method, payment_status, COALESCE(description, ''), metadata, payment_date, created_at
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, auth.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payments")
		return
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.RequestID, &p.UserID, &p.StripePaymentIntentID, &p.AmountPHP,
			&p.Currency, &p.PaymentMethod, &p.PaymentStatus, &p.Description, &p.Metadata,
			&p.PaymentDate, &p.CreatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load payments")
			return
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payments")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "payments": payments})
}
