package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType is a catalog entry residents request against. Deactivation is
// the supported removal path; there is no hard delete.
type DocumentType struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"` // pesos, 2-decimal monetary semantics
	Requirements   string    `json:"requirements"`
	ProcessingDays int       `json:"processing_days"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
