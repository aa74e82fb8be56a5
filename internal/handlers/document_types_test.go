package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundPeso(t *testing.T) {
	assert.Equal(t, 50.0, roundPeso(50))
	assert.Equal(t, 50.25, roundPeso(50.25))
	assert.Equal(t, 50.26, roundPeso(50.255))
	assert.Equal(t, 50.25, roundPeso(50.2549))
	assert.Equal(t, 0.0, roundPeso(0))
}

func TestValidateDocumentTypeRequest(t *testing.T) {
	price := 50.0
	days := 3

	valid := DocumentTypeRequest{Name: "Barangay Clearance", Price: &price, ProcessingDays: &days}
	assert.Equal(t, "", validateDocumentTypeRequest(&valid))

	missingName := valid
	missingName.Name = "  "
	assert.NotEqual(t, "", validateDocumentTypeRequest(&missingName))

	negativePrice := -1.0
	badPrice := valid
	badPrice.Price = &negativePrice
	assert.NotEqual(t, "", validateDocumentTypeRequest(&badPrice))

	noPrice := valid
	noPrice.Price = nil
	assert.NotEqual(t, "", validateDocumentTypeRequest(&noPrice))

	zeroDays := 0
	badDays := valid
	badDays.ProcessingDays = &zeroDays
	assert.NotEqual(t, "", validateDocumentTypeRequest(&badDays))

	// free documents are allowed
	free := 0.0
	freeDoc := valid
	freeDoc.Price = &free
	assert.Equal(t, "", validateDocumentTypeRequest(&freeDoc))
}
