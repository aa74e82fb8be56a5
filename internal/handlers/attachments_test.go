package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageKeyFromURL(t *testing.T) {
	assert.Equal(t,
		"id-uploads/owner-id-front-abc123",
		storageKeyFromURL("https://res.cloudinary.com/demo/image/upload/v1712345678/id-uploads/owner-id-front-abc123.jpg"))

	// no version segment
	assert.Equal(t,
		"id-uploads/owner-id-back-def456",
		storageKeyFromURL("https://res.cloudinary.com/demo/image/upload/id-uploads/owner-id-back-def456.png"))

	assert.Equal(t, "", storageKeyFromURL(""))
	assert.Equal(t, "", storageKeyFromURL("https://example.com/some/path.jpg"))
}
