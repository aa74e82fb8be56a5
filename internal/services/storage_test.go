package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentKey(t *testing.T) {
	ownerID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	requestID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	key := AttachmentKey("signed-documents", ownerID, requestID, "signed-document", "abc123")
	assert.Equal(t,
		"signed-documents/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222-signed-document-abc123",
		key)
}

func TestIDImageKey(t *testing.T) {
	ownerID := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	key := IDImageKey("id-uploads", ownerID, "id-front", "deadbeef")
	assert.Equal(t, "id-uploads/11111111-1111-1111-1111-111111111111-id-front-deadbeef", key)
}

func TestNewUploadTokenDistinct(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token, err := NewUploadToken()
		require.NoError(t, err)
		assert.Len(t, token, 12)
		assert.False(t, seen[token], "duplicate token %s", token)
		seen[token] = true
	}
}

func TestAttachmentKeysDifferPerUpload(t *testing.T) {
	ownerID := uuid.New()
	requestID := uuid.New()

	t1, err := NewUploadToken()
	require.NoError(t, err)
	t2, err := NewUploadToken()
	require.NoError(t, err)

	k1 := AttachmentKey("signed-documents", ownerID, requestID, "additional-document", t1)
	k2 := AttachmentKey("signed-documents", ownerID, requestID, "additional-document", t2)
	assert.NotEqual(t, k1, k2)
}
