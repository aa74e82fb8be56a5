package handlers

import (
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fileHeader(name, contentType string, size int64) *multipart.FileHeader {
	header := &multipart.FileHeader{
		Filename: name,
		Size:     size,
		Header:   textproto.MIMEHeader{},
	}
	if contentType != "" {
		header.Header.Set("Content-Type", contentType)
	}
	return header
}

func TestValidateIDImage(t *testing.T) {
	assert.NoError(t, validateIDImage(fileHeader("front.jpg", "image/jpeg", 1<<20)))
	assert.NoError(t, validateIDImage(fileHeader("front.png", "image/png", MaxIDImageSize)))
	assert.NoError(t, validateIDImage(fileHeader("front.webp", "image/webp; charset=binary", 100)))

	// extension fallback only applies when no content type was sent
	assert.NoError(t, validateIDImage(fileHeader("front.jpeg", "", 100)))
	assert.Error(t, validateIDImage(fileHeader("front.jpeg", "application/octet-stream", 100)))

	assert.Error(t, validateIDImage(fileHeader("front.jpg", "image/jpeg", MaxIDImageSize+1)))
	assert.Error(t, validateIDImage(fileHeader("doc.pdf", "application/pdf", 100)))
	assert.Error(t, validateIDImage(fileHeader("doc.txt", "", 100)))
}

func TestValidateDocument(t *testing.T) {
	assert.NoError(t, validateDocument(fileHeader("scan.pdf", "application/pdf", 8<<20)))
	assert.NoError(t, validateDocument(fileHeader("scan.png", "image/png", MaxDocumentSize)))
	assert.NoError(t, validateDocument(fileHeader("scan.pdf", "", 100)))

	assert.Error(t, validateDocument(fileHeader("scan.pdf", "application/pdf", MaxDocumentSize+1)))
	assert.Error(t, validateDocument(fileHeader("notes.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 100)))
	assert.Error(t, validateDocument(fileHeader("notes.txt", "", 100)))
}

func TestUploadContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", uploadContentType(fileHeader("a.jpg", "image/jpeg", 1)))
	assert.Equal(t, "image/png", uploadContentType(fileHeader("a.png", "IMAGE/PNG", 1)))
	assert.Equal(t, "application/pdf", uploadContentType(fileHeader("a.pdf", "application/pdf; name=a.pdf", 1)))
	assert.Equal(t, "", uploadContentType(fileHeader("a.pdf", "", 1)))
}
