package handlers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// Upload limits: request-time ID/requirement images stay small, staff-signed
// and additional documents get more room.
const (
	MaxIDImageSize  = 5 << 20  // 5MB
	MaxDocumentSize = 10 << 20 // 10MB
)

var documentExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true, ".pdf": true,
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

func uploadContentType(header *multipart.FileHeader) string {
	ct := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if idx := strings.Index(ct, ";"); idx != -1 {
		ct = ct[:idx]
	}
	return ct
}

// validateIDImage rejects oversized or non-image ID uploads before any
// network call is made.
func validateIDImage(header *multipart.FileHeader) error {
	if header.Size > MaxIDImageSize {
		return fmt.Errorf("file size must be less than 5MB")
	}
	ct := uploadContentType(header)
	if strings.HasPrefix(ct, "image/") {
		return nil
	}
	if ct == "" && imageExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		return nil
	}
	return fmt.Errorf("please upload an image file (JPG, PNG)")
}

// validateDocument rejects oversized or unsupported attachment uploads
// (images and PDF only).
func validateDocument(header *multipart.FileHeader) error {
	if header.Size > MaxDocumentSize {
		return fmt.Errorf("file size must be less than 10MB")
	}
	ct := uploadContentType(header)
	if strings.HasPrefix(ct, "image/") || ct == "application/pdf" {
		return nil
	}
	if ct == "" && documentExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		return nil
	}
	return fmt.Errorf("please upload an image or PDF file")
}
