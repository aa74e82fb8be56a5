package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// StorageService wraps Cloudinary as the portal's object store. Two logical
// buckets exist as folders: one for resident ID images, one for signed and
// additional documents.
type StorageService struct {
	cld  *cloudinary.Cloudinary
	http *http.Client
}

// StoredObject describes an uploaded object.
type StoredObject struct {
	PublicID  string
	SecureURL string
	Bytes     int
}

func NewStorageService(cloudName, apiKey, apiSecret string) (*StorageService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}

	return &StorageService{
		cld:  cld,
		http: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// NewUploadToken returns a short random suffix used to keep object keys
// collision-free. Wall-clock time alone is not enough when two uploads land
// in the same millisecond.
func NewUploadToken() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// AttachmentKey builds the object key for a request attachment:
// <folder>/<ownerID>/<requestID>-<category>-<suffix>. The suffix must come
// from NewUploadToken.
func AttachmentKey(folder string, ownerID, requestID uuid.UUID, category, suffix string) string {
	return fmt.Sprintf("%s/%s/%s-%s-%s", folder, ownerID, requestID, category, suffix)
}

// IDImageKey builds the object key for a request-time ID image
// (side is "id-front" or "id-back").
func IDImageKey(folder string, ownerID uuid.UUID, side, suffix string) string {
	return fmt.Sprintf("%s/%s-%s-%s", folder, ownerID, side, suffix)
}

// Upload stores the object under the given key and returns its delivery URL.
func (s *StorageService) Upload(ctx context.Context, file io.Reader, key string) (*StoredObject, error) {
	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     key,
		ResourceType: "auto",
		Overwrite:    api.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to storage: %w", err)
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("failed to upload to storage: %s", result.Error.Message)
	}

	return &StoredObject{
		PublicID:  result.PublicID,
		SecureURL: result.SecureURL,
		Bytes:     result.Bytes,
	}, nil
}

// Destroy removes a stored object. A missing object counts as removed.
func (s *StorageService) Destroy(ctx context.Context, key string) error {
	result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: key})
	if err != nil {
		return fmt.Errorf("failed to remove stored object: %w", err)
	}
	if result.Result != "ok" && result.Result != "not found" {
		return fmt.Errorf("failed to remove stored object: %s", result.Result)
	}
	return nil
}

// SignedURL resolves an authenticated delivery URL for the object.
func (s *StorageService) SignedURL(key string) (string, error) {
	img, err := s.cld.Image(key)
	if err != nil {
		return "", err
	}
	img.Config.URL.SignURL = true
	return img.String()
}

// Download streams the object's bytes. The stored delivery URL is tried
// first; when it does not resolve (asset made private, 403/404), an
// authenticated signed URL is used instead of failing outright.
func (s *StorageService) Download(ctx context.Context, key, deliveryURL string) (io.ReadCloser, string, error) {
	if deliveryURL != "" {
		body, contentType, err := s.fetch(ctx, deliveryURL)
		if err == nil {
			return body, contentType, nil
		}
	}

	signedURL, err := s.SignedURL(key)
	if err != nil {
		return nil, "", err
	}
	return s.fetch(ctx, signedURL)
}

func (s *StorageService) fetch(ctx context.Context, url string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
