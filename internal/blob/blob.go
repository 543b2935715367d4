// Package blob uploads opaque file objects (receipt images and PDFs,
// archived dead-letter records) to Supabase Storage buckets.
package blob

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	storage_go "github.com/supabase-community/storage-go"
)

// Store wraps a Supabase Storage client scoped to one bucket.
type Store struct {
	client *storage_go.Client
	bucket string
}

// NewStore creates a blob store for the given bucket.
func NewStore(url, key, bucket string) *Store {
	return &Store{
		client: storage_go.NewClient(url, key, nil),
		bucket: bucket,
	}
}

// Upload writes the object under the given key with the given content
// type and returns its public URL. A key that already exists yields an
// error recognized by IsDuplicate.
func (s *Store) Upload(key string, data io.Reader, contentType string) (string, error) {
	_, err := s.client.UploadFile(s.bucket, key, data, storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return s.client.GetPublicUrl(s.bucket, key).SignedURL, nil
}

// IsDuplicate reports whether the error came from uploading to a key
// that already holds an object.
func IsDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Duplicate")
}

// ReceiptKey builds the object key for an uploaded receipt: the owning
// user, the expense date, and a random component so concurrent uploads
// for the same day cannot collide.
func ReceiptKey(userID int64, expenseDate, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%d/%s/%s%s", userID, expenseDate, uuid.NewString(), ext)
}

// ContentTypeForFilename infers the upload content type from the file
// extension. Unknown extensions fall back to application/octet-stream.
func ContentTypeForFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
