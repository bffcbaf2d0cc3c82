package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a stored file does not exist.
var ErrNotFound = errors.New("upload: file not found")

// ErrTooLarge is returned when a file exceeds the store's size limit.
var ErrTooLarge = errors.New("upload: file too large")

// Store persists uploaded file parts.
type Store interface {
	// Save stores the file and returns where it ended up.
	Save(ctx context.Context, filename, contentType string, r io.Reader) (Stored, error)

	// Remove deletes a stored file by ID.
	Remove(ctx context.Context, id string) error

	// Cleanup removes stored files older than maxAge.
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

// Stored describes a persisted upload.
type Stored struct {
	// ID is the store-assigned identifier.
	ID string

	// Filename is the original name from the client.
	Filename string

	// ContentType is the MIME type reported by the client.
	ContentType string

	// Size is the stored size in bytes.
	Size int64

	// Path is the local filesystem location (disk store).
	Path string

	// URL is the remote location (S3 store).
	URL string
}

func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
