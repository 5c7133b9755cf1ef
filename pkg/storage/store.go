package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned when a key does not exist in the store.
var ErrObjectNotFound = errors.New("object not found")

// Object describes a stored file.
type Object struct {
	Key         string
	URL         string
	Size        int64
	ContentType string
}

// ObjectStore is implemented by every upload backend.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (*Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewKey builds a collision free object key under the given folder, keeping
// the original extension.
func NewKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	day := time.Now().UTC().Format("2006/01/02")
	return path.Join(strings.Trim(folder, "/"), day, uuid.NewString()+ext)
}

func publicURL(base, key string) string {
	if base == "" {
		return "/" + key
	}
	return strings.TrimRight(base, "/") + "/" + key
}
