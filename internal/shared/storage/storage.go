// Package storage is the file storage collaborator: object upload, signed and
// public URLs, deletion, and bounded fan-out URL resolution.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAccessDenied   = errors.New("storage access denied")
	ErrObjectNotFound = errors.New("storage object not found")
	ErrInvalidPath    = errors.New("invalid storage path")
	ErrNotConfigured  = errors.New("storage not configured")
)

// User-facing labels for storage failures.
const (
	LabelAccessDenied = "Access denied"
	LabelNotFound     = "File not found"
	LabelTimeout      = "Timed out"
	LabelUnavailable  = "File unavailable"
)

// FileStorage object storage backend
type FileStorage interface {
	Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) (string, error)
	CreateSignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error)
	PublicURL(objectPath string) string
	Delete(ctx context.Context, objectPath string) error
}

// Label maps a storage error to the message shown to the user.
func Label(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAccessDenied):
		return LabelAccessDenied
	case errors.Is(err, ErrObjectNotFound):
		return LabelNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return LabelTimeout
	default:
		return LabelUnavailable
	}
}

// ObjectPath builds "<prefix>/<yyyy/mm/dd>/<id>_<name>".
func ObjectPath(prefix, fileName string, now time.Time) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s/%s/%s_%s", strings.Trim(prefix, "/"), now.Format("2006/01/02"), id, name)
}

func cleanObjectPath(p string) (string, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	return path.Clean(p), nil
}
