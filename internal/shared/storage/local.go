package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage stores objects on disk, served by the static /uploads route.
// Used in development when no object store is configured.
type LocalStorage struct {
	dir        string
	publicBase string
}

func NewLocalStorage(dir, publicBase string) *LocalStorage {
	return &LocalStorage{dir: dir, publicBase: strings.TrimSuffix(publicBase, "/")}
}

func (s *LocalStorage) Upload(ctx context.Context, objectPath string, r io.Reader, size int64, contentType string) (string, error) {
	p, err := cleanObjectPath(objectPath)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.dir, filepath.FromSlash(p))

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", classifyLocal(err))
	}

	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("save file: %w", classifyLocal(err))
	}
	_, err = io.Copy(dst, r)
	dst.Close()
	if err != nil {
		os.Remove(full)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		os.Remove(full)
		return "", err
	}
	return p, nil
}

func (s *LocalStorage) CreateSignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	p, err := cleanObjectPath(objectPath)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(s.dir, filepath.FromSlash(p))); err != nil {
		return "", classifyLocal(err)
	}
	return fmt.Sprintf("%s/%s?expires=%d", s.publicBase, p, time.Now().Add(ttl).Unix()), nil
}

func (s *LocalStorage) PublicURL(objectPath string) string {
	p, err := cleanObjectPath(objectPath)
	if err != nil {
		return ""
	}
	return s.publicBase + "/" + p
}

func (s *LocalStorage) Delete(ctx context.Context, objectPath string) error {
	p, err := cleanObjectPath(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(p))); err != nil {
		return classifyLocal(err)
	}
	return nil
}

func classifyLocal(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}
	return err
}
