package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// PhotoStore persists uploaded profile photos and returns an opaque reference
// that is stored on the parent record.
type PhotoStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (string, error)
	// Delete removes a stored photo by the reference Save returned.
	// Deleting a missing photo is not an error.
	Delete(ctx context.Context, ref string) error
}

// NewFilename returns a random name that keeps the extension of originalName.
func NewFilename(originalName string) string {
	return uuid.NewString() + filepath.Ext(filepath.Base(originalName))
}

// LocalStore writes photos into a directory on the local filesystem.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir is the directory photos are written to.
func (s *LocalStore) Dir() string { return s.dir }

// Save writes r to a new file and returns its path joined onto the store directory.
func (s *LocalStore) Save(_ context.Context, originalName string, r io.Reader) (string, error) {
	path := filepath.Join(s.dir, NewFilename(originalName))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create photo file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write photo file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close photo file: %w", err)
	}
	return path, nil
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	if filepath.Dir(ref) != filepath.Clean(s.dir) {
		return fmt.Errorf("photo %q is outside %s", ref, s.dir)
	}
	if err := os.Remove(ref); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove photo file: %w", err)
	}
	return nil
}
