package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore persists expense attachments.
type FileStore interface {
	// Save writes r under a generated name and returns the stored path and size.
	Save(name string, r io.Reader) (path string, size int64, err error)
	Remove(path string) error
}

// LocalFileStore keeps files in a directory on local disk.
type LocalFileStore struct {
	root string
}

func NewLocalFileStore(root string) (*LocalFileStore, error) {
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalFileStore{root: root}, nil
}

func (s *LocalFileStore) Save(name string, r io.Reader) (string, int64, error) {
	stored := uuid.New().String() + strings.ToLower(filepath.Ext(filepath.Base(name)))
	full := filepath.Join(s.root, stored)

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create %s: %w", stored, err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return "", 0, fmt.Errorf("failed to write %s: %w", stored, err)
	}
	return stored, size, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (s *LocalFileStore) Remove(path string) error {
	clean := filepath.Base(filepath.Clean(path))
	if clean == "." || clean == string(filepath.Separator) {
		return fmt.Errorf("invalid attachment path %q", path)
	}
	err := os.Remove(filepath.Join(s.root, clean))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
