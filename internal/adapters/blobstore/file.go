package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps one JSON file per blob under a base directory.
type FileStore struct{ base string }

// NewFileStore creates base if needed. An empty base means ./data.
func NewFileStore(base string) (*FileStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FileStore{base: base}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.base, filepath.Base(filepath.Clean(name))+".json")
}

// Save writes to a temporary file and renames it over the old blob.
func (s *FileStore) Save(_ context.Context, name string, data []byte) error {
	if name == "" {
		return ErrEmptyName
	}
	dst := s.path(name)
	tmp, err := os.CreateTemp(s.base, ".blob-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write blob %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close blob %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace blob %s: %w", name, err)
	}
	return nil
}

// Load reads the blob file.
func (s *FileStore) Load(_ context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", name, err)
	}
	return data, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
