package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// UploadStore keeps uploaded report files on disk under a single
// directory before they are extracted and indexed.
type UploadStore struct {
	Dir string // absolute path to the uploads directory
}

// NewUploadStore creates the uploads directory if needed.
func NewUploadStore(dir string) (*UploadStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("uploads directory not configured")
	}
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("could not determine absolute path for uploads dir: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("could not create uploads dir: %w", err)
	}
	return &UploadStore{Dir: absPath}, nil
}

// sanitizePath keeps saved files inside the uploads directory. This
// prevents path traversal through crafted upload filenames.
func (s *UploadStore) sanitizePath(filename string) (string, error) {
	base := filepath.Base(filename)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	cleanPath := filepath.Join(s.Dir, base)
	if !strings.HasPrefix(cleanPath, s.Dir) {
		return "", fmt.Errorf("invalid filename, attempts to escape uploads directory")
	}
	return cleanPath, nil
}

// Save writes an uploaded file to the store and returns its path.
func (s *UploadStore) Save(filename string, content []byte) (string, error) {
	path, err := s.sanitizePath(filename)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to save uploaded file %q: %w", filename, err)
	}
	return path, nil
}

// Remove deletes a stored upload. Missing files are not an error; the
// caller only cares that the file is gone.
func (s *UploadStore) Remove(filename string) error {
	path, err := s.sanitizePath(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove uploaded file %q: %w", filename, err)
	}
	return nil
}
