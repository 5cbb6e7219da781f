package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore persists uploaded result files. Save returns the storage path
// used to retrieve or delete the file later.
type FileStore interface {
	Save(filename string, r io.Reader) (string, error)
	Open(path string) (io.ReadCloser, error)
	Delete(path string) error
}

// DiskStore writes result files under a single base directory. Filenames are
// generated server side so client names never touch the filesystem.
type DiskStore struct {
	baseDir string
}

func NewDiskStore(baseDir string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

func (s *DiskStore) Save(filename string, r io.Reader) (string, error) {
	path := filepath.Join(s.baseDir, filename)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

func (s *DiskStore) Open(path string) (io.ReadCloser, error) {
	// Refuse paths that escaped the base directory, however they got there.
	rel, err := filepath.Rel(s.baseDir, filepath.Clean(path))
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("report path outside storage directory")
	}
	return os.Open(path)
}

func (s *DiskStore) Delete(path string) error {
	return os.Remove(path)
}

// storedName builds a unique on-disk name preserving the upload's extension.
func storedName(originalName string) string {
	return uuid.NewString() + filepath.Ext(originalName)
}
