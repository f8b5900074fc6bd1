// Package blobstore abstracts where uploaded documents live. The core
// only ever sees opaque URLs.
package blobstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists uploaded blobs and hands back an opaque URL.
type Store interface {
	// Save writes the blob and returns the URL to record on the document.
	Save(name string, r io.Reader) (string, error)
	// Remove deletes a blob by the URL Save returned, undoing a Save
	// whose surrounding work failed.
	Remove(fileURL string) error
}

// Local keeps blobs on the local filesystem under a single directory.
// The stored filename is a fresh uuid; the client-supplied name only
// survives as the extension and on the document row.
type Local struct {
	dir string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir}, nil
}

func (l *Local) Save(name string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	stored := uuid.New().String() + ext
	path := filepath.Join(l.dir, stored)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write blob: %w", err)
	}
	return "/files/" + stored, nil
}

func (l *Local) Remove(fileURL string) error {
	return os.Remove(filepath.Join(l.dir, filepath.Base(fileURL)))
}

// Dir returns the backing directory, for serving /files statically.
func (l *Local) Dir() string {
	return l.dir
}
