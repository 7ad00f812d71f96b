package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scratch stages downloaded images on local disk before upload.
type Scratch struct {
	dir string
}

// NewScratch creates the scratch directory if missing.
func NewScratch(dir string) (*Scratch, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("scratch dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Scratch{dir: dir}, nil
}

// Write stores data as thumbnail-<name><ext>. The name must be unique per
// request; an existing file is never overwritten.
func (s *Scratch) Write(name, contentType string, data []byte) (string, error) {
	target := filepath.Join(s.dir, "thumbnail-"+safeName(name)+extensionFromContentType(contentType))

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("close scratch file: %w", err)
	}
	return target, nil
}

// Remove deletes a staged file. Missing files are not an error.
func (s *Scratch) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove scratch file: %w", err)
	}
	return nil
}

func safeName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	if name == "" || name == "." || name == ".." {
		return "image"
	}
	return name
}
