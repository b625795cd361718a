package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// FileStore mirrors images to disk under a base directory.
type FileStore struct {
	basePath string
}

// NewFileStore creates the base directory if missing.
func NewFileStore(basePath string) (*FileStore, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("storage base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// Get reads a mirrored image. The content type comes from the extension,
// falling back to sniffing.
func (f *FileStore) Get(_ context.Context, key string) ([]byte, string, error) {
	target := f.target(key)
	data, err := os.ReadFile(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(target))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

// Put writes an image under the base directory.
func (f *FileStore) Put(_ context.Context, key string, data []byte, _ string) error {
	target := f.target(key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Delete removes a mirrored image.
func (f *FileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(f.target(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FileStore) target(key string) string {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = safeFilename(p); p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		clean = append(clean, "image")
	}
	return filepath.Join(append([]string{f.basePath}, clean...)...)
}

func safeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return ""
	}
	return strings.ReplaceAll(name, string(os.PathSeparator), "_")
}
