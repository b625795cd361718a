package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	fs, err := NewFileStore(base)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, _, err := fs.Get(ctx, "images/a.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := fs.Put(ctx, "images/a.png", []byte("\x89PNG\r\n\x1a\nrest"), "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, ct, err := fs.Get(ctx, "images/a.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.HasSuffix(string(data), "rest") {
		t.Fatalf("unexpected data %q", data)
	}
	if err := fs.Delete(ctx, "images/a.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := fs.Delete(ctx, "images/a.png"); err != nil {
		t.Fatalf("delete twice: %v", err)
	}
}

func TestFileStoreStaysUnderBase(t *testing.T) {
	base := t.TempDir()
	fs, err := NewFileStore(base)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	target := fs.target("../../etc/passwd")
	rel, err := filepath.Rel(base, target)
	if err != nil || strings.HasPrefix(rel, "..") {
		t.Fatalf("target %q escapes base %q", target, base)
	}
}

func TestNewFileStoreRequiresPath(t *testing.T) {
	if _, err := NewFileStore(" "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
