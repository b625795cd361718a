package app

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"jamsession/pkg/api"
	"jamsession/pkg/cache"
	"jamsession/pkg/storage"
)

// Images caches images as data URLs, keyed by image path.
type Images struct {
	client *api.Client
	mirror storage.ImageMirror
	cache  *cache.Memo[string, string]
}

// NewImages builds the image service. mirror may be nil.
func NewImages(client *api.Client, mirror storage.ImageMirror) *Images {
	return &Images{client: client, mirror: mirror, cache: cache.New[string, string]("images")}
}

// ProfilePicturePath is the image path of a profile picture id.
func ProfilePicturePath(id int64) string {
	return "images/" + strconv.FormatInt(id, 10)
}

// DataURL returns the image at path as "data:<mime>;base64,...".
func (s *Images) DataURL(ctx context.Context, path string) (string, error) {
	key := api.ImagePath(path)
	if key == "" {
		return "", invalid("image path is required")
	}
	return s.cache.Get(ctx, key, false, func(ctx context.Context) (string, error) {
		data, contentType, err := s.fetch(ctx, key)
		if err != nil {
			slog.Warn("load image failed", "path", key, "err", err)
			return "", err
		}
		return toDataURL(data, contentType), nil
	})
}

// Preload fetches paths in parallel and ignores failures.
func (s *Images) Preload(ctx context.Context, paths []string) {
	done := make(chan struct{}, len(paths))
	for _, p := range paths {
		go func(p string) {
			defer func() { done <- struct{}{} }()
			_, _ = s.DataURL(ctx, p)
		}(p)
	}
	for range paths {
		<-done
	}
}

// Clear drops one image from the cache and the mirror.
func (s *Images) Clear(ctx context.Context, path string) {
	key := api.ImagePath(path)
	s.cache.Invalidate(key)
	if s.mirror != nil {
		if err := s.mirror.Delete(ctx, key); err != nil {
			slog.Warn("delete mirrored image failed", "path", key, "err", err)
		}
	}
}

// ClearAll drops every cached image. Mirrored copies are kept.
func (s *Images) ClearAll() {
	s.cache.InvalidateAll()
}

// IsLoading reports whether path is being fetched.
func (s *Images) IsLoading(path string) bool {
	return s.cache.Loading(api.ImagePath(path))
}

// Cached returns the data URL for path without fetching.
func (s *Images) Cached(path string) (string, bool) {
	return s.cache.Peek(api.ImagePath(path))
}

func (s *Images) fetch(ctx context.Context, key string) ([]byte, string, error) {
	if s.mirror != nil {
		data, contentType, err := s.mirror.Get(ctx, key)
		if err == nil {
			return data, contentType, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("read mirrored image failed", "path", key, "err", err)
		}
	}
	data, contentType, err := s.client.Image(ctx, key)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image %s: %w", key, err)
	}
	if s.mirror != nil {
		if err := s.mirror.Put(ctx, key, data, contentType); err != nil {
			slog.Warn("mirror image failed", "path", key, "err", err)
		}
	}
	return data, contentType, nil
}

func toDataURL(data []byte, contentType string) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
