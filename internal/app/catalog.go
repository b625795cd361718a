package app

import (
	"context"
	"log/slog"

	"jamsession/pkg/api"
	"jamsession/pkg/cache"
	"jamsession/pkg/domain"
)

// catalog caches a small reference list (instruments or genres).
type catalog[T any] struct {
	name  string
	all   *cache.Value[[]T]
	load  func(ctx context.Context) ([]T, error)
	getID func(T) int64
}

func newCatalog[T any](name string, load func(ctx context.Context) ([]T, error), getID func(T) int64) *catalog[T] {
	return &catalog[T]{name: name, all: cache.NewValue[[]T](name), load: load, getID: getID}
}

func (c *catalog[T]) All(ctx context.Context, force bool) ([]T, error) {
	return c.all.Get(ctx, force, func(ctx context.Context) ([]T, error) {
		items, err := c.load(ctx)
		if err != nil {
			slog.Warn("load catalog failed", "catalog", c.name, "err", err)
			return nil, err
		}
		return items, nil
	})
}

func (c *catalog[T]) ByID(id int64) (T, bool) {
	items, _ := c.all.Peek()
	for _, item := range items {
		if c.getID(item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Instruments is the instrument catalog service.
type Instruments struct {
	*catalog[domain.Instrument]
}

// NewInstruments builds the instrument catalog.
func NewInstruments(client *api.Client) *Instruments {
	return &Instruments{newCatalog("instruments", client.Instruments, func(i domain.Instrument) int64 { return i.ID })}
}

// ClearCache drops the cached list.
func (s *Instruments) ClearCache() { s.all.Invalidate() }

// Preload warms the cache and ignores failures.
func (s *Instruments) Preload(ctx context.Context) { _, _ = s.All(ctx, false) }

// Loading reports whether the list is being fetched.
func (s *Instruments) Loading() bool { return s.all.Loading() }

// Genres is the music genre catalog service.
type Genres struct {
	*catalog[domain.MusicGenre]
}

// NewGenres builds the genre catalog.
func NewGenres(client *api.Client) *Genres {
	return &Genres{newCatalog("genres", client.Genres, func(g domain.MusicGenre) int64 { return g.ID })}
}

// ClearCache drops the cached list.
func (s *Genres) ClearCache() { s.all.Invalidate() }

// Preload warms the cache and ignores failures.
func (s *Genres) Preload(ctx context.Context) { _, _ = s.All(ctx, false) }

// Loading reports whether the list is being fetched.
func (s *Genres) Loading() bool { return s.all.Loading() }
