package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"jamsession/pkg/api"
	"jamsession/pkg/domain"
)

// Result is the outcome of the last admin operation.
type Result struct {
	Success bool
	Message string
}

// Admin implements the admin panel: catalog lists with add and remove.
type Admin struct {
	client      *api.Client
	instruments *Instruments
	genres      *Genres
	notifier    Notifier

	mu                 sync.Mutex
	genreList          []domain.MusicGenre
	instrumentList     []domain.Instrument
	loadingGenres      bool
	loadingInstruments bool
	last               Result
}

// NewAdmin builds the admin panel service.
func NewAdmin(client *api.Client, instruments *Instruments, genres *Genres, n Notifier) *Admin {
	return &Admin{client: client, instruments: instruments, genres: genres, notifier: n}
}

// Load fetches both panel lists from the backend.
func (a *Admin) Load(ctx context.Context) error {
	a.setLoading(true, true)
	genres, gerr := a.client.Genres(ctx)
	a.setLoading(false, true)
	instruments, ierr := a.client.Instruments(ctx)
	a.setLoading(false, false)

	a.mu.Lock()
	if gerr == nil {
		a.genreList = genres
	}
	if ierr == nil {
		a.instrumentList = instruments
	}
	a.mu.Unlock()
	if gerr != nil {
		return fmt.Errorf("load genres: %w", gerr)
	}
	if ierr != nil {
		return fmt.Errorf("load instruments: %w", ierr)
	}
	return nil
}

// GenreList returns the panel's genres.
func (a *Admin) GenreList() []domain.MusicGenre {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.MusicGenre(nil), a.genreList...)
}

// InstrumentList returns the panel's instruments.
func (a *Admin) InstrumentList() []domain.Instrument {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]domain.Instrument(nil), a.instrumentList...)
}

// AddGenre creates a genre and appends it to the panel list.
func (a *Admin) AddGenre(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("genre name is required")
	}
	genre, err := a.client.AddGenre(ctx, name)
	if err != nil {
		slog.Warn("add genre failed", "name", name, "err", err)
		a.fail(MsgGenreExists)
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	a.mu.Lock()
	a.genreList = append(a.genreList, genre)
	a.mu.Unlock()
	a.genres.ClearCache()
	a.succeed(fmt.Sprintf("Music genre %q added successfully", name))
	return nil
}

// AddInstrument creates an instrument and appends it to the panel list.
func (a *Admin) AddInstrument(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return invalid("instrument name is required")
	}
	instrument, err := a.client.AddInstrument(ctx, name)
	if err != nil {
		slog.Warn("add instrument failed", "name", name, "err", err)
		a.fail(MsgInstrumentExists)
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	a.mu.Lock()
	a.instrumentList = append(a.instrumentList, instrument)
	a.mu.Unlock()
	a.instruments.ClearCache()
	a.succeed(fmt.Sprintf("Instrument %q added successfully", name))
	return nil
}

// RemoveGenre deletes a genre. A genre still referenced stays in the list
// and ErrInUse is returned.
func (a *Admin) RemoveGenre(ctx context.Context, id int64) error {
	if err := a.client.DeleteGenre(ctx, id); err != nil {
		if api.IsStatus(err, http.StatusConflict) {
			a.fail(MsgGenreInUse)
			return ErrInUse
		}
		a.setResult(Result{Message: err.Error()})
		return fmt.Errorf("remove genre: %w", err)
	}
	a.mu.Lock()
	a.genreList = removeByID(a.genreList, id, func(g domain.MusicGenre) int64 { return g.ID })
	a.mu.Unlock()
	a.genres.ClearCache()
	a.succeed("Music genre removed successfully")
	return nil
}

// RemoveInstrument deletes an instrument. An instrument still referenced
// stays in the list and ErrInUse is returned.
func (a *Admin) RemoveInstrument(ctx context.Context, id int64) error {
	if err := a.client.DeleteInstrument(ctx, id); err != nil {
		if api.IsStatus(err, http.StatusConflict) {
			a.fail(MsgInstrumentInUse)
			return ErrInUse
		}
		a.setResult(Result{Message: err.Error()})
		return fmt.Errorf("remove instrument: %w", err)
	}
	a.mu.Lock()
	a.instrumentList = removeByID(a.instrumentList, id, func(i domain.Instrument) int64 { return i.ID })
	a.mu.Unlock()
	a.instruments.ClearCache()
	a.succeed("Instrument removed successfully")
	return nil
}

// LastResult returns the outcome of the last operation.
func (a *Admin) LastResult() Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Loading reports whether the genre or instrument list is being fetched.
func (a *Admin) Loading() (genres, instruments bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadingGenres, a.loadingInstruments
}

func (a *Admin) fail(msg string) {
	a.setResult(Result{Message: msg})
	a.notifier.Notify(msg)
}

func (a *Admin) succeed(msg string) {
	a.setResult(Result{Success: true, Message: msg})
}

func (a *Admin) setResult(r Result) {
	a.mu.Lock()
	a.last = r
	a.mu.Unlock()
}

func (a *Admin) setLoading(genres, instruments bool) {
	a.mu.Lock()
	a.loadingGenres = genres
	a.loadingInstruments = instruments
	a.mu.Unlock()
}

func removeByID[T any](list []T, id int64, getID func(T) int64) []T {
	out := make([]T, 0, len(list))
	for _, item := range list {
		if getID(item) != id {
			out = append(out, item)
		}
	}
	return out
}
