package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"jamsession/pkg/api"
	"jamsession/pkg/cache"
	"jamsession/pkg/domain"
)

// InstrumentQuantity asks for Quantity slots of one instrument.
type InstrumentQuantity struct {
	InstrumentID int64
	Quantity     int
}

// SessionForm is the new jam session form. Date is YYYY-MM-DD, Time is
// HH:MM.
type SessionForm struct {
	Date        string
	Time        string
	Location    *domain.Location
	GenreID     int64
	Instruments []InstrumentQuantity
}

// JamSessions is the jam session domain service.
type JamSessions struct {
	client   *api.Client
	byID     *cache.Memo[int64, domain.JamSession]
	all      *cache.Value[[]domain.JamSession]
	owned    *cache.Memo[int64, []domain.JamSession]
	signedUp *cache.Memo[int64, []domain.JamSession]
}

// NewJamSessions builds the jam session service.
func NewJamSessions(client *api.Client) *JamSessions {
	return &JamSessions{
		client:   client,
		byID:     cache.New[int64, domain.JamSession]("sessions"),
		all:      cache.NewValue[[]domain.JamSession]("sessions-all"),
		owned:    cache.New[int64, []domain.JamSession]("sessions-owned"),
		signedUp: cache.New[int64, []domain.JamSession]("sessions-signed-up"),
	}
}

// GetAll returns every session.
func (s *JamSessions) GetAll(ctx context.Context, force bool) ([]domain.JamSession, error) {
	return s.all.Get(ctx, force, func(ctx context.Context) ([]domain.JamSession, error) {
		return logged(s.client.JamSessions(ctx))("load sessions failed")
	})
}

// Get returns one session.
func (s *JamSessions) Get(ctx context.Context, id int64, force bool) (domain.JamSession, error) {
	return s.byID.Get(ctx, id, force, func(ctx context.Context) (domain.JamSession, error) {
		return logged(s.client.JamSession(ctx, id))("load session failed", "session_id", id)
	})
}

// GetOwned returns sessions created by userID.
func (s *JamSessions) GetOwned(ctx context.Context, userID int64, force bool) ([]domain.JamSession, error) {
	return s.owned.Get(ctx, userID, force, func(ctx context.Context) ([]domain.JamSession, error) {
		return logged(s.client.OwnedJamSessions(ctx, userID))("load owned sessions failed", "user_id", userID)
	})
}

// GetSignedUp returns sessions userID has joined.
func (s *JamSessions) GetSignedUp(ctx context.Context, userID int64, force bool) ([]domain.JamSession, error) {
	return s.signedUp.Get(ctx, userID, force, func(ctx context.Context) ([]domain.JamSession, error) {
		return logged(s.client.SignedUpJamSessions(ctx, userID))("load signed-up sessions failed", "user_id", userID)
	})
}

// LoadOwned refreshes the owned list of userID.
func (s *JamSessions) LoadOwned(ctx context.Context, userID int64) error {
	_, err := s.GetOwned(ctx, userID, true)
	return err
}

// LoadSignedUp refreshes the signed-up list of userID.
func (s *JamSessions) LoadSignedUp(ctx context.Context, userID int64) error {
	_, err := s.GetSignedUp(ctx, userID, true)
	return err
}

// OwnedSessions returns the cached owned list of userID.
func (s *JamSessions) OwnedSessions(userID int64) []domain.JamSession {
	list, _ := s.owned.Peek(userID)
	return list
}

// SignedUpSessions returns the cached signed-up list of userID.
func (s *JamSessions) SignedUpSessions(userID int64) []domain.JamSession {
	list, _ := s.signedUp.Peek(userID)
	return list
}

// Create validates form and creates a session. Each instrument quantity
// becomes that many required-instrument entries.
func (s *JamSessions) Create(ctx context.Context, form SessionForm) error {
	payload, err := form.payload()
	if err != nil {
		return err
	}
	if err := s.client.CreateJamSession(ctx, payload); err != nil {
		slog.Warn("create session failed", "err", err)
		return fmt.Errorf("create session: %w", err)
	}
	s.all.Invalidate()
	s.owned.InvalidateAll()
	return nil
}

// Edit patches a session.
func (s *JamSessions) Edit(ctx context.Context, id int64, edit domain.EditJamSession) error {
	if edit.StartTime != "" {
		if _, err := time.Parse(domain.StartTimeLayout, edit.StartTime); err != nil {
			return invalid("start time must look like 2006-01-02T15:04:05")
		}
	}
	if err := s.client.EditJamSession(ctx, id, edit); err != nil {
		slog.Warn("edit session failed", "session_id", id, "err", err)
		return fmt.Errorf("edit session: %w", err)
	}
	s.byID.Invalidate(id)
	s.all.Invalidate()
	s.owned.InvalidateAll()
	s.signedUp.InvalidateAll()
	return nil
}

// Delete removes a session and drops it from the cached lists.
func (s *JamSessions) Delete(ctx context.Context, id int64) error {
	if err := s.client.DeleteJamSession(ctx, id); err != nil {
		slog.Warn("delete session failed", "session_id", id, "err", err)
		return fmt.Errorf("delete session: %w", err)
	}
	drop := func(_ int64, list []domain.JamSession) []domain.JamSession { return without(list, id) }
	s.owned.UpdateAll(drop)
	s.signedUp.UpdateAll(drop)
	s.byID.Invalidate(id)
	s.all.Invalidate()
	return nil
}

// Join takes a slot in a session with one of the caller's ratings.
func (s *JamSessions) Join(ctx context.Context, sessionID, ratingID int64) error {
	if err := s.client.JoinJamSession(ctx, sessionID, ratingID); err != nil {
		slog.Warn("join session failed", "session_id", sessionID, "err", err)
		return fmt.Errorf("join session: %w", err)
	}
	s.byID.Invalidate(sessionID)
	s.all.Invalidate()
	s.signedUp.InvalidateAll()
	return nil
}

// Leave frees userID's slot and drops the session from userID's signed-up
// list.
func (s *JamSessions) Leave(ctx context.Context, sessionID, userID int64) error {
	if err := s.client.LeaveJamSession(ctx, sessionID, userID); err != nil {
		slog.Warn("leave session failed", "session_id", sessionID, "user_id", userID, "err", err)
		return fmt.Errorf("leave session: %w", err)
	}
	s.signedUp.Update(userID, func(list []domain.JamSession) []domain.JamSession { return without(list, sessionID) })
	s.byID.Invalidate(sessionID)
	s.all.Invalidate()
	return nil
}

// ClearCache drops every cached session and list.
func (s *JamSessions) ClearCache() {
	s.byID.InvalidateAll()
	s.all.Invalidate()
	s.owned.InvalidateAll()
	s.signedUp.InvalidateAll()
}

// IsLoading reports whether session id is being fetched.
func (s *JamSessions) IsLoading(id int64) bool { return s.byID.Loading(id) }

// IsLoadingAll reports whether the all-sessions list is being fetched.
func (s *JamSessions) IsLoadingAll() bool { return s.all.Loading() }

// IsLoadingOwned reports whether an owned list is being fetched.
func (s *JamSessions) IsLoadingOwned() bool { return s.owned.LoadingAny() }

// IsLoadingSignedUp reports whether a signed-up list is being fetched.
func (s *JamSessions) IsLoadingSignedUp() bool { return s.signedUp.LoadingAny() }

func (f SessionForm) payload() (domain.NewJamSession, error) {
	date, clock := strings.TrimSpace(f.Date), strings.TrimSpace(f.Time)
	if date == "" || clock == "" {
		return domain.NewJamSession{}, invalid("start date and time are required")
	}
	start := date + "T" + clock + ":00"
	if _, err := time.Parse(domain.StartTimeLayout, start); err != nil {
		return domain.NewJamSession{}, invalid("start date must be YYYY-MM-DD and time HH:MM")
	}
	if f.Location == nil {
		return domain.NewJamSession{}, invalid("location is required")
	}
	if f.Location.Latitude < -90 || f.Location.Latitude > 90 || f.Location.Longitude < -180 || f.Location.Longitude > 180 {
		return domain.NewJamSession{}, invalid("location is out of range")
	}
	if f.GenreID <= 0 {
		return domain.NewJamSession{}, invalid("music genre is required")
	}
	var required []domain.IDRef
	for _, iq := range f.Instruments {
		if iq.InstrumentID <= 0 || iq.Quantity < 1 {
			return domain.NewJamSession{}, invalid("every instrument needs a quantity of at least 1")
		}
		for range iq.Quantity {
			required = append(required, domain.IDRef{ID: iq.InstrumentID})
		}
	}
	if len(required) == 0 {
		return domain.NewJamSession{}, invalid("at least one instrument is required")
	}
	return domain.NewJamSession{
		StartTime:           start,
		Location:            *f.Location,
		RequiredInstruments: required,
		MusicGenreID:        f.GenreID,
	}, nil
}

func without(list []domain.JamSession, id int64) []domain.JamSession {
	out := make([]domain.JamSession, 0, len(list))
	for _, s := range list {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

// logged logs a failed load with args and passes the result through.
func logged[T any](v T, err error) func(msg string, args ...any) (T, error) {
	return func(msg string, args ...any) (T, error) {
		if err != nil {
			slog.Warn(msg, append(args, "err", err)...)
		}
		return v, err
	}
}
