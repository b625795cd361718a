package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"jamsession/pkg/api"
	"jamsession/pkg/domain"
)

// Ratings is the instrument rating service. Ratings are not cached on
// their own; they live inside cached users, which are invalidated on
// every change.
type Ratings struct {
	client   *api.Client
	users    *Users
	notifier Notifier
}

// NewRatings builds the rating service.
func NewRatings(client *api.Client, users *Users, n Notifier) *Ratings {
	return &Ratings{client: client, users: users, notifier: n}
}

// Add stores ratings for userID. Entries without an instrument or with a
// rating outside 1..5 are dropped; nothing is sent when none remain.
func (s *Ratings) Add(ctx context.Context, userID int64, ratings []api.NewRating) error {
	if userID <= 0 {
		return invalid("user id is required")
	}
	valid := make([]api.NewRating, 0, len(ratings))
	for _, r := range ratings {
		if r.InstrumentID <= 0 || r.Rating < 1 || r.Rating > 5 {
			continue
		}
		r.UserID = userID
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return nil
	}
	if err := s.client.AddRatings(ctx, valid); err != nil {
		slog.Warn("add ratings failed", "user_id", userID, "err", err)
		return fmt.Errorf("add ratings: %w", err)
	}
	s.invalidate(userID)
	return nil
}

// Delete removes a rating of userID. The backend answers 403 while the
// user is signed up for a session with that instrument.
func (s *Ratings) Delete(ctx context.Context, id, userID int64) error {
	if err := s.client.DeleteRating(ctx, id); err != nil {
		if api.IsStatus(err, http.StatusForbidden) {
			s.notifier.Notify(MsgRatingInSession)
		}
		slog.Warn("delete rating failed", "rating_id", id, "err", err)
		return fmt.Errorf("delete rating: %w", err)
	}
	s.invalidate(userID)
	return nil
}

// ForUser fetches userID's ratings without caching.
func (s *Ratings) ForUser(ctx context.Context, userID int64) ([]domain.InstrumentRating, error) {
	return s.client.UserRatings(ctx, userID)
}

func (s *Ratings) invalidate(userID int64) {
	if s.users == nil {
		return
	}
	s.users.ClearUser(userID)
	s.users.InvalidateAll()
}
