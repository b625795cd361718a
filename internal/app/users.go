package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"jamsession/pkg/api"
	"jamsession/pkg/cache"
	"jamsession/pkg/domain"
)

// maxRatingFetches bounds parallel per-user rating requests in GetAll.
const maxRatingFetches = 8

// UserForm is the profile edit form.
type UserForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Bio             string
	GenreIDs        []int64
}

// Users is the user domain service.
type Users struct {
	client *api.Client
	images *Images
	byID   *cache.Memo[int64, domain.User]
	all    *cache.Value[[]domain.User]
}

// NewUsers builds the user service. images may be nil.
func NewUsers(client *api.Client, images *Images) *Users {
	return &Users{
		client: client,
		images: images,
		byID:   cache.New[int64, domain.User]("users"),
		all:    cache.NewValue[[]domain.User]("users-all"),
	}
}

// Get returns a user with ratings. Failing to load ratings yields a user
// with an empty rating list.
func (s *Users) Get(ctx context.Context, id int64, force bool) (domain.User, error) {
	return s.byID.Get(ctx, id, force, func(ctx context.Context) (domain.User, error) {
		user, err := s.client.User(ctx, id)
		if err != nil {
			slog.Warn("load user failed", "user_id", id, "err", err)
			return domain.User{}, err
		}
		user.InstrumentsAndRatings = s.ratings(ctx, id)
		return user, nil
	})
}

// GetAll returns every user with ratings, fetching ratings in parallel.
func (s *Users) GetAll(ctx context.Context, force bool) ([]domain.User, error) {
	return s.all.Get(ctx, force, func(ctx context.Context) ([]domain.User, error) {
		users, err := s.client.Users(ctx)
		if err != nil {
			slog.Warn("load users failed", "err", err)
			return nil, err
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(maxRatingFetches)
		for i := range users {
			g.Go(func() error {
				users[i].InstrumentsAndRatings = s.ratings(gctx, users[i].ID)
				return nil
			})
		}
		_ = g.Wait()
		return users, nil
	})
}

// Update validates form and patches the user.
func (s *Users) Update(ctx context.Context, id int64, form UserForm) error {
	if err := validateName(form.Name); err != nil {
		return err
	}
	if err := validateEmail(form.Email); err != nil {
		return err
	}
	if err := validatePassword(form.Password, form.ConfirmPassword, true); err != nil {
		return err
	}
	if err := validateBio(form.Bio); err != nil {
		return err
	}
	err := s.client.UpdateUser(ctx, id, api.UserUpdate{
		Name:              strings.TrimSpace(form.Name),
		Email:             strings.TrimSpace(form.Email),
		Password:          form.Password,
		Bio:               form.Bio,
		FavouriteGenreIDs: form.GenreIDs,
	})
	if err != nil {
		slog.Warn("update user failed", "user_id", id, "err", err)
		return fmt.Errorf("update user: %w", err)
	}
	s.ClearUser(id)
	s.all.Invalidate()
	return nil
}

// UpdateImage uploads a new profile picture for the logged-in user id.
// Only JPG and PNG files are accepted.
func (s *Users) UpdateImage(ctx context.Context, id int64, filename string, r io.Reader) error {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "jpg", "jpeg", "png":
	default:
		return ErrUnsupportedImage
	}
	var oldPicture *int64
	if u, ok := s.byID.Peek(id); ok {
		oldPicture = u.ProfilePictureID
	}
	if err := s.client.UploadProfilePicture(ctx, api.Upload{Filename: filename, Reader: r}); err != nil {
		slog.Warn("upload profile picture failed", "user_id", id, "err", err)
		return fmt.Errorf("upload profile picture: %w", err)
	}
	s.ClearUser(id)
	s.all.Invalidate()
	if s.images != nil && oldPicture != nil {
		s.images.Clear(ctx, ProfilePicturePath(*oldPicture))
	}
	return nil
}

// Cached returns a user without loading.
func (s *Users) Cached(id int64) (domain.User, bool) {
	return s.byID.Peek(id)
}

// ClearUser drops one user from the cache.
func (s *Users) ClearUser(id int64) {
	s.byID.Invalidate(id)
}

// InvalidateAll drops the all-users list.
func (s *Users) InvalidateAll() {
	s.all.Invalidate()
}

// ClearAll drops every cached user.
func (s *Users) ClearAll() {
	s.byID.InvalidateAll()
	s.all.Invalidate()
}

// IsLoading reports whether user id is being fetched.
func (s *Users) IsLoading(id int64) bool {
	return s.byID.Loading(id)
}

// IsLoadingAll reports whether the all-users list is being fetched.
func (s *Users) IsLoadingAll() bool {
	return s.all.Loading()
}

func (s *Users) ratings(ctx context.Context, userID int64) []domain.InstrumentRating {
	ratings, err := s.client.UserRatings(ctx, userID)
	if err != nil {
		slog.Warn("load ratings failed", "user_id", userID, "err", err)
		return []domain.InstrumentRating{}
	}
	return ratings
}
