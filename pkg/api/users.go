package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"jamsession/pkg/domain"
)

// UserUpdate is the profile update payload.
type UserUpdate struct {
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Password          string  `json:"password,omitempty"`
	Bio               string  `json:"bio,omitempty"`
	FavouriteGenreIDs []int64 `json:"favouriteGenreIds"`
}

// Users lists every user without ratings.
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	body, err := c.doBytes(ctx, http.MethodGet, "/api/users/all", nil)
	if err != nil {
		return nil, err
	}
	items, err := parseArray(body)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(items))
	for _, item := range items {
		users = append(users, userFrom(item))
	}
	return users, nil
}

// User fetches one user without ratings.
func (c *Client) User(ctx context.Context, id int64) (domain.User, error) {
	body, err := c.doBytes(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d", id), nil)
	if err != nil {
		return domain.User{}, err
	}
	obj, err := parseObject(body)
	if err != nil {
		return domain.User{}, err
	}
	return userFrom(obj), nil
}

// UpdateUser patches a user's profile.
func (c *Client) UpdateUser(ctx context.Context, id int64, update UserUpdate) error {
	if update.FavouriteGenreIDs == nil {
		update.FavouriteGenreIDs = []int64{}
	}
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/api/users/update/%d", id), update, nil)
}

// UploadProfilePicture replaces the logged-in user's picture.
func (c *Client) UploadProfilePicture(ctx context.Context, file Upload) error {
	form := newMultipartForm()
	if err := form.file("file", file); err != nil {
		return err
	}
	body, contentType, err := form.finish()
	if err != nil {
		return err
	}
	_, _, err = c.send(ctx, http.MethodPost, "/api/images/profile-picture", body, contentType)
	return err
}

// Upload is a file attached to a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}
