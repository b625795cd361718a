package api

import (
	"context"
	"fmt"
	"net/http"

	"jamsession/pkg/domain"
)

// NewRating is one entry of a batch rating insert.
type NewRating struct {
	UserID       int64 `json:"userId"`
	InstrumentID int64 `json:"instrumentId"`
	Rating       int   `json:"rating"`
}

// UserRatings lists a user's instrument ratings.
func (c *Client) UserRatings(ctx context.Context, userID int64) ([]domain.InstrumentRating, error) {
	body, err := c.doBytes(ctx, http.MethodGet, fmt.Sprintf("/api/rating?userId=%d", userID), nil)
	if err != nil {
		return nil, err
	}
	items, err := parseArray(body)
	if err != nil {
		return nil, err
	}
	ratings := make([]domain.InstrumentRating, 0, len(items))
	for _, item := range items {
		ratings = append(ratings, ratingFrom(item))
	}
	return ratings, nil
}

// AddRatings stores several ratings in one call.
func (c *Client) AddRatings(ctx context.Context, ratings []NewRating) error {
	return c.doJSON(ctx, http.MethodPost, "/api/rating/batch", ratings, nil)
}

// DeleteRating removes one rating.
func (c *Client) DeleteRating(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/rating?id=%d", id), nil, nil)
}
