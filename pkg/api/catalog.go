package api

import (
	"context"
	"fmt"
	"net/http"

	"jamsession/pkg/domain"
)

// Instruments lists the instrument catalog.
func (c *Client) Instruments(ctx context.Context) ([]domain.Instrument, error) {
	var out []domain.Instrument
	if err := c.doJSON(ctx, http.MethodGet, "/api/instruments/all", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Instrument{}
	}
	return out, nil
}

// Genres lists the music genre catalog.
func (c *Client) Genres(ctx context.Context) ([]domain.MusicGenre, error) {
	var out []domain.MusicGenre
	if err := c.doJSON(ctx, http.MethodGet, "/api/genres/all", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.MusicGenre{}
	}
	return out, nil
}

// AddInstrument creates an instrument. Admin only.
func (c *Client) AddInstrument(ctx context.Context, name string) (domain.Instrument, error) {
	var out domain.Instrument
	if err := c.doJSON(ctx, http.MethodPost, "/api/instruments/new", map[string]string{"name": name}, &out); err != nil {
		return domain.Instrument{}, err
	}
	if out.Name == "" {
		out.Name = name
	}
	return out, nil
}

// DeleteInstrument removes an instrument. The backend answers 409 while
// the instrument is referenced.
func (c *Client) DeleteInstrument(ctx context.Context, id int64) error {
	_, err := c.doBytes(ctx, http.MethodDelete, fmt.Sprintf("/api/instruments/delete?id=%d", id), nil)
	return err
}

// AddGenre creates a music genre. Admin only.
func (c *Client) AddGenre(ctx context.Context, name string) (domain.MusicGenre, error) {
	var out domain.MusicGenre
	if err := c.doJSON(ctx, http.MethodPost, "/api/genres/create", map[string]string{"name": name}, &out); err != nil {
		return domain.MusicGenre{}, err
	}
	if out.Name == "" {
		out.Name = name
	}
	return out, nil
}

// DeleteGenre removes a music genre. The backend answers 409 while the
// genre is referenced.
func (c *Client) DeleteGenre(ctx context.Context, id int64) error {
	_, err := c.doBytes(ctx, http.MethodDelete, fmt.Sprintf("/api/genres/delete?id=%d", id), nil)
	return err
}
