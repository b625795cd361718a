package api

import (
	"context"
	"fmt"
	"net/http"

	"jamsession/pkg/domain"
)

// JamSessions lists every session.
func (c *Client) JamSessions(ctx context.Context) ([]domain.JamSession, error) {
	return c.sessionList(ctx, "/api/jam/all")
}

// OwnedJamSessions lists sessions created by userID.
func (c *Client) OwnedJamSessions(ctx context.Context, userID int64) ([]domain.JamSession, error) {
	return c.sessionList(ctx, fmt.Sprintf("/api/jam/own/%d", userID))
}

// SignedUpJamSessions lists sessions userID has joined.
func (c *Client) SignedUpJamSessions(ctx context.Context, userID int64) ([]domain.JamSession, error) {
	return c.sessionList(ctx, fmt.Sprintf("/api/jam/signed-up/%d", userID))
}

// JamSession fetches one session.
func (c *Client) JamSession(ctx context.Context, id int64) (domain.JamSession, error) {
	body, err := c.doBytes(ctx, http.MethodGet, fmt.Sprintf("/api/jam/%d", id), nil)
	if err != nil {
		return domain.JamSession{}, err
	}
	obj, err := parseObject(body)
	if err != nil {
		return domain.JamSession{}, err
	}
	return sessionFrom(obj), nil
}

// CreateJamSession creates a session owned by the caller.
func (c *Client) CreateJamSession(ctx context.Context, session domain.NewJamSession) error {
	return c.doJSON(ctx, http.MethodPost, "/api/jam/create", session, nil)
}

// EditJamSession patches a session.
func (c *Client) EditJamSession(ctx context.Context, id int64, edit domain.EditJamSession) error {
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/api/jam/edit/%d", id), edit, nil)
}

// DeleteJamSession removes a session.
func (c *Client) DeleteJamSession(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/jam/delete/%d", id), nil, nil)
}

// JoinJamSession takes a slot in a session with one of the caller's ratings.
func (c *Client) JoinJamSession(ctx context.Context, sessionID, ratingID int64) error {
	payload := map[string]int64{"instrumentAndRatingId": ratingID}
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/jam/join/%d", sessionID), payload, nil)
}

// LeaveJamSession frees userID's slot in a session.
func (c *Client) LeaveJamSession(ctx context.Context, sessionID, userID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/jam/leave/%d/%d", sessionID, userID), nil, nil)
}

func (c *Client) sessionList(ctx context.Context, path string) ([]domain.JamSession, error) {
	body, err := c.doBytes(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	items, err := parseArray(body)
	if err != nil {
		return nil, err
	}
	sessions := make([]domain.JamSession, 0, len(items))
	for _, item := range items {
		sessions = append(sessions, sessionFrom(item))
	}
	return sessions, nil
}
