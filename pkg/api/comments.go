package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"jamsession/pkg/domain"
)

// Comments lists a session's comments with nested replies.
func (c *Client) Comments(ctx context.Context, sessionID int64) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/jam/comments/%d", sessionID), nil, &comments); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []domain.Comment{}
	}
	return comments, nil
}

// AddComment posts a comment, optionally with an image and as a reply to
// parentID.
func (c *Client) AddComment(ctx context.Context, sessionID int64, message string, image *Upload, parentID *int64) (domain.Comment, error) {
	form := newMultipartForm()
	if err := form.jsonPart("data", map[string]string{"message": message}); err != nil {
		return domain.Comment{}, err
	}
	if image != nil {
		if err := form.file("image", *image); err != nil {
			return domain.Comment{}, err
		}
	}
	body, contentType, err := form.finish()
	if err != nil {
		return domain.Comment{}, err
	}
	path := fmt.Sprintf("/api/jam/comments/%d", sessionID)
	if parentID != nil {
		path += "?" + url.Values{"parentId": {fmt.Sprint(*parentID)}}.Encode()
	}
	data, _, err := c.send(ctx, http.MethodPost, path, body, contentType)
	if err != nil {
		return domain.Comment{}, err
	}
	return decodeComment(data)
}

// DeleteComment removes a comment from a session.
func (c *Client) DeleteComment(ctx context.Context, sessionID, messageID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/jam/comments/%d/%d", sessionID, messageID), nil, nil)
}

// React toggles the caller's reaction on a comment.
func (c *Client) React(ctx context.Context, messageID int64, reaction domain.ReactionType) (domain.Comment, error) {
	path := fmt.Sprintf("/api/jam/comments/%d/react?", messageID) + url.Values{"type": {string(reaction)}}.Encode()
	data, err := c.doBytes(ctx, http.MethodPost, path, nil)
	if err != nil {
		return domain.Comment{}, err
	}
	return decodeComment(data)
}

// decodeComment tolerates an empty body; some endpoints answer 201 without
// content.
func decodeComment(data []byte) (domain.Comment, error) {
	var out domain.Comment
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return domain.Comment{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out, nil
}
