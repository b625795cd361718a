package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ImagePath normalizes an image reference to the part after /api/.
// References arrive as ids ("12"), relative paths ("images/12") or absolute
// paths ("/api/images/12").
func ImagePath(ref string) string {
	ref = strings.TrimSpace(ref)
	ref = strings.TrimLeft(ref, "/")
	ref = strings.TrimPrefix(ref, "api/")
	return ref
}

// Image downloads an image and returns its bytes and content type.
func (c *Client) Image(ctx context.Context, ref string) ([]byte, string, error) {
	path := ImagePath(ref)
	if path == "" {
		return nil, "", fmt.Errorf("empty image path")
	}
	data, contentType, err := c.send(ctx, http.MethodGet, "/api/"+path, nil, "")
	if err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
