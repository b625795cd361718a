package api

import (
	"context"
	"net/http"
	"strings"
)

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Login exchanges credentials for a JWT. The backend answers with the bare
// token as text.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	payload := map[string]string{"email": email, "password": password}
	body, err := c.doBytes(ctx, http.MethodPost, "/auth/login", payload)
	if err != nil {
		return "", err
	}
	token := strings.Trim(strings.TrimSpace(string(body)), `"`)
	if token == "" {
		return "", ErrMalformedResponse
	}
	return token, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/users/register", req, nil)
}
