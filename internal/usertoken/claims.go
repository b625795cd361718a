// Package usertoken reads the claims of the access token issued by the
// backend. The client never holds the signing key, so tokens are decoded
// without signature verification and only used to drive local state
// (expiry, current user, admin role). The backend stays authoritative.
package usertoken

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the authority name the backend puts in the roles claim.
const RoleAdmin = "ROLE_ADMIN"

var (
	// ErrMalformed is returned for tokens that cannot be decoded.
	ErrMalformed = errors.New("malformed token")
	// ErrNoExpiry is returned for tokens without an exp claim.
	ErrNoExpiry = errors.New("token has no expiry")
)

// Claims is the subset of token claims the client relies on.
type Claims struct {
	Subject   string
	Roles     []string
	ExpiresAt time.Time
}

// Parse decodes token without verifying its signature.
func Parse(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrMalformed
	}
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mapClaims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if exp == nil {
		return Claims{}, ErrNoExpiry
	}
	return Claims{
		Subject:   subject(mapClaims["sub"]),
		Roles:     roles(mapClaims["roles"]),
		ExpiresAt: exp.Time,
	}, nil
}

// Valid reports whether token decodes and has not expired at now.
func Valid(token string, now time.Time) bool {
	claims, err := Parse(token)
	if err != nil {
		return false
	}
	return claims.ExpiresAt.After(now)
}

// UserID returns the numeric subject, or false when the subject is absent
// or not a number.
func (c Claims) UserID() (int64, bool) {
	if c.Subject == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// IsAdmin reports whether the roles claim contains RoleAdmin.
func (c Claims) IsAdmin() bool {
	for _, r := range c.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// ExpiresIn returns the time left before expiry at now.
func (c Claims) ExpiresIn(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

func subject(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatInt(int64(s), 10)
	default:
		return ""
	}
}

func roles(v any) []string {
	switch r := v.(type) {
	case []any:
		out := make([]string, 0, len(r))
		for _, item := range r {
			switch role := item.(type) {
			case string:
				out = append(out, role)
			case map[string]any:
				// Spring serializes GrantedAuthority as {"authority": "..."}.
				if name, ok := role["authority"].(string); ok {
					out = append(out, name)
				}
			}
		}
		return out
	case string:
		return strings.Fields(strings.ReplaceAll(r, ",", " "))
	default:
		return nil
	}
}
