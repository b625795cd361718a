package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"jamsession/internal/usertoken"
	"jamsession/pkg/api"
	"jamsession/pkg/domain"
	"jamsession/pkg/store"
)

// RegisterForm is the registration form.
type RegisterForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Auth holds the login state. It is the token source of the API client.
type Auth struct {
	client   *api.Client
	tokens   store.TokenStore
	users    *Users
	notifier Notifier
	nav      Navigator
	now      func() time.Time

	mu     sync.Mutex
	token  string
	claims usertoken.Claims
	timer  *time.Timer
	// gen identifies the current login so a stale expiry timer is ignored.
	gen uint64
}

// NewAuth builds the auth service.
func NewAuth(client *api.Client, tokens store.TokenStore, users *Users, n Notifier, nav Navigator, now func() time.Time) *Auth {
	if now == nil {
		now = time.Now
	}
	return &Auth{client: client, tokens: tokens, users: users, notifier: n, nav: nav, now: now}
}

// Login authenticates, stores the token and opens the user's profile.
// Empty credentials are rejected without a request.
func (a *Auth) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return invalid("email and password are required")
	}
	token, err := a.client.Login(ctx, email, password)
	if err != nil {
		a.notifier.Notify(MsgLoginFailed)
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	claims, err := usertoken.Parse(token)
	if err != nil || !claims.ExpiresAt.After(a.now()) {
		a.notifier.Notify(MsgLoginFailed)
		if err == nil {
			err = errors.New("token already expired")
		}
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if err := a.tokens.Save(ctx, token, claims.ExpiresIn(a.now())); err != nil {
		slog.Warn("store token failed", "err", err)
	}
	a.setSession(token, claims)

	if id, ok := claims.UserID(); ok {
		a.nav.Navigate(ProfileRoute(id))
	} else {
		a.nav.Navigate(RouteSessions)
	}
	return nil
}

// Register creates an account and opens the login screen.
func (a *Auth) Register(ctx context.Context, form RegisterForm) error {
	if err := validateName(form.Name); err != nil {
		return err
	}
	if err := validateEmail(form.Email); err != nil {
		return err
	}
	if err := validatePassword(form.Password, form.ConfirmPassword, false); err != nil {
		return err
	}
	err := a.client.Register(ctx, api.RegisterRequest{
		Email:    strings.TrimSpace(form.Email),
		Name:     strings.TrimSpace(form.Name),
		Password: form.Password,
	})
	if err != nil {
		// The backend reports a duplicate email as 500 or 409.
		if api.IsStatus(err, http.StatusInternalServerError) || api.IsStatus(err, http.StatusConflict) {
			return ErrEmailTaken
		}
		return fmt.Errorf("register: %w", err)
	}
	a.nav.Navigate(RouteLogin)
	return nil
}

// Logout clears the login state and the stored token and opens the login
// screen.
func (a *Auth) Logout(showMessage bool) {
	a.mu.Lock()
	userID, _ := a.claims.UserID()
	a.clearLocked()
	a.mu.Unlock()

	if err := a.tokens.Clear(context.Background()); err != nil {
		slog.Warn("clear token failed", "err", err)
	}
	if a.users != nil && userID != 0 {
		a.users.ClearUser(userID)
	}
	if showMessage {
		a.notifier.Notify(MsgLoggedOut)
	}
	a.nav.Navigate(RouteLogin)
}

// Restore reloads the stored token at startup. It reports whether a valid
// login was restored; an expired or unreadable token is cleared.
func (a *Auth) Restore(ctx context.Context) (bool, error) {
	token, err := a.tokens.Load(ctx)
	if err != nil {
		a.mu.Lock()
		a.clearLocked()
		a.mu.Unlock()
		return false, fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		a.mu.Lock()
		a.clearLocked()
		a.mu.Unlock()
		return false, nil
	}
	claims, err := usertoken.Parse(token)
	if err != nil || !claims.ExpiresAt.After(a.now()) {
		a.mu.Lock()
		a.clearLocked()
		a.mu.Unlock()
		if clearErr := a.tokens.Clear(ctx); clearErr != nil {
			slog.Warn("clear token failed", "err", clearErr)
		}
		return false, nil
	}
	a.setSession(token, claims)
	return true, nil
}

// AccessToken returns the bearer token for outgoing requests. A stored
// token that has expired logs the user out silently and yields "".
func (a *Auth) AccessToken() string {
	a.mu.Lock()
	token := a.token
	expired := token != "" && !a.claims.ExpiresAt.After(a.now())
	a.mu.Unlock()
	if expired {
		a.Logout(false)
		return ""
	}
	return token
}

// IsLoggedIn reports whether a token is held.
func (a *Auth) IsLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token != ""
}

// IsAdmin reports whether the current token carries the admin role.
func (a *Auth) IsAdmin() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token != "" && a.claims.IsAdmin()
}

// CurrentUserID returns the user id from the token subject.
func (a *Auth) CurrentUserID() (int64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == "" {
		return 0, false
	}
	return a.claims.UserID()
}

// ExpiresAt returns the expiry of the current token.
func (a *Auth) ExpiresAt() (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == "" {
		return time.Time{}, false
	}
	return a.claims.ExpiresAt, true
}

// CurrentUser loads the logged-in user through the Users service.
func (a *Auth) CurrentUser(ctx context.Context, force bool) (domain.User, error) {
	id, ok := a.CurrentUserID()
	if !ok {
		return domain.User{}, ErrNotLoggedIn
	}
	return a.users.Get(ctx, id, force)
}

func (a *Auth) setSession(token string, claims usertoken.Claims) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopTimerLocked()
	a.gen++
	gen := a.gen
	a.token = token
	a.claims = claims
	a.timer = time.AfterFunc(claims.ExpiresIn(a.now()), func() { a.expire(gen) })
}

func (a *Auth) expire(gen uint64) {
	a.mu.Lock()
	current := a.gen == gen && a.token != ""
	a.mu.Unlock()
	if !current {
		return
	}
	a.notifier.Notify(MsgSessionExpired)
	a.Logout(false)
}

func (a *Auth) clearLocked() {
	a.stopTimerLocked()
	a.gen++
	a.token = ""
	a.claims = usertoken.Claims{}
}

func (a *Auth) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
