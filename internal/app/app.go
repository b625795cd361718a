// Package app holds the domain services of the jam session client. Each
// service wraps the REST client with an in-memory cache and loading flags;
// App wires them together with authentication state.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"jamsession/pkg/api"
	"jamsession/pkg/geocode"
	"jamsession/pkg/storage"
	"jamsession/pkg/store"
)

// Geocoder resolves coordinates to an address.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (geocode.Address, error)
}

// Config holds the collaborators of the application.
type Config struct {
	Client    *api.Client
	Tokens    store.TokenStore
	Geocoder  Geocoder
	Mirror    storage.ImageMirror
	Notifier  Notifier
	Navigator Navigator
	// Now is the clock used for token expiry. Defaults to time.Now.
	Now func() time.Time
}

// App is the client application: authentication plus one domain service
// per entity.
type App struct {
	Client      *api.Client
	Auth        *Auth
	Users       *Users
	Sessions    *JamSessions
	Page        *SessionPage
	Instruments *Instruments
	Genres      *Genres
	Ratings     *Ratings
	Comments    *Comments
	Images      *Images
	Admin       *Admin
}

// New wires the services. The API client gets the auth service as its token
// source and the failure interceptor as its failure handler.
func New(cfg Config) (*App, error) {
	if cfg.Client == nil {
		return nil, errors.New("api client is required")
	}
	if cfg.Tokens == nil {
		cfg.Tokens = store.NewMemoryTokenStore()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = logNotifier{}
	}
	if cfg.Navigator == nil {
		cfg.Navigator = logNavigator{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	images := NewImages(cfg.Client, cfg.Mirror)
	users := NewUsers(cfg.Client, images)
	auth := NewAuth(cfg.Client, cfg.Tokens, users, cfg.Notifier, cfg.Navigator, cfg.Now)
	cfg.Client.SetTokenSource(auth)
	cfg.Client.SetFailureHandler(FailureHandler(cfg.Notifier, cfg.Navigator))

	instruments := NewInstruments(cfg.Client)
	genres := NewGenres(cfg.Client)
	sessions := NewJamSessions(cfg.Client)
	comments := NewComments(cfg.Client)

	return &App{
		Client:      cfg.Client,
		Auth:        auth,
		Users:       users,
		Sessions:    sessions,
		Page:        NewSessionPage(auth, users, sessions, comments, images, cfg.Geocoder, cfg.Notifier),
		Instruments: instruments,
		Genres:      genres,
		Ratings:     NewRatings(cfg.Client, users, cfg.Notifier),
		Comments:    comments,
		Images:      images,
		Admin:       NewAdmin(cfg.Client, instruments, genres, cfg.Notifier),
	}, nil
}

// FailureHandler is the global failure interceptor: it tells the user about
// connectivity and server errors and sends them to the home screen.
func FailureHandler(n Notifier, nav Navigator) func(api.Failure) {
	return func(f api.Failure) {
		switch f.Kind {
		case api.FailureOffline:
			n.Notify(MsgNoInternet)
		case api.FailureUnreachable:
			n.Notify(MsgUnreachable)
		case api.FailureServer:
			n.Notify(MsgServerError)
		default:
			return
		}
		slog.Warn("request failed", "method", f.Method, "path", f.Path, "err", f.Err)
		nav.Navigate(RouteHome)
	}
}
