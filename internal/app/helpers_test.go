package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"jamsession/pkg/api"
	"jamsession/pkg/geocode"
	"jamsession/pkg/store"
)

// backend is a fake REST backend that counts calls per "METHOD /path".
type backend struct {
	t        *testing.T
	srv      *httptest.Server
	mu       sync.Mutex
	calls    map[string]int
	handlers map[string]http.HandlerFunc
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{t: t, calls: map[string]int{}, handlers: map[string]http.HandlerFunc{}}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.calls[key]++
		h := b.handlers[key]
		b.mu.Unlock()
		if h == nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, "no handler for "+key)
			return
		}
		h(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[method+" "+path] = h
}

func (b *backend) json(method, path, body string) {
	b.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})
}

func (b *backend) status(method, path string, status int, body string) {
	b.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

func (b *backend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method+" "+path]
}

// recorder captures notifications and navigation.
type recorder struct {
	mu       sync.Mutex
	messages []string
	routes   []string
}

func (r *recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recorder) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *recorder) hasMessage(msg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m == msg {
			return true
		}
	}
	return false
}

func (r *recorder) lastRoute() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return "<none>"
	}
	return r.routes[len(r.routes)-1]
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: time.Now()} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeGeocoder struct {
	addr geocode.Address
	err  error
}

func (g fakeGeocoder) Reverse(context.Context, float64, float64) (geocode.Address, error) {
	return g.addr, g.err
}

func mintToken(t *testing.T, userID int64, admin bool, exp time.Time) string {
	t.Helper()
	roles := []string{"ROLE_USER"}
	if admin {
		roles = append(roles, "ROLE_ADMIN")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   strconv.FormatInt(userID, 10),
		"roles": roles,
		"exp":   exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

type testEnv struct {
	app    *App
	be     *backend
	rec    *recorder
	tokens *store.MemoryTokenStore
	clock  *clock
}

func newTestEnv(t *testing.T, geocoder Geocoder) *testEnv {
	t.Helper()
	be := newBackend(t)
	rec := &recorder{}
	tokens := store.NewMemoryTokenStore()
	clk := newClock()
	a, err := New(Config{
		Client:    api.NewClient(api.Config{BaseURL: be.srv.URL, Timeout: 5 * time.Second}),
		Tokens:    tokens,
		Geocoder:  geocoder,
		Notifier:  rec,
		Navigator: rec,
		Now:       clk.Now,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { a.Auth.Logout(false) })
	return &testEnv{app: a, be: be, rec: rec, tokens: tokens, clock: clk}
}

// loginAs restores a login for userID from the token store.
func (e *testEnv) loginAs(t *testing.T, userID int64, admin bool) {
	t.Helper()
	token := mintToken(t, userID, admin, e.clock.Now().Add(time.Hour))
	if err := e.tokens.Save(context.Background(), token, 0); err != nil {
		t.Fatalf("save token: %v", err)
	}
	ok, err := e.app.Auth.Restore(context.Background())
	if err != nil || !ok {
		t.Fatalf("restore login: %v %v", ok, err)
	}
}
