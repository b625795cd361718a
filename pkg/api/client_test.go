package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"jamsession/pkg/domain"
)

type staticTokens string

func (s staticTokens) AccessToken() string { return string(s) }

func TestLoginReturnsTextTokenAndSendsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["email"] != "a@b.c" || body["password"] != "secret" {
			t.Fatalf("unexpected credentials %v", body)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Fatalf("expected request id header")
		}
		_, _ = io.WriteString(w, "header.payload.sig\n")
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/"})
	token, err := c.Login(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token != "header.payload.sig" {
		t.Fatalf("token = %q", token)
	}
}

func TestAuthorizationHeaderFollowsTokenSource(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.Genres(context.Background()); err != nil {
		t.Fatalf("genres: %v", err)
	}
	c.SetTokenSource(staticTokens("tok"))
	if _, err := c.Genres(context.Background()); err != nil {
		t.Fatalf("genres: %v", err)
	}
	c.SetTokenSource(staticTokens(""))
	if _, err := c.Genres(context.Background()); err != nil {
		t.Fatalf("genres: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 3 || seen[0] != "" || seen[1] != "Bearer tok" || seen[2] != "" {
		t.Fatalf("unexpected authorization headers %q", seen)
	}
}

func TestErrorMessageAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/genres/delete":
			w.WriteHeader(http.StatusConflict)
			_, _ = io.WriteString(w, `{"message":"genre in use","code":"IN_USE"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, "no such user")
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	err := c.DeleteGenre(context.Background(), 3)
	if !IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "genre in use" || apiErr.Code != "IN_USE" {
		t.Fatalf("unexpected api error %#v", apiErr)
	}

	_, err = c.User(context.Background(), 9)
	if !IsStatus(err, http.StatusNotFound) || err.Error() != "no such user" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestFailureHandlerSeesServerErrorsAndUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	var kinds []FailureKind
	c := NewClient(Config{BaseURL: srv.URL, OnFailure: func(f Failure) { kinds = append(kinds, f.Kind) }})
	if _, err := c.Instruments(context.Background()); !IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("expected 500, got %v", err)
	}
	srv.Close()
	if _, err := c.Instruments(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
	if len(kinds) != 2 || kinds[0] != FailureServer || kinds[1] != FailureUnreachable {
		t.Fatalf("unexpected failure kinds %v", kinds)
	}

	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()
	kinds = nil
	c = NewClient(Config{BaseURL: notFound.URL, OnFailure: func(f Failure) { kinds = append(kinds, f.Kind) }})
	_, _ = c.Instruments(context.Background())
	if len(kinds) != 0 {
		t.Fatalf("404 should not reach the failure handler: %v", kinds)
	}
}

func TestSessionMappingAcceptsBothOwnerShapes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[
			{"id":1,"ownerDto":{"id":7,"name":"Ann"},"startTime":"2025-06-01T18:30:00",
			 "location":{"latitude":52.1,"longitude":21.0},
			 "requiredInstruments":[{"id":2,"name":"Guitar"},{"instrument":{"id":3,"name":"Drums"}}],
			 "confirmedInstruments":[{"id":11,"instrument":{"id":2,"name":"Guitar"},"userId":8,"rating":4}],
			 "musicGenre":{"id":5,"name":"Jazz"}},
			{"id":2,"owner":{"id":9,"name":"Bob"},"startTime":[2025,6,2,20,0]},
			{"id":3}
		]`)
	}))
	defer srv.Close()

	sessions, err := NewClient(Config{BaseURL: srv.URL}).JamSessions(context.Background())
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	first := sessions[0]
	if first.Owner != (domain.ShortUser{ID: 7, Name: "Ann"}) {
		t.Fatalf("owner = %+v", first.Owner)
	}
	if len(first.RequiredInstruments) != 2 || first.RequiredInstruments[1].Name != "Drums" || first.RequiredInstruments[1].ID != 3 {
		t.Fatalf("required = %+v", first.RequiredInstruments)
	}
	c := first.ConfirmedInstruments[0]
	if c.InstrumentID != 2 || c.InstrumentName != "Guitar" || c.UserID != 8 || c.Rating != 4 {
		t.Fatalf("confirmed = %+v", c)
	}
	if first.Location.Latitude != 52.1 || first.MusicGenre.Name != "Jazz" {
		t.Fatalf("unexpected session %+v", first)
	}
	if sessions[1].Owner.Name != "Bob" || sessions[1].StartTime != "2025-06-02T20:00:00" {
		t.Fatalf("unexpected second session %+v", sessions[1])
	}
	if sessions[2].Owner != (domain.ShortUser{ID: 0, Name: "Unknown"}) {
		t.Fatalf("missing owner should map to Unknown, got %+v", sessions[2].Owner)
	}
}

func TestUserMappingReadsFavoriteGenres(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":4,"name":"Ann","email":"a@b.c","bio":null,"profilePictureId":12,
			"favoriteGenres":[{"id":1,"name":"Rock"}]}`)
	}))
	defer srv.Close()

	u, err := NewClient(Config{BaseURL: srv.URL}).User(context.Background(), 4)
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	if u.ProfilePictureID == nil || *u.ProfilePictureID != 12 {
		t.Fatalf("profile picture = %v", u.ProfilePictureID)
	}
	if len(u.MusicGenres) != 1 || u.MusicGenres[0].Name != "Rock" {
		t.Fatalf("genres = %+v", u.MusicGenres)
	}
	if u.InstrumentsAndRatings == nil {
		t.Fatalf("ratings should be an empty list")
	}
}

func TestAddCommentSendsMultipartWithJSONPart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/jam/comments/5" || r.URL.Query().Get("parentId") != "9" {
			t.Fatalf("unexpected request %s", r.URL.String())
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		files := r.MultipartForm.File["data"]
		if len(files) != 1 || files[0].Header.Get("Content-Type") != "application/json" {
			t.Fatalf("expected json data part, got %+v", files)
		}
		f, _ := files[0].Open()
		raw, _ := io.ReadAll(f)
		if strings.TrimSpace(string(raw)) != `{"message":"hello"}` {
			t.Fatalf("data part = %s", raw)
		}
		images := r.MultipartForm.File["image"]
		if len(images) != 1 || images[0].Filename != "pic.png" || images[0].Header.Get("Content-Type") != "image/png" {
			t.Fatalf("unexpected image part %+v", images)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":77,"author":{"id":"3","name":"Ann"},"message":"hello","parentId":9}`)
	}))
	defer srv.Close()

	parent := int64(9)
	img := &Upload{Filename: "pic.png", Reader: strings.NewReader("\x89PNG")}
	comment, err := NewClient(Config{BaseURL: srv.URL}).AddComment(context.Background(), 5, "hello", img, &parent)
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if comment.ID != 77 || comment.Author.ID != "3" {
		t.Fatalf("unexpected comment %+v", comment)
	}
}

func TestImagePath(t *testing.T) {
	for in, want := range map[string]string{
		"12":               "12",
		"images/12":        "images/12",
		"/api/images/12":   "images/12",
		"  /images/3.png ": "images/3.png",
	} {
		if got := ImagePath(in); got != want {
			t.Fatalf("ImagePath(%q) = %q, want %q", in, got, want)
		}
	}
}
