package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
)

func TestConcurrentGetsIssueOneRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	release := make(chan struct{})
	env.be.handle(http.MethodGet, "/api/users/7", func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = io.WriteString(w, `{"id":7,"name":"Ann"}`)
	})
	env.be.json(http.MethodGet, "/api/rating", `[{"id":1,"instrumentId":2,"instrumentName":"Guitar","userId":7,"rating":4}]`)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := env.app.Users.Get(context.Background(), 7, false)
			if err == nil && (u.Name != "Ann" || len(u.InstrumentsAndRatings) != 1) {
				err = errors.New("unexpected user " + u.Name)
			}
			errs <- err
		}()
	}
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if got := env.be.count(http.MethodGet, "/api/users/7"); got != 1 {
		t.Fatalf("user requests = %d, want 1", got)
	}
	if got := env.be.count(http.MethodGet, "/api/rating"); got != 1 {
		t.Fatalf("rating requests = %d, want 1", got)
	}
}

func TestUpdateClearsCacheSoNextGetRefetches(t *testing.T) {
	env := newTestEnv(t, nil)
	env.be.json(http.MethodGet, "/api/users/7", `{"id":7,"name":"Ann"}`)
	env.be.json(http.MethodGet, "/api/rating", `[]`)
	var patched map[string]any
	env.be.handle(http.MethodPatch, "/api/users/update/7", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&patched)
		w.WriteHeader(http.StatusOK)
	})

	ctx := context.Background()
	for range 2 {
		if _, err := env.app.Users.Get(ctx, 7, false); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if got := env.be.count(http.MethodGet, "/api/users/7"); got != 1 {
		t.Fatalf("requests before update = %d, want 1", got)
	}
	err := env.app.Users.Update(ctx, 7, UserForm{Name: "Ann B", Email: "ann@example.com", Bio: "drums", GenreIDs: []int64{1, 2}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, ok := patched["password"]; ok {
		t.Fatalf("empty password should be omitted: %v", patched)
	}
	if ids, ok := patched["favouriteGenreIds"].([]any); !ok || len(ids) != 2 {
		t.Fatalf("favouriteGenreIds = %v", patched["favouriteGenreIds"])
	}
	if _, err := env.app.Users.Get(ctx, 7, false); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := env.be.count(http.MethodGet, "/api/users/7"); got != 2 {
		t.Fatalf("requests after update = %d, want 2", got)
	}
}

func TestUpdateValidatesForm(t *testing.T) {
	env := newTestEnv(t, nil)
	forms := []UserForm{
		{Name: "Al", Email: "al@example.com"},
		{Name: "Ann", Email: "ann@example.com", Password: "secret1", ConfirmPassword: "secret9"},
		{Name: "Ann", Email: "ann@example.com", Bio: strings.Repeat("x", 501)},
	}
	for _, f := range forms {
		if err := env.app.Users.Update(context.Background(), 7, f); !errors.Is(err, ErrValidation) {
			t.Fatalf("form %+v: expected validation error, got %v", f.Name, err)
		}
	}
	if env.be.count(http.MethodPatch, "/api/users/update/7") != 0 {
		t.Fatalf("no update request should be sent")
	}
}

func TestGetAllToleratesRatingFailures(t *testing.T) {
	env := newTestEnv(t, nil)
	env.be.json(http.MethodGet, "/api/users/all", `[{"id":1,"name":"Ann"},{"id":2,"name":"Bob"}]`)
	env.be.handle(http.MethodGet, "/api/rating", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("userId") == "2" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `[{"id":5,"instrumentId":3,"name":"Bass","userId":1,"rating":2}]`)
	})

	users, err := env.app.Users.GetAll(context.Background(), false)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if len(users[0].InstrumentsAndRatings) != 1 || users[0].InstrumentsAndRatings[0].InstrumentName != "Bass" {
		t.Fatalf("user 1 ratings = %+v", users[0].InstrumentsAndRatings)
	}
	if users[1].InstrumentsAndRatings == nil || len(users[1].InstrumentsAndRatings) != 0 {
		t.Fatalf("user 2 ratings should be empty, got %+v", users[1].InstrumentsAndRatings)
	}
}

func TestFailedLoadIsNotCached(t *testing.T) {
	env := newTestEnv(t, nil)
	env.be.status(http.MethodGet, "/api/users/9", http.StatusNotFound, "missing")
	for range 2 {
		if _, err := env.app.Users.Get(context.Background(), 9, false); err == nil {
			t.Fatalf("expected error")
		}
	}
	if got := env.be.count(http.MethodGet, "/api/users/9"); got != 2 {
		t.Fatalf("requests = %d, want 2", got)
	}
}

func TestUpdateImageRejectsUnsupportedFormat(t *testing.T) {
	env := newTestEnv(t, nil)
	err := env.app.Users.UpdateImage(context.Background(), 7, "avatar.gif", strings.NewReader("GIF89a"))
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected unsupported image, got %v", err)
	}
	if env.be.count(http.MethodPost, "/api/images/profile-picture") != 0 {
		t.Fatalf("no upload should be sent")
	}
}

func TestUpdateImageClearsOldPicture(t *testing.T) {
	env := newTestEnv(t, nil)
	env.be.json(http.MethodGet, "/api/users/7", `{"id":7,"name":"Ann","profilePictureId":3}`)
	env.be.json(http.MethodGet, "/api/rating", `[]`)
	env.be.handle(http.MethodGet, "/api/images/3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = io.WriteString(w, "png-bytes")
	})
	env.be.status(http.MethodPost, "/api/images/profile-picture", http.StatusOK, "")

	ctx := context.Background()
	if _, err := env.app.Users.Get(ctx, 7, false); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := env.app.Images.DataURL(ctx, ProfilePicturePath(3)); err != nil {
		t.Fatalf("data url: %v", err)
	}
	if err := env.app.Users.UpdateImage(ctx, 7, "me.JPG", strings.NewReader("jpeg")); err != nil {
		t.Fatalf("update image: %v", err)
	}
	if _, ok := env.app.Images.Cached(ProfilePicturePath(3)); ok {
		t.Fatalf("old picture should be dropped from the image cache")
	}
	if _, ok := env.app.Users.Cached(7); ok {
		t.Fatalf("user should be dropped from cache")
	}
}
