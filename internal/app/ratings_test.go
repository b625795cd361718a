package app

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"jamsession/pkg/api"
)

func TestAddRatingsDropsInvalidEntriesAndRefreshesUser(t *testing.T) {
	env := newTestEnv(t, nil)
	env.be.json(http.MethodGet, "/api/users/5", `{"id":5,"name":"Ann"}`)
	env.be.json(http.MethodGet, "/api/rating", `[]`)
	var sent []api.NewRating
	env.be.handle(http.MethodPost, "/api/rating/batch", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&sent)
		w.WriteHeader(http.StatusCreated)
	})
	ctx := context.Background()

	if _, err := env.app.Users.Get(ctx, 5, false); err != nil {
		t.Fatalf("get: %v", err)
	}
	err := env.app.Ratings.Add(ctx, 5, []api.NewRating{
		{InstrumentID: 1, Rating: 4},
		{InstrumentID: 0, Rating: 3},
		{InstrumentID: 2, Rating: 9},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(sent) != 1 || sent[0].InstrumentID != 1 || sent[0].UserID != 5 {
		t.Fatalf("sent = %+v", sent)
	}
	if _, ok := env.app.Users.Cached(5); ok {
		t.Fatalf("user should be dropped from the cache")
	}
}

func TestAddRatingsSkipsRequestWhenNothingValid(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := env.app.Ratings.Add(context.Background(), 5, []api.NewRating{{InstrumentID: 1, Rating: 0}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if env.be.count(http.MethodPost, "/api/rating/batch") != 0 {
		t.Fatalf("no request expected")
	}
}

func TestDeleteRatingInSessionNotifies(t *testing.T) {
	env := newTestEnv(t, nil)
	env.be.status(http.MethodDelete, "/api/rating", http.StatusForbidden, "rating used in session")
	if err := env.app.Ratings.Delete(context.Background(), 33, 5); !api.IsStatus(err, http.StatusForbidden) {
		t.Fatalf("expected 403, got %v", err)
	}
	if !env.rec.hasMessage(MsgRatingInSession) {
		t.Fatalf("expected rating-in-session message, got %v", env.rec.messages)
	}
}
