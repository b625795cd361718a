package app

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
)

func TestAddCommentReloadsComments(t *testing.T) {
	env := newTestEnv(t, nil)
	var version atomic.Int32
	env.be.handle(http.MethodGet, "/api/jam/comments/1", func(w http.ResponseWriter, r *http.Request) {
		if version.Load() == 0 {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":10,"author":{"id":"5","name":"Ann"},"message":"hello","replies":[]}]`))
	})
	env.be.handle(http.MethodPost, "/api/jam/comments/1", func(w http.ResponseWriter, r *http.Request) {
		version.Add(1)
		w.WriteHeader(http.StatusCreated)
	})
	ctx := context.Background()

	if _, err := env.app.Comments.Load(ctx, 1, false); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := env.app.Comments.Add(ctx, 1, "  hello ", nil, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	list := env.app.Comments.Comments(1)
	if len(list) != 1 || list[0].Message != "hello" {
		t.Fatalf("comments after add = %+v", list)
	}
	if env.app.Comments.IsAdding() {
		t.Fatalf("adding flag should be reset")
	}
}

func TestAddCommentRejectsEmptyMessageAndNestedReply(t *testing.T) {
	env := newTestEnv(t, nil)
	env.be.json(http.MethodGet, "/api/jam/comments/1", `[{"id":10,"message":"top","replies":[{"id":11,"message":"reply"}]}]`)
	ctx := context.Background()
	if _, err := env.app.Comments.Load(ctx, 1, false); err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := env.app.Comments.Add(ctx, 1, "   ", nil, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	parent := int64(11)
	if _, err := env.app.Comments.Add(ctx, 1, "deeper", nil, &parent); !errors.Is(err, ErrNestedReply) {
		t.Fatalf("expected nested reply error, got %v", err)
	}
	if env.be.count(http.MethodPost, "/api/jam/comments/1") != 0 {
		t.Fatalf("no comment should be posted")
	}
}

func TestReactValidatesAndReloads(t *testing.T) {
	env := newTestEnv(t, nil)
	env.be.json(http.MethodGet, "/api/jam/comments/1", `[]`)
	var reaction atomic.Value
	env.be.handle(http.MethodPost, "/api/jam/comments/10/react", func(w http.ResponseWriter, r *http.Request) {
		reaction.Store(r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(`{"id":10,"reactionCount":1,"reactionSummary":{"LOVE":1}}`))
	})
	ctx := context.Background()

	if err := env.app.Comments.React(ctx, 1, 10, "meh"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := env.app.Comments.React(ctx, 1, 10, "love"); err != nil {
		t.Fatalf("react: %v", err)
	}
	if got, _ := reaction.Load().(string); got != "LOVE" {
		t.Fatalf("reaction type = %q", got)
	}
	if env.be.count(http.MethodGet, "/api/jam/comments/1") != 1 {
		t.Fatalf("comments should be reloaded after reacting")
	}
	if env.app.Comments.ReactingID() != 0 {
		t.Fatalf("reacting flag should be reset")
	}
}

func TestDeleteCommentReloads(t *testing.T) {
	env := newTestEnv(t, nil)
	env.be.json(http.MethodGet, "/api/jam/comments/1", `[]`)
	env.be.status(http.MethodDelete, "/api/jam/comments/1/10", http.StatusOK, "deleted")
	if err := env.app.Comments.Delete(context.Background(), 1, 10); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if env.be.count(http.MethodGet, "/api/jam/comments/1") != 1 {
		t.Fatalf("comments should be reloaded after delete")
	}
}
