package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"jamsession/pkg/api"
	"jamsession/pkg/cache"
	"jamsession/pkg/domain"
)

// Comments is the comment domain service. Every mutation is followed by a
// forced reload of the session's comments; the old list stays visible until
// the reload replaces it.
type Comments struct {
	client *api.Client
	cache  *cache.Memo[int64, []domain.Comment]

	mu         sync.Mutex
	adding     int
	deletingID int64
	reactingID int64
}

// NewComments builds the comment service.
func NewComments(client *api.Client) *Comments {
	return &Comments{client: client, cache: cache.New[int64, []domain.Comment]("comments")}
}

// Comments returns the cached comments of a session or an empty list.
func (s *Comments) Comments(sessionID int64) []domain.Comment {
	if list, ok := s.cache.Peek(sessionID); ok {
		return list
	}
	return []domain.Comment{}
}

// Load fetches the comments of a session.
func (s *Comments) Load(ctx context.Context, sessionID int64, force bool) ([]domain.Comment, error) {
	return s.cache.Get(ctx, sessionID, force, func(ctx context.Context) ([]domain.Comment, error) {
		return logged(s.client.Comments(ctx, sessionID))("load comments failed", "session_id", sessionID)
	})
}

// Add posts a comment. parentID makes it a reply; replies to replies are
// rejected before any request.
func (s *Comments) Add(ctx context.Context, sessionID int64, message string, image *api.Upload, parentID *int64) (domain.Comment, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.Comment{}, invalid("comment message is required")
	}
	if parentID != nil {
		if parent, ok := s.find(sessionID, *parentID); ok && !parent.CanReply() {
			return domain.Comment{}, ErrNestedReply
		}
	}
	s.mu.Lock()
	s.adding++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.adding--
		s.mu.Unlock()
	}()

	comment, err := s.client.AddComment(ctx, sessionID, message, image, parentID)
	if err != nil {
		slog.Warn("add comment failed", "session_id", sessionID, "err", err)
		return domain.Comment{}, fmt.Errorf("add comment: %w", err)
	}
	s.reload(ctx, sessionID)
	return comment, nil
}

// Delete removes a comment.
func (s *Comments) Delete(ctx context.Context, sessionID, messageID int64) error {
	s.setDeleting(messageID)
	defer s.setDeleting(0)
	if err := s.client.DeleteComment(ctx, sessionID, messageID); err != nil {
		slog.Warn("delete comment failed", "session_id", sessionID, "message_id", messageID, "err", err)
		return fmt.Errorf("delete comment: %w", err)
	}
	s.reload(ctx, sessionID)
	return nil
}

// React sets the caller's reaction on a comment.
func (s *Comments) React(ctx context.Context, sessionID, messageID int64, reaction string) error {
	r, ok := domain.ParseReaction(reaction)
	if !ok {
		return invalid("unknown reaction %q", reaction)
	}
	s.setReacting(messageID)
	defer s.setReacting(0)
	if _, err := s.client.React(ctx, messageID, r); err != nil {
		slog.Warn("react failed", "message_id", messageID, "err", err)
		return fmt.Errorf("react: %w", err)
	}
	s.reload(ctx, sessionID)
	return nil
}

// Clear drops the cached comments of a session.
func (s *Comments) Clear(sessionID int64) { s.cache.Invalidate(sessionID) }

// IsLoading reports whether the comments of a session are being fetched.
func (s *Comments) IsLoading(sessionID int64) bool { return s.cache.Loading(sessionID) }

// IsAdding reports whether a comment is being posted.
func (s *Comments) IsAdding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adding > 0
}

// DeletingID returns the id of the comment being deleted, or 0.
func (s *Comments) DeletingID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletingID
}

// ReactingID returns the id of the comment being reacted to, or 0.
func (s *Comments) ReactingID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reactingID
}

func (s *Comments) reload(ctx context.Context, sessionID int64) {
	if _, err := s.Load(ctx, sessionID, true); err != nil {
		slog.Warn("reload comments failed", "session_id", sessionID, "err", err)
	}
}

func (s *Comments) find(sessionID, id int64) (domain.Comment, bool) {
	list, _ := s.cache.Peek(sessionID)
	return findComment(list, id)
}

func findComment(list []domain.Comment, id int64) (domain.Comment, bool) {
	for _, c := range list {
		if c.ID == id {
			return c, true
		}
		if r, ok := findComment(c.Replies, id); ok {
			if r.ParentID == nil {
				parent := c.ID
				r.ParentID = &parent
			}
			return r, true
		}
	}
	return domain.Comment{}, false
}

func (s *Comments) setDeleting(id int64) {
	s.mu.Lock()
	s.deletingID = id
	s.mu.Unlock()
}

func (s *Comments) setReacting(id int64) {
	s.mu.Lock()
	s.reactingID = id
	s.mu.Unlock()
}
