package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/knowledge-platform/internal/subject"
)

// InMemoryCommentStore is the development/test backend.
type InMemoryCommentStore struct {
	mu       sync.Mutex
	comments map[string]*Comment
	order    []string
	now      func() time.Time
}

func NewInMemoryCommentStore() *InMemoryCommentStore {
	return &InMemoryCommentStore{
		comments: make(map[string]*Comment),
		now:      time.Now,
	}
}

func (s *InMemoryCommentStore) Add(ctx context.Context, userID string, ref subject.Ref, body string, parentID *string) (Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Comment{}, fmt.Errorf("empty body: %w", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if parentID != nil {
		parent, ok := s.comments[*parentID]
		if !ok || parent.DeletedAt != nil || parent.Subject != ref || parent.ParentID != nil {
			return Comment{}, fmt.Errorf("parent comment %s: %w", *parentID, ErrNotFound)
		}
	}

	c := &Comment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Subject:   ref,
		Body:      body,
		ParentID:  parentID,
		CreatedAt: s.now(),
	}
	s.comments[c.ID] = c
	s.order = append(s.order, c.ID)
	return *c, nil
}

func (s *InMemoryCommentStore) ListFor(ctx context.Context, ref subject.Ref) ([]CommentThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threads := []CommentThread{}
	index := make(map[string]int)
	for _, id := range s.order {
		c := s.comments[id]
		if c.Subject != ref || c.ParentID != nil || c.DeletedAt != nil {
			continue
		}
		index[c.ID] = len(threads)
		threads = append(threads, CommentThread{Comment: *c, Replies: []Comment{}})
	}
	for _, id := range s.order {
		c := s.comments[id]
		if c.Subject != ref || c.ParentID == nil || c.DeletedAt != nil {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, *c)
		}
	}
	return threads, nil
}

func (s *InMemoryCommentStore) UpdateBody(ctx context.Context, commentID, userID, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return fmt.Errorf("empty body: %w", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.live(commentID, userID)
	if err != nil {
		return err
	}
	now := s.now()
	c.Body = body
	c.UpdatedAt = &now
	return nil
}

func (s *InMemoryCommentStore) Remove(ctx context.Context, commentID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.live(commentID, userID)
	if err != nil {
		return err
	}
	now := s.now()
	c.DeletedAt = &now
	for _, id := range s.order {
		child := s.comments[id]
		if child.ParentID != nil && *child.ParentID == c.ID && child.DeletedAt == nil {
			child.DeletedAt = &now
		}
	}
	return nil
}

func (s *InMemoryCommentStore) Get(ctx context.Context, commentID string) (Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[commentID]
	if !ok || c.DeletedAt != nil {
		return Comment{}, fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
	}
	return *c, nil
}

func (s *InMemoryCommentStore) live(commentID, userID string) (*Comment, error) {
	c, ok := s.comments[commentID]
	if !ok || c.DeletedAt != nil {
		return nil, fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("comment %s not owned by %s: %w", commentID, userID, ErrForbidden)
	}
	return c, nil
}
