package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/knowledge-platform/internal/subject"
)

// InMemoryReactionStore is the development/test backend. The single mutex
// gives it the same serialization the Postgres row lock provides.
type InMemoryReactionStore struct {
	mu        sync.Mutex
	reactions map[string]*Reaction
	order     []string
	now       func() time.Time
}

func NewInMemoryReactionStore() *InMemoryReactionStore {
	return &InMemoryReactionStore{
		reactions: make(map[string]*Reaction),
		now:       time.Now,
	}
}

func (s *InMemoryReactionStore) Toggle(ctx context.Context, userID string, ref subject.Ref, positive bool) (ToggleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.findTopLevel(userID, ref)
	var action string
	switch {
	case existing == nil:
		r := &Reaction{
			ID:        uuid.NewString(),
			UserID:    userID,
			Subject:   ref,
			Positive:  positive,
			CreatedAt: s.now(),
		}
		s.reactions[r.ID] = r
		s.order = append(s.order, r.ID)
		action = ActionAdded
	case existing.DeletedAt != nil:
		existing.Positive = positive
		existing.DeletedAt = nil
		existing.CreatedAt = s.now()
		action = ActionAdded
	case existing.Positive == positive:
		now := s.now()
		existing.DeletedAt = &now
		for _, id := range s.order {
			child := s.reactions[id]
			if child.ParentID != nil && *child.ParentID == existing.ID && child.DeletedAt == nil {
				child.DeletedAt = &now
			}
		}
		action = ActionRemoved
	default:
		existing.Positive = positive
		action = ActionUpdated
	}

	likes, dislikes := s.counts(ref)
	return ToggleResult{Action: action, Likes: likes, Dislikes: dislikes}, nil
}

func (s *InMemoryReactionStore) ListFor(ctx context.Context, ref subject.Ref) ([]Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Reaction{}
	for _, id := range s.order {
		r := s.reactions[id]
		if r.Subject == ref && r.ParentID == nil && r.DeletedAt == nil {
			out = append(out, *r)
		}
	}
	// Revival resets CreatedAt, so insertion order alone would diverge from
	// the created_at ordering the SQL backend returns.
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryReactionStore) AddChild(ctx context.Context, parentID, userID string, positive bool) (Reaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Only a live top-level reaction can be a parent.
	parent, ok := s.reactions[parentID]
	if !ok || parent.DeletedAt != nil || parent.ParentID != nil {
		return Reaction{}, fmt.Errorf("parent reaction %s: %w", parentID, ErrNotFound)
	}
	r := &Reaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Subject:   parent.Subject,
		Positive:  positive,
		ParentID:  &parent.ID,
		CreatedAt: s.now(),
	}
	s.reactions[r.ID] = r
	s.order = append(s.order, r.ID)
	return *r, nil
}

func (s *InMemoryReactionStore) findTopLevel(userID string, ref subject.Ref) *Reaction {
	// Prefer a live row; fall back to the newest tombstone so a re-react
	// revives it instead of inserting a duplicate.
	var tombstone *Reaction
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.reactions[s.order[i]]
		if r.UserID != userID || r.Subject != ref || r.ParentID != nil {
			continue
		}
		if r.DeletedAt == nil {
			return r
		}
		if tombstone == nil {
			tombstone = r
		}
	}
	return tombstone
}

func (s *InMemoryReactionStore) counts(ref subject.Ref) (likes, dislikes int) {
	for _, r := range s.reactions {
		if r.Subject != ref || r.ParentID != nil || r.DeletedAt != nil {
			continue
		}
		if r.Positive {
			likes++
		} else {
			dislikes++
		}
	}
	return likes, dislikes
}
