package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// InMemoryAcceptanceStore is the development/test backend. Questions and
// answers are seeded by the caller; the mutex stands in for the question
// row lock.
type InMemoryAcceptanceStore struct {
	mu        sync.Mutex
	questions map[int64]string // question id -> author id
	answers   map[int64]*Answer
	now       func() time.Time
}

func NewInMemoryAcceptanceStore() *InMemoryAcceptanceStore {
	return &InMemoryAcceptanceStore{
		questions: make(map[int64]string),
		answers:   make(map[int64]*Answer),
		now:       time.Now,
	}
}

// SeedQuestion registers a question and its author.
func (s *InMemoryAcceptanceStore) SeedQuestion(id int64, authorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[id] = authorID
}

// SeedAnswer registers an answer on a question.
func (s *InMemoryAcceptanceStore) SeedAnswer(id, questionID int64, authorID, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[id] = &Answer{ID: id, QuestionID: questionID, AuthorID: authorID, Body: body}
}

func (s *InMemoryAcceptanceStore) Accept(ctx context.Context, questionID, answerID int64, userID string) (AcceptResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	author, ok := s.questions[questionID]
	if !ok {
		return AcceptResult{}, fmt.Errorf("question %d: %w", questionID, ErrNotFound)
	}
	if author != userID {
		return AcceptResult{}, fmt.Errorf("question %d not owned by %s: %w", questionID, userID, ErrForbidden)
	}
	target, ok := s.answers[answerID]
	if !ok || target.QuestionID != questionID {
		return AcceptResult{}, fmt.Errorf("answer %d on question %d: %w", answerID, questionID, ErrNotFound)
	}

	var cleared []int64
	for _, a := range s.answers {
		if a.QuestionID == questionID && a.ID != answerID && a.IsAccepted {
			a.IsAccepted = false
			a.AcceptedAt = nil
			cleared = append(cleared, a.ID)
		}
	}

	accepted := !target.IsAccepted
	target.IsAccepted = accepted
	if accepted {
		now := s.now()
		target.AcceptedAt = &now
	} else {
		target.AcceptedAt = nil
	}
	return AcceptResult{Accepted: accepted, Cleared: cleared, Body: target.Body}, nil
}

func (s *InMemoryAcceptanceStore) ListAnswers(ctx context.Context, questionID int64) ([]Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []Answer{}
	for _, a := range s.answers {
		if a.QuestionID == questionID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
