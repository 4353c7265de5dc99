package store

import (
	"context"
	"time"
)

// Answer carries the acceptance flag scoped by its question.
type Answer struct {
	ID         int64      `json:"id"`
	QuestionID int64      `json:"question_id"`
	AuthorID   string     `json:"author_id"`
	Body       string     `json:"body"`
	IsAccepted bool       `json:"is_accepted"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// AcceptResult reports the toggled flag and which other answers lost it.
// Cleared feeds cache invalidation for every row whose flag changed; Body is
// the target answer's content for notification excerpts.
type AcceptResult struct {
	Accepted bool    `json:"is_accepted"`
	Cleared  []int64 `json:"-"`
	Body     string  `json:"-"`
}

// AcceptanceStore enforces the at-most-one-accepted-answer rule.
//
// Accept is an idempotent toggle: accepting an already-accepted answer
// un-accepts it. Implementations must serialize concurrent accepts on the
// same question (row lock on the question or equivalent) and, inside that
// lock, unset every other answer before setting the target.
type AcceptanceStore interface {
	Accept(ctx context.Context, questionID, answerID int64, userID string) (AcceptResult, error)
	ListAnswers(ctx context.Context, questionID int64) ([]Answer, error)
}
