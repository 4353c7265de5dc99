package store

import (
	"context"
	"time"

	"github.com/example/knowledge-platform/internal/subject"
)

// Comment represents a single comment row. Nesting is one level deep:
// a comment either has no parent or its parent is itself top-level.
type Comment struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Subject   subject.Ref `json:"subject"`
	Body      string      `json:"body"`
	ParentID  *string     `json:"parent_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
	DeletedAt *time.Time  `json:"deleted_at,omitempty"`
}

// CommentThread is a top-level comment with its direct replies.
type CommentThread struct {
	Comment Comment   `json:"comment"`
	Replies []Comment `json:"replies"`
}

// CommentStore defines the contract for comment persistence.
//
// ListFor returns threads ordered by creation time ascending at both levels,
// with soft-deleted rows excluded entirely. Remove and UpdateBody are
// author-only; Remove cascades the soft delete to direct replies.
type CommentStore interface {
	Add(ctx context.Context, userID string, ref subject.Ref, body string, parentID *string) (Comment, error)
	ListFor(ctx context.Context, ref subject.Ref) ([]CommentThread, error)
	UpdateBody(ctx context.Context, commentID, userID, body string) error
	Remove(ctx context.Context, commentID, userID string) error
	// Get returns a comment regardless of subject, soft-deleted excluded.
	Get(ctx context.Context, commentID string) (Comment, error)
}
