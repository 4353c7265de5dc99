package store

import (
	"context"
	"time"

	"github.com/example/knowledge-platform/internal/subject"
)

// Reaction is a single like/dislike row. A reaction with a ParentID is a
// meta-reaction on another reaction and never counts toward subject totals.
type Reaction struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Subject   subject.Ref `json:"subject"`
	Positive  bool        `json:"positive"`
	ParentID  *string     `json:"parent_id,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	DeletedAt *time.Time  `json:"deleted_at,omitempty"`
}

// Toggle outcomes.
const (
	ActionAdded   = "added"
	ActionUpdated = "updated"
	ActionRemoved = "removed"
)

// ToggleResult reports what a toggle did and the fresh totals for the subject.
type ToggleResult struct {
	Action   string `json:"action"`
	Likes    int    `json:"likes_count"`
	Dislikes int    `json:"dislikes_count"`
}

// ReactionStore defines the contract for reaction persistence.
//
// Toggle is find-or-insert with flip/remove semantics: no existing top-level
// reaction inserts one, same polarity tombstones it, opposite polarity flips
// it in place. Implementations must serialize concurrent toggles by the same
// (user, subject) pair.
type ReactionStore interface {
	Toggle(ctx context.Context, userID string, ref subject.Ref, positive bool) (ToggleResult, error)
	ListFor(ctx context.Context, ref subject.Ref) ([]Reaction, error)
	AddChild(ctx context.Context, parentID, userID string, positive bool) (Reaction, error)
}
