package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/knowledge-platform/internal/subject"
)

var question3 = subject.Ref{Type: subject.TypeQuestion, ID: 3}

func TestInMemoryCommentStore_Add(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	c, err := s.Add(ctx, "user-a", question3, "  hello  ", nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.ID == "" {
		t.Fatal("expected non-empty id")
	}
	if c.Body != "hello" {
		t.Fatalf("expected trimmed body, got %q", c.Body)
	}
}

func TestInMemoryCommentStore_AddEmptyBody(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	if _, err := s.Add(ctx, "user-a", question3, "   \n\t ", nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestInMemoryCommentStore_ListOrdering(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	ts := time.Unix(1000, 0)
	s.now = func() time.Time { ts = ts.Add(time.Second); return ts }

	c1, _ := s.Add(ctx, "user-a", question3, "first", nil)
	c2, _ := s.Add(ctx, "user-b", question3, "second", nil)
	r1, _ := s.Add(ctx, "user-c", question3, "reply 1", &c1.ID)
	r2, _ := s.Add(ctx, "user-d", question3, "reply 2", &c1.ID)

	threads, err := s.ListFor(ctx, question3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(threads))
	}
	// Ascending by creation time at the top level...
	if threads[0].Comment.ID != c1.ID || threads[1].Comment.ID != c2.ID {
		t.Fatal("expected oldest thread first")
	}
	// ...and beneath each parent.
	if len(threads[0].Replies) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(threads[0].Replies))
	}
	if threads[0].Replies[0].ID != r1.ID || threads[0].Replies[1].ID != r2.ID {
		t.Fatal("expected replies oldest first")
	}
}

func TestInMemoryCommentStore_ReplyToMissingOrForeignParent(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	missing := "no-such-id"
	if _, err := s.Add(ctx, "user-a", question3, "reply", &missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing parent, got %v", err)
	}

	// Parent on a different subject is rejected the same way.
	other := subject.Ref{Type: subject.TypeSolution, ID: 9}
	p, _ := s.Add(ctx, "user-a", other, "elsewhere", nil)
	if _, err := s.Add(ctx, "user-b", question3, "reply", &p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign parent, got %v", err)
	}
}

func TestInMemoryCommentStore_ReplyDepthCapped(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	root, _ := s.Add(ctx, "user-a", question3, "root", nil)
	reply, _ := s.Add(ctx, "user-b", question3, "reply", &root.ID)

	if _, err := s.Add(ctx, "user-c", question3, "reply to reply", &reply.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for depth-2 reply, got %v", err)
	}
}

func TestInMemoryCommentStore_RemoveAuthorOnly(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	c, _ := s.Add(ctx, "user-a", question3, "mine", nil)

	if err := s.Remove(ctx, c.ID, "user-b"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-author, got %v", err)
	}
	if err := s.Remove(ctx, c.ID, "user-a"); err != nil {
		t.Fatalf("author remove: %v", err)
	}
	if err := s.Remove(ctx, c.ID, "user-a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestInMemoryCommentStore_RemoveCascadesAndHidesThread(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	root, _ := s.Add(ctx, "user-a", question3, "root", nil)
	_, _ = s.Add(ctx, "user-b", question3, "reply", &root.ID)
	keep, _ := s.Add(ctx, "user-c", question3, "other root", nil)

	if err := s.Remove(ctx, root.ID, "user-a"); err != nil {
		t.Fatalf("remove: %v", err)
	}

	threads, _ := s.ListFor(ctx, question3)
	if len(threads) != 1 {
		t.Fatalf("expected deleted thread hidden, got %d threads", len(threads))
	}
	if threads[0].Comment.ID != keep.ID {
		t.Fatal("expected the untouched thread to survive")
	}
}

func TestInMemoryCommentStore_UpdateBody(t *testing.T) {
	s := NewInMemoryCommentStore()
	ctx := context.Background()

	c, _ := s.Add(ctx, "user-a", question3, "original", nil)

	if err := s.UpdateBody(ctx, c.ID, "user-b", "hacked"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-author, got %v", err)
	}
	if err := s.UpdateBody(ctx, c.ID, "user-a", " updated "); err != nil {
		t.Fatalf("author update: %v", err)
	}
	got, _ := s.Get(ctx, c.ID)
	if got.Body != "updated" {
		t.Fatalf("expected trimmed updated body, got %q", got.Body)
	}
	if got.UpdatedAt == nil {
		t.Fatal("expected updated_at set")
	}
}

func TestCommentStoreInterface(t *testing.T) {
	var _ CommentStore = (*InMemoryCommentStore)(nil)
	var _ CommentStore = (*PostgresCommentStore)(nil)
}
