// Package engine orchestrates the interaction stores, the read cache and the
// event broadcaster. Every write follows the same shape: mutate inside the
// store's transaction, invalidate the affected cache tags once the store call
// has returned, then publish a notification. The cache and the broadcaster
// are best-effort; only the store is a correctness dependency.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/knowledge-platform/internal/broadcast"
	"github.com/example/knowledge-platform/internal/cache"
	"github.com/example/knowledge-platform/internal/search"
	"github.com/example/knowledge-platform/internal/store"
	"github.com/example/knowledge-platform/internal/subject"
)

// Actor identifies who issued a command. The HTTP layer resolves it from the
// verified token; the engine never authenticates.
type Actor struct {
	ID          string
	DisplayName string
}

// Event names published by the engine.
const (
	EventReactionUpdated = "reaction.updated"
	EventCommentPosted   = "comment.posted"
	EventAnswerAccepted  = "answer.accepted"
)

type Options struct {
	// BroadcastComments controls whether AddComment publishes an event.
	// Reactions and accepts always do; comments default to read-refresh.
	BroadcastComments bool
	CacheTTL          time.Duration
	MaxRetries        int
	RetryBase         time.Duration
}

type Engine struct {
	reactions   store.ReactionStore
	comments    store.CommentStore
	acceptance  store.AcceptanceStore
	cache       *cache.Coordinator
	broadcaster *broadcast.Broadcaster
	resolver    *search.Resolver
	log         *zap.Logger
	opts        Options
}

func New(
	reactions store.ReactionStore,
	comments store.CommentStore,
	acceptance store.AcceptanceStore,
	cacheCoord *cache.Coordinator,
	broadcaster *broadcast.Broadcaster,
	resolver *search.Resolver,
	log *zap.Logger,
	opts Options,
) *Engine {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 25 * time.Millisecond
	}
	return &Engine{
		reactions:   reactions,
		comments:    comments,
		acceptance:  acceptance,
		cache:       cacheCoord,
		broadcaster: broadcaster,
		resolver:    resolver,
		log:         log,
		opts:        opts,
	}
}

// ToggleReaction flips the actor's reaction on a subject and reports the
// fresh totals.
func (e *Engine) ToggleReaction(ctx context.Context, actor Actor, ref subject.Ref, positive bool) (store.ToggleResult, error) {
	if !ref.Valid() {
		return store.ToggleResult{}, fmt.Errorf("invalid subject %s: %w", ref, store.ErrValidation)
	}

	var res store.ToggleResult
	err := e.withRetry(ctx, func() error {
		var err error
		res, err = e.reactions.Toggle(ctx, actor.ID, ref, positive)
		return err
	})
	if err != nil {
		return store.ToggleResult{}, err
	}

	e.cache.Invalidate(ctx, ref.Tag())

	payload := broadcast.NewPayload(ref.ID, "", actor.ID, actor.DisplayName)
	payload["action"] = res.Action
	payload["likes_count"] = res.Likes
	payload["dislikes_count"] = res.Dislikes
	e.broadcaster.Publish(broadcast.Event{
		Name:    EventReactionUpdated,
		Channel: ref.Channel(),
		Payload: payload,
	})
	return res, nil
}

// ListReactions reads the subject's top-level reactions through the cache.
func (e *Engine) ListReactions(ctx context.Context, ref subject.Ref) ([]store.Reaction, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("invalid subject %s: %w", ref, store.ErrValidation)
	}
	key := fmt.Sprintf("reactions:%s:%d", ref.Type, ref.ID)
	return cache.Remember(ctx, e.cache, key, []string{ref.Tag()}, e.opts.CacheTTL,
		func(ctx context.Context) ([]store.Reaction, error) {
			return e.reactions.ListFor(ctx, ref)
		})
}

// AddReactionReply nests a meta-reaction under an existing one. Totals are
// unaffected, but subject-tagged entries are invalidated so reply counts
// shown alongside the list stay fresh.
func (e *Engine) AddReactionReply(ctx context.Context, actor Actor, parentID string, positive bool) (store.Reaction, error) {
	r, err := e.reactions.AddChild(ctx, parentID, actor.ID, positive)
	if err != nil {
		return store.Reaction{}, err
	}
	e.cache.Invalidate(ctx, r.Subject.Tag())
	return r, nil
}

// AddComment posts a comment or a one-level reply.
func (e *Engine) AddComment(ctx context.Context, actor Actor, ref subject.Ref, body string, parentID *string) (store.Comment, error) {
	if !ref.Valid() {
		return store.Comment{}, fmt.Errorf("invalid subject %s: %w", ref, store.ErrValidation)
	}

	c, err := e.comments.Add(ctx, actor.ID, ref, body, parentID)
	if err != nil {
		return store.Comment{}, err
	}

	e.cache.Invalidate(ctx, ref.Tag())

	if e.opts.BroadcastComments {
		e.broadcaster.Publish(broadcast.Event{
			Name:    EventCommentPosted,
			Channel: ref.Channel(),
			Payload: broadcast.NewPayload(c.ID, c.Body, actor.ID, actor.DisplayName),
		})
	}
	return c, nil
}

// ListComments reads the subject's comment tree through the cache.
func (e *Engine) ListComments(ctx context.Context, ref subject.Ref) ([]store.CommentThread, error) {
	if !ref.Valid() {
		return nil, fmt.Errorf("invalid subject %s: %w", ref, store.ErrValidation)
	}
	key := fmt.Sprintf("comments:%s:%d", ref.Type, ref.ID)
	return cache.Remember(ctx, e.cache, key, []string{ref.Tag()}, e.opts.CacheTTL,
		func(ctx context.Context) ([]store.CommentThread, error) {
			return e.comments.ListFor(ctx, ref)
		})
}

// UpdateComment edits a comment's body, author-only.
func (e *Engine) UpdateComment(ctx context.Context, actor Actor, commentID, body string) error {
	if err := e.comments.UpdateBody(ctx, commentID, actor.ID, body); err != nil {
		return err
	}
	if c, err := e.comments.Get(ctx, commentID); err == nil {
		e.cache.Invalidate(ctx, c.Subject.Tag())
	}
	return nil
}

// RemoveComment soft-deletes a comment and its direct replies, author-only.
func (e *Engine) RemoveComment(ctx context.Context, actor Actor, commentID string) error {
	// Resolve the subject before the row is tombstoned.
	c, err := e.comments.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if err := e.comments.Remove(ctx, commentID, actor.ID); err != nil {
		return err
	}
	e.cache.Invalidate(ctx, c.Subject.Tag())
	return nil
}

// AcceptAnswer toggles the accepted flag on an answer, keeping the
// at-most-one invariant. Only the transition that ends accepted notifies
// subscribers; clearing the previous answer is silent.
func (e *Engine) AcceptAnswer(ctx context.Context, actor Actor, questionID, answerID int64) (store.AcceptResult, error) {
	var res store.AcceptResult
	err := e.withRetry(ctx, func() error {
		var err error
		res, err = e.acceptance.Accept(ctx, questionID, answerID, actor.ID)
		return err
	})
	if err != nil {
		return store.AcceptResult{}, err
	}

	questionRef := subject.Ref{Type: subject.TypeQuestion, ID: questionID}
	tags := []string{
		questionRef.Tag(),
		subject.Ref{Type: subject.TypeAnswer, ID: answerID}.Tag(),
	}
	for _, id := range res.Cleared {
		tags = append(tags, subject.Ref{Type: subject.TypeAnswer, ID: id}.Tag())
	}
	e.cache.Invalidate(ctx, tags...)

	if res.Accepted {
		e.broadcaster.Publish(broadcast.Event{
			Name:    EventAnswerAccepted,
			Channel: questionRef.Channel(),
			Payload: broadcast.NewPayload(answerID, res.Body, actor.ID, actor.DisplayName),
		})
	}
	return res, nil
}

// Search resolves a term query. Read path only; never consulted on writes.
func (e *Engine) Search(ctx context.Context, typ subject.Type, term string) ([]int64, error) {
	return e.resolver.Query(ctx, typ, term)
}

// withRetry re-runs fn on transient conflicts with exponential backoff.
// Deterministic business errors surface immediately.
func (e *Engine) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= e.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := e.opts.RetryBase << (attempt - 1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
			e.log.Warn("retrying after transient conflict",
				zap.Int("attempt", attempt), zap.Error(err))
		}
		err = fn()
		if err == nil || !errors.Is(err, store.ErrConflict) {
			return err
		}
	}
	return err
}
