package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/knowledge-platform/internal/subject"
)

// PostgresReactionStore persists reactions in Postgres.
//
// A partial unique index backs the one-top-level-reaction-per-user rule:
//
//	CREATE UNIQUE INDEX reactions_user_subject_live
//	ON reactions (user_id, subject_type, subject_id)
//	WHERE parent_id IS NULL AND deleted_at IS NULL;
type PostgresReactionStore struct {
	pool *pgxpool.Pool
}

func NewPostgresReactionStore(pool *pgxpool.Pool) *PostgresReactionStore {
	return &PostgresReactionStore{pool: pool}
}

func (s *PostgresReactionStore) Toggle(ctx context.Context, userID string, ref subject.Ref, positive bool) (ToggleResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ToggleResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the user's existing top-level reaction (tombstoned or live) so a
	// rapid double-click serializes instead of losing an update.
	var (
		id       string
		existing bool
		wasPos   bool
		deleted  bool
	)
	err = tx.QueryRow(ctx, `
SELECT id::text, positive, deleted_at IS NOT NULL
FROM reactions
WHERE user_id = $1 AND subject_type = $2 AND subject_id = $3 AND parent_id IS NULL
ORDER BY created_at DESC
LIMIT 1
FOR UPDATE`, userID, ref.Type, ref.ID).Scan(&id, &wasPos, &deleted)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		existing = false
	case err != nil:
		return ToggleResult{}, mapPgError(err)
	default:
		existing = true
	}

	var action string
	switch {
	case !existing:
		_, err = tx.Exec(ctx, `
INSERT INTO reactions (user_id, subject_type, subject_id, positive)
VALUES ($1, $2, $3, $4)`, userID, ref.Type, ref.ID, positive)
		action = ActionAdded
	case deleted:
		// Revive the tombstone rather than inserting a second row.
		_, err = tx.Exec(ctx, `
UPDATE reactions SET positive = $1, deleted_at = NULL, created_at = now()
WHERE id::text = $2`, positive, id)
		action = ActionAdded
	case wasPos == positive:
		_, err = tx.Exec(ctx, `
UPDATE reactions SET deleted_at = now()
WHERE id::text = $1`, id)
		if err == nil {
			_, err = tx.Exec(ctx, `
UPDATE reactions SET deleted_at = now()
WHERE parent_id::text = $1 AND deleted_at IS NULL`, id)
		}
		action = ActionRemoved
	default:
		_, err = tx.Exec(ctx, `
UPDATE reactions SET positive = $1
WHERE id::text = $2`, positive, id)
		action = ActionUpdated
	}
	if err != nil {
		return ToggleResult{}, mapPgError(err)
	}

	var likes, dislikes int
	err = tx.QueryRow(ctx, `
SELECT COUNT(*) FILTER (WHERE positive), COUNT(*) FILTER (WHERE NOT positive)
FROM reactions
WHERE subject_type = $1 AND subject_id = $2 AND parent_id IS NULL AND deleted_at IS NULL`,
		ref.Type, ref.ID).Scan(&likes, &dislikes)
	if err != nil {
		return ToggleResult{}, mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return ToggleResult{}, mapPgError(err)
	}
	return ToggleResult{Action: action, Likes: likes, Dislikes: dislikes}, nil
}

func (s *PostgresReactionStore) ListFor(ctx context.Context, ref subject.Ref) ([]Reaction, error) {
	const q = `
SELECT id::text, user_id, subject_type, subject_id, positive, parent_id::text, created_at, deleted_at
FROM reactions
WHERE subject_type = $1 AND subject_id = $2 AND parent_id IS NULL AND deleted_at IS NULL
ORDER BY created_at ASC`
	rows, err := s.pool.Query(ctx, q, ref.Type, ref.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReactions(rows)
}

// AddChild nests a reaction under a live top-level parent. Nesting stops at
// one level: a child can never be a parent itself.
func (s *PostgresReactionStore) AddChild(ctx context.Context, parentID, userID string, positive bool) (Reaction, error) {
	const q = `
INSERT INTO reactions (user_id, subject_type, subject_id, positive, parent_id)
SELECT $1, p.subject_type, p.subject_id, $2, p.id
FROM reactions p
WHERE p.id::text = $3 AND p.deleted_at IS NULL AND p.parent_id IS NULL
RETURNING id::text, user_id, subject_type, subject_id, positive, parent_id::text, created_at, deleted_at`
	var out Reaction
	err := s.pool.QueryRow(ctx, q, userID, positive, parentID).Scan(
		&out.ID, &out.UserID, &out.Subject.Type, &out.Subject.ID,
		&out.Positive, &out.ParentID, &out.CreatedAt, &out.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reaction{}, fmt.Errorf("parent reaction %s: %w", parentID, ErrNotFound)
	}
	if err != nil {
		return Reaction{}, mapPgError(err)
	}
	return out, nil
}

func scanReactions(rows pgx.Rows) ([]Reaction, error) {
	var out []Reaction
	for rows.Next() {
		var r Reaction
		if err := rows.Scan(&r.ID, &r.UserID, &r.Subject.Type, &r.Subject.ID,
			&r.Positive, &r.ParentID, &r.CreatedAt, &r.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// mapPgError converts serialization failures, deadlocks and lock timeouts to
// ErrConflict so the engine can retry them.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%s: %w", pgErr.Code, ErrConflict)
		case "23505":
			// Unique-index collision from two racing inserts: also retryable.
			return fmt.Errorf("duplicate reaction: %w", ErrConflict)
		}
	}
	return err
}
