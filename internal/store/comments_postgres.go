package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/knowledge-platform/internal/subject"
)

// PostgresCommentStore persists comments in Postgres.
type PostgresCommentStore struct {
	pool *pgxpool.Pool
}

func NewPostgresCommentStore(pool *pgxpool.Pool) *PostgresCommentStore {
	return &PostgresCommentStore{pool: pool}
}

const commentCols = `id::text, user_id, subject_type, subject_id, body, parent_id::text, created_at, updated_at, deleted_at`

func (s *PostgresCommentStore) Add(ctx context.Context, userID string, ref subject.Ref, body string, parentID *string) (Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Comment{}, fmt.Errorf("empty body: %w", ErrValidation)
	}

	if parentID != nil {
		// Parent must be live, top-level and on the same subject.
		var parentRef subject.Ref
		var parentOfParent *string
		err := s.pool.QueryRow(ctx, `
SELECT subject_type, subject_id, parent_id::text
FROM comments
WHERE id::text = $1 AND deleted_at IS NULL`, *parentID).
			Scan(&parentRef.Type, &parentRef.ID, &parentOfParent)
		if errors.Is(err, pgx.ErrNoRows) {
			return Comment{}, fmt.Errorf("parent comment %s: %w", *parentID, ErrNotFound)
		}
		if err != nil {
			return Comment{}, err
		}
		if parentRef != ref || parentOfParent != nil {
			return Comment{}, fmt.Errorf("parent comment %s on %s: %w", *parentID, parentRef, ErrNotFound)
		}
	}

	row := s.pool.QueryRow(ctx, `
INSERT INTO comments (user_id, subject_type, subject_id, body, parent_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+commentCols, userID, ref.Type, ref.ID, body, parentID)
	return scanComment(row)
}

func (s *PostgresCommentStore) ListFor(ctx context.Context, ref subject.Ref) ([]CommentThread, error) {
	roots, err := s.query(ctx, `
SELECT `+commentCols+`
FROM comments
WHERE subject_type = $1 AND subject_id = $2 AND parent_id IS NULL AND deleted_at IS NULL
ORDER BY created_at ASC, id ASC`, ref.Type, ref.ID)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return []CommentThread{}, nil
	}

	rootIDs := make([]string, len(roots))
	for i, r := range roots {
		rootIDs[i] = r.ID
	}
	replies, err := s.query(ctx, `
SELECT `+commentCols+`
FROM comments
WHERE parent_id::text = ANY($1) AND deleted_at IS NULL
ORDER BY created_at ASC, id ASC`, rootIDs)
	if err != nil {
		return nil, err
	}

	replyMap := make(map[string][]Comment)
	for _, r := range replies {
		if r.ParentID != nil {
			replyMap[*r.ParentID] = append(replyMap[*r.ParentID], r)
		}
	}

	threads := make([]CommentThread, len(roots))
	for i, r := range roots {
		threads[i] = CommentThread{Comment: r, Replies: replyMap[r.ID]}
		if threads[i].Replies == nil {
			threads[i].Replies = []Comment{}
		}
	}
	return threads, nil
}

func (s *PostgresCommentStore) UpdateBody(ctx context.Context, commentID, userID, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return fmt.Errorf("empty body: %w", ErrValidation)
	}
	return s.authorOnly(ctx, commentID, userID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
UPDATE comments SET body = $1, updated_at = now()
WHERE id::text = $2`, body, commentID)
		return err
	})
}

func (s *PostgresCommentStore) Remove(ctx context.Context, commentID, userID string) error {
	return s.authorOnly(ctx, commentID, userID, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
UPDATE comments SET deleted_at = now()
WHERE id::text = $1`, commentID); err != nil {
			return err
		}
		// One level deep, so cascading to direct replies is complete.
		_, err := tx.Exec(ctx, `
UPDATE comments SET deleted_at = now()
WHERE parent_id::text = $1 AND deleted_at IS NULL`, commentID)
		return err
	})
}

func (s *PostgresCommentStore) Get(ctx context.Context, commentID string) (Comment, error) {
	row := s.pool.QueryRow(ctx, `
SELECT `+commentCols+`
FROM comments
WHERE id::text = $1 AND deleted_at IS NULL`, commentID)
	c, err := scanComment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
	}
	return c, err
}

// authorOnly runs fn in a transaction after verifying the comment is live and
// owned by userID.
func (s *PostgresCommentStore) authorOnly(ctx context.Context, commentID, userID string, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var owner string
	err = tx.QueryRow(ctx, `
SELECT user_id FROM comments
WHERE id::text = $1 AND deleted_at IS NULL
FOR UPDATE`, commentID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
	}
	if err != nil {
		return mapPgError(err)
	}
	if owner != userID {
		return fmt.Errorf("comment %s not owned by %s: %w", commentID, userID, ErrForbidden)
	}
	if err := fn(tx); err != nil {
		return mapPgError(err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresCommentStore) query(ctx context.Context, q string, args ...any) ([]Comment, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.UserID, &c.Subject.Type, &c.Subject.ID,
			&c.Body, &c.ParentID, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanComment(row pgx.Row) (Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.UserID, &c.Subject.Type, &c.Subject.ID,
		&c.Body, &c.ParentID, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt)
	return c, err
}
