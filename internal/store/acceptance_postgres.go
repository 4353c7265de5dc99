package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAcceptanceStore owns the is_accepted flag on answer rows.
type PostgresAcceptanceStore struct {
	pool *pgxpool.Pool
}

func NewPostgresAcceptanceStore(pool *pgxpool.Pool) *PostgresAcceptanceStore {
	return &PostgresAcceptanceStore{pool: pool}
}

func (s *PostgresAcceptanceStore) Accept(ctx context.Context, questionID, answerID int64, userID string) (AcceptResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return AcceptResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The question row is the lock scope: concurrent accepts on the same
	// question serialize here, accepts on different questions never block.
	var author string
	err = tx.QueryRow(ctx, `
SELECT author_id FROM questions WHERE id = $1 FOR UPDATE`, questionID).Scan(&author)
	if errors.Is(err, pgx.ErrNoRows) {
		return AcceptResult{}, fmt.Errorf("question %d: %w", questionID, ErrNotFound)
	}
	if err != nil {
		return AcceptResult{}, mapPgError(err)
	}
	if author != userID {
		return AcceptResult{}, fmt.Errorf("question %d not owned by %s: %w", questionID, userID, ErrForbidden)
	}

	var (
		wasAccepted bool
		body        string
	)
	err = tx.QueryRow(ctx, `
SELECT is_accepted, body FROM answers WHERE id = $1 AND question_id = $2`, answerID, questionID).Scan(&wasAccepted, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return AcceptResult{}, fmt.Errorf("answer %d on question %d: %w", answerID, questionID, ErrNotFound)
	}
	if err != nil {
		return AcceptResult{}, mapPgError(err)
	}

	// Unset every other answer first, then toggle the target. Under the
	// question lock this ordering keeps the 0-or-1 invariant even when two
	// accepts race on different answers.
	rows, err := tx.Query(ctx, `
UPDATE answers SET is_accepted = FALSE, accepted_at = NULL
WHERE question_id = $1 AND id <> $2 AND is_accepted
RETURNING id`, questionID, answerID)
	if err != nil {
		return AcceptResult{}, mapPgError(err)
	}
	var cleared []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return AcceptResult{}, err
		}
		cleared = append(cleared, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return AcceptResult{}, err
	}

	accepted := !wasAccepted
	if accepted {
		_, err = tx.Exec(ctx, `
UPDATE answers SET is_accepted = TRUE, accepted_at = now()
WHERE id = $1`, answerID)
	} else {
		_, err = tx.Exec(ctx, `
UPDATE answers SET is_accepted = FALSE, accepted_at = NULL
WHERE id = $1`, answerID)
	}
	if err != nil {
		return AcceptResult{}, mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return AcceptResult{}, mapPgError(err)
	}
	return AcceptResult{Accepted: accepted, Cleared: cleared, Body: body}, nil
}

func (s *PostgresAcceptanceStore) ListAnswers(ctx context.Context, questionID int64) ([]Answer, error) {
	const q = `
SELECT id, question_id, author_id, body, is_accepted, accepted_at
FROM answers
WHERE question_id = $1
ORDER BY created_at ASC, id ASC`
	rows, err := s.pool.Query(ctx, q, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.AuthorID, &a.Body, &a.IsAccepted, &a.AcceptedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
