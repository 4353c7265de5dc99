package search

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/knowledge-platform/internal/subject"
)

// PostgresFallback matches term against the searchable columns of each
// subject type with ILIKE. Slower than the index, but always consistent with
// the source of truth.
type PostgresFallback struct {
	pool *pgxpool.Pool
}

func NewPostgresFallback(pool *pgxpool.Pool) *PostgresFallback {
	return &PostgresFallback{pool: pool}
}

func (f *PostgresFallback) Match(ctx context.Context, typ subject.Type, term string) ([]int64, error) {
	var q string
	switch typ {
	case subject.TypeQuestion:
		q = `SELECT id FROM questions WHERE title ILIKE $1 OR body ILIKE $1 ORDER BY id ASC`
	case subject.TypeAnswer:
		q = `SELECT id FROM answers WHERE body ILIKE $1 ORDER BY id ASC`
	case subject.TypeSolution:
		q = `SELECT id FROM solutions WHERE title ILIKE $1 OR body ILIKE $1 ORDER BY id ASC`
	default:
		return nil, fmt.Errorf("unknown subject type %q", typ)
	}

	rows, err := f.pool.Query(ctx, q, "%"+escapeLike(term)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// escapeLike neutralizes LIKE metacharacters so the term matches literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
