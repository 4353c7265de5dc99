// Package search resolves term queries against a primary index with a
// deterministic exact-substring fallback over the backing store.
package search

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/knowledge-platform/internal/subject"
)

// Hit is one primary-index result with the fields the match may live in.
type Hit struct {
	ID         int64
	Searchable []string
}

// Index is the port for the primary search backend. May be absent.
type Index interface {
	Query(ctx context.Context, typ subject.Type, term string) ([]Hit, error)
}

// FallbackStore runs a case-insensitive substring match directly against the
// searchable columns of the backing store.
type FallbackStore interface {
	Match(ctx context.Context, typ subject.Type, term string) ([]int64, error)
}

// Resolver prefers the primary index and falls back on misconfiguration,
// error or timeout. The substring property holds on both paths: primary hits
// are post-filtered so ranking quirks of the index can never surface a
// non-matching subject.
type Resolver struct {
	Primary  Index
	Fallback FallbackStore
	Timeout  time.Duration
	Log      *zap.Logger
}

func NewResolver(primary Index, fallback FallbackStore, timeout time.Duration, log *zap.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Resolver{Primary: primary, Fallback: fallback, Timeout: timeout, Log: log}
}

// Query returns the ids of subjects whose searchable fields contain term,
// case-insensitively. An empty term always yields an empty result.
func (r *Resolver) Query(ctx context.Context, typ subject.Type, term string) ([]int64, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []int64{}, nil
	}

	if r.Primary != nil {
		cctx, cancel := context.WithTimeout(ctx, r.Timeout)
		hits, err := r.Primary.Query(cctx, typ, term)
		cancel()
		if err == nil {
			return filterHits(hits, term), nil
		}
		r.Log.Warn("primary search failed, falling back",
			zap.String("subject_type", string(typ)), zap.Error(err))
	}

	ids, err := r.Fallback.Match(ctx, typ, term)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

func filterHits(hits []Hit, term string) []int64 {
	needle := strings.ToLower(term)
	ids := []int64{}
	for _, h := range hits {
		for _, field := range h.Searchable {
			if strings.Contains(strings.ToLower(field), needle) {
				ids = append(ids, h.ID)
				break
			}
		}
	}
	return ids
}
