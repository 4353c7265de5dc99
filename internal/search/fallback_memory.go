package search

import (
	"context"
	"strings"
	"sync"

	"github.com/example/knowledge-platform/internal/subject"
)

// Document is one searchable entity for the in-memory fallback.
type Document struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// InMemoryFallback is the development/test fallback backend.
type InMemoryFallback struct {
	mu   sync.RWMutex
	docs map[subject.Type][]Document
}

func NewInMemoryFallback() *InMemoryFallback {
	return &InMemoryFallback{docs: make(map[subject.Type][]Document)}
}

func (f *InMemoryFallback) AddDocument(typ subject.Type, doc Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[typ] = append(f.docs[typ], doc)
}

func (f *InMemoryFallback) Match(ctx context.Context, typ subject.Type, term string) ([]int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	needle := strings.ToLower(term)
	ids := []int64{}
	for _, d := range f.docs[typ] {
		if strings.Contains(strings.ToLower(d.Title), needle) ||
			strings.Contains(strings.ToLower(d.Body), needle) {
			ids = append(ids, d.ID)
		}
	}
	return ids, nil
}
