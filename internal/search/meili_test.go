package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/knowledge-platform/internal/subject"
)

func TestMeiliClient_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/indexes/question/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits":[{"id":4,"title":"Connection pooling","body":"pgx"}]}`))
	}))
	defer srv.Close()

	c := NewMeiliClient(srv.URL, "test-key")
	hits, err := c.Query(context.Background(), subject.TypeQuestion, "pool")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != 4 {
		t.Fatalf("unexpected hits %+v", hits)
	}
	if len(hits[0].Searchable) != 2 || hits[0].Searchable[0] != "Connection pooling" {
		t.Fatalf("expected searchable fields carried, got %+v", hits[0].Searchable)
	}
}

func TestMeiliClient_QueryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewMeiliClient(srv.URL, "")
	if _, err := c.Query(context.Background(), subject.TypeQuestion, "pool"); err == nil {
		t.Fatal("expected error on 5xx")
	}
}

func TestMeiliClient_EnsureIndex(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewMeiliClient(srv.URL, "")
	if err := c.EnsureIndex(context.Background(), subject.TypeAnswer); err != nil {
		t.Fatalf("ensure index: %v", err)
	}
	want := []string{"POST /indexes", "PATCH /indexes/answer/settings"}
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, paths)
	}
}
