package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/knowledge-platform/internal/subject"
)

// MeiliClient is a minimal Meilisearch HTTP client. One index per subject
// type, named after the type.
type MeiliClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type meiliSearchResponse struct {
	Hits []meiliDoc `json:"hits"`
}

type meiliDoc struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func NewMeiliClient(baseURL, apiKey string) *MeiliClient {
	return &MeiliClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Query implements Index.
func (c *MeiliClient) Query(ctx context.Context, typ subject.Type, term string) ([]Hit, error) {
	payload := map[string]any{"q": term, "limit": 100}
	b, _ := json.Marshal(payload)
	raw, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/indexes/%s/search", typ), bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	var resp meiliSearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(resp.Hits))
	for _, d := range resp.Hits {
		hits = append(hits, Hit{ID: d.ID, Searchable: []string{d.Title, d.Body}})
	}
	return hits, nil
}

// EnsureIndex creates the index for a subject type if missing and marks the
// searchable attributes.
func (c *MeiliClient) EnsureIndex(ctx context.Context, typ subject.Type) error {
	payload := map[string]string{"uid": string(typ), "primaryKey": "id"}
	b, _ := json.Marshal(payload)
	if _, err := c.do(ctx, http.MethodPost, "/indexes", bytes.NewReader(b)); err != nil &&
		!strings.Contains(err.Error(), "index already exists") {
		return err
	}
	settings := map[string]any{"searchableAttributes": []string{"title", "body"}}
	sb, _ := json.Marshal(settings)
	_, err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/indexes/%s/settings", typ), bytes.NewReader(sb))
	return err
}

func (c *MeiliClient) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("meili error: %s", string(data))
	}
	return data, nil
}
