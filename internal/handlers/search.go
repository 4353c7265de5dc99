package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/knowledge-platform/internal/engine"
	"github.com/example/knowledge-platform/internal/platform/api"
	"github.com/example/knowledge-platform/internal/subject"
)

type searchResponse struct {
	IDs []int64 `json:"ids"`
}

// Search handles GET /v1/search/{subject_type}?q=term
func Search(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		typ, ok := subject.ParseType(chi.URLParam(r, "subject_type"))
		if !ok {
			api.BadRequest(w, "INVALID_SUBJECT_TYPE", "subject_type must be question, answer or solution", "", nil)
			return
		}
		term := strings.TrimSpace(r.URL.Query().Get("q"))

		ids, err := e.Search(r.Context(), typ, term)
		if err != nil {
			api.Internal(w, "")
			return
		}
		api.WriteJSON(w, http.StatusOK, searchResponse{IDs: ids})
	}
}
