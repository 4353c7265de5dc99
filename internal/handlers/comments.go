package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/knowledge-platform/internal/engine"
	"github.com/example/knowledge-platform/internal/platform/api"
	"github.com/example/knowledge-platform/internal/store"
)

type createCommentRequest struct {
	Body     string  `json:"body"`
	ParentID *string `json:"parent_id,omitempty"`
}

type updateCommentRequest struct {
	Body string `json:"body"`
}

type threadsResponse struct {
	Comments []store.CommentThread `json:"comments"`
}

// CreateComment handles POST /v1/comments/{subject_type}/{subject_id}
func CreateComment(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		ref, ok := subjectFromURL(w, r)
		if !ok {
			return
		}

		var req createCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}

		c, err := e.AddComment(r.Context(), actor, ref, req.Body, req.ParentID)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, c)
	}
}

// ListComments handles GET /v1/comments/{subject_type}/{subject_id}
func ListComments(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, ok := subjectFromURL(w, r)
		if !ok {
			return
		}
		threads, err := e.ListComments(r.Context(), ref)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, threadsResponse{Comments: threads})
	}
}

// UpdateComment handles PUT /v1/comments/{comment_id}
func UpdateComment(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		var req updateCommentRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}

		if err := e.UpdateComment(r.Context(), actor, commentID, req.Body); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteComment handles DELETE /v1/comments/{comment_id}
func DeleteComment(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		commentID := strings.TrimSpace(chi.URLParam(r, "comment_id"))
		if commentID == "" {
			api.BadRequest(w, "MISSING_ID", "comment_id is required", "", nil)
			return
		}

		if err := e.RemoveComment(r.Context(), actor, commentID); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
