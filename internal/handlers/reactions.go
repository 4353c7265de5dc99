package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/knowledge-platform/internal/engine"
	"github.com/example/knowledge-platform/internal/platform/api"
	"github.com/example/knowledge-platform/internal/platform/auth"
	"github.com/example/knowledge-platform/internal/store"
)

type toggleReactionRequest struct {
	Positive *bool `json:"positive"`
}

type reactionReplyRequest struct {
	Positive *bool `json:"positive"`
}

// ToggleReaction handles POST /v1/reactions/{subject_type}/{subject_id}
func ToggleReaction(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		ref, ok := subjectFromURL(w, r)
		if !ok {
			return
		}

		var req toggleReactionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if req.Positive == nil {
			api.BadRequest(w, "MISSING_POLARITY", "positive is required", "", nil)
			return
		}

		res, err := e.ToggleReaction(r.Context(), actor, ref, *req.Positive)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, res)
	}
}

// ListReactions handles GET /v1/reactions/{subject_type}/{subject_id}
func ListReactions(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, ok := subjectFromURL(w, r)
		if !ok {
			return
		}
		list, err := e.ListReactions(r.Context(), ref)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, map[string]any{"reactions": list})
	}
}

// AddReactionReply handles POST /v1/reactions/{reaction_id}/replies
func AddReactionReply(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		parentID := strings.TrimSpace(chi.URLParam(r, "reaction_id"))
		if parentID == "" {
			api.BadRequest(w, "MISSING_ID", "reaction_id is required", "", nil)
			return
		}

		var req reactionReplyRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			api.BadRequest(w, "INVALID_JSON", "invalid JSON", "", nil)
			return
		}
		if req.Positive == nil {
			api.BadRequest(w, "MISSING_POLARITY", "positive is required", "", nil)
			return
		}

		child, err := e.AddReactionReply(r.Context(), actor, parentID, *req.Positive)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, child)
	}
}

func actorFrom(w http.ResponseWriter, r *http.Request) (engine.Actor, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok || userID == "" {
		api.Unauthorized(w, "UNAUTHORIZED", "authentication required", "")
		return engine.Actor{}, false
	}
	return engine.Actor{ID: userID, DisplayName: auth.DisplayNameFromContext(r.Context())}, true
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		api.BadRequest(w, "VALIDATION", err.Error(), "", nil)
	case errors.Is(err, store.ErrNotFound):
		api.NotFound(w, "NOT_FOUND", err.Error(), "")
	case errors.Is(err, store.ErrForbidden):
		api.Forbidden(w, "FORBIDDEN", err.Error(), "")
	case errors.Is(err, store.ErrConflict):
		api.Conflict(w, "CONFLICT", "temporarily contended, retry", "", nil)
	default:
		api.Internal(w, "")
	}
}
