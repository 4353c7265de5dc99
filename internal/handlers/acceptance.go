package handlers

import (
	"net/http"

	"github.com/example/knowledge-platform/internal/engine"
	"github.com/example/knowledge-platform/internal/platform/api"
)

// AcceptAnswer handles POST /v1/questions/{question_id}/answers/{answer_id}/accept
func AcceptAnswer(e *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFrom(w, r)
		if !ok {
			return
		}
		questionID, ok := int64URLParam(w, r, "question_id")
		if !ok {
			return
		}
		answerID, ok := int64URLParam(w, r, "answer_id")
		if !ok {
			return
		}

		res, err := e.AcceptAnswer(r.Context(), actor, questionID, answerID)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, res)
	}
}
