package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/example/knowledge-platform/internal/platform/api"
	"github.com/example/knowledge-platform/internal/subject"
)

// subjectFromURL parses {subject_type}/{subject_id} route params. Writes the
// error response itself and reports ok=false on failure.
func subjectFromURL(w http.ResponseWriter, r *http.Request) (subject.Ref, bool) {
	typ, ok := subject.ParseType(chi.URLParam(r, "subject_type"))
	if !ok {
		api.BadRequest(w, "INVALID_SUBJECT_TYPE", "subject_type must be question, answer or solution", "", nil)
		return subject.Ref{}, false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "subject_id")), 10, 64)
	if err != nil || id <= 0 {
		api.BadRequest(w, "INVALID_SUBJECT_ID", "subject_id must be a positive integer", "", nil)
		return subject.Ref{}, false
	}
	return subject.Ref{Type: typ, ID: id}, true
}

func int64URLParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, name)), 10, 64)
	if err != nil || id <= 0 {
		api.BadRequest(w, "INVALID_ID", name+" must be a positive integer", "", nil)
		return 0, false
	}
	return id, true
}
