// internal/controller/respond.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	appErrors "github.com/faworra/inbox-backend/internal/errors"
)

// TeamHeader carries the caller's team scope. Authentication itself happens
// upstream of this service.
const TeamHeader = "X-Team-ID"

func teamID(r *http.Request) string {
	return r.Header.Get(TeamHeader)
}

// RequireTeam rejects requests without a team scope before any handler runs.
func RequireTeam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if teamID(r) == "" {
			writeError(w, appErrors.NewValidation("missing %s header", TeamHeader))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine errors to HTTP statuses. Not-found deliberately says
// nothing about whether the resource exists for another team.
func writeError(w http.ResponseWriter, err error) {
	var (
		notFound   *appErrors.ErrNotFound
		validation *appErrors.ErrValidation
		conflict   *appErrors.ErrIdempotencyConflict
		transition *appErrors.ErrInvalidTransition
	)
	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &conflict), errors.As(err, &transition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
