package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/vncsmyrnk/ideabox/internal/core/domain"
)

const retryAfterSeconds = "5"

var errBadRequest = errors.New("bad request")

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps domain failures to a status and a message fit for end users.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := http.StatusInternalServerError, "internal", "Something went wrong. Please try again."

	switch {
	case errors.Is(err, domain.ErrAlreadyVoted):
		status, code, message = http.StatusConflict, "already_voted", "You have already voted for this idea."
	case errors.Is(err, domain.ErrNotVoted):
		status, code, message = http.StatusNotFound, "not_voted", "You haven't voted for this idea."
	case errors.Is(err, domain.ErrQuotaExhausted):
		status, code, message = http.StatusForbidden, "quota_exhausted", "You have used all your votes for this quarter. Votes reset every quarter."
	case errors.Is(err, domain.ErrNotAuthenticated):
		status, code, message = http.StatusUnauthorized, "not_authenticated", "Please sign in to continue."
	case errors.Is(err, domain.ErrForbidden):
		status, code, message = http.StatusForbidden, "forbidden", "Only administrators can update ideas."
	case errors.Is(err, domain.ErrIdeaNotFound):
		status, code, message = http.StatusNotFound, "idea_not_found", "This idea does not exist."
	case errors.Is(err, domain.ErrProfileNotFound):
		status, code, message = http.StatusNotFound, "profile_not_found", "No profile exists for this user yet."
	case errors.Is(err, domain.ErrInvalidIdea), errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, errBadRequest):
		status, code, message = http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, domain.ErrStoreUnavailable):
		status, code, message = http.StatusServiceUnavailable, "store_unavailable", "The service is temporarily unavailable. Please try again shortly."
		w.Header().Set("Retry-After", retryAfterSeconds)
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}

	writeJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Code:    code,
		Message: message,
	})
}
