package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"
	"github.com/snarg/scribe-engine/internal/jobs"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

// statusForKind maps lifecycle error kinds to HTTP status codes.
func statusForKind(kind jobs.Kind) int {
	switch kind {
	case jobs.KindUnauthenticated:
		return http.StatusUnauthorized
	case jobs.KindAccessDenied:
		return http.StatusForbidden
	case jobs.KindInvalidRequest:
		return http.StatusBadRequest
	case jobs.KindFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case jobs.KindNotFound:
		return http.StatusNotFound
	case jobs.KindExtractionFailed:
		return http.StatusUnprocessableEntity
	case jobs.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case jobs.KindProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteJobError renders a lifecycle error: the kind picks the status code
// and the body carries the user-facing message, the kind, and any detail
// fields. Untyped errors become an opaque 500; their cause goes to the log
// only.
func WriteJobError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := jobs.AsError(err)
	if !ok {
		hlog.FromRequest(r).Error().Err(err).Msg("unclassified handler error")
		WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if e.Kind == jobs.KindPersistenceFailure || e.Kind == jobs.KindStorageUnavailable {
		hlog.FromRequest(r).Error().Err(err).Msg("backend failure")
	}

	body := map[string]any{
		"error":   string(e.Kind),
		"message": e.Message,
	}
	for k, v := range e.Fields {
		body[k] = v
	}
	WriteJSON(w, statusForKind(e.Kind), body)
}

// Pagination holds parsed pagination parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination extracts limit and offset from query params with defaults.
// Returns an error if values are present but invalid.
func ParsePagination(r *http.Request) (Pagination, error) {
	p := Pagination{Limit: 50, Offset: 0}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("invalid limit %q: must be an integer", v)
		}
		if n < 1 {
			return p, fmt.Errorf("invalid limit %d: must be >= 1", n)
		}
		p.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("invalid offset %q: must be an integer", v)
		}
		if n < 0 {
			return p, fmt.Errorf("invalid offset %d: must be >= 0", n)
		}
		p.Offset = n
	}
	return p, nil
}

// DecodeJSON reads and decodes a JSON request body into v.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	return json.NewDecoder(r.Body).Decode(v)
}
