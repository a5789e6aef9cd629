package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/minibank/minibank/internal/ledger"
	"github.com/minibank/minibank/internal/service"
)

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error onto an HTTP status and a JSON body.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), map[string]string{"error": err.Error()})
}

// statusOf maps the domain error taxonomy onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrAuthFailed):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrDuplicateAccount):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrSameAccount),
		errors.Is(err, ledger.ErrInvalidIndex):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeMutation writes the result of a committed mutation. A save
// failure does not roll the mutation back, so the payload is still the
// authoritative state; the response flags the stale disk copy instead
// of failing the request.
func writeMutation(w http.ResponseWriter, code int, v any, err error) {
	switch {
	case err == nil:
		writeJSON(w, code, v)
	case errors.Is(err, service.ErrPersist):
		w.Header().Set("X-Persist-Warning", err.Error())
		writeJSON(w, code, v)
	default:
		writeError(w, err)
	}
}
