package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pesaflow/sacco-api/internal/ledger"
	"github.com/pesaflow/sacco-api/internal/store"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, error, details string) {
	writeJSON(w, status, ErrorResponse{Error: error, Details: details})
}

// writeDomainError maps ledger and store errors to HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeJSONError(w, http.StatusBadRequest, "insufficient_funds", err.Error())
	case errors.Is(err, ledger.ErrAlreadyCompleted):
		writeJSONError(w, http.StatusBadRequest, "already_completed", err.Error())
	default:
		slog.Error("internal error", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Unexpected error")
	}
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// parsePagination reads page and limit query parameters.
func parsePagination(r *http.Request) (page, limit int) {
	page, limit = 1, defaultPageLimit
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

// paginate slices items for the requested page and returns the page
// slice plus the total page count.
func paginate[T any](items []T, page, limit int) ([]T, int) {
	totalPages := (len(items) + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}, totalPages
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], totalPages
}
