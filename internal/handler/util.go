package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/virallens/support-chat/internal/llm"
	"github.com/virallens/support-chat/internal/store"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeErrorDetails writes a JSON error response with a details field.
func writeErrorDetails(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, map[string]string{
		"error":   message,
		"details": details,
	})
}

// respondError maps the service error taxonomy to HTTP statuses:
// ValidationError 400, NotFoundError 404, UpstreamError and StoreError 500.
func respondError(w http.ResponseWriter, err error) {
	var validationErr *store.ValidationError
	var notFoundErr *store.NotFoundError
	var upstreamErr *llm.UpstreamError
	var storeErr *store.StoreError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &notFoundErr):
		writeError(w, http.StatusNotFound, notFoundMessage(notFoundErr))
	case errors.As(err, &upstreamErr):
		writeErrorDetails(w, http.StatusInternalServerError,
			"Failed to generate a response",
			"Failed to process your message. Please try again.")
	case errors.As(err, &storeErr):
		writeError(w, http.StatusInternalServerError, "Database operation failed")
	default:
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func notFoundMessage(err *store.NotFoundError) string {
	switch err.Resource {
	case "message":
		return "Message not found"
	default:
		return "Conversation not found"
	}
}
