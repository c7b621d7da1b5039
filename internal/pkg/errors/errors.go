package errors

import (
	"encoding/json"
	"net/http"
)

// Error kinds used in the wire envelope.
const (
	KindBadRequest      = "Bad Request"
	KindUnauthorized    = "Unauthorized"
	KindForbidden       = "Forbidden"
	KindConflict        = "Conflict"
	KindTooManyRequests = "Too Many Requests"
	KindInternal        = "Internal Server Error"
)

const genericMessage = "An unexpected error occurred"

type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope every failed request carries.
type ErrorResponse struct {
	Errors []APIError `json:"errors"`
}

func WriteError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Errors: []APIError{{Error: kind, Message: message}},
	})
}

// WriteInternal converts an unexpected error into a 500 envelope, carrying
// the error's message when one exists.
func WriteInternal(w http.ResponseWriter, err error) {
	message := genericMessage
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	WriteError(w, http.StatusInternalServerError, KindInternal, message)
}
