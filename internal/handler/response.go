package handler

// RESPONSE HELPERS:
// Every JSON body leaves through writeJSON and every failure through writeError,
// so the whole API shares one error shape:
//
//	{"error": "Assignment not found"}
//
// The health endpoint is the exception: it never writes a body.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/akallepalli/assignment-service/internal/apperror"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is returned when there is nothing else to send back.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends data as JSON with the given status.
// Headers must be set before WriteHeader; after that they are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps the apperror taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// failure is what an operation answers when an error falls outside the
// apperror taxonomy. Most operations use 500; create uses 400.
type failure struct {
	status  int
	message string
}

var (
	listFailure   = failure{http.StatusInternalServerError, "Unable to retrieve assignments"}
	getFailure    = failure{http.StatusInternalServerError, "Unable to retrieve assignment details"}
	createFailure = failure{http.StatusBadRequest, "Unable to create assignment"}
	updateFailure = failure{http.StatusInternalServerError, "Unable to update assignment"}
	deleteFailure = failure{http.StatusInternalServerError, "Unable to delete assignment"}
)

// writeError translates err into a status code and an {"error": ...} body.
//
// Only *apperror.AppError messages reach the client. Anything else is answered
// with the operation's failure, so driver errors (SQL text, file paths) never leak.
func writeError(w http.ResponseWriter, err error, fb failure) {
	status := statusFor(err)

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || status == http.StatusInternalServerError {
		writeJSON(w, fb.status, ErrorResponse{Error: fb.message})
		return
	}

	msg := appErr.Message
	if status == http.StatusServiceUnavailable {
		msg = fb.message
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// setNoCache marks a response as uncacheable for HTTP/1.1 and HTTP/1.0 caches.
func setNoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
}

// NotFound answers requests for routes that do not exist.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Route not found"})
}

// MethodNotAllowed answers a known route hit with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
}
