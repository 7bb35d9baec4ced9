// Package httputil provides HTTP response helper functions.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bissquit/incident-tracker/internal/pkg/ctxlog"
	"github.com/go-playground/validator/v10"
)

// ErrorStatus is the machine-readable status carried in error bodies.
type ErrorStatus string

// Error statuses.
const (
	StatusInvalidArgument  ErrorStatus = "INVALID_ARGUMENT"
	StatusUnauthenticated  ErrorStatus = "UNAUTHENTICATED"
	StatusPermissionDenied ErrorStatus = "PERMISSION_DENIED"
	StatusNotFound         ErrorStatus = "NOT_FOUND"
	StatusMethodNotAllowed ErrorStatus = "METHOD_NOT_ALLOWED"
	StatusUnavailable      ErrorStatus = "UNAVAILABLE"
	StatusInternal         ErrorStatus = "INTERNAL"
)

// StatusFor returns the error status for an HTTP status code.
func StatusFor(code int) ErrorStatus {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return StatusInvalidArgument
	case http.StatusUnauthorized:
		return StatusUnauthenticated
	case http.StatusForbidden:
		return StatusPermissionDenied
	case http.StatusNotFound:
		return StatusNotFound
	case http.StatusMethodNotAllowed:
		return StatusMethodNotAllowed
	case http.StatusServiceUnavailable:
		return StatusUnavailable
	default:
		return StatusInternal
	}
}

// ErrorBody is the payload of the "error" envelope.
type ErrorBody struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Status  ErrorStatus   `json:"status"`
	Details []FieldDetail `json:"details,omitempty"`
}

// FieldDetail describes a single invalid request field.
type FieldDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the {"error": ...} envelope returned on every failure.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// JSON writes a raw JSON response without envelope.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", ctxlog.Err(err))
		}
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", ctxlog.Err(err))
	}
}

// Error writes a JSON response with {"error": {"code", "message", "status"}} envelope.
func Error(w http.ResponseWriter, status int, message string) {
	writeError(w, ErrorBody{
		Code:    status,
		Message: message,
		Status:  StatusFor(status),
	})
}

// InternalError writes the opaque 500 response.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "Internal server error")
}

// ValidationError writes a validation error response.
// If err is validator.ValidationErrors, returns structured field details.
// Otherwise, returns err.Error() as the message.
func ValidationError(w http.ResponseWriter, err error) {
	body := ErrorBody{
		Code:    http.StatusBadRequest,
		Message: "validation error",
		Status:  StatusInvalidArgument,
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		body.Details = make([]FieldDetail, 0, len(validationErrors))
		for _, e := range validationErrors {
			body.Details = append(body.Details, FieldDetail{
				Field:   e.Field(),
				Message: e.Tag(),
			})
		}
	} else {
		body.Message = err.Error()
	}

	writeError(w, body)
}

func writeError(w http.ResponseWriter, body ErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.Code)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: body}); err != nil {
		slog.Error("failed to encode error response", ctxlog.Err(err))
	}
}
