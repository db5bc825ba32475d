package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/booktag/internal/common"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

type ErrorBody struct {
	Error ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// apiError is a client error raised by the transport itself (bad JSON,
// failed validation) rather than by a service.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

func badRequest(message string) error {
	return &apiError{status: http.StatusBadRequest, code: "invalid_request", message: message}
}

var errorMapping = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{common.ErrInvalidCode, http.StatusBadRequest, "invalid_code", "code is empty or too long"},
	{common.ErrInvalidBatch, http.StatusBadRequest, "invalid_batch", "batch count or prefix out of range"},
	{common.ErrInvalidOwner, http.StatusBadRequest, "invalid_owner", "name and email are required"},
	{common.ErrorNotFound, http.StatusNotFound, "not_found", "not found"},
	{common.ErrDuplicateCode, http.StatusConflict, "duplicate_code", "code already exists"},
	{common.ErrAlreadyRegistered, http.StatusConflict, "already_registered", "code is already registered"},
	{common.ErrDuplicateEmail, http.StatusConflict, "duplicate_email", "email is already in use"},
	{common.ErrNoCodeOutstanding, http.StatusConflict, "no_code_outstanding", "no verification code outstanding"},
	{common.ErrCodeExpired, http.StatusGone, "code_expired", "verification code expired"},
	{common.ErrCodeMismatch, http.StatusUnprocessableEntity, "code_mismatch", "verification code does not match"},
	{common.ErrTooManyAttempts, http.StatusTooManyRequests, "too_many_attempts", "too many verification attempts"},
}

// statusFor maps err to an HTTP status, error code and client-safe message.
// Unknown errors become 500 without leaking their text.
func statusFor(err error) (int, string, string) {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status, ae.code, ae.message
	}
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return m.status, m.code, m.message
		}
	}
	return http.StatusInternalServerError, "internal_error", "internal error"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := statusFor(err)
	writeJSON(w, status, ErrorBody{
		Error: ErrorPayload{
			Code:      code,
			Message:   message,
			RequestID: middleware.GetReqID(r.Context()),
		},
	})
}

// decodeJSON decodes a single JSON value from the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		return badRequest("invalid JSON payload")
	}

	// Disallow trailing data: {}{}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("multiple JSON values")
	}
	return nil
}

// formatValidationErrors turns validator errors into one readable message.
func formatValidationErrors(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("field '%s' is required", err.Field())
		case "email":
			message = fmt.Sprintf("field '%s' must be a valid email address", err.Field())
		case "min":
			message = fmt.Sprintf("field '%s' must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("field '%s' must not exceed %s", err.Field(), err.Param())
		case "len":
			message = fmt.Sprintf("field '%s' must be exactly %s characters", err.Field(), err.Param())
		case "vcode":
			message = fmt.Sprintf("field '%s' must be exactly 6 digits", err.Field())
		default:
			message = fmt.Sprintf("field '%s' failed on the '%s' tag", err.Field(), err.Tag())
		}
		msgs = append(msgs, message)
	}
	return strings.Join(msgs, "; ")
}
