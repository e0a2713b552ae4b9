// Package httputil provides the JSON response and error envelope shared by
// all HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "craneguard/pkg/domain-errors"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorEnvelope struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError translates a coded domain error into the JSON error envelope.
// Internal errors omit the description so infrastructure detail never leaks
// to clients; everything worth telling the caller carries a non-internal code.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	message := ""

	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		code = domainErr.Code
		message = domainErr.Message
	}
	if code == dErrors.CodeInternal {
		message = ""
	}

	WriteJSON(w, dErrors.ToHTTPStatus(code), errorEnvelope{
		Error:            string(code),
		ErrorDescription: message,
	})
}

// Decode reads the request body into T. A failure writes the bad-request
// envelope and reports ok=false; the handler just returns.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(r.Context(), "request body decode failed", "error", err)
		WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "request body is not valid JSON"))
		var zero T
		return zero, false
	}
	return req, true
}
