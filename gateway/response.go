package gateway

import (
	"encoding/json"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fedquery/gateway/types"
)

// ErrorInfo is the JSON shape of a failed request's error body.
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ErrorResponse is written by WriteError for every non-2xx response.
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing left to do but let the
		// client see a truncated body.
		return
	}
}

// WriteError writes a *types.Error as a JSON error body, using the HTTP
// status NewError already resolved onto it. Unlike a hand-built status
// fallback, this never needs a second status table: every *types.Error
// constructed via NewError carries its HTTPStatus already.
func WriteError(w http.ResponseWriter, err *types.Error, logger *zap.Logger) {
	status := err.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if logger != nil {
		logger.Warn("request failed",
			zap.String("code", string(err.Code)),
			zap.String("message", err.Message),
			zap.Int("status", status),
			zap.Error(err.Cause),
		)
	}
	if err.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(err.RetryAfter.Seconds())))
	}
	WriteJSON(w, status, ErrorResponse{Error: ErrorInfo{
		Code:      string(err.Code),
		Message:   err.Message,
		Retryable: err.Retryable,
	}})
}

// WriteErrorMessage is a convenience wrapper around WriteError for
// handler-local validation failures that don't already have a *types.Error.
func WriteErrorMessage(w http.ResponseWriter, code types.ErrorCode, message string, logger *zap.Logger) {
	WriteError(w, types.NewError(code, message), logger)
}

// DecodeJSONBody decodes r's body into dst, rejecting unknown fields and
// capping the body at 1MB. On failure it writes the error response itself
// and returns a non-nil error so the caller can simply return.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) error {
	if r.Body == nil {
		err := types.NewError(types.ErrInvalidInput, "request body is required")
		WriteError(w, err, logger)
		return err
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if decErr := dec.Decode(dst); decErr != nil {
		err := types.NewError(types.ErrInvalidInput, "invalid JSON body").WithCause(decErr)
		WriteError(w, err, logger)
		return err
	}
	return nil
}

// ValidateContentType reports whether r carries a JSON content type,
// writing a 400 response and returning false otherwise. Uses
// mime.ParseMediaType so a charset parameter doesn't trip an exact-match
// check.
func ValidateContentType(w http.ResponseWriter, r *http.Request, logger *zap.Logger) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil || mediaType != "application/json" {
		WriteErrorMessage(w, types.ErrInvalidInput, "Content-Type must be application/json", logger)
		return false
	}
	return true
}

// ValidateURL reports whether s parses as an absolute http(s) URL.
func ValidateURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// ValidateEnum reports whether value is one of allowed, case-sensitive.
func ValidateEnum(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// queryUserID extracts the user_id query parameter, trimmed.
func queryUserID(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("user_id"))
}
