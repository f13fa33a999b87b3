package httpx

import (
	"context"
	"encoding/json"
	"maps"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MahmoudAkram21/tiamo/internal/platform/requestctx"
)

const (
	maxCodeLength    = 80
	maxMessageLength = 512
)

// Error is the JSON error envelope every storefront endpoint answers with:
// {error, message, status, request_id, trace_id} plus any details.
type Error struct {
	Code       string
	Message    string
	Status     int
	RetryAfter time.Duration
	Details    map[string]any
}

// NewError builds an envelope. A zero status means 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    clean(code, maxCodeLength),
		Message: clean(message, maxMessageLength),
		Status:  status,
	}
}

// NotFound reports an unknown line, item, product, field or deal.
func NotFound(code, message string) Error {
	return NewError(code, message, http.StatusNotFound)
}

// Conflict reports a busy control or an action the page state refuses.
func Conflict(code, message string) Error {
	return NewError(code, message, http.StatusConflict)
}

// Unprocessable reports a well-formed submission that failed validation.
func Unprocessable(code, message string) Error {
	return NewError(code, message, http.StatusUnprocessableEntity)
}

func (e Error) Error() string {
	return e.Code + ": " + e.Message
}

// WithDetails merges extra fields into the body. Envelope keys cannot be overridden.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	merged := maps.Clone(e.Details)
	if merged == nil {
		merged = make(map[string]any, len(details))
	}
	maps.Copy(merged, details)
	e.Details = merged
	return e
}

// WithRetryAfter sets the Retry-After header, rounded up to whole seconds.
func (e Error) WithRetryAfter(d time.Duration) Error {
	if d > 0 {
		e.RetryAfter = d
	}
	return e
}

// WriteError writes err, stamping the chi request id and the active trace id.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	status := err.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := make(map[string]any, len(err.Details)+5)
	maps.Copy(body, err.Details)
	body["error"] = err.Code
	body["message"] = err.Message
	body["status"] = status
	if id := clean(middleware.GetReqID(ctx), maxCodeLength); id != "" {
		body["request_id"] = id
	}
	if trace := clean(requestctx.TraceID(ctx), 64); trace != "" {
		body["trace_id"] = trace
	}

	if err.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(err.RetryAfter.Seconds()))))
	}
	WriteJSON(w, status, body)
}

// WriteJSON encodes payload with the given status. Responses default to
// no-store since every page view belongs to one visitor.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	if h.Get("Cache-Control") == "" {
		h.Set("Cache-Control", "no-store")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// clean folds whitespace runs to single spaces and truncates on a rune boundary.
func clean(value string, limit int) string {
	value = strings.Join(strings.Fields(value), " ")
	if len(value) <= limit {
		return value
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
