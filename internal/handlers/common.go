package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/MahmoudAkram21/tiamo/internal/platform/httpx"
	"github.com/MahmoudAkram21/tiamo/internal/platform/requestctx"
	"github.com/MahmoudAkram21/tiamo/internal/services"
)

const maxPageBodySize = 16 * 1024

var (
	errEmptyBody    = errors.New("empty body")
	errBodyTooLarge = errors.New("body too large")
)

// SessionSource resolves the page controllers for a visitor session.
type SessionSource interface {
	Session(id string) (*services.Session, error)
}

// currentSession resolves the session stored on the request by the session middleware.
// It writes the error response itself and reports false when no session is available.
func currentSession(w http.ResponseWriter, r *http.Request, sessions SessionSource) (*services.Session, bool) {
	ctx := r.Context()
	if sessions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("session_unavailable", "session registry is unavailable", http.StatusServiceUnavailable))
		return nil, false
	}
	id := strings.TrimSpace(requestctx.SessionID(ctx))
	if id == "" {
		httpx.WriteError(ctx, w, httpx.NewError("session_required", "visitor session is required", http.StatusUnauthorized))
		return nil, false
	}
	sess, err := sessions.Session(id)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("session_unavailable", err.Error(), http.StatusServiceUnavailable))
		return nil, false
	}
	return sess, true
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = maxPageBodySize
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

// decodeBody reads a JSON object into dst. An empty body leaves dst untouched
// unless required is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, required bool) bool {
	ctx := r.Context()
	data, err := readLimitedBody(r, maxPageBodySize)
	switch {
	case errors.Is(err, errEmptyBody):
		if !required {
			return true
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
		return false
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body too large", http.StatusRequestEntityTooLarge))
		return false
	case err != nil:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "failed to read request body", http.StatusBadRequest))
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	httpx.WriteJSON(w, status, payload)
}

// writeSharedPageError handles the errors every page controller can return.
// It reports false when err is not one of them.
func writeSharedPageError(ctx context.Context, w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, services.ErrControlBusy):
		httpx.WriteError(ctx, w, httpx.Conflict("control_busy", "action already in progress"))
	case errors.Is(err, services.ErrConfirmationRequired):
		httpx.WriteError(ctx, w, httpx.Conflict("confirmation_required", "action requires confirmation"))
	case errors.Is(err, services.ErrCouponRequired):
		httpx.WriteError(ctx, w, httpx.Unprocessable("coupon_required", "Please enter a coupon code"))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("request_cancelled", "request cancelled", http.StatusRequestTimeout))
	default:
		return false
	}
	return true
}

func writeInternalError(ctx context.Context, w http.ResponseWriter, err error) {
	requestctx.Logger(ctx).Error("page action failed", zap.Error(err))
	httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal error", http.StatusInternalServerError))
}
