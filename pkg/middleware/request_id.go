package middleware

import (
	"context"
	"net/http"

	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	RequestIDKey    contextKey = "request_id"
	RequestIDHeader            = "X-Request-ID"
)

func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// requestID reuses a caller-supplied id when it parses as a UUID.
func requestID(r *http.Request) string {
	if h := r.Header.Get(RequestIDHeader); h != "" {
		if _, err := uuid.Parse(h); err == nil {
			return h
		}
	}
	return uuid.NewString()
}

func writeAppError(w http.ResponseWriter, err *apperrors.AppError) {
	_ = httputil.WriteError(w, err)
}
