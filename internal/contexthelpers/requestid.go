// Package contexthelpers stores request-scoped values in the context.
package contexthelpers

import (
	"context"
	"net/http"
)

type contextKey string

const requestIDContextKey = contextKey("requestID")

// SetRequestID returns a shallow copy of r carrying requestID.
func SetRequestID(r *http.Request, requestID string) *http.Request {
	ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
	return r.WithContext(ctx)
}

func RequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(requestIDContextKey).(string)
	if !ok {
		return ""
	}

	return requestID
}
