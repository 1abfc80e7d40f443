package main

import (
	"net/http"
	"time"

	"github.com/justinas/alice"
)

const timeoutBody = `{"error":"request timed out"}`

// timeout responds with 503 Service Unavailable when the handler does not meet the deadline.
func timeout(defaultTimeout time.Duration) alice.Constructor {
	// The timeout is a little shorter than the server's read timeout so that the
	// timeout handler has a chance to respond before the server closes the connection.
	httpHandlerTimeout := defaultTimeout - 500*time.Millisecond //nolint:mnd // 500ms
	return func(h http.Handler) http.Handler {
		return http.TimeoutHandler(h, httpHandlerTimeout, timeoutBody)
	}
}
