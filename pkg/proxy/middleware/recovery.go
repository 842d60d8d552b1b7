package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/RichardSufliarsky/apikeywall/pkg/telemetry/logging"
)

// RecoveryMiddleware recovers from panics in the proxy pipeline and returns
// a plain-text 500 Internal Server Error. The panic is logged with its stack
// trace; nothing internal is exposed to the client.
//
// http.ErrAbortHandler is re-raised so the server can abort the connection
// as it would without this middleware.
//
// Example usage:
//
//	handler = RecoveryMiddleware(handler)
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}

			logger := logging.FromContext(r.Context(), nil)
			logger.ErrorContext(r.Context(), "panic in proxy handler",
				"error", err,
				"request_id", GetRequestID(r.Context()),
				"method", r.Method,
				"host", r.Host,
				"stack", string(debug.Stack()),
			)

			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
