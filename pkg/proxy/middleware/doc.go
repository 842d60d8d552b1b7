// Package middleware provides HTTP middleware for the forward proxy.
//
// # Middleware Chain
//
// The proxy wraps its engine in:
//
//	handler = Recovery(RequestID(Logging(engine)))
//
// Order (innermost to outermost):
//  1. Logging: log request/response details and attach a scoped logger
//  2. RequestID: generate and propagate a request ID
//  3. Recovery: recover from panics
//
// # Request ID
//
// RequestIDMiddleware generates a UUID v4 for each request unless the client
// supplied a short printable one:
//
//	X-Request-ID: 550e8400-e29b-41d4-a716-446655440000
//
// # Logging
//
// LoggingMiddleware records method, destination host, path, status and
// latency. It never records headers or query strings. The request-scoped
// logger it stores in the context can be fetched with logging.FromContext.
//
// # Thread Safety
//
// All middleware functions are safe for concurrent use.
package middleware
