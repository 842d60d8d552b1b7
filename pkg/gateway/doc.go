// Package gateway assembles the credential-substitution proxy: the secrets
// loader, rule store, allow-list projector, reload scheduler, request
// interceptor and the proxy engine, plus an optional admin listener serving
// /metrics, /healthz and, with a reload journal configured, /journal.
package gateway
