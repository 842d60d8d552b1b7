// Package interceptor swaps placeholder bearer tokens for real credentials
// on requests bound for the hosts each credential is scoped to.
//
// A request is rewritten only when all of these hold:
//
//	Authorization: Bearer <placeholder>   (prefix matched case-insensitively)
//	<placeholder> is a rule's tokenin     (exact, case-sensitive)
//	destination host is in rule.Endpoints (exact)
//
// Everything else passes through unchanged. The real credential is only
// ever written to the outgoing header, never to a log record.
package interceptor
