// Package handlers contains the admin HTTP handlers served next to the
// metrics endpoint.
package handlers
