// Package rules holds the substitution rule model: the validator that turns a
// decoded secrets document into rules, and the Store that publishes the
// active, generation-versioned rule table to request handling.
//
// A Table is immutable once published. Readers take a Snapshot at the start
// of their work and never observe a mix of two generations.
package rules
