package rules

import (
	"slices"
	"sort"
)

// Rule is one authorized substitution: a placeholder token that is replaced
// by a real credential, but only for requests to one of Endpoints.
type Rule struct {
	// TokenIn is the placeholder credential presented by clients.
	TokenIn string

	// TokenOut is the real credential forwarded upstream.
	TokenOut string

	// Endpoints are the destination hosts this rule may fire for.
	// An empty list is valid and never matches.
	Endpoints []string
}

// Allows reports whether host is one of the rule's endpoints.
func (r Rule) Allows(host string) bool {
	return slices.Contains(r.Endpoints, host)
}

// Table is an immutable snapshot of the active rules.
type Table struct {
	rules      map[string]Rule
	generation uint64
}

// emptyTable is the initial state of every Store.
var emptyTable = &Table{rules: map[string]Rule{}}

// Lookup returns the rule for a placeholder token.
func (t *Table) Lookup(token string) (Rule, bool) {
	rule, ok := t.rules[token]
	return rule, ok
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Empty reports whether the table has no rules.
func (t *Table) Empty() bool {
	return len(t.rules) == 0
}

// Generation returns the reload generation that produced this table.
// The initial empty table is generation 0.
func (t *Table) Generation() uint64 {
	return t.generation
}

// Endpoints returns the sorted, de-duplicated union of every rule's
// endpoints.
func (t *Table) Endpoints() []string {
	set := make(map[string]struct{})
	for _, rule := range t.rules {
		for _, endpoint := range rule.Endpoints {
			set[endpoint] = struct{}{}
		}
	}

	endpoints := make([]string, 0, len(set))
	for endpoint := range set {
		endpoints = append(endpoints, endpoint)
	}
	sort.Strings(endpoints)
	return endpoints
}

// Tokens returns the placeholder tokens in sorted order.
func (t *Table) Tokens() []string {
	tokens := make([]string, 0, len(t.rules))
	for token := range t.rules {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
