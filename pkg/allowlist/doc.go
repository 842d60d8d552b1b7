// Package allowlist derives the proxy engine's interception allow-list from
// the active rule table.
//
// The allow-list is the sorted union of every rule's endpoints. It is only
// republished when the set actually changes, so reloading an identical
// secrets file leaves the engine untouched.
package allowlist
