/*
Package secrets claims the one-shot secrets file that carries the substitution
rules.

The file is written by an operator process and placed at a well-known path
with an atomic rename. The Loader consumes it exactly once:

	loader := secrets.NewLoader("/home/app/.apikeywall/apikeywall.json")
	raw, err := loader.Claim()
	switch {
	case errors.Is(err, secrets.ErrNotPresent):
		// nothing to do
	case err != nil:
		// claim or parse failure, already logged
	default:
		// raw is the decoded JSON document
	}

Claim renames the file to a sibling temp name before reading it, so a second
caller can never observe the same file, and removes the temp file whether or
not decoding succeeded. A failed removal is logged as a warning and never
returned: the caller keeps whatever content it obtained.
*/
package secrets
