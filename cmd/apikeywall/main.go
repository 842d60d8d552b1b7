// Apikeywall is a forward proxy that swaps placeholder bearer tokens for
// real API keys on their way to the hosts the keys are meant for.
//
// Applications are configured with harmless placeholders. The operator drops
// a one-shot secrets file mapping each placeholder to its real key and the
// hosts allowed to receive it; the gateway claims the file, deletes it from
// disk and holds the keys only in memory.
//
// Usage:
//
//	# Start the gateway with default configuration
//	apikeywall run
//
//	# Start with a configuration file and watch for new secrets files
//	apikeywall run --config /etc/apikeywall/config.yaml --reload-mode watch
//
//	# Validate a secrets file without consuming it
//	apikeywall check ~/.apikeywall/apikeywall.json
//
//	# Show version information
//	apikeywall version
package main

func main() {
	Execute()
}
