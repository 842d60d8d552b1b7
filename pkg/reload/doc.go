// Package reload drives the secret lifecycle: it claims the secrets file,
// validates it and atomically installs the resulting rule table.
//
// # Pipeline
//
// Reloader.ReloadIfPresent runs one attempt:
//
//	claim (rename + read + delete) -> validate -> replace table -> sync allow-list
//
// A file that fails validation is still consumed, but the active table is
// left exactly as it was. Every attempt reports an Outcome. With a Journal
// configured, every attempt that found a file is recorded there.
//
// # Scheduling
//
// Scheduler decides when attempts happen. It runs in one of three modes:
//
//   - interval: a background cron job (@every 1s by default)
//   - request: a check inline with request handling, throttled to at most
//     once per MinInterval on the monotonic clock
//   - watch: filesystem notifications on the secrets directory, debounced,
//     plus the interval job so a file whose claim failed is retried
//
// In every mode an attempt first checks the process shutdown flag and
// whether a file is present at all, so an idle gateway does no work beyond
// a stat call.
//
// # Startup
//
// Reloader.Startup runs the first attempt. With StartupRequire, a startup
// that obtains nothing (no file, or a file that could not be claimed or
// decoded) raises the shutdown flag and returns ErrSecretsMissing.
package reload
