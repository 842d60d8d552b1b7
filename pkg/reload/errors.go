package reload

import "errors"

// ErrSecretsMissing is returned by Startup when StartupRequire is in effect
// and no secrets could be obtained.
var ErrSecretsMissing = errors.New("secrets file missing")
