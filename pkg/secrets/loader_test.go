package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeSecrets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apikeywall.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write secrets file: %v", err)
	}
	return path
}

func assertGone(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected %s to be removed, stat error = %v", p, err)
		}
	}
}

func TestLoader_Claim_ValidFile(t *testing.T) {
	path := writeSecrets(t, `[{"tokenin":"ph1","tokenout":"sk-real","endpoints":["api.example.com"]}]`)
	loader := NewLoader(path)

	raw, err := loader.Claim()
	if err != nil {
		t.Fatalf("Claim() error = %v, want nil", err)
	}

	want := []any{
		map[string]any{
			"tokenin":   "ph1",
			"tokenout":  "sk-real",
			"endpoints": []any{"api.example.com"},
		},
	}
	if !reflect.DeepEqual(raw, want) {
		t.Errorf("Claim() = %#v, want %#v", raw, want)
	}

	assertGone(t, path, loader.TempPath())
}

func TestLoader_Claim_Absent(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing.json"))

	raw, err := loader.Claim()
	if !errors.Is(err, ErrNotPresent) {
		t.Fatalf("Claim() error = %v, want ErrNotPresent", err)
	}
	if raw != nil {
		t.Errorf("Claim() raw = %v, want nil", raw)
	}
}

func TestLoader_Claim_InvalidJSONIsStillDeleted(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "garbage", content: "not json at all"},
		{name: "truncated", content: `[{"tokenin":"ph1"`},
		{name: "trailing data", content: `[] []`},
		{name: "empty", content: ""},
		{name: "invalid utf-8", content: "[{\"tokenin\":\"ph1\",\"tokenout\":\"\xff\xfe\",\"endpoints\":[]}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSecrets(t, tt.content)
			loader := NewLoader(path)

			_, err := loader.Claim()
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("Claim() error = %v, want *ParseError", err)
			}
			if errors.Is(err, ErrNotPresent) {
				t.Error("parse failure must be distinct from ErrNotPresent")
			}

			assertGone(t, path, loader.TempPath())
		})
	}
}

func TestLoader_Claim_WellFormedButWrongShapeIsReturned(t *testing.T) {
	// Shape checks belong to the validator; the loader only decodes.
	path := writeSecrets(t, `{"tokenin":"x"}`)
	loader := NewLoader(path)

	raw, err := loader.Claim()
	if err != nil {
		t.Fatalf("Claim() error = %v, want nil", err)
	}
	if _, ok := raw.(map[string]any); !ok {
		t.Errorf("Claim() = %T, want map[string]any", raw)
	}
	assertGone(t, path, loader.TempPath())
}

func TestLoader_Claim_RenameFailureLeavesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apikeywall.json")
	loader := NewLoader(path)

	// A directory at the secrets path cannot be renamed over a non-empty
	// directory at the temp path.
	if err := os.Mkdir(path, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(loader.TempPath(), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(loader.TempPath(), "occupied"), nil, 0600); err != nil {
		t.Fatal(err)
	}

	_, err := loader.Claim()
	var claimErr *ClaimError
	if !errors.As(err, &claimErr) {
		t.Fatalf("Claim() error = %v, want *ClaimError", err)
	}
	if claimErr.Path != path {
		t.Errorf("ClaimError.Path = %q, want %q", claimErr.Path, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("original path should be left in place: %v", err)
	}
}

func TestLoader_Claim_CleanupFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apikeywall.json")

	// A non-empty directory renames fine, fails to read, and then cannot be
	// removed with os.Remove.
	if err := os.Mkdir(path, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(path, "child"), nil, 0600); err != nil {
		t.Fatal(err)
	}

	var reported string
	loader := NewLoader(path, WithCleanupFailureHook(func(p string, err error) {
		reported = p
	}))

	_, err := loader.Claim()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("Claim() error = %v, want *ParseError", err)
	}
	if reported != loader.TempPath() {
		t.Errorf("cleanup hook path = %q, want %q", reported, loader.TempPath())
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("original path should be gone after claim, stat error = %v", err)
	}
}

func TestLoader_Claim_OnlyOnce(t *testing.T) {
	path := writeSecrets(t, `[]`)
	loader := NewLoader(path)

	if _, err := loader.Claim(); err != nil {
		t.Fatalf("first Claim() error = %v", err)
	}
	if _, err := loader.Claim(); !errors.Is(err, ErrNotPresent) {
		t.Fatalf("second Claim() error = %v, want ErrNotPresent", err)
	}
}

func TestLoader_Exists(t *testing.T) {
	path := writeSecrets(t, `[]`)
	loader := NewLoader(path)

	if !loader.Exists() {
		t.Fatal("Exists() = false before claim, want true")
	}
	if _, err := loader.Claim(); err != nil {
		t.Fatal(err)
	}
	if loader.Exists() {
		t.Error("Exists() = true after claim, want false")
	}
}

func TestLoader_ClaimSuffix(t *testing.T) {
	loader := NewLoader("/tmp/x/apikeywall.json", WithClaimSuffix(".claimed"))
	if got := loader.TempPath(); got != "/tmp/x/apikeywall.json.claimed" {
		t.Errorf("TempPath() = %q", got)
	}

	loader = NewLoader("/tmp/x/apikeywall.json", WithClaimSuffix(""))
	if got := loader.TempPath(); got != "/tmp/x/apikeywall.json"+DefaultClaimSuffix {
		t.Errorf("TempPath() with empty suffix = %q", got)
	}
}
