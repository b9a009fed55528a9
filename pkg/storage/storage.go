package storage

import "context"

// Store is the shared key-value storage the state stores persist into, the
// server-side analogue of the browser's local storage. This is the public
// contract consumers should depend on; concrete implementations live under
// internal/.
type Store interface {
	// Get returns the value for key and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Canonical storage layout. The three stores read and write disjoint keys
// and never coordinate a cross-key transaction; last writer wins.
const (
	KeyCredentials    = "credentials"     // array of credential records
	KeySessionToken   = "session-token"   // signed session token
	KeySessionUser    = "session-user"    // credential snapshot of the active user
	KeyRememberMe     = "remember-me"     // "true" / "false"
	KeyApplications   = "applications"    // array of application records
	KeyCurrentProfile = "profile-current" // profile document of the active user
	KeyProfiles       = "profiles"        // profile documents keyed by username
)
