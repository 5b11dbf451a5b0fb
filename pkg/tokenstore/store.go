// Package tokenstore owns the durable client-side token cell and keeps the
// access token fresh.
//
// The store is the only writer of token storage. Readers must re-read rather
// than cache a token across blocking calls; Subscribe delivers a
// notification synchronously after every write so callers in the same
// execution context never miss an update.
package tokenstore

// Storage keys. They double as the file-store JSON field names so a stored
// token survives process restarts.
const (
	AccessTokenKey              = "access_token"
	RefreshTokenKey             = "refresh_token"
	IntermediateSessionTokenKey = "intermediate_session_token"
)

// Store persists the access, refresh, and intermediate-session tokens and
// notifies subscribers of changes.
type Store interface {
	// GetAccessToken is a synchronous read of the last known access token.
	GetAccessToken() (string, bool)

	// SetAccessToken atomically replaces the access token and notifies all
	// subscribers after the underlying write.
	SetAccessToken(token string) error

	// GetRefreshToken reads the refresh token.
	GetRefreshToken() (string, bool)

	// SetRefreshToken atomically replaces the refresh token and notifies all
	// subscribers.
	SetRefreshToken(token string) error

	// GetIntermediateSessionToken reads the intermediate-session token.
	GetIntermediateSessionToken() (string, bool)

	// SetIntermediateSessionToken atomically replaces the
	// intermediate-session token and notifies all subscribers.
	SetIntermediateSessionToken(token string) error

	// Clear deletes all stored tokens and notifies all subscribers.
	Clear() error

	// Subscribe registers fn to run after every write. The returned function
	// removes the subscription.
	Subscribe(fn func()) (unsubscribe func())
}
