package tokenstore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tesseral-labs/authflow/pkg/accesstoken"
)

// DefaultRefreshSkew is the safety margin before actual expiry at which a
// refresh is proactively triggered.
const DefaultRefreshSkew = 10 * time.Second

// RefreshFunc exchanges the refresh credential for a new access token.
type RefreshFunc func(ctx context.Context) (string, error)

// Refresher keeps the store's access token fresh. Reads that find a missing,
// malformed, or near-expiry token trigger a single background refresh; at
// most one refresh is in flight at a time, and once a refresh fails the
// refresher stops retrying for its lifetime. Callers observe the refreshed
// token by re-reading the store after it notifies them, never synchronously.
type Refresher struct {
	store   Store
	refresh RefreshFunc
	skew    time.Duration
	now     func() time.Time

	mutex   sync.Mutex
	pending bool
	failed  bool
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithRefreshSkew overrides the refresh safety margin.
func WithRefreshSkew(skew time.Duration) RefresherOption {
	return func(r *Refresher) {
		r.skew = skew
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) RefresherOption {
	return func(r *Refresher) {
		r.now = now
	}
}

// NewRefresher creates a refresher over store using refresh to obtain new
// access tokens.
func NewRefresher(store Store, refresh RefreshFunc, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		store:   store,
		refresh: refresh,
		skew:    DefaultRefreshSkew,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AccessToken returns the last known access token, triggering a background
// refresh when the token is absent or due. The returned token may already be
// stale; callers that need the fresh one must re-read after the store
// notifies them.
func (r *Refresher) AccessToken(ctx context.Context) (string, bool) {
	token, ok := r.store.GetAccessToken()
	if !ok || r.shouldRefresh(token) {
		r.triggerRefresh(ctx)
	}
	return token, ok
}

// Failed reports whether a refresh has failed. Once set, the refresher never
// retries; the caller is expected to route to re-authentication.
func (r *Refresher) Failed() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.failed
}

// shouldRefresh reports whether token expires within the skew margin. A token
// whose claims cannot be decoded is treated as due for replacement.
func (r *Refresher) shouldRefresh(token string) bool {
	claims, err := accesstoken.ParseClaims(token)
	if err != nil {
		return true
	}
	return claims.ExpiresAt().Add(-r.skew).Before(r.now())
}

// triggerRefresh starts a refresh unless one is already pending or a prior
// refresh failed. The pending flag is set before the network call and cleared
// in both continuations; on success the new token is stored before the flag
// clears so a notified subscriber always reads the fresh token.
func (r *Refresher) triggerRefresh(ctx context.Context) {
	r.mutex.Lock()
	if r.pending || r.failed {
		r.mutex.Unlock()
		return
	}
	r.pending = true
	r.mutex.Unlock()

	// The refresh must run to completion even if the triggering caller's
	// context is cancelled by navigation.
	refreshCtx := context.WithoutCancel(ctx)

	go func() {
		token, err := r.refresh(refreshCtx)
		if err != nil {
			slog.Error("Access token refresh failed", "err", err)
			r.mutex.Lock()
			r.failed = true
			r.pending = false
			r.mutex.Unlock()
			return
		}

		if err := r.store.SetAccessToken(token); err != nil {
			slog.Error("Failed to store refreshed access token", "err", err)
			r.mutex.Lock()
			r.failed = true
			r.pending = false
			r.mutex.Unlock()
			return
		}

		r.mutex.Lock()
		r.pending = false
		r.mutex.Unlock()
	}()
}
