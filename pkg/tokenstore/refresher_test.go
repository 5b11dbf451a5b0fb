package tokenstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_123",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// waitForAccessToken blocks until the store holds a token different from old.
func waitForAccessToken(t *testing.T, store Store, old string) string {
	t.Helper()

	done := make(chan string, 1)
	unsubscribe := store.Subscribe(func() {
		if token, ok := store.GetAccessToken(); ok && token != old {
			select {
			case done <- token:
			default:
			}
		}
	})
	defer unsubscribe()

	if token, ok := store.GetAccessToken(); ok && token != old {
		return token
	}
	select {
	case token := <-done:
		return token
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for refreshed access token")
		return ""
	}
}

func TestRefresherAbsentTokenTriggersRefresh(t *testing.T) {
	store := NewInMemStore()
	fresh := tokenExpiringAt(t, time.Now().Add(time.Hour))

	refresher := NewRefresher(store, func(ctx context.Context) (string, error) {
		return fresh, nil
	})

	_, ok := refresher.AccessToken(context.Background())
	assert.False(t, ok)

	got := waitForAccessToken(t, store, "")
	assert.Equal(t, fresh, got)
	assert.False(t, refresher.Failed())
}

func TestRefresherFreshTokenNotRefreshed(t *testing.T) {
	store := NewInMemStore()
	fresh := tokenExpiringAt(t, time.Now().Add(time.Hour))
	require.NoError(t, store.SetAccessToken(fresh))

	refresher := NewRefresher(store, func(ctx context.Context) (string, error) {
		t.Error("refresh must not run for a fresh token")
		return "", nil
	})

	token, ok := refresher.AccessToken(context.Background())
	assert.True(t, ok)
	assert.Equal(t, fresh, token)
}

// A token that expires inside the skew margin is due even though it is still
// technically valid.
func TestRefresherSkewMargin(t *testing.T) {
	store := NewInMemStore()
	expiring := tokenExpiringAt(t, time.Now().Add(5*time.Second))
	require.NoError(t, store.SetAccessToken(expiring))

	fresh := tokenExpiringAt(t, time.Now().Add(time.Hour))
	refresher := NewRefresher(store, func(ctx context.Context) (string, error) {
		return fresh, nil
	})

	// The stale token is returned immediately; the replacement arrives via
	// the store notification.
	token, ok := refresher.AccessToken(context.Background())
	assert.True(t, ok)
	assert.Equal(t, expiring, token)

	got := waitForAccessToken(t, store, expiring)
	assert.Equal(t, fresh, got)
}

func TestRefresherMalformedTokenTreatedAsDue(t *testing.T) {
	store := NewInMemStore()
	require.NoError(t, store.SetAccessToken("not-a-jwt"))

	fresh := tokenExpiringAt(t, time.Now().Add(time.Hour))
	refresher := NewRefresher(store, func(ctx context.Context) (string, error) {
		return fresh, nil
	})

	refresher.AccessToken(context.Background())
	got := waitForAccessToken(t, store, "not-a-jwt")
	assert.Equal(t, fresh, got)
}

// Concurrent callers while a refresh is in flight must coalesce onto the one
// pending request.
func TestRefresherSingleFlight(t *testing.T) {
	store := NewInMemStore()
	fresh := tokenExpiringAt(t, time.Now().Add(time.Hour))

	var (
		mu      sync.Mutex
		calls   int
		proceed = make(chan struct{})
		entered = make(chan struct{}, 1)
	)
	refresher := NewRefresher(store, func(ctx context.Context) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		select {
		case entered <- struct{}{}:
		default:
		}
		<-proceed
		return fresh, nil
	})

	ctx := context.Background()
	refresher.AccessToken(ctx)
	<-entered

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			refresher.AccessToken(ctx)
		}()
	}
	wg.Wait()

	close(proceed)
	waitForAccessToken(t, store, "")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
}

// A failed refresh is sticky: the refresher never retries, callers route to
// re-authentication instead.
func TestRefresherFailureIsSticky(t *testing.T) {
	store := NewInMemStore()

	var (
		mu    sync.Mutex
		calls int
	)
	refresher := NewRefresher(store, func(ctx context.Context) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return "", errors.New("refresh token revoked")
	})

	ctx := context.Background()
	refresher.AccessToken(ctx)

	require.Eventually(t, refresher.Failed, 2*time.Second, 10*time.Millisecond)

	// Further calls never reach the backend again.
	refresher.AccessToken(ctx)
	refresher.AccessToken(ctx)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
	_, ok := store.GetAccessToken()
	assert.False(t, ok)
}

// The refresh must survive cancellation of the context that triggered it.
func TestRefresherSurvivesCallerCancellation(t *testing.T) {
	store := NewInMemStore()
	fresh := tokenExpiringAt(t, time.Now().Add(time.Hour))

	started := make(chan struct{})
	refresher := NewRefresher(store, func(ctx context.Context) (string, error) {
		close(started)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return fresh, nil
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	refresher.AccessToken(ctx)
	<-started
	cancel()

	got := waitForAccessToken(t, store, "")
	assert.Equal(t, fresh, got)
	assert.False(t, refresher.Failed())
}

func TestRefresherWithClock(t *testing.T) {
	store := NewInMemStore()
	base := time.Now()
	token := tokenExpiringAt(t, base.Add(time.Hour))
	require.NoError(t, store.SetAccessToken(token))

	now := base
	fresh := tokenExpiringAt(t, base.Add(2*time.Hour))
	refresher := NewRefresher(store,
		func(ctx context.Context) (string, error) { return fresh, nil },
		WithClock(func() time.Time { return now }),
		WithRefreshSkew(30*time.Second),
	)

	got, ok := refresher.AccessToken(context.Background())
	assert.True(t, ok)
	assert.Equal(t, token, got)

	// Advance the clock to inside the skew window.
	now = base.Add(time.Hour - 10*time.Second)
	refresher.AccessToken(context.Background())
	assert.Equal(t, fresh, waitForAccessToken(t, store, token))
}
