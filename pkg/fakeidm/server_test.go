package fakeidm

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseral-labs/authflow/pkg/flow"
)

type serverHarness struct {
	t       *testing.T
	server  *Server
	backend *httptest.Server
}

func newServerHarness(t *testing.T, opts ...Option) *serverHarness {
	t.Helper()
	server := NewServer("test-secret", opts...)
	backend := httptest.NewServer(server.Handler())
	t.Cleanup(backend.Close)
	return &serverHarness{t: t, server: server, backend: backend}
}

func (h *serverHarness) do(method, path, token string, body any) (*http.Response, map[string]any) {
	h.t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequest(method, h.backend.URL+path, &reqBody)
	require.NoError(h.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer res.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(res.Body).Decode(&decoded)
	return res, decoded
}

func (h *serverHarness) createSessionToken() string {
	h.t.Helper()
	res, body := h.do(http.MethodPost, "/v1/intermediate-sessions", "", nil)
	require.Equal(h.t, http.StatusOK, res.StatusCode)
	token, _ := body["intermediate_session_token"].(string)
	require.NotEmpty(h.t, token)
	return token
}

func TestWhoamiRequiresToken(t *testing.T) {
	h := newServerHarness(t)

	res, body := h.do(http.MethodGet, "/v1/intermediate-sessions/whoami", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "unauthenticated", body["code"])

	res, _ = h.do(http.MethodGet, "/v1/intermediate-sessions/whoami", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestSessionExpiry(t *testing.T) {
	h := newServerHarness(t, WithSessionTTL(-time.Second))

	token := h.createSessionToken()
	res, _ := h.do(http.MethodGet, "/v1/intermediate-sessions/whoami", token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestExchangeRejectsUnverifiedEmail(t *testing.T) {
	h := newServerHarness(t)

	org := h.server.SeedOrganization(Organization{DisplayName: "Acme", LogInWithEmail: true})
	_, err := h.server.SeedUser(User{OrganizationID: org.ID, Email: "alice@example.com"}, "")
	require.NoError(t, err)

	token := h.createSessionToken()
	sess := h.server.store.sessionByToken(token)
	require.NotNil(t, sess)
	h.server.store.update(func() {
		sess.PrimaryAuthFactor = flow.PrimaryAuthFactorEmail
		sess.Email = "alice@example.com"
		sess.OrganizationID = org.ID
	})

	res, body := h.do(http.MethodPost, "/v1/intermediate-sessions/exchange", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "email_not_verified", body["code"])
}

func TestExchangeRejectsDisallowedLoginMethod(t *testing.T) {
	h := newServerHarness(t)

	org := h.server.SeedOrganization(Organization{DisplayName: "Acme", LogInWithEmail: true})
	_, err := h.server.SeedUser(User{OrganizationID: org.ID, Email: "alice@example.com", GoogleUserID: "g-1"}, "")
	require.NoError(t, err)

	token := h.createSessionToken()
	sess := h.server.store.sessionByToken(token)
	require.NotNil(t, sess)
	h.server.store.update(func() {
		sess.PrimaryAuthFactor = flow.PrimaryAuthFactorGoogle
		sess.GoogleUserID = "g-1"
		sess.OrganizationID = org.ID
	})

	res, body := h.do(http.MethodPost, "/v1/intermediate-sessions/exchange", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "login_method_not_allowed", body["code"])
}

func TestExchangeConsumesSession(t *testing.T) {
	h := newServerHarness(t)

	org := h.server.SeedOrganization(Organization{DisplayName: "Acme", LogInWithEmail: true})
	_, err := h.server.SeedUser(User{OrganizationID: org.ID, Email: "alice@example.com"}, "")
	require.NoError(t, err)

	token := h.createSessionToken()
	sess := h.server.store.sessionByToken(token)
	require.NotNil(t, sess)
	h.server.store.update(func() {
		sess.PrimaryAuthFactor = flow.PrimaryAuthFactorEmail
		sess.Email = "alice@example.com"
		sess.EmailVerified = true
		sess.OrganizationID = org.ID
	})

	res, body := h.do(http.MethodPost, "/v1/intermediate-sessions/exchange", token, map[string]string{})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])

	res, _ = h.do(http.MethodGet, "/v1/intermediate-sessions/whoami", token, nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestCurrentSessionRequiresValidAccessToken(t *testing.T) {
	h := newServerHarness(t)

	res, _ := h.do(http.MethodGet, "/v1/sessions/current", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	org := h.server.SeedOrganization(Organization{DisplayName: "Acme", LogInWithEmail: true})
	user, err := h.server.SeedUser(User{OrganizationID: org.ID, Email: "alice@example.com"}, "")
	require.NoError(t, err)

	accessToken, err := h.server.minter.mintAccessToken(user, org, time.Now())
	require.NoError(t, err)

	res, claims := h.do(http.MethodGet, "/v1/sessions/current", accessToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, user.ID, claims["sub"])
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	h := newServerHarness(t)

	org := h.server.SeedOrganization(Organization{DisplayName: "Acme", LogInWithEmail: true})
	user, err := h.server.SeedUser(User{OrganizationID: org.ID, Email: "alice@example.com"}, "")
	require.NoError(t, err)

	// An access token is not a refresh token, even though both are signed by
	// the same key.
	accessToken, err := h.server.minter.mintAccessToken(user, org, time.Now())
	require.NoError(t, err)

	res, body := h.do(http.MethodPost, "/v1/sessions/refresh", "", map[string]string{"refresh_token": accessToken})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "unauthenticated", body["code"])
}
