// Package authapi is the HTTP client for the remote identity backend. Every
// operation of the login flow goes through here; the client holds no flow
// logic, it only moves typed requests and responses across the wire.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/tesseral-labs/authflow/pkg/flow"
	"github.com/tesseral-labs/authflow/pkg/passkey"
)

// CredentialSource supplies the bearer credentials attached to requests. The
// token store satisfies it directly.
type CredentialSource interface {
	GetAccessToken() (string, bool)
	GetIntermediateSessionToken() (string, bool)
}

// Client calls the identity backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	creds      CredentialSource
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a backend client. creds supplies the intermediate-session
// and access tokens attached as bearer credentials.
func NewClient(baseURL string, creds CredentialSource, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		creds:      creds,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateIntermediateSession begins a login and returns the new
// intermediate-session token.
func (c *Client) CreateIntermediateSession(ctx context.Context) (string, error) {
	var res createIntermediateSessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/intermediate-sessions", nil, &res, authNone); err != nil {
		return "", err
	}
	return res.IntermediateSessionToken, nil
}

// Whoami fetches the current intermediate session state.
func (c *Client) Whoami(ctx context.Context) (*flow.IntermediateSession, error) {
	var res flow.IntermediateSession
	if err := c.do(ctx, http.MethodGet, "/v1/intermediate-sessions/whoami", nil, &res, authIntermediate); err != nil {
		return nil, err
	}
	return &res, nil
}

// SetEmailAsPrimaryLoginFactor marks email as the session's primary factor.
func (c *Client) SetEmailAsPrimaryLoginFactor(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v1/intermediate-sessions/set-email-as-primary-login-factor", nil, nil, authIntermediate)
}

// IssueEmailVerificationChallenge sends a verification code to email and
// records email on the session.
func (c *Client) IssueEmailVerificationChallenge(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/v1/intermediate-sessions/email-verification-challenges", setEmailRequest{Email: email}, nil, authIntermediate)
}

// VerifyEmailChallenge verifies the emailed code.
func (c *Client) VerifyEmailChallenge(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodPost, "/v1/intermediate-sessions/verify-email-challenge", verifyEmailChallengeRequest{Code: code}, nil, authIntermediate)
}

// ListOrganizations lists the organizations the authenticating identity may
// log in to.
func (c *Client) ListOrganizations(ctx context.Context) ([]flow.Organization, error) {
	var res []flow.Organization
	if err := c.do(ctx, http.MethodGet, "/v1/organizations", nil, &res, authIntermediate); err != nil {
		return nil, err
	}
	return res, nil
}

// SetOrganization binds the session to an organization. The organization's
// login context must be refetched afterwards; per-user policy flags from a
// prior organization are stale the moment this call returns.
func (c *Client) SetOrganization(ctx context.Context, organizationID string) error {
	return c.do(ctx, http.MethodPost, "/v1/intermediate-sessions/set-organization", setOrganizationRequest{OrganizationID: organizationID}, nil, authIntermediate)
}

// CreateOrganization creates a new organization owned by the authenticating
// user and returns its login context.
func (c *Client) CreateOrganization(ctx context.Context, displayName string) (*flow.Organization, error) {
	var res flow.Organization
	if err := c.do(ctx, http.MethodPost, "/v1/organizations", createOrganizationRequest{DisplayName: displayName}, &res, authIntermediate); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetOrganizationLoginContext fetches the organization's login policy with
// per-user flags resolved against the session's user.
func (c *Client) GetOrganizationLoginContext(ctx context.Context, organizationID string) (*flow.Organization, error) {
	var res flow.Organization
	path := fmt.Sprintf("/v1/organizations/%s/login-context", url.PathEscape(organizationID))
	if err := c.do(ctx, http.MethodGet, path, nil, &res, authIntermediate); err != nil {
		return nil, err
	}
	return &res, nil
}

// RegisterPassword sets the user's password and marks it verified on the
// session.
func (c *Client) RegisterPassword(ctx context.Context, password string) error {
	return c.do(ctx, http.MethodPost, "/v1/intermediate-sessions/register-password", registerPasswordRequest{Password: password}, nil, authIntermediate)
}

// VerifyPassword checks the user's password.
func (c *Client) VerifyPassword(ctx context.Context, password, organizationID string) error {
	return c.do(ctx, http.MethodPost, "/v1/intermediate-sessions/verify-password", verifyPasswordRequest{Password: password, OrganizationID: organizationID}, nil, authIntermediate)
}

// GetAuthenticatorAppOptions returns the otpauth provisioning URI for
// registering an authenticator app.
func (c *Client) GetAuthenticatorAppOptions(ctx context.Context) (string, error) {
	var res authenticatorAppOptionsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/intermediate-sessions/authenticator-app-options", nil, &res, authIntermediate); err != nil {
		return "", err
	}
	return res.OtpauthURI, nil
}

// RegisterAuthenticatorApp confirms provisioning with a current TOTP code and
// returns recovery codes.
func (c *Client) RegisterAuthenticatorApp(ctx context.Context, totpCode string) ([]string, error) {
	var res registerAuthenticatorAppResponse
	if err := c.do(ctx, http.MethodPost, "/v1/intermediate-sessions/register-authenticator-app", registerAuthenticatorAppRequest{TotpCode: totpCode}, &res, authIntermediate); err != nil {
		return nil, err
	}
	return res.RecoveryCodes, nil
}

// VerifyAuthenticatorApp verifies a TOTP code or recovery code.
func (c *Client) VerifyAuthenticatorApp(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodPost, "/v1/intermediate-sessions/verify-authenticator-app", verifyAuthenticatorAppRequest{TotpCode: code}, nil, authIntermediate)
}

// GetPasskeyOptions returns the credential creation options for registering a
// passkey.
func (c *Client) GetPasskeyOptions(ctx context.Context) (*protocol.CredentialCreation, error) {
	var res protocol.CredentialCreation
	if err := c.do(ctx, http.MethodGet, "/v1/intermediate-sessions/passkey-options", nil, &res, authIntermediate); err != nil {
		return nil, err
	}
	return &res, nil
}

// RegisterPasskey registers the credential produced by a creation ceremony.
func (c *Client) RegisterPasskey(ctx context.Context, result *passkey.RegistrationResult) error {
	req := registerPasskeyRequest{
		CredentialID:      result.CredentialID,
		AttestationObject: result.AttestationObject,
		ClientDataJSON:    result.ClientDataJSON,
	}
	return c.do(ctx, http.MethodPost, "/v1/intermediate-sessions/register-passkey", req, nil, authIntermediate)
}

// IssuePasskeyChallenge returns assertion options for verifying a passkey.
func (c *Client) IssuePasskeyChallenge(ctx context.Context) (*protocol.CredentialAssertion, error) {
	var res protocol.CredentialAssertion
	if err := c.do(ctx, http.MethodPost, "/v1/intermediate-sessions/issue-passkey-challenge", nil, &res, authIntermediate); err != nil {
		return nil, err
	}
	return &res, nil
}

// VerifyPasskey verifies the result of an assertion ceremony.
func (c *Client) VerifyPasskey(ctx context.Context, result *passkey.AssertionResult) error {
	req := verifyPasskeyRequest{
		CredentialID:      result.CredentialID,
		AuthenticatorData: result.AuthenticatorData,
		ClientDataJSON:    result.ClientDataJSON,
		Signature:         result.Signature,
	}
	return c.do(ctx, http.MethodPost, "/v1/intermediate-sessions/verify-passkey", req, nil, authIntermediate)
}

// ExchangeIntermediateSessionForSession consumes the intermediate session and
// returns a full access/refresh token pair. The backend rejects the exchange
// while the login flow is incomplete.
func (c *Client) ExchangeIntermediateSessionForSession(ctx context.Context, organizationID string) (accessToken, refreshToken string, err error) {
	var res exchangeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/intermediate-sessions/exchange", exchangeRequest{OrganizationID: organizationID}, &res, authIntermediate); err != nil {
		return "", "", err
	}
	return res.AccessToken, res.RefreshToken, nil
}

// Refresh exchanges refreshToken for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var res refreshResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions/refresh", refreshRequest{RefreshToken: refreshToken}, &res, authNone); err != nil {
		return "", err
	}
	return res.AccessToken, nil
}

// GetOAuthRedirectURL returns the provider authorization URL to redirect the
// user to. provider is one of "google", "microsoft", "github".
func (c *Client) GetOAuthRedirectURL(ctx context.Context, provider, redirectURL string) (string, error) {
	var res oauthRedirectResponse
	path := fmt.Sprintf("/v1/oauth/%s/redirect-url?redirect_url=%s", url.PathEscape(provider), url.QueryEscape(redirectURL))
	if err := c.do(ctx, http.MethodGet, path, nil, &res, authNone); err != nil {
		return "", err
	}
	return res.URL, nil
}

// RedeemOAuthCode exchanges an OAuth authorization code for an intermediate
// session with the provider identity as primary factor.
func (c *Client) RedeemOAuthCode(ctx context.Context, provider, code, state, redirectURL string) (string, error) {
	var res createIntermediateSessionResponse
	path := fmt.Sprintf("/v1/oauth/%s/redeem", url.PathEscape(provider))
	req := redeemOAuthCodeRequest{Code: code, State: state, RedirectURL: redirectURL}
	if err := c.do(ctx, http.MethodPost, path, req, &res, authNone); err != nil {
		return "", err
	}
	return res.IntermediateSessionToken, nil
}

type authMode int

const (
	authNone authMode = iota
	authIntermediate
	authAccess
)

func (c *Client) do(ctx context.Context, method, path string, reqBody, resBody any, mode authMode) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	switch mode {
	case authIntermediate:
		token, ok := c.creds.GetIntermediateSessionToken()
		if !ok {
			return &APIError{Status: http.StatusUnauthorized, Code: CodeUnauthenticated, Message: "no intermediate session"}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case authAccess:
		token, ok := c.creds.GetAccessToken()
		if !ok {
			return &APIError{Status: http.StatusUnauthorized, Code: CodeUnauthenticated, Message: "no access token"}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Status: res.StatusCode}
		if decodeErr := json.NewDecoder(res.Body).Decode(apiErr); decodeErr != nil || apiErr.Code == "" {
			apiErr.Code = "unknown_error"
			apiErr.Message = res.Status
		}
		return apiErr
	}

	if resBody != nil {
		if err := json.NewDecoder(res.Body).Decode(resBody); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
