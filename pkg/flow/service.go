package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-webauthn/webauthn/protocol"

	"github.com/tesseral-labs/authflow/pkg/passkey"
	"github.com/tesseral-labs/authflow/pkg/tokenstore"
)

// Backend is the remote identity backend as seen by the login flow. The
// authapi client implements it.
type Backend interface {
	CreateIntermediateSession(ctx context.Context) (string, error)
	Whoami(ctx context.Context) (*IntermediateSession, error)

	SetEmailAsPrimaryLoginFactor(ctx context.Context) error
	IssueEmailVerificationChallenge(ctx context.Context, email string) error
	VerifyEmailChallenge(ctx context.Context, code string) error

	ListOrganizations(ctx context.Context) ([]Organization, error)
	SetOrganization(ctx context.Context, organizationID string) error
	CreateOrganization(ctx context.Context, displayName string) (*Organization, error)
	GetOrganizationLoginContext(ctx context.Context, organizationID string) (*Organization, error)

	RegisterPassword(ctx context.Context, password string) error
	VerifyPassword(ctx context.Context, password, organizationID string) error

	GetAuthenticatorAppOptions(ctx context.Context) (string, error)
	RegisterAuthenticatorApp(ctx context.Context, totpCode string) ([]string, error)
	VerifyAuthenticatorApp(ctx context.Context, code string) error

	GetPasskeyOptions(ctx context.Context) (*protocol.CredentialCreation, error)
	RegisterPasskey(ctx context.Context, result *passkey.RegistrationResult) error
	IssuePasskeyChallenge(ctx context.Context) (*protocol.CredentialAssertion, error)
	VerifyPasskey(ctx context.Context, result *passkey.AssertionResult) error

	ExchangeIntermediateSessionForSession(ctx context.Context, organizationID string) (accessToken, refreshToken string, err error)
	Refresh(ctx context.Context, refreshToken string) (string, error)

	GetOAuthRedirectURL(ctx context.Context, provider, redirectURL string) (string, error)
	RedeemOAuthCode(ctx context.Context, provider, code, state, redirectURL string) (string, error)
}

// Service orchestrates the login flow. Each method performs the backend
// operations of exactly one view, refetches the session and organization
// snapshot, and returns the next step from the router. No method branches on
// policy itself; that is the router's job.
type Service struct {
	backend     Backend
	store       tokenstore.Store
	credentials passkey.CredentialAPI
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCredentialAPI supplies the WebAuthn ceremony capability. Without it the
// passkey steps fail with passkey.ErrNotSupported.
func WithCredentialAPI(credentials passkey.CredentialAPI) ServiceOption {
	return func(s *Service) {
		s.credentials = credentials
	}
}

// NewService creates a login flow service over backend and the token store.
func NewService(backend Backend, store tokenstore.Store, opts ...ServiceOption) *Service {
	s := &Service{
		backend: backend,
		store:   store,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a login by creating an intermediate session and storing its
// token. The flow is then at StepLogin.
func (s *Service) Start(ctx context.Context) (Step, error) {
	token, err := s.backend.CreateIntermediateSession(ctx)
	if err != nil {
		slog.Error("Failed to create intermediate session", "err", err)
		return StepLogin, fmt.Errorf("failed to create intermediate session: %w", err)
	}
	if err := s.store.SetIntermediateSessionToken(token); err != nil {
		return StepLogin, fmt.Errorf("failed to store intermediate session token: %w", err)
	}
	return StepLogin, nil
}

// SubmitEmail sets email as the primary login factor and issues a
// verification challenge. Email submission always advances to the
// verify-email view; no routing decision is needed for this linear step.
func (s *Service) SubmitEmail(ctx context.Context, email string) (Step, error) {
	if err := s.backend.SetEmailAsPrimaryLoginFactor(ctx); err != nil {
		return StepLogin, fmt.Errorf("failed to set email as primary login factor: %w", err)
	}
	if err := s.backend.IssueEmailVerificationChallenge(ctx, email); err != nil {
		return StepLogin, fmt.Errorf("failed to issue email verification challenge: %w", err)
	}
	return StepVerifyEmail, nil
}

// VerifyEmailCode verifies the emailed challenge code and routes.
func (s *Service) VerifyEmailCode(ctx context.Context, code string) (Step, error) {
	if err := s.backend.VerifyEmailChallenge(ctx, code); err != nil {
		return StepVerifyEmail, fmt.Errorf("failed to verify email challenge: %w", err)
	}
	return s.Route(ctx)
}

// Organizations lists the organizations the session's identity may log in to.
func (s *Service) Organizations(ctx context.Context) ([]Organization, error) {
	orgs, err := s.backend.ListOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

// ChooseOrganization binds the session to organizationID and routes off a
// freshly fetched login context. Per-user policy flags from any previously
// chosen organization are discarded by the refetch.
func (s *Service) ChooseOrganization(ctx context.Context, organizationID string) (Step, error) {
	if err := s.backend.SetOrganization(ctx, organizationID); err != nil {
		return StepChooseOrganization, fmt.Errorf("failed to set organization: %w", err)
	}
	return s.Route(ctx)
}

// CreateOrganization creates an organization, binds the session to it, and
// routes.
func (s *Service) CreateOrganization(ctx context.Context, displayName string) (Step, error) {
	org, err := s.backend.CreateOrganization(ctx, displayName)
	if err != nil {
		return StepChooseOrganization, fmt.Errorf("failed to create organization: %w", err)
	}
	if err := s.backend.SetOrganization(ctx, org.ID); err != nil {
		return StepChooseOrganization, fmt.Errorf("failed to set organization: %w", err)
	}
	return s.Route(ctx)
}

// RegisterPassword registers a password for the user and routes.
func (s *Service) RegisterPassword(ctx context.Context, password string) (Step, error) {
	if err := s.backend.RegisterPassword(ctx, password); err != nil {
		return StepRegisterPassword, fmt.Errorf("failed to register password: %w", err)
	}
	return s.Route(ctx)
}

// VerifyPassword verifies the user's password and routes.
func (s *Service) VerifyPassword(ctx context.Context, password string) (Step, error) {
	sess, err := s.backend.Whoami(ctx)
	if err != nil {
		return StepVerifyPassword, fmt.Errorf("failed to fetch session: %w", err)
	}
	if err := s.backend.VerifyPassword(ctx, password, sess.OrganizationID); err != nil {
		return StepVerifyPassword, fmt.Errorf("failed to verify password: %w", err)
	}
	return s.Route(ctx)
}

// AuthenticatorAppOptions returns the otpauth provisioning URI to display
// during authenticator app registration.
func (s *Service) AuthenticatorAppOptions(ctx context.Context) (string, error) {
	uri, err := s.backend.GetAuthenticatorAppOptions(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get authenticator app options: %w", err)
	}
	return uri, nil
}

// RegisterAuthenticatorApp confirms authenticator app provisioning with a
// current TOTP code. The returned recovery codes are shown to the user once.
func (s *Service) RegisterAuthenticatorApp(ctx context.Context, totpCode string) ([]string, Step, error) {
	recoveryCodes, err := s.backend.RegisterAuthenticatorApp(ctx, totpCode)
	if err != nil {
		return nil, StepRegisterAuthenticatorApp, fmt.Errorf("failed to register authenticator app: %w", err)
	}
	step, err := s.Route(ctx)
	return recoveryCodes, step, err
}

// VerifyAuthenticatorApp verifies a TOTP or recovery code and routes.
func (s *Service) VerifyAuthenticatorApp(ctx context.Context, code string) (Step, error) {
	if err := s.backend.VerifyAuthenticatorApp(ctx, code); err != nil {
		return StepVerifyAuthenticatorApp, fmt.Errorf("failed to verify authenticator app: %w", err)
	}
	return s.Route(ctx)
}

// RegisterPasskey runs the full passkey registration: fetch creation options,
// run the creation ceremony, register the credential, route.
func (s *Service) RegisterPasskey(ctx context.Context) (Step, error) {
	if s.credentials == nil {
		return StepRegisterPasskey, passkey.ErrNotSupported
	}
	options, err := s.backend.GetPasskeyOptions(ctx)
	if err != nil {
		return StepRegisterPasskey, fmt.Errorf("failed to get passkey options: %w", err)
	}
	result, err := s.credentials.Create(ctx, options)
	if err != nil {
		return StepRegisterPasskey, fmt.Errorf("passkey creation ceremony failed: %w", err)
	}
	if err := s.backend.RegisterPasskey(ctx, result); err != nil {
		return StepRegisterPasskey, fmt.Errorf("failed to register passkey: %w", err)
	}
	return s.Route(ctx)
}

// VerifyPasskey runs the full passkey verification: issue a challenge, run
// the assertion ceremony, verify, route.
func (s *Service) VerifyPasskey(ctx context.Context) (Step, error) {
	if s.credentials == nil {
		return StepVerifyPasskey, passkey.ErrNotSupported
	}
	options, err := s.backend.IssuePasskeyChallenge(ctx)
	if err != nil {
		return StepVerifyPasskey, fmt.Errorf("failed to issue passkey challenge: %w", err)
	}
	result, err := s.credentials.Get(ctx, options)
	if err != nil {
		return StepVerifyPasskey, fmt.Errorf("passkey assertion ceremony failed: %w", err)
	}
	if err := s.backend.VerifyPasskey(ctx, result); err != nil {
		return StepVerifyPasskey, fmt.Errorf("failed to verify passkey: %w", err)
	}
	return s.Route(ctx)
}

// OAuthRedirectURL returns the provider authorization URL for an OAuth
// primary factor.
func (s *Service) OAuthRedirectURL(ctx context.Context, provider, redirectURL string) (string, error) {
	return s.backend.GetOAuthRedirectURL(ctx, provider, redirectURL)
}

// CompleteOAuthRedirect redeems the provider's authorization code. Redeeming
// implicitly creates an intermediate session with the provider identity as
// primary factor; its token replaces any stored one before routing.
func (s *Service) CompleteOAuthRedirect(ctx context.Context, provider, code, state, redirectURL string) (Step, error) {
	token, err := s.backend.RedeemOAuthCode(ctx, provider, code, state, redirectURL)
	if err != nil {
		return StepLogin, fmt.Errorf("failed to redeem oauth code: %w", err)
	}
	if err := s.store.SetIntermediateSessionToken(token); err != nil {
		return StepLogin, fmt.Errorf("failed to store intermediate session token: %w", err)
	}
	return s.Route(ctx)
}

// Finish exchanges the satisfied intermediate session for a full session and
// hands the tokens to the store. It re-routes first and refuses to exchange
// unless the router reports StepFinishLogin.
func (s *Service) Finish(ctx context.Context) error {
	sess, org, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	if step := NextStep(sess, org); step != StepFinishLogin {
		return fmt.Errorf("login flow is not complete: next step is %s", step)
	}

	accessToken, refreshToken, err := s.backend.ExchangeIntermediateSessionForSession(ctx, sess.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to exchange intermediate session: %w", err)
	}

	if err := s.store.SetAccessToken(accessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if err := s.store.SetRefreshToken(refreshToken); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	// The intermediate session is consumed by the exchange.
	if err := s.store.SetIntermediateSessionToken(""); err != nil {
		return fmt.Errorf("failed to clear intermediate session token: %w", err)
	}
	return nil
}

// RefreshAccessToken is the tokenstore.RefreshFunc for this flow's session.
func (s *Service) RefreshAccessToken(ctx context.Context) (string, error) {
	refreshToken, ok := s.store.GetRefreshToken()
	if !ok {
		return "", fmt.Errorf("no refresh token")
	}
	return s.backend.Refresh(ctx, refreshToken)
}

// Route refetches the (session, organization) snapshot and returns the next
// step. It is invoked after every mutating call; routing off a stale snapshot
// is a correctness bug, so no caching happens here.
func (s *Service) Route(ctx context.Context) (Step, error) {
	sess, org, err := s.snapshot(ctx)
	if err != nil {
		return StepLogin, err
	}

	step := NextStep(sess, org)
	if step == StepAuthenticateAnotherWay && org != nil && org.RequireMFA &&
		!org.LogInWithAuthenticatorApp && !org.LogInWithPasskey {
		slog.Warn("Organization requires MFA but allows no secondary factor types",
			"organization_id", org.ID)
	}
	return step, nil
}

// snapshot fetches a consistent joint view of the session and, when an
// organization is chosen, its login context.
func (s *Service) snapshot(ctx context.Context) (*IntermediateSession, *Organization, error) {
	sess, err := s.backend.Whoami(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch session: %w", err)
	}

	var org *Organization
	if sess.OrganizationID != "" {
		org, err = s.backend.GetOrganizationLoginContext(ctx, sess.OrganizationID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch organization login context: %w", err)
		}
	}
	return sess, org, nil
}
