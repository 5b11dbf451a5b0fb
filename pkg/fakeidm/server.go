package fakeidm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
)

type contextKey struct {
	name string
}

var sessionKey = &contextKey{"session"}

// Server is the fake identity backend. Mount Handler() on any listener.
type Server struct {
	store  *store
	minter *tokenMinter
	router chi.Router

	tokenAuth *jwtauth.JWTAuth
	mailer    *challengeMailer
	issuer    string
	now       func() time.Time

	// challengeHook observes issued email verification codes, for tests.
	challengeHook func(email, code string)
}

// Option configures a Server.
type Option func(*Server)

// WithSMTP enables real delivery of email verification codes.
func WithSMTP(config SMTPConfig) Option {
	return func(s *Server) {
		mailer, err := newChallengeMailer(config)
		if err != nil {
			panic(fmt.Sprintf("fakeidm: %v", err))
		}
		s.mailer = mailer
	}
}

// WithChallengeHook registers fn to observe email verification codes as they
// are issued.
func WithChallengeHook(fn func(email, code string)) Option {
	return func(s *Server) {
		s.challengeHook = fn
	}
}

// WithProject sets the project claims stamped into access tokens.
func WithProject(id, displayName string) Option {
	return func(s *Server) {
		s.minter.projectID = id
		s.minter.projectDisplayName = displayName
	}
}

// WithAccessTokenExpiry overrides the access token lifetime.
func WithAccessTokenExpiry(expiry time.Duration) Option {
	return func(s *Server) {
		s.minter.accessTokenExpiry = expiry
	}
}

// WithSessionTTL overrides the intermediate session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.store.sessionTTL = ttl
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a fake identity backend signing tokens with secret.
func NewServer(secret string, opts ...Option) *Server {
	s := &Server{
		store: newStore(DefaultIntermediateSessionTTL),
		minter: &tokenMinter{
			secret:             secret,
			issuer:             "fakeidm",
			projectID:          "project_fakeidm",
			projectDisplayName: "Fake IDM",
			accessTokenExpiry:  DefaultAccessTokenExpiry,
			refreshTokenExpiry: DefaultRefreshTokenExpiry,
		},
		tokenAuth: jwtauth.New("HS256", []byte(secret), nil),
		issuer:    "fakeidm",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler for the backend.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SeedOrganization registers an organization and returns it with its id
// assigned.
func (s *Server) SeedOrganization(org Organization) *Organization {
	return s.store.addOrganization(org)
}

// SeedUser registers a user. A non-empty password is hashed and registered as
// the user's password factor.
func (s *Server) SeedUser(user User, password string) (*User, error) {
	return s.store.addUser(user, password)
}

// SeedAuthenticatorApp provisions a TOTP secret on an existing user and
// returns the secret.
func (s *Server) SeedAuthenticatorApp(userID, secret string) error {
	user := s.store.userByID(userID)
	if user == nil {
		return fmt.Errorf("unknown user: %s", userID)
	}
	s.store.update(func() { user.TOTPSecret = secret })
	return nil
}

// SeedPasskey registers a passkey credential id (base64url) on an existing
// user.
func (s *Server) SeedPasskey(userID, credentialID string) error {
	user := s.store.userByID(userID)
	if user == nil {
		return fmt.Errorf("unknown user: %s", userID)
	}
	s.store.update(func() { user.PasskeyCredentialID = credentialID })
	return nil
}

// SeedOAuthCode registers a redeemable OAuth authorization code mapping to a
// provider identity.
func (s *Server) SeedOAuthCode(provider, code, email, subjectID string) {
	s.store.addOAuthCode(code, oauthIdentity{provider: provider, email: email, subjectID: subjectID})
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/v1/intermediate-sessions", s.handleCreateIntermediateSession)
	r.Post("/v1/sessions/refresh", s.handleRefresh)

	r.Get("/v1/oauth/{provider}/redirect-url", s.handleOAuthRedirectURL)
	r.Post("/v1/oauth/{provider}/redeem", s.handleRedeemOAuthCode)

	// Operations on the intermediate session, authenticated by its token.
	r.Group(func(r chi.Router) {
		r.Use(s.requireIntermediateSession)

		r.Get("/v1/intermediate-sessions/whoami", s.handleWhoami)
		r.Post("/v1/intermediate-sessions/set-email-as-primary-login-factor", s.handleSetEmailAsPrimaryLoginFactor)
		r.Post("/v1/intermediate-sessions/email-verification-challenges", s.handleIssueEmailVerificationChallenge)
		r.Post("/v1/intermediate-sessions/verify-email-challenge", s.handleVerifyEmailChallenge)
		r.Post("/v1/intermediate-sessions/set-organization", s.handleSetOrganization)
		r.Post("/v1/intermediate-sessions/register-password", s.handleRegisterPassword)
		r.Post("/v1/intermediate-sessions/verify-password", s.handleVerifyPassword)
		r.Get("/v1/intermediate-sessions/authenticator-app-options", s.handleAuthenticatorAppOptions)
		r.Post("/v1/intermediate-sessions/register-authenticator-app", s.handleRegisterAuthenticatorApp)
		r.Post("/v1/intermediate-sessions/verify-authenticator-app", s.handleVerifyAuthenticatorApp)
		r.Get("/v1/intermediate-sessions/passkey-options", s.handlePasskeyOptions)
		r.Post("/v1/intermediate-sessions/register-passkey", s.handleRegisterPasskey)
		r.Post("/v1/intermediate-sessions/issue-passkey-challenge", s.handleIssuePasskeyChallenge)
		r.Post("/v1/intermediate-sessions/verify-passkey", s.handleVerifyPasskey)
		r.Post("/v1/intermediate-sessions/exchange", s.handleExchange)

		r.Get("/v1/organizations", s.handleListOrganizations)
		r.Post("/v1/organizations", s.handleCreateOrganization)
		r.Get("/v1/organizations/{organizationID}/login-context", s.handleOrganizationLoginContext)
	})

	// Full-session routes, authenticated by the access token.
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(s.tokenAuth))
		r.Use(jwtauth.Authenticator(s.tokenAuth))

		r.Get("/v1/sessions/current", s.handleCurrentSession)
	})

	return r
}

// requireIntermediateSession resolves the bearer token to a live intermediate
// session and stores it on the request context.
func (s *Server) requireIntermediateSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			s.renderError(w, r, http.StatusUnauthorized, "unauthenticated", "missing intermediate session token")
			return
		}
		sess := s.store.sessionByToken(token)
		if sess == nil {
			s.renderError(w, r, http.StatusUnauthorized, "unauthenticated", "unknown or expired intermediate session")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
	})
}

func sessionFromContext(ctx context.Context) *session {
	sess, _ := ctx.Value(sessionKey).(*session)
	return sess
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"code": code, "message": message})
}
