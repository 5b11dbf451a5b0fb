package fakeidm

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/protocol/webauthncose"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"github.com/tesseral-labs/authflow/pkg/flow"
	"github.com/tesseral-labs/authflow/pkg/passkey"
)

func (s *Server) handleCreateIntermediateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.store.createSession()
	render.JSON(w, r, map[string]string{"intermediate_session_token": sess.token})
}

func (s *Server) handleWhoami(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var snapshot flow.IntermediateSession
	s.store.update(func() { snapshot = sess.IntermediateSession })
	render.JSON(w, r, snapshot)
}

func (s *Server) handleSetEmailAsPrimaryLoginFactor(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	s.store.update(func() { sess.PrimaryAuthFactor = flow.PrimaryAuthFactorEmail })
	render.NoContent(w, r)
}

func (s *Server) handleIssueEmailVerificationChallenge(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		s.renderError(w, r, http.StatusBadRequest, "invalid_request", "email is required")
		return
	}

	code, err := challengeCode()
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "internal_error", "failed to generate code")
		return
	}
	s.store.update(func() {
		sess.Email = req.Email
		sess.EmailVerified = false
		sess.pendingEmailCode = code
	})

	if s.challengeHook != nil {
		s.challengeHook(req.Email, code)
	}
	if s.mailer != nil {
		if err := s.mailer.sendVerificationCode(req.Email, code); err != nil {
			slog.Error("failed to send verification email", "email", req.Email, "err", err)
		}
	}
	render.NoContent(w, r)
}

func (s *Server) handleVerifyEmailChallenge(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}

	ok := false
	s.store.update(func() {
		if sess.pendingEmailCode != "" && req.Code == sess.pendingEmailCode {
			sess.EmailVerified = true
			sess.pendingEmailCode = ""
			ok = true
		}
	})
	if !ok {
		s.renderError(w, r, http.StatusBadRequest, "incorrect_code", "incorrect verification code")
		return
	}
	render.NoContent(w, r)
}

func (s *Server) handleSetOrganization(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req struct {
		OrganizationID string `json:"organization_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if s.store.organization(req.OrganizationID) == nil {
		s.renderError(w, r, http.StatusNotFound, "organization_not_found", "organization not found")
		return
	}

	// Switching organizations invalidates every credential already presented
	// for the previous one.
	s.store.update(func() {
		if sess.OrganizationID != req.OrganizationID {
			sess.PasswordVerified = false
			sess.PasskeyVerified = false
			sess.AuthenticatorAppVerified = false
			sess.pendingTOTPSecret = ""
			sess.pendingPasskeyChallenge = ""
		}
		sess.OrganizationID = req.OrganizationID
	})
	render.NoContent(w, r)
}

func (s *Server) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	orgs := s.store.organizationsForSession(sess)
	out := make([]flow.Organization, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, s.loginContext(org, s.store.userForSession(sess, org.ID)))
	}
	render.JSON(w, r, out)
}

func (s *Server) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DisplayName == "" {
		s.renderError(w, r, http.StatusBadRequest, "invalid_request", "display_name is required")
		return
	}
	if sess.PrimaryAuthFactor == flow.PrimaryAuthFactorUnspecified {
		s.renderError(w, r, http.StatusBadRequest, "login_flow_incomplete", "no primary login factor on session")
		return
	}

	org := s.store.addOrganization(Organization{
		DisplayName:        req.DisplayName,
		LogInWithEmail:     true,
		LogInWithPassword:  true,
		LogInWithGoogle:    sess.PrimaryAuthFactor == flow.PrimaryAuthFactorGoogle,
		LogInWithMicrosoft: sess.PrimaryAuthFactor == flow.PrimaryAuthFactorMicrosoft,
		LogInWithGithub:    sess.PrimaryAuthFactor == flow.PrimaryAuthFactorGithub,
	})
	user, err := s.store.addUser(User{
		OrganizationID:  org.ID,
		Email:           sess.Email,
		GoogleUserID:    sess.GoogleUserID,
		MicrosoftUserID: sess.MicrosoftUserID,
		GithubUserID:    sess.GithubUserID,
	}, "")
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "internal_error", "failed to create user")
		return
	}
	render.JSON(w, r, s.loginContext(org, user))
}

func (s *Server) handleOrganizationLoginContext(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	org := s.store.organization(chi.URLParam(r, "organizationID"))
	if org == nil {
		s.renderError(w, r, http.StatusNotFound, "organization_not_found", "organization not found")
		return
	}
	render.JSON(w, r, s.loginContext(org, s.store.userForSession(sess, org.ID)))
}

func (s *Server) handleRegisterPassword(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		s.renderError(w, r, http.StatusBadRequest, "invalid_request", "password is required")
		return
	}
	user := s.sessionUser(w, r, sess)
	if user == nil {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "internal_error", "failed to hash password")
		return
	}
	s.store.update(func() {
		user.PasswordHash = hash
		sess.PasswordVerified = true
	})
	render.NoContent(w, r)
}

func (s *Server) handleVerifyPassword(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req struct {
		Password       string `json:"password"`
		OrganizationID string `json:"organization_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.OrganizationID != "" && req.OrganizationID != sess.OrganizationID {
		s.renderError(w, r, http.StatusBadRequest, "organization_not_found", "organization does not match session")
		return
	}
	user := s.sessionUser(w, r, sess)
	if user == nil {
		return
	}
	if !user.HasPassword() {
		s.renderError(w, r, http.StatusBadRequest, "incorrect_password", "no password registered")
		return
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(req.Password)); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "incorrect_password", "incorrect password")
		return
	}
	s.store.update(func() { sess.PasswordVerified = true })
	render.NoContent(w, r)
}

func (s *Server) handleAuthenticatorAppOptions(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	accountName := sess.Email
	if accountName == "" {
		accountName = sess.ID
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
	})
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "internal_error", "failed to generate TOTP key")
		return
	}
	s.store.update(func() { sess.pendingTOTPSecret = key.Secret() })
	render.JSON(w, r, map[string]string{"otpauth_uri": key.String()})
}

func (s *Server) handleRegisterAuthenticatorApp(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req struct {
		TotpCode string `json:"totp_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	user := s.sessionUser(w, r, sess)
	if user == nil {
		return
	}
	if sess.pendingTOTPSecret == "" {
		s.renderError(w, r, http.StatusBadRequest, "incorrect_code", "no provisioning in progress")
		return
	}
	if !totp.Validate(req.TotpCode, sess.pendingTOTPSecret) {
		s.renderError(w, r, http.StatusBadRequest, "incorrect_code", "incorrect TOTP code")
		return
	}

	codes, err := recoveryCodes(8)
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "internal_error", "failed to generate recovery codes")
		return
	}
	s.store.update(func() {
		user.TOTPSecret = sess.pendingTOTPSecret
		user.RecoveryCodes = codes
		sess.pendingTOTPSecret = ""
		sess.AuthenticatorAppVerified = true
	})
	render.JSON(w, r, map[string][]string{"recovery_codes": codes})
}

func (s *Server) handleVerifyAuthenticatorApp(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req struct {
		TotpCode string `json:"totp_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	user := s.sessionUser(w, r, sess)
	if user == nil {
		return
	}
	if !user.HasAuthenticatorApp() {
		s.renderError(w, r, http.StatusBadRequest, "incorrect_code", "no authenticator app registered")
		return
	}

	ok := totp.Validate(req.TotpCode, user.TOTPSecret)
	if !ok {
		// Recovery codes are single use.
		s.store.update(func() {
			for i, code := range user.RecoveryCodes {
				if code == req.TotpCode {
					user.RecoveryCodes = append(user.RecoveryCodes[:i], user.RecoveryCodes[i+1:]...)
					ok = true
					return
				}
			}
		})
	}
	if !ok {
		s.renderError(w, r, http.StatusBadRequest, "incorrect_code", "incorrect TOTP code")
		return
	}
	s.store.update(func() { sess.AuthenticatorAppVerified = true })
	render.NoContent(w, r)
}

func (s *Server) handlePasskeyOptions(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	challenge := make([]byte, 32)
	if _, err := rand.Read(challenge); err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "internal_error", "failed to generate challenge")
		return
	}
	s.store.update(func() { sess.pendingPasskeyChallenge = passkey.EncodeBuffer(challenge) })

	options := protocol.CredentialCreation{
		Response: protocol.PublicKeyCredentialCreationOptions{
			Challenge: protocol.URLEncodedBase64(challenge),
			RelyingParty: protocol.RelyingPartyEntity{
				CredentialEntity: protocol.CredentialEntity{Name: s.issuer},
				ID:               s.issuer,
			},
			User: protocol.UserEntity{
				CredentialEntity: protocol.CredentialEntity{Name: sess.Email},
				DisplayName:      sess.Email,
				ID:               []byte(sess.ID),
			},
			Parameters: []protocol.CredentialParameter{
				{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgES256},
				{Type: protocol.PublicKeyCredentialType, Algorithm: webauthncose.AlgRS256},
			},
		},
	}
	render.JSON(w, r, options)
}

func (s *Server) handleRegisterPasskey(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req struct {
		CredentialID      string `json:"credential_id"`
		AttestationObject string `json:"attestation_object"`
		ClientDataJSON    string `json:"client_data_json"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CredentialID == "" {
		s.renderError(w, r, http.StatusBadRequest, "invalid_request", "credential_id is required")
		return
	}
	user := s.sessionUser(w, r, sess)
	if user == nil {
		return
	}
	if sess.pendingPasskeyChallenge == "" {
		s.renderError(w, r, http.StatusBadRequest, "unknown_passkey_credential", "no passkey ceremony in progress")
		return
	}

	s.store.update(func() {
		user.PasskeyCredentialID = req.CredentialID
		sess.pendingPasskeyChallenge = ""
		sess.PasskeyVerified = true
	})
	render.NoContent(w, r)
}

func (s *Server) handleIssuePasskeyChallenge(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	user := s.sessionUser(w, r, sess)
	if user == nil {
		return
	}
	if !user.HasPasskey() {
		s.renderError(w, r, http.StatusBadRequest, "unknown_passkey_credential", "no passkey registered")
		return
	}
	credentialID, err := passkey.DecodeBuffer(user.PasskeyCredentialID)
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "internal_error", "stored credential id is corrupt")
		return
	}

	challenge := make([]byte, 32)
	if _, err := rand.Read(challenge); err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "internal_error", "failed to generate challenge")
		return
	}
	s.store.update(func() { sess.pendingPasskeyChallenge = passkey.EncodeBuffer(challenge) })

	options := protocol.CredentialAssertion{
		Response: protocol.PublicKeyCredentialRequestOptions{
			Challenge:      protocol.URLEncodedBase64(challenge),
			RelyingPartyID: s.issuer,
			AllowedCredentials: []protocol.CredentialDescriptor{
				{Type: protocol.PublicKeyCredentialType, CredentialID: credentialID},
			},
		},
	}
	render.JSON(w, r, options)
}

func (s *Server) handleVerifyPasskey(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req struct {
		CredentialID      string `json:"credential_id"`
		AuthenticatorData string `json:"authenticator_data"`
		ClientDataJSON    string `json:"client_data_json"`
		Signature         string `json:"signature"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	user := s.sessionUser(w, r, sess)
	if user == nil {
		return
	}
	if sess.pendingPasskeyChallenge == "" {
		s.renderError(w, r, http.StatusBadRequest, "unknown_passkey_credential", "no passkey ceremony in progress")
		return
	}
	if req.Signature == "" || req.AuthenticatorData == "" {
		s.renderError(w, r, http.StatusBadRequest, "unknown_passkey_credential", "incomplete assertion")
		return
	}
	if !sameCredentialID(req.CredentialID, user.PasskeyCredentialID) {
		s.renderError(w, r, http.StatusBadRequest, "unknown_passkey_credential", "unknown passkey credential")
		return
	}

	s.store.update(func() {
		sess.pendingPasskeyChallenge = ""
		sess.PasskeyVerified = true
	})
	render.NoContent(w, r)
}

func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req struct {
		OrganizationID string `json:"organization_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.OrganizationID != "" && req.OrganizationID != sess.OrganizationID {
		s.renderError(w, r, http.StatusBadRequest, "organization_not_found", "organization does not match session")
		return
	}

	org := s.store.organization(sess.OrganizationID)
	if org == nil {
		s.renderError(w, r, http.StatusBadRequest, "login_flow_incomplete", "no organization on session")
		return
	}
	user := s.store.userForSession(sess, org.ID)
	if user == nil {
		s.renderError(w, r, http.StatusBadRequest, "login_flow_incomplete", "no user for session identity")
		return
	}
	if code, msg := s.flowIncomplete(sess, org, user); code != "" {
		s.renderError(w, r, http.StatusBadRequest, code, msg)
		return
	}

	now := s.now()
	accessToken, err := s.minter.mintAccessToken(user, org, now)
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "internal_error", "failed to mint access token")
		return
	}
	refreshToken, err := s.minter.mintRefreshToken(user, org, now)
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "internal_error", "failed to mint refresh token")
		return
	}

	// The intermediate session is consumed by a successful exchange.
	s.store.deleteSession(sess.token)
	render.JSON(w, r, map[string]string{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// flowIncomplete checks the organization's policy against the session's
// verified factors. It returns an error code when the exchange must be
// refused.
func (s *Server) flowIncomplete(sess *session, org *Organization, user *User) (code, message string) {
	switch sess.PrimaryAuthFactor {
	case flow.PrimaryAuthFactorEmail:
		if !org.LogInWithEmail {
			return "login_method_not_allowed", "organization does not allow email login"
		}
		if !sess.EmailVerified {
			return "email_not_verified", "email is not verified"
		}
	case flow.PrimaryAuthFactorGoogle:
		if !org.LogInWithGoogle {
			return "login_method_not_allowed", "organization does not allow google login"
		}
	case flow.PrimaryAuthFactorMicrosoft:
		if !org.LogInWithMicrosoft {
			return "login_method_not_allowed", "organization does not allow microsoft login"
		}
	case flow.PrimaryAuthFactorGithub:
		if !org.LogInWithGithub {
			return "login_method_not_allowed", "organization does not allow github login"
		}
	default:
		return "login_flow_incomplete", "no primary login factor"
	}

	if org.LogInWithPassword && !sess.PasswordVerified {
		return "login_flow_incomplete", "password not verified"
	}
	if org.RequireMFA && !sess.AuthenticatorAppVerified && !sess.PasskeyVerified {
		return "login_flow_incomplete", "secondary factor not verified"
	}
	return "", ""
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		s.renderError(w, r, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		return
	}

	userID, organizationID, err := s.minter.parseRefreshToken(req.RefreshToken)
	if err != nil {
		s.renderError(w, r, http.StatusUnauthorized, "unauthenticated", "invalid refresh token")
		return
	}
	user := s.store.userByID(userID)
	org := s.store.organization(organizationID)
	if user == nil || org == nil {
		s.renderError(w, r, http.StatusUnauthorized, "unauthenticated", "unknown session subject")
		return
	}

	accessToken, err := s.minter.mintAccessToken(user, org, s.now())
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, "internal_error", "failed to mint access token")
		return
	}
	render.JSON(w, r, map[string]string{"access_token": accessToken})
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		s.renderError(w, r, http.StatusUnauthorized, "unauthenticated", "invalid access token")
		return
	}
	render.JSON(w, r, claims)
}

func (s *Server) handleOAuthRedirectURL(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !validProvider(provider) {
		s.renderError(w, r, http.StatusNotFound, "invalid_request", "unknown oauth provider")
		return
	}
	redirectURL := r.URL.Query().Get("redirect_url")
	authorizeURL := fmt.Sprintf("https://%s.example.com/oauth/authorize?state=%s&redirect_uri=%s",
		provider, uuid.New().String(), url.QueryEscape(redirectURL))
	render.JSON(w, r, map[string]string{"url": authorizeURL})
}

func (s *Server) handleRedeemOAuthCode(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !validProvider(provider) {
		s.renderError(w, r, http.StatusNotFound, "invalid_request", "unknown oauth provider")
		return
	}

	var req struct {
		Code        string `json:"code"`
		State       string `json:"state"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		s.renderError(w, r, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	identity := s.store.redeemOAuthCode(req.Code)
	if identity == nil || identity.provider != provider {
		s.renderError(w, r, http.StatusBadRequest, "incorrect_code", "unknown or already redeemed code")
		return
	}

	sess := s.store.createSession()
	s.store.update(func() {
		sess.Email = identity.email
		sess.EmailVerified = true
		switch provider {
		case "google":
			sess.PrimaryAuthFactor = flow.PrimaryAuthFactorGoogle
			sess.GoogleUserID = identity.subjectID
		case "microsoft":
			sess.PrimaryAuthFactor = flow.PrimaryAuthFactorMicrosoft
			sess.MicrosoftUserID = identity.subjectID
		case "github":
			sess.PrimaryAuthFactor = flow.PrimaryAuthFactorGithub
			sess.GithubUserID = identity.subjectID
		}
	})
	render.JSON(w, r, map[string]string{"intermediate_session_token": sess.token})
}

// sessionUser resolves the session's user within its organization, rendering
// the right error when the session has no organization or no matching user.
func (s *Server) sessionUser(w http.ResponseWriter, r *http.Request, sess *session) *User {
	if sess.OrganizationID == "" {
		s.renderError(w, r, http.StatusBadRequest, "login_flow_incomplete", "no organization on session")
		return nil
	}
	user := s.store.userForSession(sess, sess.OrganizationID)
	if user == nil {
		s.renderError(w, r, http.StatusBadRequest, "login_flow_incomplete", "no user for session identity")
		return nil
	}
	return user
}

// loginContext projects an organization record into the login-context view,
// resolving the per-user policy flags against user (which may be nil).
func (s *Server) loginContext(org *Organization, user *User) flow.Organization {
	var out flow.Organization
	if err := copier.Copy(&out, org); err != nil {
		slog.Error("failed to copy organization", "organization_id", org.ID, "err", err)
	}
	if user != nil {
		out.UserExists = true
		out.UserHasPassword = user.HasPassword()
		out.UserHasPasskey = user.HasPasskey()
		out.UserHasAuthenticatorApp = user.HasAuthenticatorApp()
	}
	return out
}

func sameCredentialID(a, b string) bool {
	rawA, errA := passkey.DecodeBuffer(a)
	rawB, errB := passkey.DecodeBuffer(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return bytes.Equal(rawA, rawB)
}

func validProvider(provider string) bool {
	switch provider {
	case "google", "microsoft", "github":
		return true
	}
	return false
}

// challengeCode returns a 6-digit numeric verification code.
func challengeCode() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	n := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	return fmt.Sprintf("%06d", n%1000000), nil
}

func recoveryCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var buf [5]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, fmt.Errorf("failed to read random bytes: %w", err)
		}
		codes = append(codes, hex.EncodeToString(buf[:]))
	}
	return codes, nil
}
