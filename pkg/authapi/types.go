package authapi

type createIntermediateSessionResponse struct {
	IntermediateSessionToken string `json:"intermediate_session_token"`
}

type setEmailRequest struct {
	Email string `json:"email"`
}

type verifyEmailChallengeRequest struct {
	Code string `json:"code"`
}

type setOrganizationRequest struct {
	OrganizationID string `json:"organization_id"`
}

type createOrganizationRequest struct {
	DisplayName string `json:"display_name"`
}

type registerPasswordRequest struct {
	Password string `json:"password"`
}

type verifyPasswordRequest struct {
	Password       string `json:"password"`
	OrganizationID string `json:"organization_id,omitempty"`
}

type authenticatorAppOptionsResponse struct {
	OtpauthURI string `json:"otpauth_uri"`
}

type registerAuthenticatorAppRequest struct {
	TotpCode string `json:"totp_code"`
}

type registerAuthenticatorAppResponse struct {
	RecoveryCodes []string `json:"recovery_codes"`
}

type verifyAuthenticatorAppRequest struct {
	// TotpCode carries either a current TOTP code or a recovery code.
	TotpCode string `json:"totp_code"`
}

type registerPasskeyRequest struct {
	CredentialID      string `json:"credential_id"`
	AttestationObject string `json:"attestation_object"`
	ClientDataJSON    string `json:"client_data_json"`
}

type verifyPasskeyRequest struct {
	CredentialID      string `json:"credential_id"`
	AuthenticatorData string `json:"authenticator_data"`
	ClientDataJSON    string `json:"client_data_json"`
	Signature         string `json:"signature"`
}

type exchangeRequest struct {
	OrganizationID string `json:"organization_id,omitempty"`
}

type exchangeResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

type oauthRedirectResponse struct {
	URL string `json:"url"`
}

type redeemOAuthCodeRequest struct {
	Code        string `json:"code"`
	State       string `json:"state"`
	RedirectURL string `json:"redirect_url"`
}
