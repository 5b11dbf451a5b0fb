package flow

// PrimaryAuthFactor identifies the first credential used to identify a user.
type PrimaryAuthFactor string

const (
	PrimaryAuthFactorUnspecified PrimaryAuthFactor = ""
	PrimaryAuthFactorEmail       PrimaryAuthFactor = "email"
	PrimaryAuthFactorGoogle      PrimaryAuthFactor = "google"
	PrimaryAuthFactorMicrosoft   PrimaryAuthFactor = "microsoft"
	PrimaryAuthFactorGithub      PrimaryAuthFactor = "github"
)

// IntermediateSession is the backend-held record of a login in progress. It
// is refetched via whoami after every mutating call; the verified flags are
// only ever set by the corresponding verify/register operation.
type IntermediateSession struct {
	ID                       string            `json:"id"`
	Email                    string            `json:"email,omitempty"`
	EmailVerified            bool              `json:"email_verified"`
	GoogleUserID             string            `json:"google_user_id,omitempty"`
	MicrosoftUserID          string            `json:"microsoft_user_id,omitempty"`
	GithubUserID             string            `json:"github_user_id,omitempty"`
	PrimaryAuthFactor        PrimaryAuthFactor `json:"primary_auth_factor,omitempty"`
	OrganizationID           string            `json:"organization_id,omitempty"`
	PasswordVerified         bool              `json:"password_verified"`
	PasskeyVerified          bool              `json:"passkey_verified"`
	AuthenticatorAppVerified bool              `json:"authenticator_app_verified"`
}

// Organization is the login-context projection of an organization: its
// configured login methods plus policy flags resolved against the specific
// authenticating user. The per-user flags are only meaningful once the
// intermediate session has an organization set, so this struct must be
// refetched after every SetOrganization call and never cached across
// organization switches.
type Organization struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`

	LogInWithEmail     bool `json:"log_in_with_email"`
	LogInWithGoogle    bool `json:"log_in_with_google"`
	LogInWithMicrosoft bool `json:"log_in_with_microsoft"`
	LogInWithGithub    bool `json:"log_in_with_github"`
	LogInWithSaml      bool `json:"log_in_with_saml"`
	LogInWithPassword  bool `json:"log_in_with_password"`

	LogInWithAuthenticatorApp bool `json:"log_in_with_authenticator_app"`
	LogInWithPasskey          bool `json:"log_in_with_passkey"`
	RequireMFA                bool `json:"require_mfa"`

	UserExists              bool `json:"user_exists"`
	UserHasPassword         bool `json:"user_has_password"`
	UserHasPasskey          bool `json:"user_has_passkey"`
	UserHasAuthenticatorApp bool `json:"user_has_authenticator_app"`

	PrimarySamlConnectionID string `json:"primary_saml_connection_id,omitempty"`
}
