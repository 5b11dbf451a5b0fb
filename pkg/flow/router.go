package flow

// Step is a named view in the login flow. The router returns the single step
// the user must complete next; the view layer maps it onto a URL path.
type Step string

const (
	StepLogin                                Step = "login"
	StepVerifyEmail                          Step = "verify_email"
	StepChooseOrganization                   Step = "choose_organization"
	StepChooseOrganizationPrimaryLoginFactor Step = "choose_organization_primary_login_factor"
	StepVerifyPassword                       Step = "verify_password"
	StepRegisterPassword                     Step = "register_password"
	StepVerifyAuthenticatorApp               Step = "verify_authenticator_app"
	StepRegisterAuthenticatorApp             Step = "register_authenticator_app"
	StepVerifyPasskey                        Step = "verify_passkey"
	StepRegisterPasskey                      Step = "register_passkey"
	StepChooseAdditionalFactor               Step = "choose_additional_factor"
	StepAuthenticateAnotherWay               Step = "authenticate_another_way"
	StepFinishLogin                          Step = "finish_login"
)

var stepPaths = map[Step]string{
	StepLogin:                                "/login",
	StepVerifyEmail:                          "/verify-email",
	StepChooseOrganization:                   "/choose-organization",
	StepChooseOrganizationPrimaryLoginFactor: "/authenticate-another-way",
	StepVerifyPassword:                       "/verify-password",
	StepRegisterPassword:                     "/register-password",
	StepVerifyAuthenticatorApp:               "/verify-authenticator-app",
	StepRegisterAuthenticatorApp:             "/register-authenticator-app",
	StepVerifyPasskey:                        "/verify-passkey",
	StepRegisterPasskey:                      "/register-passkey",
	StepChooseAdditionalFactor:               "/choose-additional-factor",
	StepAuthenticateAnotherWay:               "/authenticate-another-way",
	StepFinishLogin:                          "/finish-login",
}

// Path returns the URL path that renders this step.
func (s Step) Path() string {
	if p, ok := stepPaths[s]; ok {
		return p
	}
	return "/login"
}

// NextStep is the login flow router. It is pure and deterministic: it reads
// an already-fetched (session, organization) snapshot, performs no I/O, and
// returns the same step for the same inputs. Callers must pass a freshly
// refetched snapshot after every mutating backend call.
//
// org is nil until the session has an organization chosen; the pre-organization
// steps (email verification, organization choice) are routed first.
//
// The decision order once an organization is chosen: primary factor
// acceptability, then the password gate, then the secondary factor gate. The
// first rule that fires wins.
func NextStep(sess *IntermediateSession, org *Organization) Step {
	if sess == nil || sess.PrimaryAuthFactor == PrimaryAuthFactorUnspecified {
		return StepLogin
	}
	if sess.PrimaryAuthFactor == PrimaryAuthFactorEmail && !sess.EmailVerified {
		return StepVerifyEmail
	}
	if sess.OrganizationID == "" || org == nil {
		return StepChooseOrganization
	}

	if !IsPrimaryFactorAcceptable(sess, org) {
		return StepChooseOrganizationPrimaryLoginFactor
	}

	if org.LogInWithPassword && !sess.PasswordVerified {
		if org.UserHasPassword {
			return StepVerifyPassword
		}
		return StepRegisterPassword
	}

	switch OutstandingSecondaryFactor(sess, org) {
	case SecondaryFactorAuthenticatorApp:
		return StepVerifyAuthenticatorApp
	case SecondaryFactorPasskey:
		return StepVerifyPasskey
	case SecondaryFactorChoose:
		return StepChooseAdditionalFactor
	case SecondaryFactorRegister:
		switch {
		case org.LogInWithAuthenticatorApp && !org.LogInWithPasskey:
			return StepRegisterAuthenticatorApp
		case org.LogInWithPasskey && !org.LogInWithAuthenticatorApp:
			return StepRegisterPasskey
		case !org.LogInWithAuthenticatorApp && !org.LogInWithPasskey:
			// requireMfa with zero configured secondary factor types is a
			// contradictory organization configuration. Fail closed rather
			// than finishing a login that cannot satisfy MFA.
			return StepAuthenticateAnotherWay
		default:
			return StepChooseAdditionalFactor
		}
	}

	return StepFinishLogin
}
