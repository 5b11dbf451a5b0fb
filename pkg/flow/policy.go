package flow

// SecondaryFactor is the outcome of evaluating an organization's MFA policy
// against the session's already-verified factors and the user's registered
// factors.
type SecondaryFactor string

const (
	// SecondaryFactorNone means no secondary factor is outstanding.
	SecondaryFactorNone SecondaryFactor = "none"
	// SecondaryFactorChoose means both factor types are registered and the
	// user must pick which one to verify.
	SecondaryFactorChoose SecondaryFactor = "choose"
	// SecondaryFactorAuthenticatorApp means a registered authenticator app
	// must be verified.
	SecondaryFactorAuthenticatorApp SecondaryFactor = "authenticator_app"
	// SecondaryFactorPasskey means a registered passkey must be verified.
	SecondaryFactorPasskey SecondaryFactor = "passkey"
	// SecondaryFactorRegister means MFA is required but the user has no
	// registered factor yet and must register one.
	SecondaryFactorRegister SecondaryFactor = "register"
)

// IsPrimaryFactorAcceptable reports whether the session's primary auth factor
// is one the organization allows. An unset or unknown factor is never
// acceptable.
func IsPrimaryFactorAcceptable(sess *IntermediateSession, org *Organization) bool {
	switch sess.PrimaryAuthFactor {
	case PrimaryAuthFactorEmail:
		return org.LogInWithEmail
	case PrimaryAuthFactorGoogle:
		return org.LogInWithGoogle
	case PrimaryAuthFactorMicrosoft:
		return org.LogInWithMicrosoft
	case PrimaryAuthFactorGithub:
		return org.LogInWithGithub
	default:
		return false
	}
}

// OutstandingSecondaryFactor decides which secondary factor, if any, the user
// still owes. Verifying a single factor is always sufficient, even when a
// second one is registered. A registered factor only counts if the
// organization allows that factor type.
func OutstandingSecondaryFactor(sess *IntermediateSession, org *Organization) SecondaryFactor {
	if sess.AuthenticatorAppVerified || sess.PasskeyVerified {
		return SecondaryFactorNone
	}
	if !org.RequireMFA {
		return SecondaryFactorNone
	}

	hasApp := org.LogInWithAuthenticatorApp && org.UserHasAuthenticatorApp
	hasPasskey := org.LogInWithPasskey && org.UserHasPasskey

	switch {
	case hasApp && hasPasskey:
		return SecondaryFactorChoose
	case hasApp:
		return SecondaryFactorAuthenticatorApp
	case hasPasskey:
		return SecondaryFactorPasskey
	default:
		return SecondaryFactorRegister
	}
}
