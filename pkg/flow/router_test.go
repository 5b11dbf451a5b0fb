package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStepPreOrganization(t *testing.T) {
	t.Run("nil session routes to login", func(t *testing.T) {
		assert.Equal(t, StepLogin, NextStep(nil, nil))
	})

	t.Run("no primary factor routes to login", func(t *testing.T) {
		sess := &IntermediateSession{}
		assert.Equal(t, StepLogin, NextStep(sess, nil))
	})

	t.Run("unverified email routes to verify email", func(t *testing.T) {
		sess := &IntermediateSession{
			PrimaryAuthFactor: PrimaryAuthFactorEmail,
			Email:             "alice@example.com",
		}
		assert.Equal(t, StepVerifyEmail, NextStep(sess, nil))
	})

	t.Run("verified email without organization routes to choose organization", func(t *testing.T) {
		sess := &IntermediateSession{
			PrimaryAuthFactor: PrimaryAuthFactorEmail,
			Email:             "alice@example.com",
			EmailVerified:     true,
		}
		assert.Equal(t, StepChooseOrganization, NextStep(sess, nil))
	})

	t.Run("oauth factor skips email verification", func(t *testing.T) {
		sess := &IntermediateSession{PrimaryAuthFactor: PrimaryAuthFactorGoogle}
		assert.Equal(t, StepChooseOrganization, NextStep(sess, nil))
	})

	t.Run("organization id set but login context missing still routes to choose organization", func(t *testing.T) {
		sess := &IntermediateSession{
			PrimaryAuthFactor: PrimaryAuthFactorGoogle,
			OrganizationID:    "org_1",
		}
		assert.Equal(t, StepChooseOrganization, NextStep(sess, nil))
	})
}

// verifiedEmailSession is a session that has cleared the pre-organization
// steps for an email login into org_1.
func verifiedEmailSession() *IntermediateSession {
	return &IntermediateSession{
		PrimaryAuthFactor: PrimaryAuthFactorEmail,
		Email:             "alice@example.com",
		EmailVerified:     true,
		OrganizationID:    "org_1",
	}
}

func TestNextStepInOrganization(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*IntermediateSession)
		org    Organization
		want   Step
	}{
		{
			name: "primary factor not allowed",
			org:  Organization{ID: "org_1", LogInWithGoogle: true},
			want: StepChooseOrganizationPrimaryLoginFactor,
		},
		{
			name: "password required and registered",
			org:  Organization{ID: "org_1", LogInWithEmail: true, LogInWithPassword: true, UserHasPassword: true},
			want: StepVerifyPassword,
		},
		{
			name: "password required and not registered",
			org:  Organization{ID: "org_1", LogInWithEmail: true, LogInWithPassword: true},
			want: StepRegisterPassword,
		},
		{
			name:   "password verified, no mfa, finishes",
			mutate: func(sess *IntermediateSession) { sess.PasswordVerified = true },
			org:    Organization{ID: "org_1", LogInWithEmail: true, LogInWithPassword: true, UserHasPassword: true},
			want:   StepFinishLogin,
		},
		{
			name:   "mfa outstanding with registered authenticator app",
			mutate: func(sess *IntermediateSession) { sess.PasswordVerified = true },
			org: Organization{
				ID: "org_1", LogInWithEmail: true, LogInWithPassword: true, UserHasPassword: true,
				RequireMFA: true, LogInWithAuthenticatorApp: true, UserHasAuthenticatorApp: true,
			},
			want: StepVerifyAuthenticatorApp,
		},
		{
			name:   "mfa outstanding with registered passkey",
			mutate: func(sess *IntermediateSession) { sess.PasswordVerified = true },
			org: Organization{
				ID: "org_1", LogInWithEmail: true, LogInWithPassword: true, UserHasPassword: true,
				RequireMFA: true, LogInWithPasskey: true, UserHasPasskey: true,
			},
			want: StepVerifyPasskey,
		},
		{
			name:   "mfa outstanding with both factors registered",
			mutate: func(sess *IntermediateSession) { sess.PasswordVerified = true },
			org: Organization{
				ID: "org_1", LogInWithEmail: true, LogInWithPassword: true, UserHasPassword: true,
				RequireMFA:                true,
				LogInWithAuthenticatorApp: true, UserHasAuthenticatorApp: true,
				LogInWithPasskey: true, UserHasPasskey: true,
			},
			want: StepChooseAdditionalFactor,
		},
		{
			name:   "mfa required, nothing registered, only app allowed",
			mutate: func(sess *IntermediateSession) { sess.PasswordVerified = true },
			org: Organization{
				ID: "org_1", LogInWithEmail: true, LogInWithPassword: true, UserHasPassword: true,
				RequireMFA: true, LogInWithAuthenticatorApp: true,
			},
			want: StepRegisterAuthenticatorApp,
		},
		{
			name:   "mfa required, nothing registered, only passkey allowed",
			mutate: func(sess *IntermediateSession) { sess.PasswordVerified = true },
			org: Organization{
				ID: "org_1", LogInWithEmail: true, LogInWithPassword: true, UserHasPassword: true,
				RequireMFA: true, LogInWithPasskey: true,
			},
			want: StepRegisterPasskey,
		},
		{
			name:   "mfa required, nothing registered, both types allowed",
			mutate: func(sess *IntermediateSession) { sess.PasswordVerified = true },
			org: Organization{
				ID: "org_1", LogInWithEmail: true, LogInWithPassword: true, UserHasPassword: true,
				RequireMFA: true, LogInWithAuthenticatorApp: true, LogInWithPasskey: true,
			},
			want: StepChooseAdditionalFactor,
		},
		{
			name:   "mfa required with zero configured factor types fails closed",
			mutate: func(sess *IntermediateSession) { sess.PasswordVerified = true },
			org: Organization{
				ID: "org_1", LogInWithEmail: true, LogInWithPassword: true, UserHasPassword: true,
				RequireMFA: true,
			},
			want: StepAuthenticateAnotherWay,
		},
		{
			name: "secondary factor verified skips password-free org to finish",
			mutate: func(sess *IntermediateSession) {
				sess.PasskeyVerified = true
			},
			org: Organization{
				ID: "org_1", LogInWithEmail: true,
				RequireMFA: true, LogInWithPasskey: true, UserHasPasskey: true,
			},
			want: StepFinishLogin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := verifiedEmailSession()
			if tt.mutate != nil {
				tt.mutate(sess)
			}
			got := NextStep(sess, &tt.org)
			assert.Equal(t, tt.want, got)

			// Same snapshot, same step: the router must be deterministic.
			assert.Equal(t, got, NextStep(sess, &tt.org))
		})
	}
}

func TestNextStepPasswordGateBeforeSecondaryGate(t *testing.T) {
	sess := verifiedEmailSession()
	org := &Organization{
		ID: "org_1", LogInWithEmail: true, LogInWithPassword: true, UserHasPassword: true,
		RequireMFA: true, LogInWithAuthenticatorApp: true, UserHasAuthenticatorApp: true,
	}

	// The password gate fires first even though MFA is also outstanding.
	require.Equal(t, StepVerifyPassword, NextStep(sess, org))

	sess.PasswordVerified = true
	require.Equal(t, StepVerifyAuthenticatorApp, NextStep(sess, org))

	sess.AuthenticatorAppVerified = true
	require.Equal(t, StepFinishLogin, NextStep(sess, org))
}

func TestStepPath(t *testing.T) {
	assert.Equal(t, "/login", StepLogin.Path())
	assert.Equal(t, "/verify-password", StepVerifyPassword.Path())
	assert.Equal(t, "/choose-additional-factor", StepChooseAdditionalFactor.Path())
	assert.Equal(t, "/login", Step("bogus").Path())
}
