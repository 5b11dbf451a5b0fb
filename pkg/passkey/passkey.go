// Package passkey is the boundary to the platform WebAuthn ceremony. The
// ceremony itself (credential creation and assertion) is an opaque capability
// supplied by the environment; this package defines the interface the login
// flow invokes and the base64url byte-buffer conversions at that boundary.
package passkey

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/go-webauthn/webauthn/protocol"
)

// ErrNotSupported is returned when the environment has no WebAuthn
// capability. It is fatal for the passkey path and must be surfaced
// immediately instead of attempting a ceremony.
var ErrNotSupported = errors.New("webauthn is not supported in this environment")

// RegistrationResult is the outcome of a credential creation ceremony. All
// byte buffers are base64url encoded.
type RegistrationResult struct {
	CredentialID      string `json:"credential_id"`
	AttestationObject string `json:"attestation_object"`
	ClientDataJSON    string `json:"client_data_json"`
}

// AssertionResult is the outcome of a credential assertion ceremony. All byte
// buffers are base64url encoded.
type AssertionResult struct {
	CredentialID      string `json:"credential_id"`
	AuthenticatorData string `json:"authenticator_data"`
	ClientDataJSON    string `json:"client_data_json"`
	Signature         string `json:"signature"`
}

// CredentialAPI is the opaque WebAuthn capability. Create runs a credential
// creation ceremony from backend-supplied creation options; Get runs an
// assertion ceremony from backend-supplied request options. A user cancelling
// the ceremony is an ordinary error the caller may retry.
type CredentialAPI interface {
	Create(ctx context.Context, options *protocol.CredentialCreation) (*RegistrationResult, error)
	Get(ctx context.Context, options *protocol.CredentialAssertion) (*AssertionResult, error)
}

// EncodeBuffer encodes a ceremony byte buffer as unpadded base64url.
func EncodeBuffer(buf []byte) string {
	return base64.RawURLEncoding.EncodeToString(buf)
}

// DecodeBuffer decodes a base64url ceremony buffer, tolerating padding.
func DecodeBuffer(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
