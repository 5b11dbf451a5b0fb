package passkey

import (
	"context"
	"crypto/rand"

	"github.com/go-webauthn/webauthn/protocol"
)

// StubCredentialAPI is a CredentialAPI for tests and the demo CLI. It echoes
// the backend-issued challenge back inside fabricated ceremony results, the
// way a cooperative authenticator would, without any real key material.
type StubCredentialAPI struct {
	// CredentialID is the stable credential id the stub reports. A random id
	// is generated when empty.
	CredentialID []byte

	// Err, when set, is returned from both ceremonies. Set to ErrNotSupported
	// to exercise the unsupported-environment path.
	Err error
}

// NewStubCredentialAPI creates a stub with a random credential id.
func NewStubCredentialAPI() *StubCredentialAPI {
	id := make([]byte, 16)
	if _, err := rand.Read(id); err != nil {
		panic(err)
	}
	return &StubCredentialAPI{CredentialID: id}
}

func (s *StubCredentialAPI) Create(ctx context.Context, options *protocol.CredentialCreation) (*RegistrationResult, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return &RegistrationResult{
		CredentialID:      EncodeBuffer(s.CredentialID),
		AttestationObject: EncodeBuffer(options.Response.Challenge),
		ClientDataJSON:    EncodeBuffer([]byte(`{"type":"webauthn.create"}`)),
	}, nil
}

func (s *StubCredentialAPI) Get(ctx context.Context, options *protocol.CredentialAssertion) (*AssertionResult, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return &AssertionResult{
		CredentialID:      EncodeBuffer(s.CredentialID),
		AuthenticatorData: EncodeBuffer(options.Response.Challenge),
		ClientDataJSON:    EncodeBuffer([]byte(`{"type":"webauthn.get"}`)),
		Signature:         EncodeBuffer(options.Response.Challenge),
	}, nil
}
