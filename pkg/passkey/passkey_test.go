package passkey

import (
	"context"
	"testing"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferEncoding(t *testing.T) {
	buf := []byte{0xfb, 0xff, 0x00, 0x41}

	encoded := EncodeBuffer(buf)
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "/")
	assert.NotContains(t, encoded, "=")

	decoded, err := DecodeBuffer(encoded)
	require.NoError(t, err)
	assert.Equal(t, buf, decoded)
}

func TestDecodeBufferToleratesPadding(t *testing.T) {
	decoded, err := DecodeBuffer("QQ==")
	require.NoError(t, err)
	assert.Equal(t, []byte("A"), decoded)
}

func TestStubCreateEchoesChallenge(t *testing.T) {
	stub := NewStubCredentialAPI()
	challenge := []byte("registration-challenge")

	result, err := stub.Create(context.Background(), &protocol.CredentialCreation{
		Response: protocol.PublicKeyCredentialCreationOptions{
			Challenge: protocol.URLEncodedBase64(challenge),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, EncodeBuffer(stub.CredentialID), result.CredentialID)
	assert.Equal(t, EncodeBuffer(challenge), result.AttestationObject)
	assert.NotEmpty(t, result.ClientDataJSON)
}

func TestStubGetEchoesChallenge(t *testing.T) {
	stub := NewStubCredentialAPI()
	challenge := []byte("assertion-challenge")

	result, err := stub.Get(context.Background(), &protocol.CredentialAssertion{
		Response: protocol.PublicKeyCredentialRequestOptions{
			Challenge: protocol.URLEncodedBase64(challenge),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, EncodeBuffer(stub.CredentialID), result.CredentialID)
	assert.Equal(t, EncodeBuffer(challenge), result.Signature)
	assert.NotEmpty(t, result.AuthenticatorData)
}

func TestStubErrPropagates(t *testing.T) {
	stub := &StubCredentialAPI{Err: ErrNotSupported}

	_, err := stub.Create(context.Background(), &protocol.CredentialCreation{})
	assert.ErrorIs(t, err, ErrNotSupported)

	_, err = stub.Get(context.Background(), &protocol.CredentialAssertion{})
	assert.ErrorIs(t, err, ErrNotSupported)
}
