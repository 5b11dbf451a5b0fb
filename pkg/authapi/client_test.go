package authapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCreds struct {
	accessToken              string
	intermediateSessionToken string
}

func (c staticCreds) GetAccessToken() (string, bool) {
	return c.accessToken, c.accessToken != ""
}

func (c staticCreds) GetIntermediateSessionToken() (string, bool) {
	return c.intermediateSessionToken, c.intermediateSessionToken != ""
}

func TestHasCode(t *testing.T) {
	apiErr := &APIError{Status: http.StatusBadRequest, Code: CodeIncorrectPassword, Message: "incorrect password"}

	assert.True(t, HasCode(apiErr, CodeIncorrectPassword))
	assert.False(t, HasCode(apiErr, CodeIncorrectCode))

	wrapped := fmt.Errorf("failed to verify password: %w", apiErr)
	assert.True(t, HasCode(wrapped, CodeIncorrectPassword))

	assert.False(t, HasCode(errors.New("plain error"), CodeIncorrectPassword))
	assert.False(t, HasCode(nil, CodeIncorrectPassword))
}

func TestClientDecodesAPIError(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"code":"incorrect_code","message":"incorrect verification code"}`)
	}))
	defer backend.Close()

	client := NewClient(backend.URL, staticCreds{intermediateSessionToken: "ist-1"})
	err := client.VerifyEmailChallenge(context.Background(), "000000")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, CodeIncorrectCode, apiErr.Code)
}

func TestClientUndecodableErrorBody(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}))
	defer backend.Close()

	client := NewClient(backend.URL, staticCreds{intermediateSessionToken: "ist-1"})
	err := client.SetEmailAsPrimaryLoginFactor(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "unknown_error", apiErr.Code)
}

func TestClientAttachesBearerToken(t *testing.T) {
	var authorization string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		fmt.Fprint(w, `{}`)
	}))
	defer backend.Close()

	client := NewClient(backend.URL, staticCreds{intermediateSessionToken: "ist-1"})
	_, err := client.Whoami(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer ist-1", authorization)
}

func TestClientMissingCredential(t *testing.T) {
	client := NewClient("http://unreachable.invalid", staticCreds{})

	_, err := client.Whoami(context.Background())
	require.Error(t, err)
	assert.True(t, HasCode(err, CodeUnauthenticated))
}
