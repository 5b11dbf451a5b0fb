// Package authenticatorapp derives TOTP codes from the otpauth URI returned
// by the backend's authenticator app options call. It plays the role of the
// user's authenticator app in tests and the demo CLI.
package authenticatorapp

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Key is a provisioned authenticator app key.
type Key struct {
	key *otp.Key
}

// ParseKey parses an otpauth:// provisioning URI.
func ParseKey(otpauthURI string) (*Key, error) {
	key, err := otp.NewKeyFromURL(otpauthURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse otpauth uri: %w", err)
	}
	if key.Secret() == "" {
		return nil, fmt.Errorf("otpauth uri has no secret")
	}
	return &Key{key: key}, nil
}

// Secret returns the raw base32 secret.
func (k *Key) Secret() string {
	return k.key.Secret()
}

// Issuer returns the provisioning issuer.
func (k *Key) Issuer() string {
	return k.key.Issuer()
}

// AccountName returns the provisioned account name.
func (k *Key) AccountName() string {
	return k.key.AccountName()
}

// Code returns the TOTP code valid at t.
func (k *Key) Code(t time.Time) (string, error) {
	code, err := totp.GenerateCode(k.key.Secret(), t)
	if err != nil {
		return "", fmt.Errorf("failed to generate totp code: %w", err)
	}
	return code, nil
}
