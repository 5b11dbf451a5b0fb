// Package accesstoken decodes access token payloads into typed claims.
//
// Decoding is deliberately unverified: the client uses claims for routing and
// display only, and the backend rejects invalid or expired tokens on every
// protected call. Nothing here is an authorization decision.
package accesstoken

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MalformedTokenError reports a token whose payload segment could not be
// decoded. Callers treat it as "no session" and route to login.
type MalformedTokenError struct {
	Reason string
}

func (e *MalformedTokenError) Error() string {
	return fmt.Sprintf("malformed access token: %s", e.Reason)
}

// UserClaims identify the authenticated user.
type UserClaims struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// OrganizationClaims identify the organization the session belongs to.
type OrganizationClaims struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// ProjectClaims identify the project the session was issued under.
type ProjectClaims struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// Claims is the decoded payload of an access token.
type Claims struct {
	Exp int64 `json:"exp"`
	Iat int64 `json:"iat,omitempty"`
	Nbf int64 `json:"nbf,omitempty"`

	Subject string `json:"sub,omitempty"`

	User         *UserClaims         `json:"user,omitempty"`
	Organization *OrganizationClaims `json:"organization,omitempty"`
	Project      *ProjectClaims      `json:"project,omitempty"`
}

// ExpiresAt returns the expiry claim as wall-clock time.
func (c *Claims) ExpiresAt() time.Time {
	return time.Unix(c.Exp, 0)
}

// ParseClaims decodes the payload segment of token without verifying its
// signature. It returns a *MalformedTokenError when the token does not have
// three segments or the payload is not valid base64url JSON.
func ParseClaims(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, &MalformedTokenError{Reason: fmt.Sprintf("expected 3 segments, got %d", len(parts))}
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, &MalformedTokenError{Reason: fmt.Sprintf("payload is not valid base64url: %v", err)}
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, &MalformedTokenError{Reason: fmt.Sprintf("payload is not valid JSON: %v", err)}
	}

	return &claims, nil
}

// IsExpired reports whether the claims have expired at now. Pure, no I/O.
func IsExpired(claims *Claims, now time.Time) bool {
	return claims.Exp < now.Unix()
}

// decodeSegment decodes a base64url token segment, tolerating both padded and
// unpadded encodings.
func decodeSegment(seg string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(seg, "="))
}
