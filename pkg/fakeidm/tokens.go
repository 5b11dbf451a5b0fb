package fakeidm

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token expiry durations.
const (
	DefaultAccessTokenExpiry  = 5 * time.Minute
	DefaultRefreshTokenExpiry = 24 * time.Hour
)

// tokenMinter issues and parses the HS256 session tokens. The access token
// payload carries the nested user/organization/project claim objects the
// client's claims reader decodes.
type tokenMinter struct {
	secret             string
	issuer             string
	projectID          string
	projectDisplayName string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

func (m *tokenMinter) mintAccessToken(user *User, org *Organization, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss": m.issuer,
		"sub": user.ID,
		"jti": uuid.New().String(),
		"exp": now.Add(m.accessTokenExpiry).Unix(),
		"iat": now.Unix(),
		"nbf": now.Add(-1 * time.Minute).Unix(),
		"user": map[string]any{
			"id":           user.ID,
			"email":        user.Email,
			"display_name": user.DisplayName,
		},
		"organization": map[string]any{
			"id":           org.ID,
			"display_name": org.DisplayName,
		},
		"project": map[string]any{
			"id":           m.projectID,
			"display_name": m.projectDisplayName,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (m *tokenMinter) mintRefreshToken(user *User, org *Organization, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"iss":             m.issuer,
		"sub":             user.ID,
		"jti":             uuid.New().String(),
		"exp":             now.Add(m.refreshTokenExpiry).Unix(),
		"iat":             now.Unix(),
		"token_use":       "refresh",
		"organization_id": org.ID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

// parseRefreshToken validates a refresh token and returns the subject user id
// and organization id.
func (m *tokenMinter) parseRefreshToken(tokenStr string) (userID, organizationID string, err error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims format")
	}
	if use, _ := claims["token_use"].(string); use != "refresh" {
		return "", "", fmt.Errorf("not a refresh token")
	}

	userID, _ = claims["sub"].(string)
	organizationID, _ = claims["organization_id"].(string)
	if userID == "" || organizationID == "" {
		return "", "", fmt.Errorf("refresh token is missing subject claims")
	}
	return userID, organizationID, nil
}
