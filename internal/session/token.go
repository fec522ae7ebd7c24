package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the device token reveals about itself. The token is
// opaque to us for authentication purposes (the backend validates it),
// but its claims are useful for diagnostics: which device and
// organization it was minted for, and when it expires.
type TokenInfo struct {
	DeviceID       string
	OrganizationID string
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

// InspectToken decodes the device token's claims without verifying the
// signature. Never use this for authorization decisions; the signing
// key lives on the backend.
func InspectToken(token string) (*TokenInfo, error) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing device token: %w", err)
	}

	info := &TokenInfo{}
	if v, ok := claims["deviceId"].(string); ok {
		info.DeviceID = v
	}
	if v, ok := claims["organizationId"].(string); ok {
		info.OrganizationID = v
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		info.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
