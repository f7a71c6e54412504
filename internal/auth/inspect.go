package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// TokenInfo is what the console can tell about a token without the secret.
type TokenInfo struct {
	Subject   string
	Admin     bool
	ExpiresAt time.Time
	Expired   bool
}

// Inspect decodes a token without verifying its signature.
func Inspect(token string, now time.Time) (TokenInfo, error) {
	claims := &Claims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("failed to decode token: %w", err)
	}
	info := TokenInfo{Subject: claims.Subject, Admin: claims.Admin}
	if claims.ExpiresAt != 0 {
		info.ExpiresAt = time.Unix(claims.ExpiresAt, 0)
		info.Expired = !now.Before(info.ExpiresAt)
	}
	return info, nil
}
