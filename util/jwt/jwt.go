package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issue mints the HS256 session token the /v1 group consumes. Session
// issuance itself lives in the auth service; this helper exists for
// tests that need a valid caller identity. Verification is handled by
// the echo-jwt middleware.
func Issue(secret string, userID int64, ttlHours int) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Duration(ttlHours) * time.Hour).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}
