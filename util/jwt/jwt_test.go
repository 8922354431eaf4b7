package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestIssue_ValidHS256Claims(t *testing.T) {
	tok, err := Issue("secret", 42, 1)
	require.NoError(t, err)

	parsed, err := jwt.Parse(tok, func(tk *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(jwt.MapClaims)
	require.Equal(t, float64(42), claims["sub"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	require.True(t, exp.After(time.Now()), "token must carry a future expiry")
}

func TestIssue_WrongSecretRejected(t *testing.T) {
	tok, err := Issue("secret", 42, 1)
	require.NoError(t, err)

	_, err = jwt.Parse(tok, func(tk *jwt.Token) (interface{}, error) {
		return []byte("other"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.Error(t, err)
}
