package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	token, err = BearerToken("bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = BearerToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = BearerToken("Basic dXNlcjpwYXNz")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = BearerToken("abc.def.ghi")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSubjectFromToken_Verified(t *testing.T) {
	token := signedToken(t, "secret-1", "user-1")

	sub, err := SubjectFromToken(token, "secret-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)

	_, err = SubjectFromToken(token, "wrong-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSubjectFromToken_Expired(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret-1"))
	require.NoError(t, err)

	_, err = SubjectFromToken(signed, "secret-1")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSubjectFromToken_UnverifiedMode(t *testing.T) {
	token := signedToken(t, "any-secret", "user-2")

	sub, err := SubjectFromToken(token, "")
	require.NoError(t, err)
	assert.Equal(t, "user-2", sub)
}

func TestSubjectFromToken_MissingSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("secret-1"))
	require.NoError(t, err)

	_, err = SubjectFromToken(signed, "secret-1")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
