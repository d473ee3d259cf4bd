package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestAuthService_IssueAndValidate(t *testing.T) {
	svc := NewAuthService(testSecret)

	token, err := svc.IssueToken("uploader-1", RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "uploader-1", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestAuthService_ExpiredToken(t *testing.T) {
	svc := NewAuthService(testSecret).(*authService)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := svc.IssueToken("u", RoleAdmin, time.Hour)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestAuthService_WrongSecret(t *testing.T) {
	token, err := NewAuthService("another-secret-another-secret-xx").IssueToken("u", RoleAdmin, time.Hour)
	require.NoError(t, err)

	_, err = NewAuthService(testSecret).ValidateToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_RejectsNoneAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewAuthService(testSecret).ValidateToken(signed)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Garbage(t *testing.T) {
	_, err := NewAuthService(testSecret).ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
