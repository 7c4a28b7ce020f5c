package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)

	return New(Config{
		Username:     "admin",
		PasswordHash: hash,
		Secret:       "jwt-secret",
		TokenTTL:     time.Hour,
	})
}

func TestService_LoginAndParse(t *testing.T) {
	s := newTestService(t)

	tok, err := s.Login("admin", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, tok.Token)

	claims, err := s.Parse(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	s := newTestService(t)

	_, err := s.Login("admin", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login("root", "s3cret")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_LoginNotConfigured(t *testing.T) {
	_, err := New(Config{}).Login("admin", "x")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestService_ParseRejectsExpired(t *testing.T) {
	s := newTestService(t)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	tok, err := s.Login("admin", "s3cret")
	require.NoError(t, err)

	s.now = time.Now
	_, err = s.Parse(tok.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ParseRejectsOtherSecretAndAlg(t *testing.T) {
	s := newTestService(t)

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: RoleAdmin}).SignedString([]byte("other"))
	require.NoError(t, err)
	_, err = s.Parse(other)
	require.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Parse(none)
	require.ErrorIs(t, err, ErrInvalidToken)
}
