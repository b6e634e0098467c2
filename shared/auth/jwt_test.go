package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenIssuer_MissingSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenIssuer("", "unilib-api", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("super-secret", "unilib-api", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("user-123")
	require.NoError(t, err)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("super-secret", "unilib-api", -time.Second)
	require.NoError(t, err)

	token, err := issuer.Issue("user-123")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("right-secret", "unilib-api", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("wrong-secret", "unilib-api", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("user-123")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_WrongIssuer(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("super-secret", "unilib-api", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("super-secret", "someone-else", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue("user-123")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("super-secret", "unilib-api", time.Hour)
	require.NoError(t, err)

	for _, token := range []string{"", "not.a.jwt", "garbage"} {
		_, err := issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
