package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("test-secret")

	token, err := m.Issue("usr_123", "a@b.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "usr_123", claims.Subject)
	assert.Equal(t, "a@b.com", claims.Email)
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := NewManager("secret-one").Issue("usr_123", "a@b.com")
	require.NoError(t, err)

	_, err = NewManager("secret-two").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyGarbage(t *testing.T) {
	_, err := NewManager("secret").Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
