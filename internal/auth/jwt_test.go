package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndValidateRoundtrip(t *testing.T) {
	validator := NewValidator("secret")

	token, err := validator.Sign("alice", time.Hour)
	require.NoError(t, err)

	name, err := validator.DisplayName(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", name)
}

func TestWrongSecretIsRejected(t *testing.T) {
	token, err := NewValidator("secret-a").Sign("alice", time.Hour)
	require.NoError(t, err)

	_, err = NewValidator("secret-b").DisplayName(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	validator := NewValidator("secret")
	token, err := validator.Sign("alice", -time.Minute)
	require.NoError(t, err)

	_, err = validator.DisplayName(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGarbageTokenIsRejected(t *testing.T) {
	_, err := NewValidator("secret").DisplayName("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
