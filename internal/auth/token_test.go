package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	token, err := tokens.Issue(17)
	require.NoError(t, err)

	userID, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(17), userID)
}

func TestTokens_Expired(t *testing.T) {
	// NewTokens replaces a non-positive ttl with the default.
	tokens := &Tokens{secret: []byte("secret"), ttl: -time.Minute}

	token, err := tokens.Issue(1)
	require.NoError(t, err)

	_, err = tokens.Parse(token)
	assert.Error(t, err)
}

func TestTokens_WrongSecret(t *testing.T) {
	token, err := NewTokens("a", time.Hour).Issue(1)
	require.NoError(t, err)

	_, err = NewTokens("b", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	uid, ok := UserIDFromContext(WithUserID(context.Background(), 9))
	assert.True(t, ok)
	assert.Equal(t, int64(9), uid)
}
