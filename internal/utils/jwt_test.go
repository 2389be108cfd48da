package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	ident := Identity{ID: uuid.New(), UserName: "alice", Email: "alice@example.com", RoleType: "admin"}

	token, err := GenerateToken("secret", ident, AccessToken, time.Minute)
	require.NoError(t, err)

	got, err := ParseToken("secret", token, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, ident, got)
}

func TestParseTokenRejects(t *testing.T) {
	ident := Identity{ID: uuid.New(), UserName: "bob", RoleType: "customer"}

	access, err := GenerateToken("secret", ident, AccessToken, time.Minute)
	require.NoError(t, err)
	expired, err := GenerateToken("secret", ident, AccessToken, -time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name   string
		secret string
		token  string
		kind   string
	}{
		{name: "wrong secret", secret: "other", token: access, kind: AccessToken},
		{name: "wrong kind", secret: "secret", token: access, kind: RefreshToken},
		{name: "expired", secret: "secret", token: expired, kind: AccessToken},
		{name: "garbage", secret: "secret", token: "not-a-token", kind: AccessToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.secret, tt.token, tt.kind)
			assert.Error(t, err)
		})
	}
}
