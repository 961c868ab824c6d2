package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestGenerateSessionToken(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		username  string
		wantErr   bool
	}{
		{
			name:      "Valid token generation",
			sessionID: "3f1a8a52-7a1b-4d0e-9f77-1c5b2b1f0c11",
			username:  "kim",
			wantErr:   false,
		},
		{
			name:      "Korean username",
			sessionID: "sid-2",
			username:  "김철수",
			wantErr:   false,
		},
		{
			name:      "Missing session id",
			sessionID: "",
			username:  "kim",
			wantErr:   true,
		},
		{
			name:      "Missing username",
			sessionID: "sid-3",
			username:  "",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateSessionToken(tt.sessionID, tt.username, testSecret, 15*time.Minute)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, token)
		})
	}
}

func TestValidateToken(t *testing.T) {
	token, err := GenerateSessionToken("sid-1", "kim", testSecret, 15*time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{
			name:    "Valid token",
			token:   token,
			secret:  testSecret,
			wantErr: nil,
		},
		{
			name:    "Invalid secret",
			token:   token,
			secret:  "wrong-secret",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "Invalid token format",
			token:   "invalid.token.format",
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "Empty token",
			token:   "",
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, claims)
			assert.Equal(t, "sid-1", claims.SessionID)
			assert.Equal(t, "kim", claims.Username)
			assert.True(t, claims.IssuedAt.Before(claims.ExpiresAt.Time))
		})
	}
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateSessionToken("sid-1", "kim", testSecret, -time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}
