package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	hashService := &HashService{}

	tests := []struct {
		name        string
		secret      string
		expectError bool
	}{
		{
			name:   "Valid Secret",
			secret: "9f86d081884c7d65",
		},
		{
			name:        "Empty Secret",
			secret:      "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashed, err := hashService.Hash(tt.secret)

			if tt.expectError {
				assert.Error(t, err)
				assert.Empty(t, hashed)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, hashed)
				assert.NotEqual(t, tt.secret, hashed)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	hashService := &HashService{}
	hashed, err := hashService.Hash("reset-token")
	require.NoError(t, err)

	tests := []struct {
		name        string
		secret      string
		expectMatch bool
	}{
		{name: "Matching Secret", secret: "reset-token", expectMatch: true},
		{name: "Non-Matching Secret", secret: "other-token", expectMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectMatch, hashService.Compare(hashed, tt.secret))
		})
	}
}

func TestNewToken(t *testing.T) {
	hashService := &HashService{}

	a, err := hashService.NewToken()
	require.NoError(t, err)
	b, err := hashService.NewToken()
	require.NoError(t, err)

	assert.Len(t, a, 2*tokenBytes)
	assert.NotEqual(t, a, b)
}
