package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

func TestVerify(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	users := map[string]string{"admin": hash}

	tests := []struct {
		name    string
		users   map[string]string
		creds   types.Credentials
		wantErr bool
	}{
		{"no users accepts anyone", nil, types.Credentials{User: "x"}, false},
		{"correct password", users, types.Credentials{User: "admin", Password: "secret"}, false},
		{"wrong password", users, types.Credentials{User: "admin", Password: "nope"}, true},
		{"unknown user", users, types.Credentials{User: "eve", Password: "secret"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.users, tt.creds)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrAuthenticationFailure)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, types.ErrAuthenticationFailure)
}
