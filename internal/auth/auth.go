// Package auth verifies login credentials against bcrypt password hashes.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/arbor/pkg/types"
)

// HashPassword returns a bcrypt hash suitable for Config.Users.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", types.ErrAuthenticationFailure)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify checks creds against users (name to bcrypt hash). With no users
// configured every login is accepted.
func Verify(users map[string]string, creds types.Credentials) error {
	if len(users) == 0 {
		return nil
	}
	hash, ok := users[creds.User]
	if !ok {
		return fmt.Errorf("%w: unknown user %q", types.ErrAuthenticationFailure, creds.User)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(creds.Password)) != nil {
		return fmt.Errorf("%w: bad password for %q", types.ErrAuthenticationFailure, creds.User)
	}
	return nil
}
