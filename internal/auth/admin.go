package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned for a failed admin login. The caller gets
// no detail about which part was wrong.
var ErrBadCredentials = errors.New("invalid credentials")

// Admin is the single operator account allowed to reset memory and query
// benchmarks. The password is stored bcrypt-hashed; cmd/genkey produces the
// hash.
type Admin struct {
	Username     string
	PasswordHash string
}

// CheckPassword verifies a login attempt.
func (a *Admin) CheckPassword(username, password string) error {
	if a.Username == "" || username != a.Username {
		return ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return ErrBadCredentials
	}
	return nil
}

// HashPassword bcrypt-hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
