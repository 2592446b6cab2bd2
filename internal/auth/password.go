package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. A malformed hash is
// an error; a wrong password is not.
func CheckPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("compare password: %w", err)
}

// decoyHash is a hash of a random secret nobody knows, at the same cost as
// real staff hashes.
var decoyHash = sync.OnceValue(func() []byte {
	secret := make([]byte, 32)
	rand.Read(secret)
	hash, _ := bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
	return hash
})

// DecoyCheck spends the time of a bcrypt comparison without an account to
// compare against, so a login for an unknown CPF takes as long as a wrong
// password.
func DecoyCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(decoyHash(), []byte(password))
}
