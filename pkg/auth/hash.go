package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const tokenBytes = 32

type HashServiceInterface interface {
	NewToken() (string, error)
	Hash(secret string) (string, error)
	Compare(hashed, secret string) bool
}

// HashService issues and checks one-time secrets such as password reset
// tokens. Only the bcrypt hash is ever persisted.
type HashService struct{}

func (b *HashService) NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (b *HashService) Hash(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("secret cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (b *HashService) Compare(hashed, secret string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(secret))
	return err == nil
}
