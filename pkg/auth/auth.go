// Package auth hashes and checks flow API keys.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidAPIKey is returned when a presented key does not match.
var ErrInvalidAPIKey = errors.New("invalid api key")

const keyBytes = 32

// GenerateAPIKey returns a new random key and its bcrypt hash.
func GenerateAPIKey() (key, hash string, err error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate api key: %w", err)
	}

	key = base64.RawURLEncoding.EncodeToString(buf)

	hash, err = HashAPIKey(key)
	if err != nil {
		return "", "", err
	}

	return key, hash, nil
}

// HashAPIKey returns the bcrypt hash stored in place of key.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %w", err)
	}

	return string(hash), nil
}

// VerifyAPIKey checks key against hash. An empty hash accepts any key.
func VerifyAPIKey(hash, key string) error {
	if hash == "" {
		return nil
	}

	if key == "" {
		return ErrInvalidAPIKey
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return ErrInvalidAPIKey
	}

	return nil
}
