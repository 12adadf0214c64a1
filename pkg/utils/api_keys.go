package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

const (
	apiKeyPrefix     = "pb_"
	apiKeyBytes      = 24
	apiKeyShownChars = 8
)

// GenerateRandomKey returns length random bytes, URL-safe encoded.
func GenerateRandomKey(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewAPIKey returns a fresh key, the prefix shown to its owner afterwards and
// the hash that is stored.
func NewAPIKey() (key, prefix, hash string, err error) {
	secret, err := GenerateRandomKey(apiKeyBytes)
	if err != nil {
		return "", "", "", err
	}
	key = apiKeyPrefix + secret
	return key, key[:len(apiKeyPrefix)+apiKeyShownChars], HashAPIKey(key), nil
}

func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
