package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateResetToken returns a random hex token for password resets
func GenerateResetToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
