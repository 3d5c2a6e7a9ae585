package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateSecureToken returns nBytes of crypto/rand entropy, base64url encoded without padding.
// The result is safe to place in a query string unescaped.
func GenerateSecureToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", nBytes)
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
