package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken creates a SHA-256 hash of a token.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// Fingerprint returns a short hash prefix safe to log in place of a token.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return HashToken(token)[:12]
}
