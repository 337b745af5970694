package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// TokenPrefix marks opaque session tokens issued by the identity providers.
const TokenPrefix = "dwh_"

// GenerateToken creates a new opaque session token with the "dwh_" prefix
// followed by 43 URL-safe random characters. It returns the plaintext token
// and its hash; only the hash is ever stored.
func GenerateToken() (plaintext, hash string, err error) {
	b := make([]byte, 32) // 32 bytes -> 43 base64url chars
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	plaintext = TokenPrefix + base64.RawURLEncoding.EncodeToString(b)
	return plaintext, HashKey(plaintext), nil
}

// HashKey returns the hex-encoded SHA-256 hash of the given plaintext key.
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

// KeyMatches reports whether presented equals want, in constant time.
func KeyMatches(presented, want string) bool {
	if want == "" {
		return false
	}
	a := sha256.Sum256([]byte(presented))
	b := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
