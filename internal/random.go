package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

const minResetTokenBytes = 16

var errResetTokenSize = errors.New("reset token must carry at least 16 random bytes")

// NewResetToken returns a hex-encoded token of n random bytes and the hash
// to persist. Only the hash is stored; the raw token goes to the user.
func NewResetToken(n int) (token, hash string, err error) {
	if n < minResetTokenBytes {
		return "", "", errResetTokenSize
	}
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(raw)
	return token, HashResetToken(token), nil
}

// HashResetToken is the lookup key for a presented reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// EqualHash compares two token hashes in constant time.
func EqualHash(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
