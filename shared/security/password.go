package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/matthewhartstonge/argon2"
)

// HashPassword hashes a plaintext password using argon2id with a random salt.
// The returned digest is self-describing and safe to persist.
func HashPassword(password string) (string, error) {
	cfg := argon2.DefaultConfig()

	encoded, err := cfg.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether the plaintext password matches the digest.
// Comparison is constant-time.
func VerifyPassword(password, digest string) (bool, error) {
	return argon2.VerifyEncoded([]byte(password), []byte(digest))
}

// HashToken computes the hex-encoded SHA-256 digest of an opaque token.
// Recovery tokens are persisted only in this form.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
