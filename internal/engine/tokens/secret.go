package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

const (
	// SecretPrefix is the literal marker distinguishing a PAT from a session
	// credential in a bearer string, without touching storage.
	SecretPrefix = "pat_"

	secretBodyLength    = 32
	displayPrefixLength = 8

	secretCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateSecret returns a fresh plaintext PAT secret,
// e.g. pat_7x9K2mN4pQ8vR1wS3jL6hB5cF0dG9zA1.
func GenerateSecret() (string, error) {
	var b strings.Builder
	b.WriteString(SecretPrefix)
	max := big.NewInt(int64(len(secretCharset)))
	for i := 0; i < secretBodyLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate secret: %w", err)
		}
		b.WriteByte(secretCharset[n.Int64()])
	}
	return b.String(), nil
}

// HashSecret computes the SHA-256 hex digest of the full plaintext, prefix
// included. Deterministic on purpose: validation is a point lookup by hash,
// and the secret carries enough entropy that salting buys nothing.
func HashSecret(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// DisplayPrefix returns the non-secret leading portion stored for
// identification: "pat_" plus the first 8 characters of the body.
func DisplayPrefix(secret string) (string, error) {
	if !strings.HasPrefix(secret, SecretPrefix) {
		return "", fmt.Errorf("%w: missing %q prefix", ErrInvalidToken, SecretPrefix)
	}
	if len(secret) < len(SecretPrefix)+displayPrefixLength {
		return "", fmt.Errorf("%w: too short", ErrInvalidToken)
	}
	return secret[:len(SecretPrefix)+displayPrefixLength], nil
}

// IsPAT reports whether a bearer string looks like a PAT rather than a
// session credential.
func IsPAT(bearer string) bool {
	return strings.HasPrefix(bearer, SecretPrefix)
}

// ValidFormat checks the shape of a presented secret before hashing it.
func ValidFormat(secret string) bool {
	if !strings.HasPrefix(secret, SecretPrefix) {
		return false
	}
	body := secret[len(SecretPrefix):]
	if len(body) != secretBodyLength {
		return false
	}
	for i := 0; i < len(body); i++ {
		if !strings.ContainsRune(secretCharset, rune(body[i])) {
			return false
		}
	}
	return true
}
