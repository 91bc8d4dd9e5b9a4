package signature

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// Prefix is prepended to the hex digest in the X-Webhook-Signature header
	Prefix = "sha256="

	// SecretPrefix marks secrets produced by GenerateSecret
	SecretPrefix = "whsec_"

	// MinSecretBytes is the minimum recommended secret size (192 bits)
	MinSecretBytes = 24

	// MaxSecretBytes is the maximum recommended secret size (512 bits)
	MaxSecretBytes = 64
)

// GenerateSecret creates a new random signing secret between MinSecretBytes and MaxSecretBytes in size.
// The secret is used as-is (prefix included) as the HMAC key.
func GenerateSecret(size int) (string, error) {
	if size < MinSecretBytes || size > MaxSecretBytes {
		return "", fmt.Errorf("secret size must be between %d and %d bytes", MinSecretBytes, MaxSecretBytes)
	}

	bytes := make([]byte, size)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}

	return SecretPrefix + base64.StdEncoding.EncodeToString(bytes), nil
}

// Generate returns "sha256=" + hex(HMAC-SHA256(payload, secret))
func Generate(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return Prefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature of payload and compares it in constant time.
// Both the prefixed and the bare hex form of signature are accepted.
func Verify(payload []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	if !strings.HasPrefix(signature, Prefix) {
		signature = Prefix + signature
	}

	expected := Generate(payload, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
