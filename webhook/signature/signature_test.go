package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	t.Run("success - minimum size", func(t *testing.T) {
		secret, err := GenerateSecret(MinSecretBytes)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(secret, SecretPrefix))
	})

	t.Run("error - too small", func(t *testing.T) {
		_, err := GenerateSecret(MinSecretBytes - 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret size must be between")
	})

	t.Run("error - too large", func(t *testing.T) {
		_, err := GenerateSecret(MaxSecretBytes + 1)
		require.Error(t, err)
	})

	t.Run("randomness - generates different secrets", func(t *testing.T) {
		secret1, err1 := GenerateSecret(32)
		secret2, err2 := GenerateSecret(32)
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.NotEqual(t, secret1, secret2)
	})
}

func TestGenerate(t *testing.T) {
	payload := []byte(`{"event":"message.delivered","timestamp":"2024-01-01T12:00:00Z","data":{"messageId":"m-1"}}`)

	t.Run("matches hex HMAC-SHA256 with prefix", func(t *testing.T) {
		mac := hmac.New(sha256.New, []byte("topsecret"))
		mac.Write(payload)
		want := "sha256=" + hex.EncodeToString(mac.Sum(nil))

		assert.Equal(t, want, Generate(payload, "topsecret"))
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Generate(payload, "s"), Generate(payload, "s"))
	})

	t.Run("different secrets produce different signatures", func(t *testing.T) {
		assert.NotEqual(t, Generate(payload, "a"), Generate(payload, "b"))
	})
}

func TestVerify(t *testing.T) {
	payload := []byte(`{"event":"message.read","timestamp":"2024-01-01T12:00:00Z","data":{"status":"read"}}`)
	secret := "whsec_dGVzdC1zZWNyZXQtdmFsdWUtZm9yLXRlc3Rz"

	t.Run("valid signature", func(t *testing.T) {
		assert.True(t, Verify(payload, Generate(payload, secret), secret))
	})

	t.Run("bare hex accepted", func(t *testing.T) {
		sig := strings.TrimPrefix(Generate(payload, secret), Prefix)
		assert.True(t, Verify(payload, sig, secret))
	})

	t.Run("empty signature", func(t *testing.T) {
		assert.False(t, Verify(payload, "", secret))
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.False(t, Verify(payload, Generate(payload, secret), secret+"x"))
	})

	t.Run("any mutated payload byte fails", func(t *testing.T) {
		sig := Generate(payload, secret)
		for i := range payload {
			mutated := append([]byte(nil), payload...)
			mutated[i] ^= 0x01
			assert.False(t, Verify(mutated, sig, secret), "byte %d", i)
		}
	})

	t.Run("any mutated secret byte fails", func(t *testing.T) {
		sig := Generate(payload, secret)
		for i := range secret {
			mutated := []byte(secret)
			mutated[i] ^= 0x01
			assert.False(t, Verify(payload, sig, string(mutated)), "byte %d", i)
		}
	})

	t.Run("truncated signature fails", func(t *testing.T) {
		sig := Generate(payload, secret)
		assert.False(t, Verify(payload, sig[:len(sig)-1], secret))
	})
}
