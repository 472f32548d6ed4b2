package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "1234567890ABCDEF1234567890ABCDEF"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plain := []byte(`{"accessKeyId":"AKIA"}`)

	sealed, err := Encrypt(plain, []byte(testKey))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "AKIA")

	opened, err := Decrypt(sealed, []byte(testKey))
	require.NoError(t, err)
	assert.Equal(t, plain, opened)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	sealed, err := Encrypt([]byte("secret"), []byte(testKey))
	require.NoError(t, err)

	_, err = Decrypt(sealed, []byte("TOTAL_DIFFERENT_KEY_1234567890AB"))
	assert.Error(t, err)
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	a, _ := Encrypt([]byte("same"), []byte(testKey))
	b, _ := Encrypt([]byte("same"), []byte(testKey))
	assert.NotEqual(t, a, b)
}

func TestDecryptCorruptInput(t *testing.T) {
	_, err := Decrypt([]byte("foo"), []byte(testKey))
	assert.EqualError(t, err, "cipher too short")

	sealed, _ := Encrypt([]byte("message"), []byte(testKey))
	sealed[len(sealed)-1] ^= 0x01
	_, err = Decrypt(sealed, []byte(testKey))
	assert.Error(t, err)
}

func TestShortKeyRejected(t *testing.T) {
	_, err := Encrypt([]byte("x"), []byte("short"))
	assert.EqualError(t, err, "encryption key must be at least 32 bytes")
	_, err = Decrypt([]byte("xxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"), []byte("short"))
	assert.Error(t, err)
}
