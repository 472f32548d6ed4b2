package internal

import (
	"errors"
	"fmt"
	"os"
	"runtime"
)

// SecretEnv names the environment variable holding the session secret.
const SecretEnv = "DAINTREE_SECRET"

// MinSecretLength is the shortest accepted session secret.
const MinSecretLength = 32

var ErrNoSecret = errors.New("no secret found")

// GetSecret resolves the session encryption secret, in priority order:
//  1. explicit flag value
//  2. DAINTREE_SECRET
//  3. the system keychain (macOS only)
func GetSecret(explicitSecret string) (string, error) {
	secret := explicitSecret
	if secret == "" {
		secret = os.Getenv(SecretEnv)
	}
	if secret == "" {
		s, err := getKeychainSecret()
		if err != nil {
			return "", fmt.Errorf("%w: set --secret, %s or run 'daintree secret init': %v", ErrNoSecret, SecretEnv, err)
		}
		secret = s
	}
	if len(secret) < MinSecretLength {
		return "", fmt.Errorf("secret must be at least %d characters", MinSecretLength)
	}
	return secret, nil
}

// KeychainSupported reports whether the secret can live in the system
// keychain.
func KeychainSupported() bool {
	return runtime.GOOS == "darwin"
}
