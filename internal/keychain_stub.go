//go:build !darwin

package internal

import "errors"

var errNoKeychain = errors.New("keychain integration is only supported on macOS")

// SetupKeychain is unavailable outside macOS.
func SetupKeychain() (string, error) {
	return "", errNoKeychain
}

func getKeychainSecret() (string, error) {
	return "", errNoKeychain
}
