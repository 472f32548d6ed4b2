//go:build darwin

package internal

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/keybase/go-keychain"
)

const (
	KeychainService = "daintree"
	KeychainAccount = "session-key"
)

// SetupKeychain generates a new secret and stores it in the login keychain,
// replacing any previous one.
func SetupKeychain() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	secret := hex.EncodeToString(key)

	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(KeychainService)
	item.SetAccount(KeychainAccount)
	item.SetLabel("Daintree Session Key")
	item.SetData([]byte(secret))
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlocked)

	_ = keychain.DeleteItem(item)

	if err := keychain.AddItem(item); err != nil {
		return "", fmt.Errorf("failed to save to keychain: %w", err)
	}
	return secret, nil
}

func getKeychainSecret() (string, error) {
	query := keychain.NewItem()
	query.SetSecClass(keychain.SecClassGenericPassword)
	query.SetService(KeychainService)
	query.SetAccount(KeychainAccount)
	query.SetMatchLimit(keychain.MatchLimitOne)
	query.SetReturnData(true)

	results, err := keychain.QueryItem(query)
	if err != nil {
		return "", err
	} else if len(results) != 1 {
		return "", fmt.Errorf("secret not found in keychain")
	}
	return string(results[0].Data), nil
}
