package internal

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var sessionPath = filepath.Join(os.Getenv("HOME"), ".daintree", "session.json")

// ErrNoSession is returned by LoadSession when nothing is stored.
var ErrNoSession = errors.New("no stored session")

// SessionFile persists SessionData encrypted with a local secret.
type SessionFile struct {
	Path   string
	Secret string
}

// NewSessionFile returns a SessionFile at the default location.
func NewSessionFile(secret string) *SessionFile {
	return &SessionFile{Path: sessionPath, Secret: secret}
}

// Save encrypts and writes data. The identity fields and the route after
// login stay readable so `daintree whoami` can show who is logged in
// without the secret; every credential is sealed. Data without credentials
// or roles is written without a sealed part.
func (f *SessionFile) Save(data SessionData) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}

	stored := map[string]any{
		"userArn":     data.UserArn,
		"accountId":   data.AccountID,
		"loginMethod": data.LoginMethod,
		"currentRole": data.CurrentRole,
	}
	if data.RouteAfterLogin != "" {
		stored["routeAfterLogin"] = data.RouteAfterLogin
	}
	if data.Credentials != nil || len(data.Roles) > 0 {
		secrets := struct {
			Credentials *Credentials `json:"credentials,omitempty"`
			Roles       []Role       `json:"roles,omitempty"`
		}{data.Credentials, data.Roles}
		plain, err := json.Marshal(secrets)
		if err != nil {
			return err
		}
		sealed, err := Encrypt(plain, []byte(f.Secret))
		if err != nil {
			return fmt.Errorf("failed to encrypt session: %w", err)
		}
		stored["sealed"] = base64.StdEncoding.EncodeToString(sealed)
	}
	b, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0o600)
}

// Load reads and decrypts the stored session.
func (f *SessionFile) Load() (SessionData, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return SessionData{}, ErrNoSession
	}
	if err != nil {
		return SessionData{}, err
	}

	var stored struct {
		UserArn     string      `json:"userArn"`
		AccountID   string      `json:"accountId"`
		LoginMethod LoginMethod `json:"loginMethod"`
		CurrentRole int         `json:"currentRole"`
		Route       string      `json:"routeAfterLogin"`
		Sealed      string      `json:"sealed"`
	}
	if err := json.Unmarshal(b, &stored); err != nil {
		return SessionData{}, fmt.Errorf("failed to parse session: %w", err)
	}

	data := SessionData{
		UserArn:         stored.UserArn,
		AccountID:       stored.AccountID,
		LoginMethod:     stored.LoginMethod,
		CurrentRole:     stored.CurrentRole,
		RouteAfterLogin: stored.Route,
	}
	if stored.Sealed == "" {
		return data, nil
	}

	sealed, err := base64.StdEncoding.DecodeString(stored.Sealed)
	if err != nil {
		return SessionData{}, fmt.Errorf("failed to decode session: %w", err)
	}
	plain, err := Decrypt(sealed, []byte(f.Secret))
	if err != nil {
		return SessionData{}, fmt.Errorf("failed to decrypt session (wrong secret?): %w", err)
	}
	var secrets struct {
		Credentials *Credentials `json:"credentials"`
		Roles       []Role       `json:"roles"`
	}
	if err := json.Unmarshal(plain, &secrets); err != nil {
		return SessionData{}, fmt.Errorf("failed to parse session secrets: %w", err)
	}
	data.Credentials = secrets.Credentials
	data.Roles = secrets.Roles
	return data, nil
}

// Clear removes the stored session. A missing file is not an error.
func (f *SessionFile) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
