package config

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// KeyringService is the service name secrets are stored under.
const KeyringService = "azdo-mcp"

// ErrSecretNotFound is returned by a SecretSource that has no entry for a key.
var ErrSecretNotFound = errors.New("secret not found")

// SecretSource resolves secrets (pat, ntlm_password) by key.
type SecretSource interface {
	Secret(key string) (string, error)
}

// KeyringSource reads secrets from the operating system keyring.
type KeyringSource struct {
	service string
	open    func(keyring.Config) (keyring.Keyring, error)
}

// NewKeyringSource creates a KeyringSource for the given service name.
func NewKeyringSource(service string) *KeyringSource {
	return &KeyringSource{service: service, open: keyring.Open}
}

// Secret returns the value stored for key, or ErrSecretNotFound.
func (s *KeyringSource) Secret(key string) (string, error) {
	ring, err := s.open(keyring.Config{
		ServiceName: s.service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
		},
		KeychainTrustApplication: true,
	})
	if err != nil {
		return "", fmt.Errorf("opening keyring: %w", err)
	}

	item, err := ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}
