// Package credentials stores deployment secrets in the system keyring:
// - macOS: Keychain
// - Windows: Credential Manager
// - Linux: Secret Service (libsecret)
//
// Two secrets are managed: the video provider API secret and the session
// token secret. Environment overrides (PARLEY_PROVIDER_SECRET,
// PARLEY_SESSION_SECRET) take precedence and are handled by the config
// loader; the keyring is the fallback for workstation use.
package credentials

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/parleyhq/parley/config"
)

// keyringService is the service name used in the system keyring.
const keyringService = "parley"

// Known secret names.
const (
	// ProviderSecret signs provider tokens and authenticates provider API calls.
	ProviderSecret = "provider-api-secret"
	// SessionSecret verifies inbound session tokens.
	SessionSecret = "session-secret"
)

// Names lists the managed secret names.
var Names = []string{ProviderSecret, SessionSecret}

// Common errors.
var (
	// ErrNotStored is returned when the requested secret is not in the keyring.
	ErrNotStored = errors.New("secret not stored")
	// ErrUnknownSecret is returned for secret names outside Names.
	ErrUnknownSecret = errors.New("unknown secret name")
	// ErrKeyringUnavailable indicates the system keyring is not available.
	ErrKeyringUnavailable = errors.New("system keyring unavailable")
)

// backend is the keyring surface used by the store. Tests substitute an
// in-memory implementation.
type backend interface {
	Get(service, user string) (string, error)
	Set(service, user, value string) error
	Delete(service, user string) error
}

type systemKeyring struct{}

func (systemKeyring) Get(service, user string) (string, error) { return keyring.Get(service, user) }
func (systemKeyring) Set(service, user, value string) error    { return keyring.Set(service, user, value) }
func (systemKeyring) Delete(service, user string) error        { return keyring.Delete(service, user) }

// Store manages secret storage in the system keyring.
type Store struct {
	service string
	ring    backend
}

// NewStore creates a store over the system keyring.
func NewStore() *Store {
	return &Store{service: keyringService, ring: systemKeyring{}}
}

func validName(name string) error {
	for _, n := range Names {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (known: %s)", ErrUnknownSecret, name, strings.Join(Names, ", "))
}

// Set stores a secret value under the given name.
func (s *Store) Set(name, value string) error {
	if err := validName(name); err != nil {
		return err
	}
	if value == "" {
		return errors.New("secret value must not be empty")
	}
	if err := s.ring.Set(s.service, name, value); err != nil {
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// Get retrieves a secret by name.
func (s *Store) Get(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	value, err := s.ring.Get(s.service, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrNotStored, name)
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

// Delete removes a secret from the keyring. Deleting an absent secret is not
// an error.
func (s *Store) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := s.ring.Delete(s.service, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// Apply fills secrets left empty by the config file and environment from the
// keyring. Absent keyring entries are skipped; config validation decides
// whether a missing secret is fatal.
func (s *Store) Apply(cfg *config.Config) error {
	if cfg.Provider.APISecret == "" {
		value, err := s.Get(ProviderSecret)
		if err != nil && !errors.Is(err, ErrNotStored) {
			return err
		}
		cfg.Provider.APISecret = value
	}
	if cfg.Server.SessionSecret == "" {
		value, err := s.Get(SessionSecret)
		if err != nil && !errors.Is(err, ErrNotStored) {
			return err
		}
		cfg.Server.SessionSecret = value
	}
	return nil
}

// Description returns a human-readable description of the storage mechanism.
func (s *Store) Description() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "System Keyring (Secret Service)"
	}
}
