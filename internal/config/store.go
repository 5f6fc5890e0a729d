package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

// KeyringService groups this app's secrets in the OS keychain.
const KeyringService = "hireloop"

// SettingsRepository is the minimal DB surface for secret persistence.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SaveSetting(ctx context.Context, key string, value string) error
}

// Secrets resolves API keys from, in order: the OS keyring, the
// environment (HIRELOOP_<NAME>), and the settings table where values are
// kept encrypted at rest.
type Secrets struct {
	mu     sync.Mutex
	logger *slog.Logger
	secret *SecretKey
	repo   SettingsRepository
}

func NewSecrets(logger *slog.Logger, repo SettingsRepository, secret *SecretKey) *Secrets {
	return &Secrets{logger: logger, secret: secret, repo: repo}
}

// Get returns the named secret, or "" when it is set nowhere.
func (s *Secrets) Get(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return "", fmt.Errorf("secret name is empty")
	}

	if v, err := keyring.Get(KeyringService, name); err == nil && strings.TrimSpace(v) != "" {
		return v, nil
	}

	if v := os.Getenv(envName(name)); strings.TrimSpace(v) != "" {
		return v, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.repo.GetSetting(ctx, settingKey(name))
	if err != nil {
		return "", fmt.Errorf("load secret %s: %w", name, err)
	}
	if stored == "" {
		return "", nil
	}

	plain, err := s.secret.Decrypt(stored)
	if err != nil {
		return "", fmt.Errorf("decrypt secret %s: %w", name, err)
	}
	return plain, nil
}

// Set stores the secret encrypted in the settings table and mirrors it to
// the keyring when one is available.
func (s *Secrets) Set(ctx context.Context, name, value string) error {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return fmt.Errorf("secret name is empty")
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("secret value is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	enc, err := s.secret.Encrypt(value)
	if err != nil {
		return fmt.Errorf("encrypt secret %s: %w", name, err)
	}
	if err := s.repo.SaveSetting(ctx, settingKey(name), enc); err != nil {
		return fmt.Errorf("save secret %s: %w", name, err)
	}

	// Headless hosts have no keyring; the settings copy is authoritative.
	if err := keyring.Set(KeyringService, name, value); err != nil {
		s.logger.Debug("keyring unavailable, secret kept in settings only",
			"name", name, "error", err)
	}
	return nil
}

func settingKey(name string) string { return "secret." + name }

func envName(name string) string {
	return "HIRELOOP_" + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
}
