package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"go.uber.org/multierr"
)

// Keyring stores values in the OS keychain with an optional file fallback.
// Fallback is intended for environments where no system keyring is
// available (headless Linux without a secret service, CI).
type Keyring struct {
	service      string
	fallbackPath string
	mu           sync.Mutex
}

// NewKeyring creates a keyring backend.
func NewKeyring(serviceName, fallbackPath string) *Keyring {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = "dodepa"
	}
	return &Keyring{
		service:      serviceName,
		fallbackPath: fallbackPath,
	}
}

// Values are base64 encoded: keychains store strings, saves are bytes.

func (k *Keyring) Get(_ context.Context, key string) ([]byte, error) {
	val, err := keyring.Get(k.service, key)
	if err == nil {
		return decodeSecret(val)
	}
	if !isKeyringUnavailable(err) && !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("store: keyring get %s: %w", key, err)
	}

	fallback, ferr := k.getFallback(key)
	if ferr == nil {
		return decodeSecret(fallback)
	}
	if errors.Is(ferr, ErrNotFound) || errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	return nil, ferr
}

func (k *Keyring) Set(_ context.Context, key string, value []byte) error {
	encoded := base64.StdEncoding.EncodeToString(value)
	if err := keyring.Set(k.service, key, encoded); err == nil {
		return nil
	} else if !isKeyringUnavailable(err) {
		return fmt.Errorf("store: keyring set %s: %w", key, err)
	}
	return k.setFallback(key, encoded)
}

// Delete removes key from both the keychain and the fallback file.
func (k *Keyring) Delete(_ context.Context, key string) error {
	var errs error
	if err := keyring.Delete(k.service, key); err != nil &&
		!errors.Is(err, keyring.ErrNotFound) && !isKeyringUnavailable(err) {
		errs = multierr.Append(errs, fmt.Errorf("store: keyring delete %s: %w", key, err))
	}
	errs = multierr.Append(errs, k.deleteFallback(key))
	return errs
}

func (k *Keyring) Close() error { return nil }

func decodeSecret(val string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return nil, fmt.Errorf("store: decode keyring value: %w", err)
	}
	return raw, nil
}

func isKeyringUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "secret service") ||
		strings.Contains(msg, "dbus") ||
		strings.Contains(msg, "the specified item could not be found in the keychain") ||
		strings.Contains(msg, "no keychain") ||
		strings.Contains(msg, "keyring backend not available")
}

type fallbackValues map[string]string

func (k *Keyring) setFallback(key, value string) error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return fmt.Errorf("store: keyring unavailable and no fallback path configured")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	data[key] = value
	return k.writeFallbackUnlocked(data)
}

func (k *Keyring) getFallback(key string) (string, error) {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return "", fmt.Errorf("store: fallback path not configured")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return "", err
	}
	val, ok := data[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (k *Keyring) deleteFallback(key string) error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return k.writeFallbackUnlocked(data)
}

func (k *Keyring) readFallbackUnlocked() (fallbackValues, error) {
	out := fallbackValues{}
	raw, err := os.ReadFile(k.fallbackPath)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("store: read fallback values: %w", err)
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("store: decode fallback values: %w", err)
	}
	return out, nil
}

func (k *Keyring) writeFallbackUnlocked(data fallbackValues) error {
	dir := filepath.Dir(k.fallbackPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("store: mkdir fallback dir: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("store: encode fallback values: %w", err)
	}
	if err := os.WriteFile(k.fallbackPath, raw, 0o600); err != nil {
		return fmt.Errorf("store: write fallback values: %w", err)
	}
	return nil
}
