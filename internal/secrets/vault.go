// Package secrets holds credentials that can be rotated without a restart.
package secrets

import (
	"fmt"
	"sync"
)

// Loader returns the current secret values.
type Loader func() (map[string]string, error)

// Vault caches the values of a Loader. Reload swaps them atomically.
type Vault struct {
	mu     sync.RWMutex
	values map[string]string
	loader Loader
}

// NewVault calls loader once and fails if it does.
func NewVault(loader Loader) (*Vault, error) {
	vals, err := loader()
	if err != nil {
		return nil, fmt.Errorf("initial secret load: %w", err)
	}
	return &Vault{values: vals, loader: loader}, nil
}

// Get returns the value of key, or "".
func (v *Vault) Get(key string) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.values[key]
}

// Source returns a getter bound to key that always reads the latest value.
func (v *Vault) Source(key string) func() string {
	return func() string { return v.Get(key) }
}

// Reload fetches fresh values. On error the previous values stay.
func (v *Vault) Reload() error {
	vals, err := v.loader()
	if err != nil {
		return fmt.Errorf("reload secrets: %w", err)
	}
	v.mu.Lock()
	v.values = vals
	v.mu.Unlock()
	return nil
}
