package secrets

import (
	"context"
	"sync"
)

// Keys read at startup.
const (
	KeyDatabasePassword = "db-password"
)

// Manager provides access to secrets from various sources
type Manager interface {
	// GetSecret retrieves a secret by key
	GetSecret(ctx context.Context, key string) (string, error)

	// GetSecretWithDefault retrieves a secret with a default value if not found
	GetSecretWithDefault(ctx context.Context, key, defaultValue string) string
}

var (
	defaultManager Manager
	managerMu      sync.RWMutex
)

// GetSecretWithDefault retrieves a secret from the default manager, or
// returns defaultValue when no manager is set.
func GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	managerMu.RLock()
	m := defaultManager
	managerMu.RUnlock()

	if m == nil {
		return defaultValue
	}
	return m.GetSecretWithDefault(ctx, key, defaultValue)
}

// SetManager replaces the default secrets manager.
func SetManager(manager Manager) {
	managerMu.Lock()
	defer managerMu.Unlock()
	defaultManager = manager
}
