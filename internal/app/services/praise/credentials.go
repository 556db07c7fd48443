package praise

import (
	"fmt"
	"strings"
	"sync"

	"github.com/glazehub/glazehub/internal/app/storage"
	"github.com/glazehub/glazehub/pkg/logger"
)

// Credentials holds the remote generator API key for the session and mirrors
// changes to an optional persistent store. Precedence at construction time:
// a previously persisted credential wins over the environment-supplied one.
type Credentials struct {
	mu    sync.RWMutex
	key   string
	store storage.CredentialStore
	log   *logger.Logger
}

// NewCredentials builds the credential holder. envKey is the value sourced
// from the environment and may be empty; store may be nil to disable
// persistence.
func NewCredentials(envKey string, store storage.CredentialStore, log *logger.Logger) *Credentials {
	if log == nil {
		log = logger.NewDefault("credentials")
	}
	c := &Credentials{
		key:   strings.TrimSpace(envKey),
		store: store,
		log:   log,
	}
	if store != nil {
		persisted, err := store.Load()
		if err != nil {
			log.WithError(err).Warn("load persisted credential")
		} else if persisted != "" {
			c.key = persisted
		}
	}
	return c
}

// APIKey returns the current credential, or "" when none is configured.
func (c *Credentials) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.key
}

// Masked returns a redacted credential for display: the first three and last
// four characters with the middle elided. Short keys are masked entirely.
func (c *Credentials) Masked() string {
	key := c.APIKey()
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:3] + "..." + key[len(key)-4:]
}

// Configured reports whether a credential is present.
func (c *Credentials) Configured() bool {
	return c.APIKey() != ""
}

// Set replaces the credential and persists it when a store is attached. An
// empty value clears both the session credential and the persisted one.
func (c *Credentials) Set(key string) error {
	key = strings.TrimSpace(key)

	c.mu.Lock()
	c.key = key
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(key); err != nil {
			return fmt.Errorf("persist credential: %w", err)
		}
	}
	return nil
}
