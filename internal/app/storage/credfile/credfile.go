// Package credfile persists the remote generator credential in a local file,
// the server-side analog of the browser localStorage key the demo originally
// used. The file holds nothing but the credential string.
package credfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/glazehub/glazehub/internal/app/storage"
)

const defaultFileName = "credential"

// Store reads and writes the credential file.
type Store struct {
	mu   sync.Mutex
	path string
}

var _ storage.CredentialStore = (*Store)(nil)

// New creates a credential store at path. An empty path falls back to
// $XDG_CONFIG_HOME/glazehub/credential (or the OS equivalent).
func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "glazehub", defaultFileName)
	}
	return &Store{path: path}, nil
}

// Load returns the persisted credential, or "" when none has been saved.
func (s *Store) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read credential file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the credential with owner-only permissions. Saving an empty
// credential removes the file.
func (s *Store) Save(credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	credential = strings.TrimSpace(credential)
	if credential == "" {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove credential file: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(credential+"\n"), 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	return nil
}
