// Package credential holds the opaque session token issued by the
// legal-assistant service. The token is the only value that survives a
// process restart; it is mirrored to a single file under the config
// directory whenever set, and removed when cleared.
package credential

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const tokenFile = "token"

// Store is the single-writer register the API client reads a token from
// on every authenticated call. Durable-storage failures are non-fatal:
// the in-memory token always wins, file errors are only logged.
type Store struct {
	mu     sync.Mutex
	token  string
	path   string
	logger *slog.Logger
}

// NewStore creates a store backed by dir/token and loads any token
// persisted by a previous run. An empty dir disables persistence.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{logger: logger}
	if dir == "" {
		return s
	}
	s.path = filepath.Join(dir, tokenFile)
	if data, err := os.ReadFile(s.path); err == nil {
		s.token = strings.TrimSpace(string(data))
	}
	return s
}

// Token returns the current token, or "" when unauthenticated.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Set stores the token in memory and mirrors it to durable storage.
func (s *Store) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	if s.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		s.logger.Warn("cannot create credential directory", "error", err)
		return
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0600); err != nil {
		s.logger.Warn("cannot persist credential", "error", err)
	}
}

// Clear removes the token from memory and durable storage.
func (s *Store) Clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if s.path == "" {
		return
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("cannot remove persisted credential", "error", err)
	}
}
