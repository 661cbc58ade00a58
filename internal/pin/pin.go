// Package pin implements the shared-secret gate guarding all mutating and
// listing API operations.
package pin

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
)

// Header carries the credential on gated requests.
const Header = "X-PIN"

// Secret is the process-wide shared PIN with write-through persistence.
// An empty value means locked, not open: every gated request is rejected
// until a first-time set configures it.
type Secret struct {
	path string

	mu  sync.RWMutex
	val string
}

// Load reads the secret from path. If the file does not exist and seed is
// non-empty, the seed becomes the secret and is persisted immediately.
// Missing both leaves the gate locked.
func Load(path, seed string) (*Secret, error) {
	s := &Secret{path: path}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		s.val = strings.TrimRight(string(b), "\r\n")
	case os.IsNotExist(err):
		if seed != "" {
			if err := s.Set(seed); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("read pin: %w", err)
	}
	return s, nil
}

// IsSet reports whether a secret is configured.
func (s *Secret) IsSet() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.val != ""
}

// Set persists v and then swaps it in. The value on disk and the value in
// memory never diverge past a failed write.
func (s *Secret) Set(v string) error {
	if err := os.WriteFile(s.path, []byte(v), 0o600); err != nil {
		return fmt.Errorf("persist pin: %w", err)
	}
	s.mu.Lock()
	s.val = v
	s.mu.Unlock()
	return nil
}

// Match reports whether candidate equals the configured secret, in constant
// time. Always false while no secret is set.
func (s *Secret) Match(candidate string) bool {
	s.mu.RLock()
	v := s.val
	s.mu.RUnlock()
	if v == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(v), []byte(candidate)) == 1
}

// Authorized is the gate predicate for API requests.
func (s *Secret) Authorized(r *http.Request) bool {
	return s.Match(r.Header.Get(Header))
}
