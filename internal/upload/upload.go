// Package upload assembles chunked uploads addressed by target path.
//
// The wire protocol is deliberately minimal: each chunk is one request
// carrying the destination and an offset, offset zero starts the file over,
// any positive offset appends, and there is no finish call — the last chunk
// is simply the last request the client sends. The target file is the only
// durable state; the in-memory session on top of it exists for log
// correlation and to serialize concurrent writers on one path.
package upload

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

type session struct {
	id string

	mu      sync.Mutex // held for the duration of one chunk write
	written int64

	last time.Time // guarded by Manager.mu
}

type Manager struct {
	log *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session // keyed by target path
}

func NewManager(log *slog.Logger) *Manager {
	return &Manager{
		log:      log,
		sessions: map[string]*session{},
	}
}

func (m *Manager) acquire(path string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sessions[path]
	if s == nil {
		s = &session{id: uuid.NewString()}
		m.sessions[path] = s
	}
	s.last = time.Now()
	return s
}

// Write streams one chunk into path. Offset zero truncates any prior
// content; a positive offset appends to whatever is already on disk. The
// declared offset is not enforced against the file length — the client owns
// chunk ordering — but drift is logged so it can be seen.
func (m *Manager) Write(path string, offset int64, body io.Reader) (int64, error) {
	s := m.acquire(path)
	s.mu.Lock()
	defer s.mu.Unlock()

	flags := os.O_CREATE | os.O_WRONLY
	if offset > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open target: %w", err)
	}

	if offset == 0 {
		s.written = 0
	} else if st, serr := f.Stat(); serr == nil && st.Size() != offset {
		m.log.Warn("chunk offset mismatch",
			"session", s.id, "path", path,
			"declared", offset, "have", st.Size())
	}

	n, err := io.Copy(f, body)
	cerr := f.Close()
	s.written += n
	if err != nil {
		return n, fmt.Errorf("write chunk: %w", err)
	}
	if cerr != nil {
		return n, fmt.Errorf("close target: %w", cerr)
	}
	m.log.Info("chunk written",
		"session", s.id, "path", path,
		"offset", offset, "bytes", n, "total", s.written)
	return n, nil
}

// Prune drops sessions idle longer than maxIdle and returns how many went.
// Only the bookkeeping goes; partially written files stay on disk in
// whatever state their last chunk left them.
func (m *Manager) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for path, s := range m.sessions {
		if !s.last.Before(cutoff) {
			continue
		}
		if !s.mu.TryLock() { // a chunk is mid-flight
			continue
		}
		s.mu.Unlock()
		delete(m.sessions, path)
		n++
	}
	return n
}
