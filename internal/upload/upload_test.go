package upload

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestManager() *Manager {
	return NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestWrite_SequentialChunks(t *testing.T) {
	m := newTestManager()
	path := filepath.Join(t.TempDir(), "movie.mp4")

	n, err := m.Write(path, 0, strings.NewReader("AAAA"))
	require.NoError(t, err)
	require.EqualValues(t, 4, n)

	n, err = m.Write(path, 4, strings.NewReader("BBBB"))
	require.NoError(t, err)
	require.EqualValues(t, 4, n)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "AAAABBBB", string(b))
}

func TestWrite_OffsetZeroRestarts(t *testing.T) {
	m := newTestManager()
	path := filepath.Join(t.TempDir(), "movie.mp4")

	_, err := m.Write(path, 0, strings.NewReader("AAAABBBB"))
	require.NoError(t, err)

	// A fresh sequence replaces everything, no residue.
	_, err = m.Write(path, 0, strings.NewReader("CC"))
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "CC", string(b))
}

func TestWrite_MismatchedOffsetStillAppends(t *testing.T) {
	m := newTestManager()
	path := filepath.Join(t.TempDir(), "movie.mp4")

	_, err := m.Write(path, 0, strings.NewReader("AAAA"))
	require.NoError(t, err)

	// The declared offset is wrong but honored as "append": the protocol
	// trusts the client's ordering.
	_, err = m.Write(path, 100, strings.NewReader("BB"))
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "AAAABB", string(b))
}

func TestWrite_PositiveOffsetOnFreshFile(t *testing.T) {
	m := newTestManager()
	path := filepath.Join(t.TempDir(), "movie.mp4")

	// Append to a file that does not exist yet creates it.
	_, err := m.Write(path, 8, strings.NewReader("XX"))
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "XX", string(b))
}

func TestPrune(t *testing.T) {
	m := newTestManager()
	dir := t.TempDir()

	_, err := m.Write(filepath.Join(dir, "a.mp4"), 0, strings.NewReader("A"))
	require.NoError(t, err)
	_, err = m.Write(filepath.Join(dir, "b.mp4"), 0, strings.NewReader("B"))
	require.NoError(t, err)

	require.Equal(t, 0, m.Prune(time.Hour))
	require.Equal(t, 2, m.Prune(0))

	// The files survive pruning.
	_, err = os.Stat(filepath.Join(dir, "a.mp4"))
	require.NoError(t, err)
}
