package store

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListAlbums_AbsentRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Equal(t, []string{}, s.ListAlbums())
}

func TestCreateAlbum_Idempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateAlbum("Trip 2024"))
	require.Equal(t, []string{"Trip 2024"}, s.ListAlbums())

	require.NoError(t, s.CreateAlbum("Trip 2024"))
	require.Equal(t, []string{"Trip 2024"}, s.ListAlbums())
}

func TestListAlbums_SkipsHiddenAndFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateAlbum("B"))
	require.NoError(t, s.CreateAlbum("A"))
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root(), ".pindrop"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), ".pin"), []byte("1234"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "stray.txt"), nil, 0o644))

	require.Equal(t, []string{"A", "B"}, s.ListAlbums())
}

func TestCreateAlbum_SanitizesName(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateAlbum("week/one"))

	// The separator is filtered out; the directory lands inside the root.
	require.Equal(t, []string{"weekone"}, s.ListAlbums())
	_, err := os.Stat(filepath.Join(s.Root(), "weekone"))
	require.NoError(t, err)

	// A pure traversal attempt collapses to a hidden-but-contained name.
	require.NoError(t, s.CreateAlbum("../../etc"))
	_, err = os.Stat(filepath.Join(s.Root(), "....etc"))
	require.NoError(t, err)
}

func TestListMedia_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateAlbum("Trip"))
	dir := s.AlbumPath("Trip")
	for _, name := range []string{
		"1700000000_1111.jpg",
		"1700000100_2222.jpg",
		"1699999999_9999.mp4",
		"zz-manual-copy.jpg", // no timestamp prefix
		"notes.pin",          // reserved, never listed
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	require.Equal(t, []string{
		"1700000100_2222.jpg",
		"1700000000_1111.jpg",
		"1699999999_9999.mp4",
		"zz-manual-copy.jpg",
	}, s.ListMedia("Trip"))
}

func TestListMedia_AbsentAlbum(t *testing.T) {
	s := newTestStore(t)
	require.Equal(t, []string{}, s.ListMedia("nope"))
}

func TestDelete_SilentWhenAbsent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.DeleteAlbum("ghost"))
	require.NoError(t, s.DeleteMedia("ghost", "nothing.jpg"))
}

func TestDeleteMedia(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateAlbum("Trip"))
	p := filepath.Join(s.AlbumPath("Trip"), "1700000000_1111.jpg")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	require.NoError(t, s.DeleteMedia("Trip", "1700000000_1111.jpg"))
	_, err := os.Stat(p)
	require.True(t, os.IsNotExist(err))
}

func TestDeleteAlbum_Recursive(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateAlbum("Trip"))
	require.NoError(t, os.WriteFile(filepath.Join(s.AlbumPath("Trip"), "a.jpg"), []byte("x"), 0o644))

	require.NoError(t, s.DeleteAlbum("Trip"))
	require.Equal(t, []string{}, s.ListAlbums())
}
