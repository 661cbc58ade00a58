// Package store implements the album/media model over a directory tree:
// one subdirectory per album, one regular file per media item. There is no
// index and no metadata beyond the tree itself.
package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"pindrop/internal/fsutil"
)

// ReservedExt marks internal bookkeeping files that never appear in media
// listings.
const ReservedExt = ".pin"

type Store struct {
	root string
	log  *slog.Logger
}

func New(root string, log *slog.Logger) *Store {
	return &Store{root: root, log: log}
}

func (s *Store) Root() string { return s.root }

// AlbumPath returns the directory backing album. The name is sanitized
// here so no caller can hand the filesystem a raw segment.
func (s *Store) AlbumPath(album string) string {
	return filepath.Join(s.root, fsutil.Sanitize(album))
}

// MediaPath returns the file backing one media item, both segments
// sanitized.
func (s *Store) MediaPath(album, name string) string {
	return filepath.Join(s.root, fsutil.Sanitize(album), fsutil.Sanitize(name))
}

func (s *Store) AlbumExists(album string) bool {
	st, err := os.Stat(s.AlbumPath(album))
	return err == nil && st.IsDir()
}

// ListAlbums returns every non-hidden album directory name, ascending.
// Listing is best-effort: any filesystem error degrades to an empty result
// and is logged, never surfaced.
func (s *Store) ListAlbums() []string {
	out := []string{}
	ents, err := os.ReadDir(s.root)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("list albums failed", "root", s.root, "err", err)
		}
		return out
	}
	for _, e := range ents {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// CreateAlbum creates the album directory. Creating an album that already
// exists is success.
func (s *Store) CreateAlbum(name string) error {
	if err := os.MkdirAll(s.AlbumPath(name), 0o755); err != nil {
		return fmt.Errorf("create album: %w", err)
	}
	return nil
}

// DeleteAlbum removes the album and everything in it. Deleting an absent
// album is success.
func (s *Store) DeleteAlbum(name string) error {
	if err := os.RemoveAll(s.AlbumPath(name)); err != nil {
		return fmt.Errorf("delete album: %w", err)
	}
	return nil
}

// ListMedia returns the album's media filenames, newest first. Uploaded
// names embed a unix-timestamp prefix, so ordering is derived from the
// name: files matching "<unix>_..." sort by that stamp descending, and any
// stray file without a valid stamp sorts after all stamped ones, by name
// descending. Reserved bookkeeping files are skipped. Best-effort, like
// ListAlbums.
func (s *Store) ListMedia(album string) []string {
	out := []string{}
	dir := s.AlbumPath(album)
	ents, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("list media failed", "album", album, "err", err)
		}
		return out
	}
	for _, e := range ents {
		if !e.Type().IsRegular() {
			continue
		}
		if filepath.Ext(e.Name()) == ReservedExt {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Slice(out, func(i, j int) bool {
		ti, oki := stamp(out[i])
		tj, okj := stamp(out[j])
		if oki != okj {
			return oki
		}
		if oki && ti != tj {
			return ti > tj
		}
		return out[i] > out[j]
	})
	return out
}

// DeleteMedia removes one media file. Deleting an absent file is success.
func (s *Store) DeleteMedia(album, name string) error {
	err := os.Remove(s.MediaPath(album, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}

// stamp parses the leading "<unix>_" prefix of a generated filename.
func stamp(name string) (int64, bool) {
	i := strings.IndexByte(name, '_')
	if i <= 0 {
		return 0, false
	}
	ts, err := strconv.ParseInt(name[:i], 10, 64)
	if err != nil || ts < 0 {
		return 0, false
	}
	return ts, true
}
