// Package fsutil holds the small pure helpers that stand between
// user-supplied names and the filesystem.
package fsutil

import (
	"math/rand"
	"path/filepath"
	"strconv"
	"time"
)

// Sanitize reduces a raw name to a single safe path segment. ASCII outside
// [A-Za-z0-9], space, '-', '_' and '.' is stripped; bytes above 127 pass
// through untouched so non-Latin names survive (no encoding validation is
// attempted). Empty, "." and ".." results collapse to "unnamed".
//
// Every user-supplied album name and filename goes through here before it
// touches the filesystem; this is the only traversal defense.
func Sanitize(raw string) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c > 127:
			out = append(out, c)
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
			out = append(out, c)
		case c == ' ' || c == '-' || c == '_' || c == '.':
			out = append(out, c)
		}
	}
	s := string(out)
	if s == "" || s == "." || s == ".." {
		return "unnamed"
	}
	return s
}

// GenName produces a collision-resistant name for a single-shot upload:
// unix seconds, a random four-digit suffix, and the extension of orig taken
// verbatim. Callers sanitize orig first if the extension matters.
func GenName(orig string) string {
	n := 1000 + rand.Intn(9000)
	return strconv.FormatInt(time.Now().Unix(), 10) + "_" + strconv.Itoa(n) + filepath.Ext(orig)
}
