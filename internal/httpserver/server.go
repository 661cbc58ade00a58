// Package httpserver wires the gallery's HTTP surface: the public viewing
// routes, the PIN-gated API, and the two upload paths.
package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/net/webdav"

	"pindrop/internal/config"
	"pindrop/internal/fsutil"
	"pindrop/internal/pin"
	"pindrop/internal/store"
	"pindrop/internal/upload"
)

type Options struct {
	Config  config.Config
	Store   *store.Store
	Secret  *pin.Secret
	Uploads *upload.Manager
	Logger  *slog.Logger
}

type Server struct {
	cfg     config.Config
	store   *store.Store
	secret  *pin.Secret
	uploads *upload.Manager
	log     *slog.Logger
	views   Renderer
}

func New(opts Options) (*Server, error) {
	views, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:     opts.Config,
		store:   opts.Store,
		secret:  opts.Secret,
		uploads: opts.Uploads,
		log:     opts.Logger,
		views:   views,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	mux.HandleFunc("GET /favicon.ico", s.handleFavicon)
	mux.HandleFunc("GET /admin", s.handleAdmin)

	// public gallery
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /{event}", s.handleGallery)
	mux.HandleFunc("GET /uploads/{event}/{filename}", s.handleMediaFile)
	mux.HandleFunc("GET /thumb/{event}/{filename}", s.handleThumb)

	// api
	mux.HandleFunc("GET /api/pin/status", s.handlePinStatus)
	mux.HandleFunc("POST /api/pin", s.handleSetPin)
	mux.HandleFunc("GET /api/albums", s.handleListAlbums)
	mux.HandleFunc("POST /api/albums", s.handleCreateAlbum)
	mux.HandleFunc("DELETE /api/albums/{name}", s.handleDeleteAlbum)
	mux.HandleFunc("GET /api/albums/{album}/media", s.handleListMedia)
	mux.HandleFunc("DELETE /api/albums/{album}/media/{filename}", s.handleDeleteMedia)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("POST /api/albums/{album}/upload", s.handleUpload)
	mux.HandleFunc("POST /api/stream_upload", s.handleStreamUpload)

	// read-only WebDAV view of the storage root, PIN as the password
	mux.Handle("/dav/", s.davHandler())

	return chain(mux, hardenHeaders, s.accessLog, s.maxBody)
}

// --- pin ---

func (s *Server) handlePinStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.secret.IsSet() {
		_, _ = io.WriteString(w, "true")
	} else {
		_, _ = io.WriteString(w, "false")
	}
}

func (s *Server) handleSetPin(w http.ResponseWriter, r *http.Request) {
	// First-time set is open; after that changing the PIN needs the PIN.
	if s.secret.IsSet() && !s.secret.Authorized(r) {
		s.unauthorized(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	vals, ok := r.Form["pin"]
	if !ok {
		http.Error(w, "Missing PIN", http.StatusBadRequest)
		return
	}
	if err := s.secret.Set(vals[0]); err != nil {
		s.log.Error("persist pin failed", "err", err)
		http.Error(w, "Failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "PIN set")
}

// --- albums ---

func (s *Server) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	if !s.secret.Authorized(r) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "[]")
		return
	}
	writeJSON(w, s.store.ListAlbums())
}

func (s *Server) handleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	if !s.secret.Authorized(r) {
		s.unauthorized(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	name, ok := firstValue(r.Form, "name")
	if !ok {
		http.Error(w, "Missing name", http.StatusBadRequest)
		return
	}
	if err := s.store.CreateAlbum(name); err != nil {
		s.log.Error("create album failed", "name", name, "err", err)
		http.Error(w, "Failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Album created")
}

func (s *Server) handleDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	if !s.secret.Authorized(r) {
		s.unauthorized(w)
		return
	}
	if err := s.store.DeleteAlbum(r.PathValue("name")); err != nil {
		s.log.Error("delete album failed", "err", err)
		http.Error(w, "Failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Deleted")
}

// --- media ---

func (s *Server) handleListMedia(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.store.ListMedia(r.PathValue("album")))
}

func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	if !s.secret.Authorized(r) {
		s.unauthorized(w)
		return
	}
	if err := s.store.DeleteMedia(r.PathValue("album"), r.PathValue("filename")); err != nil {
		s.log.Error("delete media failed", "err", err)
		http.Error(w, "Failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Deleted")
}

// --- uploads ---

// handleUpload is the single-shot multipart path: every payload in the
// "media" field is written once under a generated name.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.secret.Authorized(r) {
		s.unauthorized(w)
		return
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "bad multipart", http.StatusBadRequest)
		return
	}
	album := r.PathValue("album")
	if album == "" {
		album = r.FormValue("album")
	}
	if album == "" {
		http.Error(w, "Missing album parameter", http.StatusBadRequest)
		return
	}
	if !s.store.AlbumExists(album) {
		http.Error(w, "Album not found", http.StatusNotFound)
		return
	}
	dir := s.store.AlbumPath(album)

	uploaded := 0
	for _, fh := range r.MultipartForm.File["media"] {
		if err := s.saveUploadPart(dir, fh); err != nil {
			s.log.Error("upload failed", "album", album, "file", fh.Filename, "err", err)
			http.Error(w, "Upload failed", http.StatusInternalServerError)
			return
		}
		uploaded++
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if uploaded == 0 {
		_, _ = io.WriteString(w, "No files uploaded")
		return
	}
	fmt.Fprintf(w, "Uploaded %d media items", uploaded)
}

func (s *Server) saveUploadPart(dir string, fh *multipart.FileHeader) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open part: %w", err)
	}
	defer src.Close()

	name := fsutil.GenName(fsutil.Sanitize(fh.Filename))
	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create media: %w", err)
	}
	_, err = io.Copy(dst, src)
	cerr := dst.Close()
	if err != nil {
		return fmt.Errorf("write media: %w", err)
	}
	if cerr != nil {
		return fmt.Errorf("close media: %w", cerr)
	}
	return nil
}

// handleStreamUpload is the chunked path: one request per chunk, addressed
// by URL-encoded X-Album/X-Filename headers and an optional X-Offset. The
// filename is used as supplied (sanitized, never randomized) so every chunk
// of one logical upload lands on the identical target.
func (s *Server) handleStreamUpload(w http.ResponseWriter, r *http.Request) {
	if !s.secret.Authorized(r) {
		s.unauthorized(w)
		return
	}
	rawAlbum := r.Header.Get("X-Album")
	rawName := r.Header.Get("X-Filename")
	if rawAlbum == "" || rawName == "" {
		http.Error(w, "Missing Headers", http.StatusBadRequest)
		return
	}
	album := decodeHeader(rawAlbum)
	name := decodeHeader(rawName)

	var offset int64
	if v := r.Header.Get("X-Offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			offset = n
		}
	}

	if !s.store.AlbumExists(album) {
		http.Error(w, "Album not found", http.StatusNotFound)
		return
	}

	target := s.store.MediaPath(album, name)
	if _, err := s.uploads.Write(target, offset, r.Body); err != nil {
		s.log.Error("chunk write failed", "target", target, "err", err)
		http.Error(w, "Upload failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Chunk Received")
}

// --- pages ---

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	albums := s.store.ListAlbums()
	if len(albums) == 0 {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "No albums.")
		return
	}
	http.Redirect(w, r, "/"+url.PathEscape(albums[0]), http.StatusFound)
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	event := r.PathValue("event")
	albums := s.store.ListAlbums()

	// Unknown albums still render, with an empty current-album context.
	current := ""
	for _, a := range albums {
		if a == event {
			current = a
			break
		}
	}

	scalars := map[string]string{
		"site_title":    "Photo Gallery",
		"current_album": current,
	}
	lists := map[string][]string{"albums": albums}
	if current != "" {
		lists["photos"] = s.store.ListMedia(current)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.views.Render(w, "gallery.html", scalars, lists); err != nil {
		s.log.Error("render gallery failed", "err", err)
	}
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	scalars := map[string]string{
		"site_title": "Photo Gallery",
		"pin_set":    "false",
	}
	if s.secret.IsSet() {
		scalars["pin_set"] = "true"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.views.Render(w, "admin.html", scalars, nil); err != nil {
		s.log.Error("render admin failed", "err", err)
	}
}

func (s *Server) handleMediaFile(w http.ResponseWriter, r *http.Request) {
	path := s.store.MediaPath(r.PathValue("event"), r.PathValue("filename"))
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "Error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", mimeTypeFor(st.Name()))
	http.ServeContent(w, r, st.Name(), st.ModTime(), f)
}

func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if !isImageName(name) {
		http.NotFound(w, r)
		return
	}
	path := s.store.MediaPath(r.PathValue("event"), name)
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		http.NotFound(w, r)
		return
	}

	thumbDir := filepath.Join(s.cfg.StateDir, "thumbs")
	_ = os.MkdirAll(thumbDir, 0o755)
	key := fmt.Sprintf("%s-%s-%d.jpg",
		fsutil.Sanitize(r.PathValue("event")), fsutil.Sanitize(name), st.ModTime().Unix())
	cached := filepath.Join(thumbDir, key)

	if b, err := os.ReadFile(cached); err == nil {
		serveThumb(w, b)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()
	b, err := makeThumb(f, thumbMax)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	_ = os.WriteFile(cached, b, 0o644)
	serveThumb(w, b)
}

func serveThumb(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(b)
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	b, err := webFS.ReadFile("web/favicon.svg")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(b)
}

// --- webdav ---

// davHandler mounts a read-only WebDAV view over the storage root. Any
// username works; the Basic password must be the PIN, so the mount is
// locked while the PIN is unset.
func (s *Server) davHandler() http.Handler {
	dav := &webdav.Handler{
		Prefix:     "/dav",
		FileSystem: webdav.Dir(s.cfg.Root),
		LockSystem: webdav.NewMemLS(),
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pass, ok := r.BasicAuth()
		if !ok || !s.secret.Match(pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="pindrop"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case "GET", "HEAD", "OPTIONS", "PROPFIND":
			dav.ServeHTTP(w, r)
		default:
			http.Error(w, "read-only", http.StatusForbidden)
		}
	})
}

// --- helpers ---

func (s *Server) unauthorized(w http.ResponseWriter) {
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func firstValue(form url.Values, key string) (string, bool) {
	vals, ok := form[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// decodeHeader undoes the URL encoding clients apply to the X-Album and
// X-Filename headers; undecodable values are used as-is.
func decodeHeader(v string) string {
	if d, err := url.QueryUnescape(v); err == nil {
		return d
	}
	return v
}

func lowerExt(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// mimeTypeFor maps a media filename to the type served with it. The table
// is fixed; anything unrecognized ships as an opaque blob.
func mimeTypeFor(name string) string {
	switch lowerExt(name) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/mov"
	case ".mpv":
		return "video/mpv"
	case ".ogg":
		return "video/ogg"
	default:
		return "application/octet-stream"
	}
}
