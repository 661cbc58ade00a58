package httpserver

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strings"
)

//go:embed web/gallery.html web/admin.html web/favicon.svg
var webFS embed.FS

// Renderer turns a page name plus scalar and list bindings into markup.
// Handlers hand over album names and media filenames and never inspect the
// output.
type Renderer interface {
	Render(w io.Writer, page string, scalars map[string]string, lists map[string][]string) error
}

type htmlRenderer struct {
	t *template.Template
}

func newRenderer() (*htmlRenderer, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"isVideo": isVideoName,
	}).ParseFS(webFS, "web/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &htmlRenderer{t: t}, nil
}

func (r *htmlRenderer) Render(w io.Writer, page string, scalars map[string]string, lists map[string][]string) error {
	data := make(map[string]any, len(scalars)+len(lists))
	for k, v := range scalars {
		data[k] = v
	}
	for k, v := range lists {
		data[k] = v
	}
	return r.t.ExecuteTemplate(w, page, data)
}

func isVideoName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4", ".webm", ".mov", ".mpg", ".mpv", ".ogg", ".mkv":
		return true
	default:
		return false
	}
}
