/*
Package ui renders the server-side pages of the web client.

Templates and static assets are embedded. Every page is parsed once at startup
together with the shared layout and partials; handlers pass a Page whose Data
field carries the screen-specific view model.
*/
package ui

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"arzweb/internal/app/market"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Toast is a one-shot notification shown at the top of a page.
type Toast struct {
	Kind    string
	Message string
}

// Page is the data every page template receives.
type Page struct {
	Title string
	Path  string

	// Theme is the body class, see session.Snapshot.ThemeClass.
	Theme string
	User  *market.User

	Toast     *Toast
	Error     string
	FormToken string

	// HideNav hides the bottom navigation on the auth screens.
	HideNav bool

	// Snow enables the falling snow decoration.
	Snow bool

	// Live lists the actions whose cooldown countdown the page follows.
	Live []string

	Data any
}

// Renderer executes the parsed page templates.
type Renderer struct {
	pages    map[string]*template.Template
	partials *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	base, err := template.New("layout").Funcs(Funcs()).ParseFS(templateFS, "templates/layout.tmpl", "templates/partials.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/pages/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no page templates embedded")
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(files)), partials: base}
	for _, file := range files {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", file, err)
		}
		if t, err = t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		r.pages[strings.TrimSuffix(path.Base(file), ".tmpl")] = t
	}

	// partials executes fragments only; cloning above must happen before it runs.
	if r.partials, err = base.Clone(); err != nil {
		return nil, fmt.Errorf("clone partials: %w", err)
	}
	return r, nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(page string) bool {
	_, ok := r.pages[page]
	return ok
}

// Render writes the full page with status. Output is buffered so a template error
// never leaves a half-written document.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, p Page) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Fragment renders one partial, used for the listing cards appended by infinite scroll.
func (r *Renderer) Fragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.partials.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render fragment %s: %w", name, err)
	}
	return buf.String(), nil
}

// Static serves the embedded assets. Mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
