// Package view renders the HTML pages, or their raw JSON params when the
// client asks for ?raw.
package view

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	PageIndex = "index.html"
	PageAdmin = "admin.html"
)

// Renderer holds one parsed template set per page, each sharing the layout.
type Renderer struct {
	pages  map[string]*template.Template
	logger *zap.SugaredLogger
}

func New(logger *zap.SugaredLogger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	funcs := template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}
	pages := map[string]*template.Template{}
	for _, name := range []string{PageIndex, PageAdmin} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// WantsRaw reports whether the request asked for raw JSON with a non-empty
// raw query parameter.
func WantsRaw(r *http.Request) bool {
	return r.URL.Query().Get("raw") != ""
}

// HTML renders page with data. The page is buffered so a template error
// still produces a clean 500.
func (v *Renderer) HTML(w http.ResponseWriter, status int, page string, data any) {
	t, ok := v.pages[page]
	if !ok {
		v.logger.Errorw("unknown page", "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		v.logger.Errorw("render page failed", "page", page, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// JSON writes v as the response body.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Page answers with raw JSON or the HTML page depending on the request.
func (v *Renderer) Page(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	if WantsRaw(r) {
		JSON(w, status, data)
		return
	}
	v.HTML(w, status, page, data)
}
