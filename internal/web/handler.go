// Package web serves the demo pages and applies the CSP policy to every route.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/ppiankov/cspdemo/internal/csp"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed public
var publicFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Pages served by PageHandler.
const (
	PageHome     = "home.html"
	PageCheckout = "checkout.html"
	PageProfile  = "profile.html"
)

type pageData struct {
	Mode   string
	Header string
	Value  string
}

// PageHandler renders one of the embedded demo pages.
func PageHandler(page string, p *csp.Policy) http.HandlerFunc {
	name, value, _ := p.Header()
	data := pageData{Mode: p.Mode(), Header: name, Value: value}
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTmpl.ExecuteTemplate(w, page, data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// PublicHandler serves the first-party scripts under /public/.
func PublicHandler() http.Handler {
	sub, err := fs.Sub(publicFS, "public")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/public/", http.FileServer(http.FS(sub)))
}

// HealthzHandler returns 200 with body "ok".
func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok")) //nolint:errcheck // best-effort response
	}
}

type policyResponse struct {
	Enabled    bool            `json:"enabled"`
	ReportOnly bool            `json:"reportOnly"`
	Mode       string          `json:"mode"`
	Header     string          `json:"header,omitempty"`
	Value      string          `json:"value,omitempty"`
	Directives []csp.Directive `json:"directives"`
}

// PolicyHandler returns the active policy as JSON.
func PolicyHandler(p *csp.Policy) http.HandlerFunc {
	name, value, _ := p.Header()
	resp := policyResponse{
		Enabled:    p.Enabled(),
		ReportOnly: p.ReportOnly(),
		Mode:       p.Mode(),
		Header:     name,
		Value:      value,
		Directives: p.Directives(),
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
