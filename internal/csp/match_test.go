package csp

import (
	"net/url"
	"testing"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestAllows_DefaultDirectives(t *testing.T) {
	page := "http://localhost:3000/checkout"
	tests := []struct {
		kind     string
		resource string
		want     bool
	}{
		{ScriptSrc, "http://localhost:3000/public/app.js", true},
		{ScriptSrc, "https://unpkg.com/lodash@4.17.21/lodash.min.js", true},
		{ScriptSrc, "https://cdn.jsdelivr.net/npm/axios@1.7.7/dist/axios.min.js", true},
		{ScriptSrc, "https://ajax.googleapis.com/ajax/libs/jquery/3.7.1/jquery.min.js", true},
		{ScriptSrc, "https://evil.example.org/x.js", false},
		{ScriptSrc, "http://localhost:4000/public/app.js", false},
		{ImgSrc, "https://picsum.photos/400/120", true},
		{ImgSrc, "data:image/png;base64,AAAA", true},
		{ImgSrc, "https://example.com/a.png", false},
		{StyleSrc, "https://fonts.googleapis.com/css2?family=Inter", true},
		{FontSrc, "https://fonts.gstatic.com/s/inter.woff2", true},
		{ObjectSrc, "http://localhost:3000/flash.swf", false},
		{MediaSrc, "http://localhost:3000/video.mp4", true},
		{MediaSrc, "https://cdn.example.com/video.mp4", false},
	}
	directives := DefaultDirectives()
	for _, tt := range tests {
		t.Run(tt.kind+" "+tt.resource, func(t *testing.T) {
			got := Allows(directives, tt.kind, mustURL(t, tt.resource), mustURL(t, page))
			if got != tt.want {
				t.Errorf("Allows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllows_SourceExpressions(t *testing.T) {
	page := "https://shop.example.com/"
	tests := []struct {
		source   string
		resource string
		want     bool
	}{
		{"*", "https://any.host/x.js", true},
		{"*", "data:text/javascript,1", false},
		{"https:", "https://any.host/x.js", true},
		{"http:", "https://any.host/x.js", true},
		{"https:", "http://any.host/x.js", false},
		{"*.example.com", "https://cdn.example.com/x.js", true},
		{"*.example.com", "https://example.com/x.js", false},
		{"cdn.example.com", "https://cdn.example.com/x.js", true},
		{"cdn.example.com", "http://cdn.example.com/x.js", false},
		{"https://cdn.example.com:8443", "https://cdn.example.com:8443/x.js", true},
		{"https://cdn.example.com", "https://cdn.example.com:8443/x.js", false},
		{"https://cdn.example.com:*", "https://cdn.example.com:8443/x.js", true},
		{"https://cdn.example.com/js/", "https://cdn.example.com/js/app.js", true},
		{"https://cdn.example.com/js/", "https://cdn.example.com/css/app.css", false},
		{"https://cdn.example.com/js/app.js", "https://cdn.example.com/js/app.js", true},
		{"https://cdn.example.com/js/app.js", "https://cdn.example.com/js/other.js", false},
		{"HTTPS://CDN.Example.com", "https://cdn.example.com/x.js", true},
		{"'none'", "https://shop.example.com/x.js", false},
		{"'unsafe-inline'", "https://shop.example.com/x.js", false},
		{"'sha256-abc='", "https://shop.example.com/x.js", false},
		{"'self'", "https://shop.example.com/x.js", true},
		{"'self'", "https://other.example.com/x.js", false},
	}
	for _, tt := range tests {
		t.Run(tt.source+" "+tt.resource, func(t *testing.T) {
			directives := []Directive{{Name: ScriptSrc, Sources: []string{tt.source}}}
			got := Allows(directives, ScriptSrc, mustURL(t, tt.resource), mustURL(t, page))
			if got != tt.want {
				t.Errorf("Allows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEffective_Fallback(t *testing.T) {
	directives := []Directive{
		{Name: DefaultSrc, Sources: []string{"'self'"}},
		{Name: ScriptSrc, Sources: []string{"https://unpkg.com"}},
		{Name: "child-src", Sources: []string{"https://frames.example.com"}},
	}
	tests := []struct {
		kind string
		want string
	}{
		{ScriptSrc, ScriptSrc},
		{"script-src-elem", ScriptSrc},
		{ImgSrc, DefaultSrc},
		{FrameSrc, "child-src"},
	}
	for _, tt := range tests {
		d, ok := Effective(directives, tt.kind)
		if !ok {
			t.Errorf("%s: no effective directive", tt.kind)
			continue
		}
		if d.Name != tt.want {
			t.Errorf("%s: effective = %s, want %s", tt.kind, d.Name, tt.want)
		}
	}

	if _, ok := Effective([]Directive{{Name: ScriptSrc, Sources: []string{"*"}}}, ImgSrc); ok {
		t.Error("expected no effective directive without default-src")
	}
}

func TestPolicyAllows_Disabled(t *testing.T) {
	p := mustPolicy(t, false, false, []Directive{{Name: DefaultSrc, Sources: []string{"'none'"}}})
	if !p.Allows(ScriptSrc, mustURL(t, "https://evil.example.org/x.js"), mustURL(t, "http://localhost:3000/")) {
		t.Error("disabled policy should allow everything")
	}
}

func TestAllowsInline(t *testing.T) {
	tests := []struct {
		name    string
		sources []string
		want    bool
	}{
		{"unsafe-inline", []string{"'self'", "'unsafe-inline'"}, true},
		{"self only", []string{"'self'"}, false},
		{"nonce disables unsafe-inline", []string{"'unsafe-inline'", "'nonce-abc'"}, false},
		{"hash disables unsafe-inline", []string{"'unsafe-inline'", "'sha256-abc='"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			directives := []Directive{{Name: StyleSrc, Sources: tt.sources}}
			if got := AllowsInline(directives, StyleSrc); got != tt.want {
				t.Errorf("AllowsInline = %v, want %v", got, tt.want)
			}
		})
	}

	if AllowsInline(DefaultDirectives(), ScriptSrc) {
		t.Error("default script-src should block inline scripts")
	}
	if !AllowsInline(DefaultDirectives(), StyleSrc) {
		t.Error("default style-src should allow inline styles")
	}
	if !AllowsInline(nil, ScriptSrc) {
		t.Error("no policy should allow inline scripts")
	}
}
