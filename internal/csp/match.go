package csp

import (
	"net/url"
	"strings"
)

// Fetch directives the matcher understands.
const (
	ScriptSrc  = "script-src"
	StyleSrc   = "style-src"
	ImgSrc     = "img-src"
	FontSrc    = "font-src"
	ConnectSrc = "connect-src"
	ObjectSrc  = "object-src"
	FrameSrc   = "frame-src"
	MediaSrc   = "media-src"
	DefaultSrc = "default-src"
)

// fallbacks lists, per fetch directive, the directives consulted in order.
var fallbacks = map[string][]string{
	"script-src-elem": {"script-src-elem", ScriptSrc, DefaultSrc},
	"style-src-elem":  {"style-src-elem", StyleSrc, DefaultSrc},
	FrameSrc:          {FrameSrc, "child-src", DefaultSrc},
}

// Effective returns the directive governing kind, following the fallback
// chain to default-src. ok is false when nothing governs kind.
func Effective(directives []Directive, kind string) (Directive, bool) {
	chain, found := fallbacks[kind]
	if !found {
		chain = []string{kind, DefaultSrc}
	}
	for _, name := range chain {
		if d, ok := Lookup(directives, name); ok {
			return d, true
		}
	}
	return Directive{}, false
}

// Allows reports whether resource may be loaded as kind by a document at
// page. resource must be absolute.
func Allows(directives []Directive, kind string, resource, page *url.URL) bool {
	d, ok := Effective(directives, kind)
	if !ok {
		return true
	}
	for _, src := range d.Sources {
		if matchSource(src, resource, page) {
			return true
		}
	}
	return false
}

// Allows is Allows applied to the policy's table. A disabled policy allows everything.
func (p *Policy) Allows(kind string, resource, page *url.URL) bool {
	if !p.enabled {
		return true
	}
	return Allows(p.directives, kind, resource, page)
}

func matchSource(src string, res, page *url.URL) bool {
	lower := strings.ToLower(src)
	switch {
	case lower == "'self'":
		return sameOrigin(res, page)
	case strings.HasPrefix(lower, "'"):
		// 'none', 'unsafe-inline', nonces and hashes never match a URL.
		return false
	case lower == "*":
		switch res.Scheme {
		case "data", "blob", "filesystem":
			return false
		}
		return true
	case isSchemeSource(lower):
		return schemeMatches(strings.TrimSuffix(lower, ":"), res.Scheme)
	default:
		return matchHostSource(src, res, page)
	}
}

func isSchemeSource(src string) bool {
	if !strings.HasSuffix(src, ":") || len(src) < 2 {
		return false
	}
	for i, r := range src[:len(src)-1] {
		alpha := r >= 'a' && r <= 'z'
		if i == 0 && !alpha {
			return false
		}
		if !alpha && (r < '0' || r > '9') && r != '+' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

// schemeMatches allows the secure upgrade of http and ws.
func schemeMatches(want, got string) bool {
	switch {
	case want == got:
		return true
	case want == "http" && got == "https":
		return true
	case want == "ws" && (got == "wss" || got == "http" || got == "https"):
		return true
	case want == "wss" && got == "https":
		return true
	}
	return false
}

func sameOrigin(res, page *url.URL) bool {
	if page == nil {
		return false
	}
	if !strings.EqualFold(res.Hostname(), page.Hostname()) {
		return false
	}
	if res.Scheme == page.Scheme {
		return effectivePort(res) == effectivePort(page)
	}
	return page.Scheme == "http" && res.Scheme == "https"
}

func matchHostSource(src string, res, page *url.URL) bool {
	scheme, rest := "", src
	if i := strings.Index(rest, "://"); i >= 0 {
		scheme, rest = rest[:i], rest[i+3:]
	}
	path := ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		path, rest = rest[i:], rest[:i]
	}
	host, port := rest, ""
	if i := strings.LastIndexByte(rest, ':'); i >= 0 {
		host, port = rest[:i], rest[i+1:]
	}
	scheme, host = strings.ToLower(scheme), strings.ToLower(host)

	switch {
	case scheme != "":
		if !schemeMatches(scheme, res.Scheme) {
			return false
		}
	case page != nil:
		if !schemeMatches(page.Scheme, res.Scheme) {
			return false
		}
	default:
		if res.Scheme != "http" && res.Scheme != "https" {
			return false
		}
	}

	resHost := strings.ToLower(res.Hostname())
	switch {
	case host == "*":
	case strings.HasPrefix(host, "*."):
		if !strings.HasSuffix(resHost, host[1:]) {
			return false
		}
	case host != resHost:
		return false
	}

	switch port {
	case "*":
	case "":
		if res.Port() != "" && res.Port() != defaultPort(res.Scheme) {
			return false
		}
	default:
		if port != effectivePort(res) {
			return false
		}
	}

	if path == "" || path == "/" {
		return true
	}
	resPath := res.EscapedPath()
	if strings.HasSuffix(path, "/") {
		return strings.HasPrefix(resPath, path)
	}
	return resPath == path
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	return defaultPort(u.Scheme)
}

func defaultPort(scheme string) string {
	switch scheme {
	case "http", "ws":
		return "80"
	case "https", "wss":
		return "443"
	case "ftp":
		return "21"
	}
	return ""
}

// AllowsInline reports whether inline content of kind (script-src or
// style-src) may run. 'unsafe-inline' is ignored when the directive also
// lists a nonce or hash.
func AllowsInline(directives []Directive, kind string) bool {
	d, ok := Effective(directives, kind)
	if !ok {
		return true
	}
	unsafeInline := false
	for _, src := range d.Sources {
		lower := strings.ToLower(src)
		switch {
		case lower == "'unsafe-inline'":
			unsafeInline = true
		case strings.HasPrefix(lower, "'nonce-"),
			strings.HasPrefix(lower, "'sha256-"),
			strings.HasPrefix(lower, "'sha384-"),
			strings.HasPrefix(lower, "'sha512-"):
			return false
		}
	}
	return unsafeInline
}
