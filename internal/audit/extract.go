// Package audit checks the resources a page loads against the CSP it was
// served with.
package audit

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/cspdemo/internal/csp"
)

// Resource is a subresource reference found in a page. URL is empty for
// inline content.
type Resource struct {
	Kind   string `json:"kind"` // fetch directive governing the load
	Tag    string `json:"tag"`
	URL    string `json:"url,omitempty"`
	Inline bool   `json:"inline,omitempty"`
}

// Extract parses an HTML document and lists its scripts, stylesheets,
// images, frames and media in document order.
func Extract(r io.Reader) ([]Resource, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	var out []Resource
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if res, ok := resourceOf(n); ok {
				out = append(out, res)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out, nil
}

func resourceOf(n *html.Node) (Resource, bool) {
	switch n.Data {
	case "script":
		if src := attr(n, "src"); src != "" {
			return Resource{Kind: csp.ScriptSrc, Tag: n.Data, URL: src}, true
		}
		if !hasText(n) || !isJavaScript(attr(n, "type")) {
			return Resource{}, false
		}
		return Resource{Kind: csp.ScriptSrc, Tag: n.Data, Inline: true}, true
	case "style":
		if !hasText(n) {
			return Resource{}, false
		}
		return Resource{Kind: csp.StyleSrc, Tag: n.Data, Inline: true}, true
	case "link":
		href := attr(n, "href")
		if href == "" {
			return Resource{}, false
		}
		for _, rel := range strings.Fields(strings.ToLower(attr(n, "rel"))) {
			switch rel {
			case "stylesheet":
				return Resource{Kind: csp.StyleSrc, Tag: n.Data, URL: href}, true
			case "icon":
				return Resource{Kind: csp.ImgSrc, Tag: n.Data, URL: href}, true
			}
		}
	case "img":
		if src := attr(n, "src"); src != "" {
			return Resource{Kind: csp.ImgSrc, Tag: n.Data, URL: src}, true
		}
	case "iframe":
		if src := attr(n, "src"); src != "" {
			return Resource{Kind: csp.FrameSrc, Tag: n.Data, URL: src}, true
		}
	case "audio", "video", "source", "track":
		if src := attr(n, "src"); src != "" {
			return Resource{Kind: csp.MediaSrc, Tag: n.Data, URL: src}, true
		}
	case "object", "embed":
		src := attr(n, "data")
		if src == "" {
			src = attr(n, "src")
		}
		if src != "" {
			return Resource{Kind: csp.ObjectSrc, Tag: n.Data, URL: src}, true
		}
	}
	return Resource{}, false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func hasText(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" {
			return true
		}
	}
	return false
}

// isJavaScript reports whether a script type attribute denotes executable
// script. Data blocks such as application/json are not subject to script-src.
func isJavaScript(typ string) bool {
	switch strings.ToLower(typ) {
	case "", "text/javascript", "module", "application/javascript":
		return true
	}
	return false
}
