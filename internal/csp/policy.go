// Package csp decides whether and how a Content-Security-Policy header is
// attached to HTTP responses.
package csp

import (
	"fmt"
	"net/http"
	"strings"
)

// Header names.
const (
	HeaderEnforce    = "Content-Security-Policy"
	HeaderReportOnly = "Content-Security-Policy-Report-Only"
)

// Mode labels used in logs, metrics and the policy API.
const (
	ModeOff        = "off"
	ModeReportOnly = "report-only"
	ModeEnforce    = "enforce"
)

// Directive is a single CSP rule mapping a fetch category to its allowed sources.
type Directive struct {
	Name    string   `yaml:"name" json:"name"`
	Sources []string `yaml:"sources" json:"sources"`
}

// String renders the directive as "<name> <src1> <src2> ...".
func (d Directive) String() string {
	return d.Name + " " + strings.Join(d.Sources, " ")
}

// Policy is an immutable, validated CSP configuration.
type Policy struct {
	enabled    bool
	reportOnly bool
	directives []Directive
	value      string
}

// NewPolicy validates the directive table and builds a Policy. The table is
// validated even when the policy is disabled.
func NewPolicy(enabled, reportOnly bool, directives []Directive) (*Policy, error) {
	if err := validate(directives); err != nil {
		return nil, err
	}
	if enabled && len(directives) == 0 {
		return nil, fmt.Errorf("enabled policy has no directives")
	}

	own := make([]Directive, len(directives))
	for i, d := range directives {
		own[i] = Directive{Name: d.Name, Sources: append([]string(nil), d.Sources...)}
	}
	return &Policy{
		enabled:    enabled,
		reportOnly: reportOnly,
		directives: own,
		value:      Render(own),
	}, nil
}

func validate(directives []Directive) error {
	seen := make(map[string]bool, len(directives))
	for i, d := range directives {
		if d.Name == "" {
			return fmt.Errorf("directives[%d]: empty name", i)
		}
		if !validName(d.Name) {
			return fmt.Errorf("directives[%d] %q: name must match [a-z-]+", i, d.Name)
		}
		if seen[d.Name] {
			return fmt.Errorf("directives[%d] %q: duplicate directive", i, d.Name)
		}
		seen[d.Name] = true
		if len(d.Sources) == 0 {
			return fmt.Errorf("directives[%d] %q: empty source list", i, d.Name)
		}
		for j, s := range d.Sources {
			if s == "" {
				return fmt.Errorf("directives[%d] %q: sources[%d] is empty", i, d.Name, j)
			}
			if strings.ContainsAny(s, " \t\r\n;,") {
				return fmt.Errorf("directives[%d] %q: source %q contains a separator", i, d.Name, s)
			}
		}
	}
	return nil
}

func validName(name string) bool {
	for _, r := range name {
		if (r < 'a' || r > 'z') && r != '-' {
			return false
		}
	}
	return true
}

// Render joins directives in declaration order with "; ".
func Render(directives []Directive) string {
	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, "; ")
}

// Enabled reports whether any header is emitted.
func (p *Policy) Enabled() bool { return p.enabled }

// ReportOnly reports whether the emitted header is advisory.
func (p *Policy) ReportOnly() bool { return p.reportOnly }

// Directives returns a copy of the directive table.
func (p *Policy) Directives() []Directive {
	out := make([]Directive, len(p.directives))
	for i, d := range p.directives {
		out[i] = Directive{Name: d.Name, Sources: append([]string(nil), d.Sources...)}
	}
	return out
}

// Mode returns one of ModeOff, ModeReportOnly or ModeEnforce.
func (p *Policy) Mode() string {
	switch {
	case !p.enabled:
		return ModeOff
	case p.reportOnly:
		return ModeReportOnly
	default:
		return ModeEnforce
	}
}

// Header returns the header to attach. ok is false when the policy is disabled.
func (p *Policy) Header() (name, value string, ok bool) {
	if !p.enabled {
		return "", "", false
	}
	if p.reportOnly {
		return HeaderReportOnly, p.value, true
	}
	return HeaderEnforce, p.value, true
}

// Apply sets the policy header on h, replacing any previous value and removing
// the header of the other mode. It reports whether a header was set.
func (p *Policy) Apply(h http.Header) bool {
	name, value, ok := p.Header()
	if !ok {
		return false
	}
	if name == HeaderEnforce {
		h.Del(HeaderReportOnly)
	} else {
		h.Del(HeaderEnforce)
	}
	h.Set(name, value)
	return true
}

// Middleware attaches the policy header before next runs.
func Middleware(p *Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p.Apply(w.Header())
			next.ServeHTTP(w, r)
		})
	}
}
