package audit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ppiankov/cspdemo/internal/csp"
)

// maxPageBytes bounds how much of a page is read.
const maxPageBytes = 5 << 20

// Finding is the verdict for one resource.
type Finding struct {
	Resource
	Resolved string `json:"resolved,omitempty"`
	Allowed  bool   `json:"allowed"`
	Reason   string `json:"reason,omitempty"`
}

// Report summarizes an audited page.
type Report struct {
	Page     string    `json:"page"`
	Header   string    `json:"header,omitempty"`
	Policy   string    `json:"policy,omitempty"`
	Findings []Finding `json:"findings"`
}

// Violations returns the findings the policy would block or report.
func (r *Report) Violations() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if !f.Allowed {
			out = append(out, f)
		}
	}
	return out
}

// Enforced reports whether violations are blocked rather than only reported.
func (r *Report) Enforced() bool {
	return r.Header == csp.HeaderEnforce
}

// Check evaluates resources found on page against directives.
func Check(page *url.URL, resources []Resource, directives []csp.Directive) []Finding {
	out := make([]Finding, 0, len(resources))
	for _, res := range resources {
		f := Finding{Resource: res}
		if res.Inline {
			f.Allowed = csp.AllowsInline(directives, res.Kind)
			if !f.Allowed {
				f.Reason = fmt.Sprintf("inline %s not allowed by %s", res.Tag, governing(directives, res.Kind))
			}
			out = append(out, f)
			continue
		}

		ref, err := url.Parse(res.URL)
		if err != nil {
			f.Reason = fmt.Sprintf("unparseable url: %v", err)
			out = append(out, f)
			continue
		}
		abs := page.ResolveReference(ref)
		f.Resolved = abs.String()
		f.Allowed = csp.Allows(directives, res.Kind, abs, page)
		if !f.Allowed {
			f.Reason = "not allowed by " + governing(directives, res.Kind)
		}
		out = append(out, f)
	}
	return out
}

func governing(directives []csp.Directive, kind string) string {
	if d, ok := csp.Effective(directives, kind); ok {
		return d.Name
	}
	return kind
}

// Fetch retrieves pageURL, reads the CSP header it was served with and checks
// every resource on the page. An enforcing header takes precedence over a
// report-only one. A page served without a policy yields no violations.
func Fetch(ctx context.Context, client *http.Client, pageURL string) (*Report, error) {
	page, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page url: %w", err)
	}
	if page.Scheme != "http" && page.Scheme != "https" {
		return nil, fmt.Errorf("page url must be http or https, got %q", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, page.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	report := &Report{Page: page.String()}
	for _, name := range []string{csp.HeaderEnforce, csp.HeaderReportOnly} {
		if v := resp.Header.Get(name); v != "" {
			report.Header = name
			report.Policy = v
			break
		}
	}

	resources, err := Extract(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, err
	}
	report.Findings = Check(resp.Request.URL, resources, csp.Parse(report.Policy))
	return report, nil
}
