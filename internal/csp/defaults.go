package csp

// DefaultDirectives returns the demo directive table. It allows same-origin
// scripts and a few CDNs but not evil.example.org, which the checkout page
// loads to trigger a violation.
func DefaultDirectives() []Directive {
	return []Directive{
		{Name: "default-src", Sources: []string{"'self'"}},
		{Name: "script-src", Sources: []string{"'self'", "https://unpkg.com", "https://cdn.jsdelivr.net", "https://ajax.googleapis.com"}},
		{Name: "img-src", Sources: []string{"'self'", "https://picsum.photos", "data:"}},
		{Name: "font-src", Sources: []string{"'self'", "https://fonts.gstatic.com"}},
		{Name: "style-src", Sources: []string{"'self'", "'unsafe-inline'", "https://fonts.googleapis.com"}},
		{Name: "connect-src", Sources: []string{"'self'"}},
		{Name: "object-src", Sources: []string{"'none'"}},
		{Name: "base-uri", Sources: []string{"'self'"}},
		{Name: "frame-ancestors", Sources: []string{"'self'"}},
	}
}
