package csp

import "strings"

// Parse reads a serialized policy back into a directive table. Empty
// segments are skipped, names are lowercased, and a repeated directive is
// ignored after its first occurrence as browsers do. Valueless directives
// such as upgrade-insecure-requests are kept with nil Sources.
func Parse(value string) []Directive {
	var out []Directive
	seen := make(map[string]bool)
	for _, seg := range strings.Split(value, ";") {
		fields := strings.Fields(seg)
		if len(fields) == 0 {
			continue
		}
		name := strings.ToLower(fields[0])
		if seen[name] {
			continue
		}
		seen[name] = true
		d := Directive{Name: name}
		if len(fields) > 1 {
			d.Sources = fields[1:]
		}
		out = append(out, d)
	}
	return out
}

// Lookup returns the named directive from the table.
func Lookup(directives []Directive, name string) (Directive, bool) {
	for _, d := range directives {
		if d.Name == name {
			return d, true
		}
	}
	return Directive{}, false
}
