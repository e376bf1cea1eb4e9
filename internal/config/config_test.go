package config

import (
	"os"
	"strings"
	"testing"

	"github.com/ppiankov/cspdemo/internal/csp"
)

func TestDefaults(t *testing.T) {
	c := Defaults()
	if c.ListenAddr != "0.0.0.0:3000" {
		t.Errorf("expected 0.0.0.0:3000, got %s", c.ListenAddr)
	}
	if c.MetricsPath != "/metrics" {
		t.Errorf("expected /metrics, got %s", c.MetricsPath)
	}
	if !c.CSP.Enabled {
		t.Error("expected CSP enabled by default")
	}
	if !c.CSP.ReportOnly {
		t.Error("expected report-only by default")
	}
	if len(c.CSP.Directives) != 9 {
		t.Errorf("expected 9 default directives, got %d", len(c.CSP.Directives))
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestParseToggle(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		present bool
		want    bool
	}{
		{"absent", "", false, true},
		{"false", "false", true, false},
		{"true", "true", true, true},
		{"False is case-sensitive", "False", true, true},
		{"empty", "", true, true},
		{"FALSE", "FALSE", true, true},
		{"zero", "0", true, true},
		{"padded", " false", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseToggle(tt.value, tt.present); got != tt.want {
				t.Errorf("ParseToggle(%q, %v) = %v, want %v", tt.value, tt.present, got, tt.want)
			}
		})
	}
}

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name           string
		env            map[string]string
		wantEnabled    bool
		wantReportOnly bool
		wantListen     string
	}{
		{"empty env keeps defaults", map[string]string{}, true, true, "0.0.0.0:3000"},
		{"disable csp", map[string]string{EnvEnableCSP: "false"}, false, true, "0.0.0.0:3000"},
		{"enforce", map[string]string{EnvReportOnly: "false"}, true, false, "0.0.0.0:3000"},
		{"empty values are true", map[string]string{EnvEnableCSP: "", EnvReportOnly: ""}, true, true, "0.0.0.0:3000"},
		{"port", map[string]string{EnvPort: "8080"}, true, true, "0.0.0.0:8080"},
		{"empty port ignored", map[string]string{EnvPort: ""}, true, true, "0.0.0.0:3000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			c.ApplyEnv(envLookup(tt.env))
			if c.CSP.Enabled != tt.wantEnabled {
				t.Errorf("Enabled = %v, want %v", c.CSP.Enabled, tt.wantEnabled)
			}
			if c.CSP.ReportOnly != tt.wantReportOnly {
				t.Errorf("ReportOnly = %v, want %v", c.CSP.ReportOnly, tt.wantReportOnly)
			}
			if c.ListenAddr != tt.wantListen {
				t.Errorf("ListenAddr = %q, want %q", c.ListenAddr, tt.wantListen)
			}
		})
	}
}

func TestApplyEnv_OverridesFile(t *testing.T) {
	c := Defaults()
	c.CSP.Enabled = false
	c.CSP.ReportOnly = false
	c.ApplyEnv(envLookup(map[string]string{EnvEnableCSP: "true", EnvReportOnly: "yes"}))
	if !c.CSP.Enabled || !c.CSP.ReportOnly {
		t.Errorf("expected env to turn both toggles on, got %+v", c.CSP)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "cspdemo-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return f.Name()
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
listenAddr: ":9090"
metricsPath: "/prom"
csp:
  reportOnly: false
  directives:
    - name: default-src
      sources: ["'self'"]
    - name: script-src
      sources: ["'self'", "https://unpkg.com"]
`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.ListenAddr != ":9090" {
		t.Errorf("expected :9090, got %s", c.ListenAddr)
	}
	if c.MetricsPath != "/prom" {
		t.Errorf("expected /prom, got %s", c.MetricsPath)
	}
	// defaults should still apply for unset fields
	if !c.CSP.Enabled {
		t.Error("expected enabled default to survive")
	}
	if c.CSP.ReportOnly {
		t.Error("expected reportOnly false from file")
	}
	if len(c.CSP.Directives) != 2 {
		t.Fatalf("expected file directives to replace defaults, got %d", len(c.CSP.Directives))
	}

	p, err := c.Policy()
	if err != nil {
		t.Fatal(err)
	}
	name, value, ok := p.Header()
	if !ok || name != csp.HeaderEnforce {
		t.Errorf("header = %q (ok=%v), want %s", name, ok, csp.HeaderEnforce)
	}
	if value != "default-src 'self'; script-src 'self' https://unpkg.com" {
		t.Errorf("unexpected value %q", value)
	}
}

func TestLoad_EmptySourceList(t *testing.T) {
	path := writeConfig(t, `
csp:
  directives:
    - name: default-src
      sources: ["'self'"]
    - name: img-src
      sources: []
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for empty source list")
	}
	if !strings.Contains(err.Error(), `"img-src": empty source list`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_BadToggleType(t *testing.T) {
	path := writeConfig(t, `
csp:
  enabled: sometimes
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for non-boolean toggle")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	c := Defaults()
	c.ListenAddr = ""
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "listenAddr") {
		t.Errorf("expected listenAddr error, got %v", err)
	}

	c = Defaults()
	c.MetricsPath = "metrics"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "metricsPath") {
		t.Errorf("expected metricsPath error, got %v", err)
	}
}
