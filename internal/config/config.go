package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/cspdemo/internal/csp"
)

// Environment variables read by ApplyEnv.
const (
	EnvEnableCSP  = "ENABLE_APP_CSP"
	EnvReportOnly = "REPORT_ONLY"
	EnvPort       = "PORT"
)

// CSP holds the policy toggles and directive table.
type CSP struct {
	Enabled    bool            `yaml:"enabled"`    // default true
	ReportOnly bool            `yaml:"reportOnly"` // default true
	Directives []csp.Directive `yaml:"directives"` // default csp.DefaultDirectives()
}

// Config holds cspdemo runtime configuration.
type Config struct {
	ListenAddr  string `yaml:"listenAddr"`  // default "0.0.0.0:3000"
	MetricsPath string `yaml:"metricsPath"` // default "/metrics"
	CSP         CSP    `yaml:"csp"`
}

// Defaults returns a Config with the demo defaults: policy on, report-only.
func Defaults() *Config {
	return &Config{
		ListenAddr:  "0.0.0.0:3000",
		MetricsPath: "/metrics",
		CSP: CSP{
			Enabled:    true,
			ReportOnly: true,
			Directives: csp.DefaultDirectives(),
		},
	}
}

// Load reads a YAML config file and merges with defaults. A directives list
// in the file replaces the default table entirely.
func Load(path string) (*Config, error) {
	c := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return c, nil
}

// ParseToggle interprets an environment-style toggle. It is true unless the
// value is present and exactly "false".
func ParseToggle(value string, present bool) bool {
	return !present || value != "false"
}

// ApplyEnv overlays environment toggles on c. Unset variables leave the
// current values in place.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvEnableCSP); ok {
		c.CSP.Enabled = ParseToggle(v, true)
	}
	if v, ok := lookup(EnvReportOnly); ok {
		c.CSP.ReportOnly = ParseToggle(v, true)
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		c.ListenAddr = net.JoinHostPort("0.0.0.0", v)
	}
}

// Validate checks that the config values are sane.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listenAddr must not be empty")
	}
	if !strings.HasPrefix(c.MetricsPath, "/") {
		return fmt.Errorf("metricsPath must start with /, got %q", c.MetricsPath)
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy builds the immutable CSP policy described by c.
func (c *Config) Policy() (*csp.Policy, error) {
	p, err := csp.NewPolicy(c.CSP.Enabled, c.CSP.ReportOnly, c.CSP.Directives)
	if err != nil {
		return nil, fmt.Errorf("csp: %w", err)
	}
	return p, nil
}
