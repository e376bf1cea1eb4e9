package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cspdemo/internal/csp"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print the policy header the server would send",
	Long: `Resolve the effective configuration (defaults, --config file, environment)
and print the Content-Security-Policy header it produces.`,
	Example: `  cspdemo policy
  REPORT_ONLY=false cspdemo policy -o header
  cspdemo policy --config demo.yaml -o json`,
	RunE: runPolicy,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.Flags().String("config", "", "Path to config file")
	policyCmd.Flags().StringP("output", "o", "table", "Output format (table, header, json)")
}

func runPolicy(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.Policy()
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output") //nolint:errcheck // flag registered above
	return writePolicy(cmd.OutOrStdout(), p, output)
}

func writePolicy(w io.Writer, p *csp.Policy, output string) error {
	name, value, ok := p.Header()
	switch output {
	case "header":
		if !ok {
			return nil
		}
		_, err := fmt.Fprintf(w, "%s: %s\n", name, value)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Mode       string          `json:"mode"`
			Header     string          `json:"header,omitempty"`
			Value      string          `json:"value,omitempty"`
			Directives []csp.Directive `json:"directives"`
		}{p.Mode(), name, value, p.Directives()})
	case "table", "":
		fmt.Fprintf(w, "Mode: %s\n", p.Mode()) //nolint:errcheck // best-effort output
		if !ok {
			fmt.Fprintln(w, "No policy header is sent.") //nolint:errcheck // best-effort output
			return nil
		}
		fmt.Fprintf(w, "Header: %s\n\n", name) //nolint:errcheck // best-effort output
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DIRECTIVE\tSOURCES") //nolint:errcheck // best-effort output
		for _, d := range p.Directives() {
			fmt.Fprintf(tw, "%s\t%s\n", d.Name, strings.Join(d.Sources, " ")) //nolint:errcheck // best-effort output
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

