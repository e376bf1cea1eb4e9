package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cspdemo/internal/audit"
	"github.com/ppiankov/cspdemo/internal/report"
)

var auditCmd = &cobra.Command{
	Use:   "audit <url>",
	Short: "Check a page's resources against the policy it is served with",
	Long: `Fetch a page, read the Content-Security-Policy (or Report-Only) header from
the response, and list every script, stylesheet, image, frame and inline block
on the page together with whether the policy allows it.`,
	Example: `  cspdemo audit http://localhost:3000/checkout
  cspdemo audit --fail-on-violation -o json http://localhost:3000/profile
  cspdemo audit -o csv http://localhost:3000/checkout > findings.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().Duration("timeout", 10*time.Second, "HTTP request timeout")
	auditCmd.Flags().Bool("fail-on-violation", false, "Exit non-zero when any resource violates the policy")
	auditCmd.Flags().StringP("output", "o", "table", "Output format (table, json, csv)")
}

func runAudit(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")      //nolint:errcheck // flag registered above
	failOn, _ := cmd.Flags().GetBool("fail-on-violation") //nolint:errcheck // flag registered above
	output, _ := cmd.Flags().GetString("output")          //nolint:errcheck // flag registered above

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rep, err := audit.Fetch(ctx, &http.Client{Timeout: timeout}, args[0])
	if err != nil {
		return err
	}
	if err := writeReport(cmd.OutOrStdout(), rep, output); err != nil {
		return err
	}

	if n := len(rep.Violations()); failOn && n > 0 {
		return fmt.Errorf("%d resource(s) violate the policy", n)
	}
	return nil
}

func writeReport(w io.Writer, r *audit.Report, output string) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "csv":
		return report.WriteCSV(w, r)
	case "table", "":
	default:
		return fmt.Errorf("unknown output format %q", output)
	}

	fmt.Fprintf(w, "Page: %s\n", r.Page) //nolint:errcheck // best-effort output
	if r.Header == "" {
		fmt.Fprintln(w, "Policy: none (every resource loads)") //nolint:errcheck // best-effort output
	} else {
		fmt.Fprintf(w, "Policy: %s\n", r.Header) //nolint:errcheck // best-effort output
	}
	fmt.Fprintln(w) //nolint:errcheck // best-effort output

	blocked := "BLOCKED"
	if !r.Enforced() {
		blocked = "REPORTED"
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERDICT\tDIRECTIVE\tTAG\tRESOURCE") //nolint:errcheck // best-effort output
	for _, f := range r.Findings {
		verdict := "ok"
		if !f.Allowed {
			verdict = blocked
		}
		resource := f.Resolved
		if f.Inline {
			resource = "(inline)"
		} else if resource == "" {
			resource = f.URL
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", verdict, f.Kind, f.Tag, resource) //nolint:errcheck // best-effort output
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d resource(s), %d violation(s)\n", len(r.Findings), len(r.Violations())) //nolint:errcheck // best-effort output
	return nil
}
